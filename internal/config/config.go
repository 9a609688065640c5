package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Materials store backends.
const (
	MaterialsBackendFS    = "fs"
	MaterialsBackendMinIO = "minio"
)

// Access log backends.
const (
	AccessLogBackendXLSX     = "xlsx"
	AccessLogBackendPostgres = "postgres"
	AccessLogBackendSQLite   = "sqlite"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	// PingTimeoutSec bounds the connectivity check made at startup.
	PingTimeoutSec     int
}

// MinIOConfig holds object storage settings for MinIO.
// Prefix scopes the materials to a "directory" inside the bucket.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// MaterialsConfig describes where training materials live.
type MaterialsConfig struct {
	Backend string
	Dir     string
	// Archive is an optional zip unpacked into the store before the server starts.
	Archive string
}

// AccessLogConfig describes where access records are persisted.
type AccessLogConfig struct {
	Backend string
	File    string
	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath           string
	SQLiteBusyTimeoutMs  int
	SQLitePingTimeoutSec int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Timezone  string
	Materials MaterialsConfig
	AccessLog AccessLogConfig
	Database  DatabaseConfig
	MinIO     MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Materials: MaterialsConfig{
			Backend: getEnvChoice("MATERIALS_BACKEND", MaterialsBackendFS, MaterialsBackendFS, MaterialsBackendMinIO),
			Dir:     getEnv("MATERIALS_DIR", "materials"),
			Archive: getEnv("MATERIALS_ARCHIVE", ""),
		},
		AccessLog: AccessLogConfig{
			Backend:    getEnvChoice("ACCESS_LOG_BACKEND", AccessLogBackendXLSX, AccessLogBackendXLSX, AccessLogBackendPostgres, AccessLogBackendSQLite),
			File:       getEnv("ACCESS_LOG_FILE", "access_log.xlsx"),
			SQLitePath: getEnv("ACCESS_LOG_SQLITE_PATH", "data/access_log.db"),

			SQLiteBusyTimeoutMs:  getEnvInt("ACCESS_LOG_SQLITE_BUSY_TIMEOUT_MS", 5000),
			SQLitePingTimeoutSec: getEnvInt("ACCESS_LOG_SQLITE_PING_TIMEOUT_SEC", 3),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			PingTimeoutSec:     getEnvInt("DB_PING_TIMEOUT_SEC", 5),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			Prefix:    getEnv("MINIO_PREFIX", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

// Location resolves Timezone, falling back to UTC when it cannot be loaded.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvChoice returns the lower-cased value of key if it is one of allowed, def otherwise.
func getEnvChoice(key, def string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
