package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trainingportal/docs"
	"trainingportal/internal/bootstrap"
	"trainingportal/internal/config"
	"trainingportal/internal/database"
	"trainingportal/internal/database/migration"
	handlers "trainingportal/internal/http/handler"
	"trainingportal/internal/http/middleware"
	"trainingportal/internal/otel"
	"trainingportal/internal/repository"
	"trainingportal/internal/repository/postgres"
	"trainingportal/internal/repository/sqlite"
	"trainingportal/internal/repository/xlsx"
	"trainingportal/internal/service"
	"trainingportal/internal/storage"
)

// @title Training Portal API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// Materials store (local directory or S3-compatible bucket)
	store, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize materials store: %v", err)
	}
	if _, err := bootstrap.ExtractArchive(ctx, cfg.Materials.Archive, store, loc); err != nil {
		log.Fatalf("failed to unpack materials archive: %v", err)
	}

	// Access log backend
	var (
		db      *sql.DB
		logRepo repository.AccessLogRepository
	)
	switch cfg.AccessLog.Backend {
	case config.AccessLogBackendPostgres:
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		logRepo = postgres.NewAccessLogPostgres(db)
	case config.AccessLogBackendSQLite:
		// Not passed to the health check: the file is local to this process.
		sqliteDB, err := sqlite.Open(ctx, cfg.AccessLog)
		if err != nil {
			log.Fatalf("failed to open sqlite access log: %v", err)
		}
		defer sqliteDB.Close()
		logRepo = sqlite.NewAccessLogSQLite(sqliteDB)
	default:
		logRepo = xlsx.NewAccessLogXLSX(cfg.AccessLog.File)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	materialSvc := service.NewMaterialService(store)
	accessSvc, err := service.NewAccessService(logRepo, reg)
	if err != nil {
		log.Fatalf("failed to initialize access service: %v", err)
	}

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerWithWriter(os.Stdout, loc))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	handlers.RegisterRoutes(app, db, materialSvc, accessSvc, filepath.Base(cfg.AccessLog.File))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
