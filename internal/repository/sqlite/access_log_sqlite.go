package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	_ "modernc.org/sqlite"

	"trainingportal/internal/config"
	"trainingportal/internal/database"
	"trainingportal/internal/model"
	"trainingportal/internal/repository"
	"trainingportal/internal/spreadsheet"
)

const schema = `
CREATE TABLE IF NOT EXISTS access_records (
  id             INTEGER PRIMARY KEY AUTOINCREMENT,
  name           TEXT    NOT NULL,
  email          TEXT    NOT NULL,
  material       TEXT    NOT NULL,
  recorded_at_ms INTEGER NOT NULL
);`

// Open opens (creating if needed) the SQLite database at c.SQLitePath and
// ensures the access_records table exists. The pool is limited to one
// connection, so writes from this process are serialized by database/sql.
func Open(ctx context.Context, c config.AccessLogConfig) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(c.SQLitePath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn, err := database.BuildSQLiteDSN(c.SQLitePath, c.SQLiteBusyTimeoutMs)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, "sqlite", semconv.DBSystemKey.String("sqlite"), dsn, database.SQLitePool(c))
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure access_records: %w", err)
	}
	return db, nil
}

// AccessLogSQLite keeps the access log in an embedded SQLite database.
type AccessLogSQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewAccessLogSQLite wraps a database prepared by Open.
func NewAccessLogSQLite(db *sql.DB) *AccessLogSQLite {
	return &AccessLogSQLite{db: db, now: time.Now}
}

var _ repository.AccessLogRepository = (*AccessLogSQLite)(nil)

func (r *AccessLogSQLite) Append(ctx context.Context, rec model.AccessRecord) error {
	if err := spreadsheet.Check(rec); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO access_records(name, email, material, recorded_at_ms) VALUES (?, ?, ?, ?);
`, rec.Name, rec.Email, rec.Material, r.now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("append access record: %w", err)
	}
	return nil
}

// List returns records by id. An empty table reads as ErrLogNotFound.
func (r *AccessLogSQLite) List(ctx context.Context) ([]model.AccessRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT name, email, material FROM access_records ORDER BY id ASC;
`)
	if err != nil {
		return nil, fmt.Errorf("list access records: %w", err)
	}
	defer rows.Close()

	var out []model.AccessRecord
	for rows.Next() {
		var rec model.AccessRecord
		if err := rows.Scan(&rec.Name, &rec.Email, &rec.Material); err != nil {
			return nil, fmt.Errorf("scan access record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access records: %w", err)
	}
	if len(out) == 0 {
		return nil, repository.ErrLogNotFound
	}
	return out, nil
}

func (r *AccessLogSQLite) Export(ctx context.Context, w io.Writer) error {
	records, err := r.List(ctx)
	if err != nil {
		return err
	}
	return spreadsheet.Write(w, records)
}
