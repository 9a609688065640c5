package postgres

import (
	"context"
	"database/sql"
	"io"

	"trainingportal/internal/model"
	"trainingportal/internal/repository"
	"trainingportal/internal/spreadsheet"
)

// AccessLogPostgres is a PostgreSQL implementation of repository.AccessLogRepository.
// Each record is one INSERT, so concurrent writers never overwrite each other;
// the serial id keeps insertion order.
type AccessLogPostgres struct {
	db *sql.DB
}

// NewAccessLogPostgres creates a new AccessLogPostgres repository.
func NewAccessLogPostgres(db *sql.DB) *AccessLogPostgres {
	return &AccessLogPostgres{db: db}
}

var _ repository.AccessLogRepository = (*AccessLogPostgres)(nil)

// Append inserts a new access record row. Records the workbook export could
// not reproduce are refused before they reach the table.
func (r *AccessLogPostgres) Append(ctx context.Context, rec model.AccessRecord) error {
	if err := spreadsheet.Check(rec); err != nil {
		return err
	}
	const q = `
		INSERT INTO access_records (name, email, material)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, q, rec.Name, rec.Email, rec.Material)
	return err
}

// List returns every record in insertion order. An empty table is reported as
// ErrLogNotFound, matching a log file that has not been created yet.
func (r *AccessLogPostgres) List(ctx context.Context) ([]model.AccessRecord, error) {
	const q = `
		SELECT name, email, material
		FROM access_records
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AccessRecord, 0)
	for rows.Next() {
		var rec model.AccessRecord
		if err := rows.Scan(&rec.Name, &rec.Email, &rec.Material); err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrLogNotFound
	}
	return items, nil
}

// Export renders the table through the same workbook layout as the file backend.
func (r *AccessLogPostgres) Export(ctx context.Context, w io.Writer) error {
	records, err := r.List(ctx)
	if err != nil {
		return err
	}
	return spreadsheet.Write(w, records)
}
