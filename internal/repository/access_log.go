// Package repository contains the access log persistence abstraction.
// Implementations live in subpackages (xlsx, postgres, sqlite).
package repository

import (
	"context"
	"errors"
	"io"

	"trainingportal/internal/model"
)

// ErrLogNotFound is returned by List and Export before the first record is appended.
var ErrLogNotFound = errors.New("access log not found")

// AccessLogRepository persists access records as an append-only, ordered log.
// Validation belongs to the service layer.
type AccessLogRepository interface {
	// Append adds rec after every record already in the log, creating the log if absent.
	Append(ctx context.Context, rec model.AccessRecord) error

	// List returns all records in insertion order, or ErrLogNotFound if nothing was logged yet.
	List(ctx context.Context) ([]model.AccessRecord, error)

	// Export writes the log as an .xlsx workbook to w, or returns ErrLogNotFound.
	Export(ctx context.Context, w io.Writer) error
}
