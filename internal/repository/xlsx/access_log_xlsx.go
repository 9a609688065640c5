package xlsx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"trainingportal/internal/model"
	"trainingportal/internal/repository"
	"trainingportal/internal/spreadsheet"
)

// AccessLogXLSX keeps the access log in a single spreadsheet file.
//
// Every Append reads the whole workbook, adds the record and rewrites the file.
// The read-modify-write runs under mu, so concurrent Appends within this process
// are serialized and none is lost. The rewrite goes to a temp file that is
// renamed over the log, so readers see either the old or the new log.
// Other processes writing the same file are not coordinated.
type AccessLogXLSX struct {
	path string
	mu   sync.Mutex
}

// NewAccessLogXLSX creates a repository for the log file at path.
// The file is not touched until the first Append.
func NewAccessLogXLSX(path string) *AccessLogXLSX {
	return &AccessLogXLSX{path: path}
}

var _ repository.AccessLogRepository = (*AccessLogXLSX)(nil)

// Path returns the log file location.
func (r *AccessLogXLSX) Path() string { return r.path }

// Append loads the current log (if any), appends rec and rewrites the file in full.
func (r *AccessLogXLSX) Append(ctx context.Context, rec model.AccessRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	records, err := r.load()
	switch {
	case errors.Is(err, repository.ErrLogNotFound):
		records = nil
	case err != nil:
		return err
	}

	records = append(records, rec)
	return r.save(records)
}

// List reads the log without taking the write lock; the atomic rename in save
// guarantees a consistent snapshot.
func (r *AccessLogXLSX) List(_ context.Context) ([]model.AccessRecord, error) {
	return r.load()
}

// Export streams the log file as stored on disk.
func (r *AccessLogXLSX) Export(_ context.Context, w io.Writer) error {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return repository.ErrLogNotFound
		}
		return fmt.Errorf("open access log: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("export access log: %w", err)
	}
	return nil
}

func (r *AccessLogXLSX) load() ([]model.AccessRecord, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repository.ErrLogNotFound
		}
		return nil, fmt.Errorf("read access log: %w", err)
	}

	records, err := spreadsheet.Read(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode access log %s: %w", r.path, err)
	}
	return records, nil
}

func (r *AccessLogXLSX) save(records []model.AccessRecord) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	// CreateTemp uses 0600; the log is meant to be picked up by spreadsheet tools.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp log: %w", err)
	}
	if err := spreadsheet.Write(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp log: %w", err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("replace access log: %w", err)
	}
	return nil
}
