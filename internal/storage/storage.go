package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"trainingportal/internal/config"
)

// Package storage contains the materials store abstraction and its backends
// (local directory, S3-compatible bucket). The runtime only reads from the
// store; Put exists for the startup archive bootstrap.

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidName    = errors.New("invalid object name")
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage is the materials store. Objects are addressed by a single name
// (no nesting); List only reports regular objects.
type Storage interface {
	// List returns the names of all regular objects in ascending lexicographic order.
	List(ctx context.Context) ([]string, error)
	// Stat returns the object's info or ErrObjectNotFound.
	Stat(ctx context.Context, name string) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error)
	// Put stores an object under name, replacing any previous content.
	Put(ctx context.Context, name string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
}

// New builds the Storage selected by cfg.Materials.Backend.
func New(cfg *config.AppConfig) (Storage, error) {
	switch cfg.Materials.Backend {
	case config.MaterialsBackendMinIO:
		return NewMinIO(cfg.MinIO)
	case config.MaterialsBackendFS, "":
		return NewFilesystem(cfg.Materials.Dir)
	default:
		return nil, fmt.Errorf("unknown materials backend %q", cfg.Materials.Backend)
	}
}

// ValidName reports whether name addresses a single object directly inside the store.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
