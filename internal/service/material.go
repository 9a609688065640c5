package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"trainingportal/internal/model"
	"trainingportal/internal/storage"
)

var (
	ErrMaterialNotFound = errors.New("material not found")
	ErrMaterialRequired = errors.New("material is required")
)

// MaterialListResult is the service-level DTO for the material listing.
type MaterialListResult struct {
	Items []string `json:"data"`
	Total int      `json:"total"`
}

// MaterialService defines the use cases for browsing and downloading training materials.
type MaterialService interface {
	// List returns the names of all available materials in ascending order.
	// An empty store is not an error.
	List(ctx context.Context) (*MaterialListResult, error)

	// Open returns the material content. The caller must close the reader.
	// A material that is absent (or whose name cannot exist in the store) yields ErrMaterialNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, *model.Material, error)

	// Exists reports whether the material is currently present in the store.
	Exists(ctx context.Context, name string) (bool, error)
}

type materialService struct {
	store storage.Storage
}

// NewMaterialService constructs a new MaterialService.
func NewMaterialService(store storage.Storage) MaterialService {
	return &materialService{store: store}
}

func (s *materialService) List(ctx context.Context) (*MaterialListResult, error) {
	names, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return &MaterialListResult{Items: names, Total: len(names)}, nil
}

func (s *materialService) Open(ctx context.Context, name string) (io.ReadCloser, *model.Material, error) {
	if name == "" {
		return nil, nil, ErrMaterialRequired
	}
	rc, info, err := s.store.Get(ctx, name)
	if err != nil {
		if isMissing(err) {
			return nil, nil, ErrMaterialNotFound
		}
		return nil, nil, fmt.Errorf("open material: %w", err)
	}
	return rc, &model.Material{
		Name:         name,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func (s *materialService) Exists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	if _, err := s.store.Stat(ctx, name); err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat material: %w", err)
	}
	return true, nil
}

func isMissing(err error) bool {
	return errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidName)
}
