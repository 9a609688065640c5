package mocks

import (
	"context"
	"io"

	"trainingportal/internal/model"
	"trainingportal/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockMaterialService struct {
	mock.Mock
}

func (m *MockMaterialService) List(ctx context.Context) (*service.MaterialListResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MaterialListResult), args.Error(1)
}

func (m *MockMaterialService) Open(ctx context.Context, name string) (io.ReadCloser, *model.Material, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*model.Material), args.Error(2)
}

func (m *MockMaterialService) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}
