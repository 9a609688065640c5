package mocks

import (
	"context"
	"io"

	"trainingportal/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) Record(ctx context.Context, name, email, material string) (*service.AccessResult, error) {
	args := m.Called(ctx, name, email, material)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccessResult), args.Error(1)
}

func (m *MockAccessService) Log(ctx context.Context) (*service.AccessLogResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccessLogResult), args.Error(1)
}

// ExportLog runs an optional func(io.Writer) passed as the first return value,
// so tests can emit bytes into the response.
func (m *MockAccessService) ExportLog(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	if f, ok := args.Get(0).(func(io.Writer) error); ok {
		return f(w)
	}
	return args.Error(0)
}
