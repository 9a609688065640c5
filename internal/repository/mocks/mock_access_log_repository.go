package mocks

import (
	"context"
	"io"

	"trainingportal/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAccessLogRepository struct {
	mock.Mock
}

func (m *MockAccessLogRepository) Append(ctx context.Context, rec model.AccessRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockAccessLogRepository) List(ctx context.Context) ([]model.AccessRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessRecord), args.Error(1)
}

func (m *MockAccessLogRepository) Export(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}
