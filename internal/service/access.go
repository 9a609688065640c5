package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trainingportal/internal/model"
	"trainingportal/internal/repository"
)

// ErrLogNotFound is returned when nothing has been recorded yet.
var ErrLogNotFound = errors.New("no access log available yet")

// User-facing messages returned in AccessResult.
const (
	MsgIdentityRequired = "Please enter both Name and Email."
	msgRecordedFmt      = "Access recorded for %s."
)

// AccessResult reports the outcome of a record attempt.
// Success=false means the input was rejected and nothing was written.
type AccessResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AccessLogResult is the admin view of the log.
type AccessLogResult struct {
	Items     []model.AccessRecord `json:"data"`
	Total     int                  `json:"total"`
	Available bool                 `json:"available"`
}

// AccessService defines the use cases around the access log.
type AccessService interface {
	// Record validates the identity and appends {name, email, material} to the log.
	// Blank name or email is not an error: it yields Success=false and leaves the log untouched.
	// Persistence failures are returned as errors.
	Record(ctx context.Context, name, email, material string) (*AccessResult, error)

	// Log returns every record in insertion order; Available is false when no log exists yet.
	Log(ctx context.Context) (*AccessLogResult, error)

	// ExportLog writes the log workbook to w, or returns ErrLogNotFound.
	ExportLog(ctx context.Context, w io.Writer) error
}

type accessService struct {
	repo    repository.AccessLogRepository
	records *prometheus.CounterVec
	tracer  trace.Tracer
}

// NewAccessService constructs a new AccessService. When reg is non-nil the
// access_records_total counter is registered with it.
func NewAccessService(repo repository.AccessLogRepository, reg prometheus.Registerer) (AccessService, error) {
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_records_total",
			Help: "Access record attempts by outcome (recorded, rejected, failed).",
		},
		[]string{"outcome"},
	)
	if reg != nil {
		if err := reg.Register(records); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, fmt.Errorf("register access metrics: %w", err)
			}
			records = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}

	return &accessService{
		repo:    repo,
		records: records,
		tracer:  otel.Tracer("trainingportal/service"),
	}, nil
}

func (s *accessService) Record(ctx context.Context, name, email, material string) (*AccessResult, error) {
	ctx, span := s.tracer.Start(ctx, "AccessService.Record",
		trace.WithAttributes(attribute.String("material", material)))
	defer span.End()

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		s.records.WithLabelValues("rejected").Inc()
		span.SetAttributes(attribute.Bool("rejected", true))
		return &AccessResult{Success: false, Message: MsgIdentityRequired}, nil
	}

	rec := model.AccessRecord{Name: name, Email: email, Material: material}
	if err := s.repo.Append(ctx, rec); err != nil {
		s.records.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		return nil, fmt.Errorf("record access: %w", err)
	}

	s.records.WithLabelValues("recorded").Inc()
	return &AccessResult{Success: true, Message: fmt.Sprintf(msgRecordedFmt, name)}, nil
}

func (s *accessService) Log(ctx context.Context) (*AccessLogResult, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrLogNotFound) {
			return &AccessLogResult{Items: []model.AccessRecord{}, Total: 0, Available: false}, nil
		}
		return nil, fmt.Errorf("read access log: %w", err)
	}
	return &AccessLogResult{Items: items, Total: len(items), Available: true}, nil
}

func (s *accessService) ExportLog(ctx context.Context, w io.Writer) error {
	if err := s.repo.Export(ctx, w); err != nil {
		if errors.Is(err, repository.ErrLogNotFound) {
			return ErrLogNotFound
		}
		return fmt.Errorf("export access log: %w", err)
	}
	return nil
}
