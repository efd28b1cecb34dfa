package integrity

import (
	"context"
	"errors"
	"fmt"

	"legacy-mirror/core/registry"
	"legacy-mirror/core/state"
	"legacy-mirror/core/storage"
	"legacy-mirror/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Report combines every integrity check.
type Report struct {
	Matched bool                  `json:"matched"`
	Schema  *checks.SchemaReport  `json:"schema"`
	Storage *checks.StorageReport `json:"storage"`
}

// Option configures a Service.
type Option func(*Service)

// WithState applies the operator overrides stored in the sync state before checking.
func WithState(st state.Store) Option {
	return func(s *Service) { s.state = st }
}

// WithTouchColumn requires the touch column in every target entity.
func WithTouchColumn(column string) Option {
	return func(s *Service) { s.touchColumn = column }
}

// WithStorage checks the report archive bucket.
func WithStorage(client storage.Client, bucket string) Option {
	return func(s *Service) {
		s.client = client
		s.bucket = bucket
	}
}

// Service handles integrity checks.
type Service struct {
	db       *gorm.DB
	registry *registry.Registry
	logger   *zap.Logger

	state       state.Store
	touchColumn string
	client      storage.Client
	bucket      string
}

// NewService creates a new integrity service checking the target database db.
func NewService(db *gorm.DB, reg *registry.Registry, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{db: db, registry: reg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// expectations returns what every enabled table needs from the target.
func (s *Service) expectations(ctx context.Context) ([]checks.Expectation, error) {
	var out []checks.Expectation
	for _, desc := range s.registry.Enabled() {
		if s.state != nil {
			w, err := s.state.Get(ctx, desc.Name)
			switch {
			case errors.Is(err, state.ErrNotFound):
			case err != nil:
				return nil, err
			default:
				o, err := w.Overrides()
				if err != nil {
					return nil, err
				}
				if desc, err = desc.Apply(o); err != nil {
					return nil, err
				}
			}
		}
		out = append(out, checks.Expectation{Descriptor: desc, TouchColumn: s.touchColumn})
	}
	return out, nil
}

// CheckSchema verifies the target entities of every enabled table.
func (s *Service) CheckSchema(ctx context.Context) (*checks.SchemaReport, error) {
	expected, err := s.expectations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve table descriptors: %w", err)
	}
	return checks.CheckSchema(ctx, s.db, expected)
}

// CheckStorage verifies the report archive bucket.
func (s *Service) CheckStorage(ctx context.Context) *checks.StorageReport {
	return checks.CheckStorage(ctx, s.client, s.bucket)
}

// Check runs every check.
func (s *Service) Check(ctx context.Context) (*Report, error) {
	schema, err := s.CheckSchema(ctx)
	if err != nil {
		return nil, err
	}
	store := s.CheckStorage(ctx)

	report := &Report{
		Schema:  schema,
		Storage: store,
		Matched: schema.Matched && store.Status != "error",
	}
	if !report.Matched {
		s.logger.Warn("Integrity check found problems",
			zap.Bool("schema_matched", schema.Matched),
			zap.String("storage_status", store.Status),
		)
	}
	return report, nil
}
