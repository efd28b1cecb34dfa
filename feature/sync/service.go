package sync

import (
	"context"
	"errors"
	"fmt"

	"legacy-mirror/core/orchestrator"
	"legacy-mirror/core/reconcile"
	"legacy-mirror/core/registry"

	"go.uber.org/zap"
)

var (
	// ErrUnknownTable is returned for a table missing from the catalog.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownCategory is returned for a category no catalog table belongs to.
	ErrUnknownCategory = errors.New("unknown category")
)

// Service exposes the orchestrator to the HTTP handler, the scheduler and the CLI,
// and archives every run report.
type Service struct {
	orch     *orchestrator.Orchestrator
	archiver *Archiver
	defaults orchestrator.Options
	logger   *zap.Logger
}

// NewService creates a sync service. archiver may be nil.
func NewService(orch *orchestrator.Orchestrator, archiver *Archiver, defaults orchestrator.Options, logger *zap.Logger) *Service {
	if defaults.Mode == "" {
		defaults.Mode = reconcile.ModeIncremental
	}
	return &Service{
		orch:     orch,
		archiver: archiver,
		defaults: defaults,
		logger:   logger,
	}
}

// Defaults returns the configured run options.
func (s *Service) Defaults() orchestrator.Options {
	return s.defaults
}

// Sync runs a multi-table pass and archives its report.
func (s *Service) Sync(ctx context.Context, sel orchestrator.Selection, opts orchestrator.Options) (*reconcile.RunResult, error) {
	if len(sel.Tables) == 0 && sel.Category != "" && len(s.orch.Registry().ByCategory(sel.Category)) == 0 {
		return nil, fmt.Errorf("%w %q", ErrUnknownCategory, sel.Category)
	}
	run, err := s.orch.SyncMany(ctx, sel, opts)
	if err != nil {
		return nil, err
	}
	s.archive(ctx, run)
	return run, nil
}

// Retry re-runs the tables whose last run failed and archives the report.
func (s *Service) Retry(ctx context.Context, opts orchestrator.Options) (*reconcile.RunResult, error) {
	run, err := s.orch.RetryFailed(ctx, opts)
	if err != nil {
		return nil, err
	}
	if run.TotalTables > 0 {
		s.archive(ctx, run)
	}
	return run, nil
}

// SyncTable synchronizes one table, ignoring dependencies.
func (s *Service) SyncTable(ctx context.Context, table string, mode reconcile.Mode) (reconcile.SyncResult, error) {
	if _, ok := s.orch.Registry().Lookup(table); !ok {
		return reconcile.SyncResult{}, fmt.Errorf("%w %s", ErrUnknownTable, table)
	}
	if mode == "" {
		mode = s.defaults.Mode
	}
	return s.orch.SyncTable(ctx, table, mode)
}

// Status returns the global status snapshot.
func (s *Service) Status(ctx context.Context) (*orchestrator.GlobalStatus, error) {
	return s.orch.GetGlobalStatus(ctx)
}

// Tables returns the catalog grouped by level.
func (s *Service) Tables() []registry.Level {
	return s.orch.Registry().Levels()
}

// Reports lists archived run reports, newest first.
func (s *Service) Reports(ctx context.Context, limit int) ([]Report, error) {
	if s.archiver == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archiver.List(ctx, limit)
}

// Report fetches one archived run report.
func (s *Service) Report(ctx context.Context, key string) (*reconcile.RunResult, error) {
	if s.archiver == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archiver.Get(ctx, key)
}

// archive uploads the report. Failures are logged and never fail the run.
func (s *Service) archive(ctx context.Context, run *reconcile.RunResult) {
	if s.archiver == nil {
		return
	}
	key, err := s.archiver.Archive(context.WithoutCancel(ctx), run)
	if err != nil {
		s.logger.Error("Failed to archive run report", zap.String("run_id", run.RunID), zap.Error(err))
		return
	}
	s.logger.Info("Run report archived", zap.String("run_id", run.RunID), zap.String("key", key))
}
