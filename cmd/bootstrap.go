package cmd

import (
	"context"
	"fmt"

	"legacy-mirror/core/config"
	"legacy-mirror/core/database"
	"legacy-mirror/core/logger"
	"legacy-mirror/core/orchestrator"
	"legacy-mirror/core/reconcile"
	"legacy-mirror/core/registry"
	"legacy-mirror/core/source"
	"legacy-mirror/core/state"
	"legacy-mirror/core/storage"
	"legacy-mirror/core/target"
	"legacy-mirror/feature/integrity"
	"legacy-mirror/feature/legacy"
	syncfeature "legacy-mirror/feature/sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime holds the wired engine shared by every command.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	source   *gorm.DB
	target   *gorm.DB
	registry *registry.Registry
	state    *state.GormStore
	// storage is nil when no endpoint is configured.
	storage   storage.Client
	sync      *syncfeature.Service
	integrity *integrity.Service
}

// bootstrap loads the configuration and wires the engine.
func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logg}
	if err := rt.wire(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) wire(ctx context.Context) error {
	cfg := rt.cfg

	var err error
	if rt.source, err = database.Connect(cfg.Source); err != nil {
		return fmt.Errorf("source database: %w", err)
	}
	if rt.target, err = database.Connect(cfg.Target); err != nil {
		return fmt.Errorf("target database: %w", err)
	}

	catalog, err := legacy.Load(cfg.Sync.CatalogPath)
	if err != nil {
		return err
	}
	catalog.ApplyDefaultBatchSize(cfg.Sync.BatchSize)

	if rt.registry, err = catalog.Registry(); err != nil {
		return err
	}
	m, err := catalog.Mapper()
	if err != nil {
		return fmt.Errorf("failed to build mapper: %w", err)
	}

	rt.state = state.NewGormStore(rt.target)
	if err := rt.state.Migrate(ctx); err != nil {
		return err
	}

	var src source.Source = source.NewGormSource(rt.source)
	if cfg.Sync.SourceRPS > 0 {
		src = source.NewThrottled(src, cfg.Sync.SourceRPS, cfg.Sync.SourceBurst)
	}

	syncer := reconcile.NewSynchronizer(src, target.NewGormStore(rt.target), rt.state, m, cfg.Sync.Engine(), rt.logger)
	orch := orchestrator.New(rt.registry, syncer, rt.state, cfg.Sync.Orchestrator(), rt.logger)

	var archiver *syncfeature.Archiver
	if cfg.Storage.Enabled() {
		if rt.storage, err = storage.NewClient(cfg.Storage); err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, rt.storage, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			// Reports are optional; a missing bucket must not block synchronization
			rt.logger.Warn("Report archive unavailable", zap.Error(err))
		} else {
			archiver = syncfeature.NewArchiver(rt.storage, cfg.Storage.Bucket, cfg.Storage.ReportPrefix, rt.logger)
		}
	}

	defaults, err := cfg.Sync.Options()
	if err != nil {
		return err
	}
	rt.sync = syncfeature.NewService(orch, archiver, defaults, rt.logger)

	opts := []integrity.Option{
		integrity.WithState(rt.state),
		integrity.WithTouchColumn(cfg.Sync.TouchColumn),
	}
	if rt.storage != nil {
		opts = append(opts, integrity.WithStorage(rt.storage, cfg.Storage.Bucket))
	}
	rt.integrity = integrity.NewService(rt.target, rt.registry, rt.logger, opts...)
	return nil
}

// Close releases the database pools and flushes the logger.
func (rt *runtime) Close() {
	for _, db := range []*gorm.DB{rt.source, rt.target} {
		if db == nil {
			continue
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = rt.logger.Sync()
}
