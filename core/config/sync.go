package config

import (
	"time"

	"legacy-mirror/core/orchestrator"
	"legacy-mirror/core/reconcile"
)

// SyncConfig holds the sync engine settings.
type SyncConfig struct {
	// Mode is the default sync mode (incremental or full).
	Mode string `mapstructure:"mode" default:"incremental"`
	// BatchSize applies to catalog tables that declare none; 0 is unbounded.
	BatchSize int `mapstructure:"batch_size" default:"0"`
	// Parallel runs the tables of a level concurrently by default.
	Parallel bool `mapstructure:"parallel" default:"false"`
	// MaxParallel caps concurrent tables per level.
	MaxParallel int `mapstructure:"max_parallel" default:"4"`
	// ErrorSampleLimit bounds the error samples kept per table.
	ErrorSampleLimit int `mapstructure:"error_sample_limit" default:"10"`
	// Interval schedules recurring incremental runs in the server; 0 disables.
	Interval time.Duration `mapstructure:"interval" default:"0s"`
	// SourceRPS limits source queries per second; 0 disables throttling.
	SourceRPS float64 `mapstructure:"source_rps" default:"0"`
	// SourceBurst is the throttle burst size.
	SourceBurst int `mapstructure:"source_burst" default:"1"`
	// TouchColumn is stamped with the sync time on every write when set.
	TouchColumn string `mapstructure:"touch_column" default:""`
	// CatalogPath replaces the embedded table catalog when set.
	CatalogPath string `mapstructure:"catalog_path" default:""`
	// StatusTTL is how long status snapshots are cached.
	StatusTTL time.Duration `mapstructure:"status_ttl" default:"5s"`
}

// Options converts the settings into default run options.
func (c SyncConfig) Options() (orchestrator.Options, error) {
	mode, err := reconcile.ParseMode(c.Mode)
	if err != nil {
		return orchestrator.Options{}, err
	}
	return orchestrator.Options{
		Mode:        mode,
		Parallel:    c.Parallel,
		MaxParallel: c.MaxParallel,
	}, nil
}

// Engine returns the synchronizer settings.
func (c SyncConfig) Engine() reconcile.Config {
	return reconcile.Config{
		ErrorSampleLimit: c.ErrorSampleLimit,
		TouchColumn:      c.TouchColumn,
	}
}

// Orchestrator returns the orchestrator settings.
func (c SyncConfig) Orchestrator() orchestrator.Config {
	return orchestrator.Config{
		MaxParallel: c.MaxParallel,
		StatusTTL:   c.StatusTTL,
	}
}
