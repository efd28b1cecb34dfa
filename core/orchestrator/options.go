package orchestrator

import (
	"time"

	"legacy-mirror/core/reconcile"
)

// DefaultMaxParallel caps concurrent tables per level when none is given.
const DefaultMaxParallel = 4

// Selection picks the tables of a run. Explicit Tables win over Category;
// when both are empty every enabled table is selected.
type Selection struct {
	Tables   []string `json:"tables,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Options controls one orchestrated run.
type Options struct {
	// Mode is the sync mode passed to every table.
	Mode reconcile.Mode `json:"mode"`

	// Parallel runs the tables of a level concurrently.
	Parallel bool `json:"parallel"`

	// MaxParallel bounds concurrent tables per level. It is an upper bound:
	// a smaller connection pool caps real concurrency further.
	MaxParallel int `json:"max_parallel"`

	// SkipDependencyCheck runs tables even when dependencies were never synchronized.
	SkipDependencyCheck bool `json:"skip_dependency_check"`

	// Force includes disabled tables.
	Force bool `json:"force"`
}

// Config holds the defaults an Orchestrator falls back to.
type Config struct {
	// MaxParallel is used when Options.MaxParallel is zero.
	MaxParallel int
	// StatusTTL is how long GetGlobalStatus snapshots are reused; zero disables caching.
	StatusTTL time.Duration
}
