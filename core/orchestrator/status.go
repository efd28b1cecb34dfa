package orchestrator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// TableStatus is the bookkeeping of one catalog table.
type TableStatus struct {
	Table            string     `json:"table"`
	Category         string     `json:"category"`
	Level            int        `json:"level"`
	Enabled          bool       `json:"enabled"`
	Dependencies     []string   `json:"dependencies"`
	LastSyncedAt     *time.Time `json:"last_synced_at"`
	LastRunAt        *time.Time `json:"last_run_at"`
	TotalRuns        int        `json:"total_runs"`
	SuccessfulRuns   int        `json:"successful_runs"`
	FailedRuns       int        `json:"failed_runs"`
	LastErrorSummary *string    `json:"last_error_summary"`
	Running          bool       `json:"running"`
}

// StatusTotals aggregates the table statuses.
type StatusTotals struct {
	Tables         int `json:"tables"`
	Synchronized   int `json:"synchronized"`
	NeverSynced    int `json:"never_synced"`
	WithErrors     int `json:"with_errors"`
	Running        int `json:"running"`
	TotalRuns      int `json:"total_runs"`
	SuccessfulRuns int `json:"successful_runs"`
	FailedRuns     int `json:"failed_runs"`
}

// GlobalStatus is the read-only status snapshot served to dashboards and the CLI.
type GlobalStatus struct {
	Tables      []TableStatus `json:"tables"`
	Totals      StatusTotals  `json:"totals"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// statusCache keeps the last snapshot for a TTL.
// Concurrent misses share one build through singleflight.
type statusCache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	snap  *GlobalStatus
	built time.Time
	sf    singleflight.Group
}

func (c *statusCache) expired() bool {
	if c.ttl == 0 || c.snap == nil {
		return true
	}
	return time.Since(c.built) > c.ttl
}

// get returns the cached snapshot or builds a new one.
func (c *statusCache) get(ctx context.Context, build func(context.Context) (*GlobalStatus, error)) (*GlobalStatus, error) {
	c.mu.RLock()
	if !c.expired() {
		snap := c.snap
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.sf.Do("status", func() (any, error) {
		// Double-check after winning the flight
		c.mu.RLock()
		if !c.expired() {
			snap := c.snap
			c.mu.RUnlock()
			return snap, nil
		}
		c.mu.RUnlock()

		snap, err := build(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.snap = snap
		c.built = time.Now()
		c.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*GlobalStatus), nil
}

// invalidate drops the cached snapshot.
func (c *statusCache) invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}
