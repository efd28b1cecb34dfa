package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"legacy-mirror/core/registry"

	"gorm.io/datatypes"
)

// ErrNotFound is returned when a table has never been synchronized.
var ErrNotFound = errors.New("sync state not found")

// Watermark is the persisted bookkeeping row of one table.
type Watermark struct {
	// Table is the source table name.
	Table string `gorm:"column:table_name;primaryKey;size:128" json:"table"`
	// LastSyncedAt is the highest watermark value committed so far.
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
	// TotalRuns counts every recorded run.
	TotalRuns int `gorm:"column:total_runs;not null;default:0" json:"total_runs"`
	// SuccessfulRuns counts runs without errors.
	SuccessfulRuns int `gorm:"column:successful_runs;not null;default:0" json:"successful_runs"`
	// FailedRuns counts runs with at least one error.
	FailedRuns int `gorm:"column:failed_runs;not null;default:0" json:"failed_runs"`
	// LastErrorSummary is set by a failed run and cleared by a successful one.
	LastErrorSummary *string `gorm:"column:last_error_summary;type:text" json:"last_error_summary"`
	// Metadata holds operator overrides (primary_key, watermark_field, batch_size).
	Metadata datatypes.JSON `gorm:"column:metadata_json" json:"metadata,omitempty"`
	// LastRunAt is when the last run finished.
	LastRunAt *time.Time `gorm:"column:last_run_at" json:"last_run_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName pins the state table name.
func (Watermark) TableName() string {
	return "sync_watermarks"
}

// Overrides decodes the operator overrides stored in Metadata.
func (w *Watermark) Overrides() (registry.Overrides, error) {
	var o registry.Overrides
	if w == nil || len(w.Metadata) == 0 || string(w.Metadata) == "null" {
		return o, nil
	}
	if err := json.Unmarshal(w.Metadata, &o); err != nil {
		return o, fmt.Errorf("invalid metadata for table %s: %w", w.Table, err)
	}
	return o, nil
}

// Synced reports whether the table has committed a watermark at least once.
func (w *Watermark) Synced() bool {
	return w != nil && w.LastSyncedAt != nil
}

// Run is the outcome of one table synchronization, as recorded in the store.
type Run struct {
	Table string
	// NewWatermark advances LastSyncedAt when later than the stored value.
	NewWatermark *time.Time
	// Success marks a run without errors.
	Success bool
	// ErrorSummary is stored as LastErrorSummary on failure.
	ErrorSummary string
	FinishedAt   time.Time
}

// apply folds a run into w. LastSyncedAt never moves backwards.
func (w *Watermark) apply(run Run) {
	w.TotalRuns++
	if run.Success {
		w.SuccessfulRuns++
		w.LastErrorSummary = nil
	} else {
		w.FailedRuns++
		summary := run.ErrorSummary
		if summary == "" {
			summary = "unknown error"
		}
		w.LastErrorSummary = &summary
	}
	if run.NewWatermark != nil && (w.LastSyncedAt == nil || run.NewWatermark.After(*w.LastSyncedAt)) {
		t := run.NewWatermark.UTC()
		w.LastSyncedAt = &t
	}
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	finished = finished.UTC()
	w.LastRunAt = &finished
}

func encodeOverrides(o registry.Overrides) (datatypes.JSON, error) {
	if o.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
