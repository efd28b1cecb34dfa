package reconcile

import (
	"fmt"
	"time"
)

// Mode selects how rows are pulled from the source.
type Mode string

const (
	// ModeIncremental pulls rows changed since the stored watermark.
	ModeIncremental Mode = "incremental"
	// ModeFull pulls every row, ignoring the stored watermark.
	ModeFull Mode = "full"
)

// ParseMode validates a mode name. An empty name means incremental.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeIncremental, "":
		return ModeIncremental, nil
	case ModeFull:
		return ModeFull, nil
	default:
		return "", fmt.Errorf("unknown sync mode %q (want incremental or full)", s)
	}
}

// SyncResult is the outcome of one table synchronization.
// Success is true iff ErrorCount is zero.
type SyncResult struct {
	// Table is the source table name.
	Table string `json:"table"`

	// Mode is the mode the table ran in.
	Mode Mode `json:"mode"`

	// Success is true when the run recorded no error.
	Success bool `json:"success"`

	// RecordsProcessed counts rows that were mapped and persisted or skipped.
	RecordsProcessed int `json:"records_processed"`

	// RecordsInserted counts new target records.
	RecordsInserted int `json:"records_inserted"`

	// RecordsUpdated counts target records whose content changed.
	RecordsUpdated int `json:"records_updated"`

	// RecordsSkipped counts rows whose target record was already up to date.
	RecordsSkipped int `json:"records_skipped"`

	// ErrorCount is the total number of errors, including those not sampled.
	ErrorCount int `json:"error_count"`

	// ErrorSamples holds the first errors, bounded by the configured limit.
	ErrorSamples []string `json:"error_samples"`

	// DurationMs is the wall time of the run in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// NewWatermark is the watermark committed by this run; nil when unchanged.
	NewWatermark *time.Time `json:"new_watermark"`

	// Canceled marks a run stopped between rows.
	Canceled bool `json:"canceled,omitempty"`

	// Err is the table-level failure (*SetupError or *DependencyUnmetError), if any.
	Err error `json:"-"`
}

// RunResult aggregates the table results of one orchestrated pass.
type RunResult struct {
	// RunID identifies the pass in logs and archived reports.
	RunID string `json:"run_id"`

	// Mode is the sync mode of the pass.
	Mode Mode `json:"mode"`

	// Success is true iff every attempted table succeeded, no table was
	// blocked by an unmet dependency and the pass was not canceled.
	Success bool `json:"success"`

	// TotalTables counts every table with a result.
	TotalTables int `json:"total_tables"`

	// SuccessfulTables counts tables with zero errors.
	SuccessfulTables int `json:"successful_tables"`

	// FailedTables counts tables with at least one error.
	FailedTables int `json:"failed_tables"`

	// Summed row counters across all tables.
	RecordsProcessed int `json:"records_processed"`
	RecordsInserted  int `json:"records_inserted"`
	RecordsUpdated   int `json:"records_updated"`
	RecordsSkipped   int `json:"records_skipped"`
	ErrorCount       int `json:"error_count"`

	// Tables holds one result per table, in execution order.
	Tables []SyncResult `json:"tables"`

	// NotStarted lists tables never dispatched because the pass was canceled.
	NotStarted []string `json:"not_started,omitempty"`

	// Canceled marks a pass stopped by its context.
	Canceled bool `json:"canceled,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
}

// Add folds one table result into the totals.
func (r *RunResult) Add(res SyncResult) {
	r.Tables = append(r.Tables, res)
	r.TotalTables++
	if res.Success {
		r.SuccessfulTables++
	} else {
		r.FailedTables++
	}
	r.RecordsProcessed += res.RecordsProcessed
	r.RecordsInserted += res.RecordsInserted
	r.RecordsUpdated += res.RecordsUpdated
	r.RecordsSkipped += res.RecordsSkipped
	r.ErrorCount += res.ErrorCount
}

// Result returns the result of one table, if it ran in this pass.
func (r *RunResult) Result(table string) (SyncResult, bool) {
	for _, t := range r.Tables {
		if t.Table == table {
			return t, true
		}
	}
	return SyncResult{}, false
}
