// Package state persists the per-table synchronization bookkeeping: the last
// committed watermark, run counters, the last error summary and operator
// overrides kept as JSON metadata.
//
// GormStore keeps one row per table in the sync_watermarks table of the target
// database. Writes for the same table are serialized; writes for distinct
// tables run concurrently. MemoryStore offers the same contract in process.
//
// The engine never deletes a row. Reset is an operator action.
package state
