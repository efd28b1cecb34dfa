// Package reconcile synchronizes one legacy table into the local datastore.
//
// A Synchronizer pulls the rows changed since the table's stored watermark
// (or every row in full mode), maps each row through the mapper package and
// upserts it with change detection:
//
//   - absent in the target: insert
//   - present and different: update only the changed fields
//   - present and equal: skip
//
// Change detection is a field-by-field structural comparison (Diff) that
// normalizes driver representations, so reordered keys, booleans stored as
// integers or timestamps read back in another zone never count as changes.
//
// # Failure Containment
//
// Each row is independent. A mapping or persistence failure is counted,
// sampled into SyncResult.ErrorSamples (bounded) and skipped; the table goes on
// with the next row. No transaction spans the table. Only failures before row
// processing starts (invalid descriptor, unreachable store, missing target
// entity) end the table early, as a *SetupError.
//
// # Watermarks
//
// Rows are processed in ascending watermark order. The committed watermark
// is the highest value among rows that did not fail, never lower than the
// stored one. When the batch was cut by the table's batch size, the trailing
// rows sharing the last value are committed on the next run instead.
//
// # Cancellation
//
// The context is checked between rows. A row in flight completes, the run is
// reported with the counts accumulated so far and the bookkeeping write is
// performed without the canceled context.
package reconcile
