// Package orchestrator runs multi-table synchronization passes.
//
// A run moves through planning, level-by-level execution and aggregation:
//
//  1. The selection (explicit tables, a category, or every enabled table)
//     is resolved against the registry and grouped by level.
//  2. Unless the dependency check is skipped, the set of tables with a
//     committed watermark is loaded from the state store. A table whose
//     dependencies are not all in that set is recorded as a
//     *reconcile.DependencyUnmetError and never attempted.
//  3. Each level runs sequentially, or with at most MaxParallel concurrent
//     tables when Parallel is set. After a level, its successful tables join
//     the synchronized set and its failed tables leave it, which gates the
//     dependents in later levels only.
//  4. Every table result is folded into a reconcile.RunResult.
//
// Cancelling the context stops dispatching; tables already running finish and
// the rest are listed in RunResult.NotStarted.
//
// RetryFailed re-runs every table whose last run left an error summary, with
// the dependency check skipped. GetGlobalStatus serves a cached snapshot of
// the state store joined with the catalog.
package orchestrator
