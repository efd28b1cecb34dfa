package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"legacy-mirror/core/reconcile"
	"legacy-mirror/core/registry"
	"legacy-mirror/core/state"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TableSyncer synchronizes a single table. *reconcile.Synchronizer implements it.
type TableSyncer interface {
	SyncTable(ctx context.Context, desc registry.TableDescriptor, mode reconcile.Mode) (reconcile.SyncResult, error)
}

// Ensure the synchronizer satisfies the port.
var _ TableSyncer = (*reconcile.Synchronizer)(nil)

// Orchestrator runs coherent multi-table synchronization passes.
// Runs are independent: the set of synchronized tables is derived from the
// state store at the start of each run and carried as a plan value.
type Orchestrator struct {
	registry *registry.Registry
	syncer   TableSyncer
	state    state.Store
	cfg      Config
	logger   *zap.Logger

	mu      sync.Mutex
	running map[string]struct{}

	status *statusCache
}

// New creates an orchestrator.
func New(reg *registry.Registry, syncer TableSyncer, st state.Store, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		registry: reg,
		syncer:   syncer,
		state:    st,
		cfg:      cfg,
		logger:   logger,
		running:  make(map[string]struct{}),
		status:   &statusCache{ttl: cfg.StatusTTL},
	}
}

// Registry returns the table catalog.
func (o *Orchestrator) Registry() *registry.Registry {
	return o.registry
}

// acquire marks table as running. It fails when the table already runs.
func (o *Orchestrator) acquire(table string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.running[table]; busy {
		return false
	}
	o.running[table] = struct{}{}
	return true
}

func (o *Orchestrator) release(table string) {
	o.mu.Lock()
	delete(o.running, table)
	o.mu.Unlock()
}

// Running returns the tables currently being synchronized, sorted.
func (o *Orchestrator) Running() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.running))
	for t := range o.running {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SyncTable synchronizes one table by name, bypassing dependency checks.
func (o *Orchestrator) SyncTable(ctx context.Context, table string, mode reconcile.Mode) (reconcile.SyncResult, error) {
	desc, ok := o.registry.Lookup(table)
	if !ok {
		err := &reconcile.SetupError{Table: table, Err: fmt.Errorf("unknown table %s", table)}
		return failed(table, mode, err), err
	}
	res := o.runTable(ctx, desc, mode, o.logger)
	o.status.invalidate()
	return res, res.Err
}

// runTable guards a table against concurrent runs and synchronizes it.
func (o *Orchestrator) runTable(ctx context.Context, desc registry.TableDescriptor, mode reconcile.Mode, logger *zap.Logger) reconcile.SyncResult {
	if !o.acquire(desc.Name) {
		logger.Warn("Table already running", zap.String("table", desc.Name))
		return failed(desc.Name, mode, &reconcile.SetupError{Table: desc.Name, Err: reconcile.ErrAlreadyRunning})
	}
	defer o.release(desc.Name)

	// The synchronizer reports setup failures in the result as well
	res, _ := o.syncer.SyncTable(ctx, desc, mode)
	return res
}

// failed builds the result of a table that was never synchronized.
func failed(table string, mode reconcile.Mode, err error) reconcile.SyncResult {
	return reconcile.SyncResult{
		Table:        table,
		Mode:         mode,
		ErrorCount:   1,
		ErrorSamples: []string{err.Error()},
		Err:          err,
	}
}

// Plan is the outcome of the planning step of a run.
type Plan struct {
	// Levels holds the tables to run, grouped by ascending level.
	Levels []registry.Level
	// Rejected holds tables that failed planning (unknown, disabled).
	Rejected []reconcile.SyncResult
	// Synchronized is the set of tables with a committed watermark at the start.
	Synchronized map[string]struct{}
}

// Plan resolves a selection into levels and loads the synchronized set.
func (o *Orchestrator) Plan(ctx context.Context, sel Selection, opts Options) (*Plan, error) {
	p := &Plan{Synchronized: make(map[string]struct{})}

	var tables []registry.TableDescriptor
	switch {
	case len(sel.Tables) > 0:
		seen := make(map[string]struct{}, len(sel.Tables))
		for _, name := range sel.Tables {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			desc, ok := o.registry.Lookup(name)
			if !ok {
				p.Rejected = append(p.Rejected, failed(name, opts.Mode,
					&reconcile.SetupError{Table: name, Err: fmt.Errorf("unknown table %s", name)}))
				continue
			}
			if !desc.Enabled && !opts.Force {
				p.Rejected = append(p.Rejected, failed(name, opts.Mode,
					&reconcile.SetupError{Table: name, Err: fmt.Errorf("table %s is disabled", name)}))
				continue
			}
			tables = append(tables, desc)
		}
	case sel.Category != "":
		tables = o.registry.ByCategory(sel.Category)
		if len(tables) == 0 {
			return nil, fmt.Errorf("unknown category %q", sel.Category)
		}
	default:
		tables = o.registry.All()
	}

	if len(sel.Tables) == 0 && !opts.Force {
		enabled := tables[:0:0]
		for _, t := range tables {
			if t.Enabled {
				enabled = append(enabled, t)
			}
		}
		tables = enabled
	}

	p.Levels = registry.GroupByLevel(tables)

	if !opts.SkipDependencyCheck {
		synced, err := o.state.Synchronized(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load synchronized tables: %w", err)
		}
		p.Synchronized = synced
	}
	return p, nil
}

// SyncMany runs a multi-table pass. It returns an error only when planning
// fails; table failures are reported in the RunResult.
func (o *Orchestrator) SyncMany(ctx context.Context, sel Selection, opts Options) (*reconcile.RunResult, error) {
	if opts.Mode == "" {
		opts.Mode = reconcile.ModeIncremental
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = o.cfg.MaxParallel
	}

	run := &reconcile.RunResult{
		RunID:     uuid.NewString(),
		Mode:      opts.Mode,
		Tables:    []reconcile.SyncResult{},
		StartedAt: time.Now().UTC(),
	}
	logger := o.logger.With(zap.String("run_id", run.RunID), zap.String("mode", string(opts.Mode)))

	plan, err := o.Plan(ctx, sel, opts)
	if err != nil {
		logger.Error("Run planning failed", zap.Error(err))
		return nil, err
	}
	defer o.status.invalidate()

	for _, r := range plan.Rejected {
		logger.Warn("Table rejected", zap.String("table", r.Table), zap.Error(r.Err))
		run.Add(r)
	}

	logger.Info("Run started",
		zap.Int("levels", len(plan.Levels)),
		zap.Bool("parallel", opts.Parallel),
		zap.Int("max_parallel", opts.MaxParallel),
		zap.Bool("skip_dependency_check", opts.SkipDependencyCheck),
	)

	synced := plan.Synchronized
	for i, level := range plan.Levels {
		if ctx.Err() != nil {
			for _, rest := range plan.Levels[i:] {
				for _, t := range rest.Tables {
					run.NotStarted = append(run.NotStarted, t.Name)
				}
			}
			run.Canceled = true
			break
		}

		var eligible []registry.TableDescriptor
		for _, desc := range level.Tables {
			if !opts.SkipDependencyCheck {
				if missing := missingDependencies(desc, synced); len(missing) > 0 {
					depErr := &reconcile.DependencyUnmetError{Table: desc.Name, Missing: missing}
					logger.Warn("Dependency not synchronized", zap.String("table", desc.Name), zap.Strings("missing", missing))
					run.Add(failed(desc.Name, opts.Mode, depErr))
					continue
				}
			}
			eligible = append(eligible, desc)
		}

		results, notStarted := o.runLevel(ctx, eligible, opts, logger.With(zap.Int("level", level.Number)))
		for _, res := range results {
			run.Add(res)
			if res.Success {
				synced[res.Table] = struct{}{}
			} else {
				delete(synced, res.Table)
			}
		}
		if len(notStarted) > 0 {
			run.NotStarted = append(run.NotStarted, notStarted...)
			for _, rest := range plan.Levels[i+1:] {
				for _, t := range rest.Tables {
					run.NotStarted = append(run.NotStarted, t.Name)
				}
			}
			run.Canceled = true
			break
		}
	}

	if ctx.Err() != nil {
		run.Canceled = true
	}
	run.FinishedAt = time.Now().UTC()
	run.DurationMs = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	run.Success = run.FailedTables == 0 && !run.Canceled

	logger.Info("Run finished",
		zap.Bool("success", run.Success),
		zap.Int("tables", run.TotalTables),
		zap.Int("failed_tables", run.FailedTables),
		zap.Int("processed", run.RecordsProcessed),
		zap.Int("inserted", run.RecordsInserted),
		zap.Int("updated", run.RecordsUpdated),
		zap.Int("errors", run.ErrorCount),
		zap.Strings("not_started", run.NotStarted),
		zap.Int64("duration_ms", run.DurationMs),
	)
	return run, nil
}

func missingDependencies(desc registry.TableDescriptor, synced map[string]struct{}) []string {
	var missing []string
	for _, dep := range desc.Dependencies {
		if _, ok := synced[dep]; !ok {
			missing = append(missing, dep)
		}
	}
	return missing
}

// runLevel runs the eligible tables of one level, concurrently when asked
// and worthwhile. Tables are not dispatched once ctx is done; their names are
// returned as notStarted. Results keep the level's declaration order.
func (o *Orchestrator) runLevel(ctx context.Context, tables []registry.TableDescriptor, opts Options, logger *zap.Logger) ([]reconcile.SyncResult, []string) {
	results := make([]reconcile.SyncResult, len(tables))
	ran := make([]bool, len(tables))

	if !opts.Parallel || len(tables) < 2 {
		for i, desc := range tables {
			if ctx.Err() != nil {
				break
			}
			results[i] = o.runTable(ctx, desc, opts.Mode, logger)
			ran[i] = true
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opts.MaxParallel)
		for i, desc := range tables {
			if ctx.Err() != nil {
				break
			}
			// Go blocks while the limit is reached; the context may be done by the time a slot frees up
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				ran[i] = true
				results[i] = o.runTable(ctx, desc, opts.Mode, logger)
				return nil
			})
		}
		_ = g.Wait()
	}

	var done []reconcile.SyncResult
	var notStarted []string
	for i, desc := range tables {
		if ran[i] {
			done = append(done, results[i])
		} else {
			notStarted = append(notStarted, desc.Name)
		}
	}
	return done, notStarted
}

// RetryFailed re-runs every table whose last run recorded an error, with the
// dependency check skipped.
func (o *Orchestrator) RetryFailed(ctx context.Context, opts Options) (*reconcile.RunResult, error) {
	rows, err := o.state.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync state: %w", err)
	}

	var tables []string
	for _, w := range rows {
		if w.LastErrorSummary == nil {
			continue
		}
		if _, ok := o.registry.Lookup(w.Table); !ok {
			o.logger.Warn("Skipping failed table missing from catalog", zap.String("table", w.Table))
			continue
		}
		tables = append(tables, w.Table)
	}

	opts.SkipDependencyCheck = true
	opts.Force = true
	if len(tables) == 0 {
		now := time.Now().UTC()
		mode := opts.Mode
		if mode == "" {
			mode = reconcile.ModeIncremental
		}
		o.logger.Info("No failed tables to retry")
		return &reconcile.RunResult{
			RunID:      uuid.NewString(),
			Mode:       mode,
			Success:    true,
			Tables:     []reconcile.SyncResult{},
			StartedAt:  now,
			FinishedAt: now,
		}, nil
	}
	return o.SyncMany(ctx, Selection{Tables: tables}, opts)
}

// GetGlobalStatus returns per-table bookkeeping and aggregate counts.
// Snapshots are cached for Config.StatusTTL; the running flags are always live.
func (o *Orchestrator) GetGlobalStatus(ctx context.Context) (*GlobalStatus, error) {
	snap, err := o.status.get(ctx, o.buildStatus)
	if err != nil {
		return nil, err
	}

	out := *snap
	out.Tables = make([]TableStatus, len(snap.Tables))
	copy(out.Tables, snap.Tables)
	out.Totals.Running = 0

	running := make(map[string]struct{})
	for _, t := range o.Running() {
		running[t] = struct{}{}
	}
	for i := range out.Tables {
		_, busy := running[out.Tables[i].Table]
		out.Tables[i].Running = busy
		if busy {
			out.Totals.Running++
		}
	}
	return &out, nil
}

func (o *Orchestrator) buildStatus(ctx context.Context) (*GlobalStatus, error) {
	rows, err := o.state.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync state: %w", err)
	}
	byTable := make(map[string]state.Watermark, len(rows))
	for _, w := range rows {
		byTable[w.Table] = w
	}

	status := &GlobalStatus{GeneratedAt: time.Now().UTC()}
	for _, desc := range o.registry.Order() {
		ts := TableStatus{
			Table:        desc.Name,
			Category:     desc.Category,
			Level:        desc.Level,
			Enabled:      desc.Enabled,
			Dependencies: desc.Dependencies,
		}
		if w, ok := byTable[desc.Name]; ok {
			ts.LastSyncedAt = w.LastSyncedAt
			ts.LastRunAt = w.LastRunAt
			ts.TotalRuns = w.TotalRuns
			ts.SuccessfulRuns = w.SuccessfulRuns
			ts.FailedRuns = w.FailedRuns
			ts.LastErrorSummary = w.LastErrorSummary
		}

		status.Totals.Tables++
		if ts.LastSyncedAt != nil {
			status.Totals.Synchronized++
		} else {
			status.Totals.NeverSynced++
		}
		if ts.LastErrorSummary != nil {
			status.Totals.WithErrors++
		}
		status.Totals.TotalRuns += ts.TotalRuns
		status.Totals.SuccessfulRuns += ts.SuccessfulRuns
		status.Totals.FailedRuns += ts.FailedRuns
		status.Tables = append(status.Tables, ts)
	}
	return status, nil
}
