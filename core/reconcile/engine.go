package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legacy-mirror/core/mapper"
	"legacy-mirror/core/registry"
	"legacy-mirror/core/source"
	"legacy-mirror/core/state"
	"legacy-mirror/core/target"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

// DefaultErrorSampleLimit bounds SyncResult.ErrorSamples when no limit is set.
const DefaultErrorSampleLimit = 10

// Config tunes a Synchronizer.
type Config struct {
	// ErrorSampleLimit bounds the error samples kept per table.
	ErrorSampleLimit int

	// TouchColumn, when set, is stamped with the sync time on every insert
	// and update and never counts as a change.
	TouchColumn string

	// Now overrides the clock; used by tests.
	Now func() time.Time
}

// Synchronizer runs the end-to-end synchronization of one table.
// It holds no per-run state and may serve concurrent tables.
type Synchronizer struct {
	source source.Source
	target target.Store
	state  state.Store
	mapper *mapper.Mapper
	cfg    Config
	logger *zap.Logger
}

// NewSynchronizer wires a synchronizer.
func NewSynchronizer(src source.Source, tgt target.Store, st state.Store, m *mapper.Mapper, cfg Config, logger *zap.Logger) *Synchronizer {
	if cfg.ErrorSampleLimit <= 0 {
		cfg.ErrorSampleLimit = DefaultErrorSampleLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{source: src, target: tgt, state: st, mapper: m, cfg: cfg, logger: logger}
}

// State exposes the sync state store.
func (s *Synchronizer) State() state.Store {
	return s.state
}

// run carries the bookkeeping of one table pass.
type run struct {
	desc    registry.TableDescriptor
	mode    Mode
	result  SyncResult
	limit   int
	exclude map[string]struct{}
	log     *zap.Logger

	maxWM   *time.Time // highest watermark among successful rows
	safeWM  *time.Time // highest successful watermark below maxWM
	lastRaw *time.Time // watermark of the last fetched row
}

func (r *run) fail(err error) {
	r.result.ErrorCount++
	if len(r.result.ErrorSamples) < r.limit {
		r.result.ErrorSamples = append(r.result.ErrorSamples, err.Error())
	}
}

// SyncTable synchronizes one table. The returned result is always complete;
// the error is non-nil only for a *SetupError, which is also stored in
// result.Err. Row failures are counted in the result, never returned.
func (s *Synchronizer) SyncTable(ctx context.Context, desc registry.TableDescriptor, mode Mode) (SyncResult, error) {
	started := s.cfg.Now()
	r := &run{
		desc:   desc,
		mode:   mode,
		result: SyncResult{Table: desc.Name, Mode: mode, ErrorSamples: []string{}},
		limit:  s.cfg.ErrorSampleLimit,
		log:    s.logger.With(zap.String("table", desc.Name), zap.String("mode", string(mode))),
	}

	prev, err := s.setup(ctx, r)
	if err != nil {
		setupErr := &SetupError{Table: desc.Name, Err: err}
		r.fail(setupErr)
		r.result.Err = setupErr
		r.result.DurationMs = s.cfg.Now().Sub(started).Milliseconds()
		r.log.Error("Table setup failed", zap.Error(err))
		s.record(ctx, r, nil)
		return r.result, setupErr
	}

	q := source.Query{
		Table:          r.desc.Name,
		WatermarkField: r.desc.WatermarkField,
		PrimaryKey:     r.desc.PrimaryKey,
		Limit:          r.desc.BatchSize,
	}
	if mode == ModeIncremental && prev != nil {
		q.Since = prev
	}

	rows, err := s.source.Fetch(ctx, q)
	if err != nil {
		setupErr := &SetupError{Table: desc.Name, Err: err}
		r.fail(setupErr)
		r.result.Err = setupErr
		r.result.DurationMs = s.cfg.Now().Sub(started).Milliseconds()
		r.log.Error("Source fetch failed", zap.Error(err))
		s.record(ctx, r, nil)
		return r.result, setupErr
	}

	r.log.Debug("Fetched source rows", zap.Int("rows", len(rows)), zap.Timep("since", q.Since))

	for i, row := range rows {
		if ctx.Err() != nil {
			r.result.Canceled = true
			r.fail(fmt.Errorf("%w after %d of %d rows", ErrCanceled, i, len(rows)))
			break
		}
		// A row in flight finishes even if the run is canceled meanwhile
		s.syncRow(context.WithoutCancel(ctx), r, row)
	}

	newWM := r.nextWatermark(prev, len(rows) == r.desc.BatchSize && r.desc.BatchSize > 0 && !r.result.Canceled)
	r.result.NewWatermark = newWM
	r.result.Success = r.result.ErrorCount == 0
	r.result.DurationMs = s.cfg.Now().Sub(started).Milliseconds()

	s.record(ctx, r, newWM)

	fields := []zap.Field{
		zap.Int("processed", r.result.RecordsProcessed),
		zap.Int("inserted", r.result.RecordsInserted),
		zap.Int("updated", r.result.RecordsUpdated),
		zap.Int("skipped", r.result.RecordsSkipped),
		zap.Int("errors", r.result.ErrorCount),
		zap.Int64("duration_ms", r.result.DurationMs),
	}
	if r.result.Success {
		r.log.Info("Table synchronized", fields...)
	} else {
		r.log.Warn("Table synchronized with errors", fields...)
	}
	return r.result, nil
}

// setup validates the descriptor, applies stored overrides and checks the
// target entity. It returns the stored watermark.
func (s *Synchronizer) setup(ctx context.Context, r *run) (*time.Time, error) {
	if r.desc.Name == "" {
		return nil, errors.New("descriptor has no table name")
	}
	if r.mode != ModeIncremental && r.mode != ModeFull {
		return nil, fmt.Errorf("unknown sync mode %q", r.mode)
	}

	var prev *time.Time
	wm, err := s.state.Get(ctx, r.desc.Name)
	switch {
	case errors.Is(err, state.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		prev = wm.LastSyncedAt
		o, err := wm.Overrides()
		if err != nil {
			return nil, err
		}
		if r.desc, err = r.desc.Apply(o); err != nil {
			return nil, err
		}
	}

	if r.desc.TargetEntity == "" || r.desc.PrimaryKey == "" || r.desc.WatermarkField == "" {
		return nil, errors.New("descriptor needs target entity, primary key and watermark field")
	}

	cols, err := s.target.Columns(ctx, r.desc.TargetEntity)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("target entity %s does not exist", r.desc.TargetEntity)
	}
	if _, ok := cols[r.desc.PrimaryKey]; !ok {
		return nil, fmt.Errorf("target entity %s has no primary key column %s", r.desc.TargetEntity, r.desc.PrimaryKey)
	}
	if s.cfg.TouchColumn != "" {
		if _, ok := cols[s.cfg.TouchColumn]; !ok {
			return nil, fmt.Errorf("target entity %s has no touch column %s", r.desc.TargetEntity, s.cfg.TouchColumn)
		}
	}

	r.exclude = make(map[string]struct{}, len(r.desc.DiffExclude)+1)
	for _, f := range r.desc.DiffExclude {
		r.exclude[f] = struct{}{}
	}
	if s.cfg.TouchColumn != "" {
		r.exclude[s.cfg.TouchColumn] = struct{}{}
	}
	return prev, nil
}

// syncRow maps one row and upserts it with change detection.
func (s *Synchronizer) syncRow(ctx context.Context, r *run, row mapper.SourceRecord) {
	wm, hasWM := s.watermarkOf(r, row)
	if hasWM {
		r.lastRaw = &wm
	}

	rec, err := s.mapper.Map(r.desc.Name, r.desc.PrimaryKey, row)
	if err != nil {
		rowErr := &RowError{Table: r.desc.Name, Kind: RowMapping, Err: err}
		var mapErr *mapper.Error
		if errors.As(err, &mapErr) {
			rowErr.Key = mapErr.Key
		}
		r.fail(rowErr)
		r.log.Warn("Row mapping failed", zap.Any("key", rowErr.Key), zap.Error(err))
		return
	}
	key := rec[r.desc.PrimaryKey]

	if err := s.upsert(ctx, r, key, rec); err != nil {
		r.fail(&RowError{Table: r.desc.Name, Kind: RowPersistence, Key: key, Err: err})
		r.log.Warn("Row persistence failed", zap.Any("key", key), zap.Error(err))
		return
	}

	r.result.RecordsProcessed++
	if hasWM && (r.maxWM == nil || wm.After(*r.maxWM)) {
		// Rows arrive in ascending order: the previous maximum is the
		// highest value strictly below the new one.
		r.safeWM = r.maxWM
		t := wm
		r.maxWM = &t
	}
}

func (s *Synchronizer) upsert(ctx context.Context, r *run, key any, rec mapper.TargetRecord) error {
	entity := r.desc.TargetEntity
	current, found, err := s.target.Find(ctx, entity, r.desc.PrimaryKey, key)
	if err != nil {
		return err
	}

	if !found {
		if s.cfg.TouchColumn != "" {
			rec[s.cfg.TouchColumn] = s.cfg.Now().UTC()
		}
		if err := s.target.Insert(ctx, entity, rec); err != nil {
			return err
		}
		r.result.RecordsInserted++
		return nil
	}

	changes := Diff(current, rec, r.exclude)
	if len(changes) == 0 {
		r.result.RecordsSkipped++
		return nil
	}
	if ce := r.log.Check(zap.DebugLevel, "Record changed"); ce != nil {
		ce.Write(zap.Any("key", key), zap.String("diff", cmp.Diff(map[string]any(current), map[string]any(rec))))
	}
	if s.cfg.TouchColumn != "" {
		changes[s.cfg.TouchColumn] = s.cfg.Now().UTC()
	}
	if err := s.target.Update(ctx, entity, r.desc.PrimaryKey, key, changes); err != nil {
		return err
	}
	r.result.RecordsUpdated++
	return nil
}

// watermarkOf reads the watermark value of a raw row.
func (s *Synchronizer) watermarkOf(r *run, row mapper.SourceRecord) (time.Time, bool) {
	raw, ok := row[r.desc.WatermarkField]
	if !ok {
		// Source column names may differ in case from the mapped name
		for k, v := range row {
			if s.mapper.NormalizeName(k) == r.desc.WatermarkField {
				raw, ok = v, true
				break
			}
		}
	}
	if !ok {
		return time.Time{}, false
	}
	return s.mapper.Coercer().Time(raw)
}

// nextWatermark returns the watermark to commit, or nil to keep prev.
// When the batch was truncated by the limit, rows sharing the last fetched
// watermark may continue past the limit, so the commit stops just before
// that value unless the whole batch shares it.
func (r *run) nextWatermark(prev *time.Time, truncated bool) *time.Time {
	next := r.maxWM
	if truncated && next != nil && r.lastRaw != nil && !next.Before(*r.lastRaw) {
		next = r.safeBelow(*r.lastRaw)
		if next == nil {
			next = r.maxWM
			r.log.Warn("Batch limit reached inside one watermark value, rows past the limit sharing it are skipped; raise batch_size",
				zap.Time("watermark", *next),
				zap.Int("batch_size", r.desc.BatchSize),
			)
		}
	}
	if next == nil {
		return nil
	}
	if prev != nil && !next.After(*prev) {
		return nil
	}
	t := next.UTC()
	return &t
}

func (r *run) safeBelow(limit time.Time) *time.Time {
	if r.safeWM != nil && r.safeWM.Before(limit) {
		return r.safeWM
	}
	return nil
}

// record persists the outcome. The write is not canceled with ctx so a
// canceled run still leaves consistent bookkeeping behind.
func (s *Synchronizer) record(ctx context.Context, r *run, newWM *time.Time) {
	out := state.Run{
		Table:        r.desc.Name,
		NewWatermark: newWM,
		Success:      r.result.ErrorCount == 0,
		FinishedAt:   s.cfg.Now(),
	}
	if !out.Success {
		out.ErrorSummary = summarize(r.result)
	}
	if _, err := s.state.RecordRun(context.WithoutCancel(ctx), out); err != nil {
		r.log.Error("Failed to record sync state", zap.Error(err))
		r.result.NewWatermark = nil
		if r.result.Err == nil {
			r.fail(fmt.Errorf("record sync state: %w", err))
			r.result.Success = false
		}
	}
}

func summarize(res SyncResult) string {
	if len(res.ErrorSamples) == 0 {
		return fmt.Sprintf("%d errors", res.ErrorCount)
	}
	if res.ErrorCount == 1 {
		return res.ErrorSamples[0]
	}
	return fmt.Sprintf("%d errors; first: %s", res.ErrorCount, res.ErrorSamples[0])
}
