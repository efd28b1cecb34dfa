package sync

import (
	"context"
	"testing"
	"time"

	"legacy-mirror/core/orchestrator"
	"legacy-mirror/core/reconcile"
	"legacy-mirror/core/registry"
	"legacy-mirror/core/state"
	"legacy-mirror/core/storage/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSyncer records every table run in the state store without touching a database.
type stubSyncer struct {
	st    state.Store
	fail  map[string]bool
	block chan struct{}
}

func (s *stubSyncer) SyncTable(ctx context.Context, desc registry.TableDescriptor, mode reconcile.Mode) (reconcile.SyncResult, error) {
	if s.block != nil {
		<-s.block
	}
	res := reconcile.SyncResult{
		Table:            desc.Name,
		Mode:             mode,
		Success:          !s.fail[desc.Name],
		RecordsProcessed: 2,
		RecordsInserted:  2,
		ErrorSamples:     []string{},
	}
	now := time.Now()
	run := state.Run{Table: desc.Name, Success: res.Success, FinishedAt: now}
	if res.Success {
		run.NewWatermark = &now
	} else {
		res.RecordsInserted = 1
		res.RecordsProcessed = 1
		res.ErrorCount = 1
		res.ErrorSamples = []string{"persistence " + desc.Name + "[2]: boom"}
		run.ErrorSummary = "1 error"
	}
	_, _ = s.st.RecordRun(context.WithoutCancel(ctx), run)
	return res, nil
}

type fixture struct {
	service *Service
	syncer  *stubSyncer
	state   *state.MemoryStore
	client  *mocks.Client
}

func newFixture(t *testing.T, withArchive bool) *fixture {
	t.Helper()
	reg, err := registry.New([]registry.TableDescriptor{
		{Name: "companies", Level: 0, Category: "core", Enabled: true},
		{Name: "customers", Level: 0, Category: "crm", Enabled: true},
		{Name: "projects", Level: 1, Category: "operations", Dependencies: []string{"companies", "customers"}, Enabled: true},
	})
	require.NoError(t, err)

	st := state.NewMemoryStore()
	syncer := &stubSyncer{st: st, fail: map[string]bool{}}
	orch := orchestrator.New(reg, syncer, st, orchestrator.Config{}, zap.NewNop())

	f := &fixture{syncer: syncer, state: st, client: new(mocks.Client)}
	var archiver *Archiver
	if withArchive {
		archiver = NewArchiver(f.client, "reports", "sync-reports", zap.NewNop())
	}
	f.service = NewService(orch, archiver, orchestrator.Options{}, zap.NewNop())
	return f
}
