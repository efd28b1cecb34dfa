package sync

import (
	"testing"

	"legacy-mirror/core/orchestrator"
	"legacy-mirror/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncRequest_Options(t *testing.T) {
	base := orchestrator.Options{Mode: reconcile.ModeIncremental, Parallel: true, MaxParallel: 4}

	off := false
	opts, err := SyncRequest{Mode: "full", Parallel: &off, MaxParallel: 2, Force: true}.Options(base)
	require.NoError(t, err)
	assert.Equal(t, reconcile.ModeFull, opts.Mode)
	assert.False(t, opts.Parallel)
	assert.Equal(t, 2, opts.MaxParallel)
	assert.True(t, opts.Force)

	opts, err = SyncRequest{}.Options(base)
	require.NoError(t, err)
	assert.Equal(t, base.Mode, opts.Mode)
	assert.True(t, opts.Parallel)
	assert.Equal(t, 4, opts.MaxParallel)

	_, err = SyncRequest{Mode: "hourly"}.Options(base)
	assert.Error(t, err)
}
