package syncmanager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/grocery-core/pkg/store"
)

type fakeSyncer struct {
	mu      sync.Mutex
	enabled bool
	calls   int
	err     error
}

func (f *fakeSyncer) SyncOnce(ctx context.Context) (store.SyncReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return store.SyncReport{Expired: 1, SyncedAt: time.Now()}, f.err
}

func (f *fakeSyncer) SyncEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *fakeSyncer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestManager_RunOnceSkipsUntilEnabled(t *testing.T) {
	syncer := &fakeSyncer{}
	m := NewManager(syncer, "")
	defer m.Cleanup()

	_, err := m.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrSyncDisabled)
	assert.Zero(t, syncer.callCount())

	syncer.enabled = true
	report, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Expired)

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.Passes)
	assert.Equal(t, DefaultSchedule, stats.Schedule)
	require.NotNil(t, stats.LastReport)
}

func TestManager_RunOnceRecordsFailure(t *testing.T) {
	syncer := &fakeSyncer{enabled: true, err: errors.New("db locked")}
	m := NewManager(syncer, "")
	defer m.Cleanup()

	_, err := m.RunOnce(context.Background())
	require.Error(t, err)

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.Failures)
	assert.Equal(t, "db locked", stats.LastError)
}

func TestManager_InitializeRunsOnSchedule(t *testing.T) {
	syncer := &fakeSyncer{enabled: true}
	m := NewManager(syncer, "@every 1s")

	require.NoError(t, m.Initialize())
	require.NoError(t, m.Initialize())
	assert.True(t, m.Stats().Initialized)
	assert.NotNil(t, m.Stats().NextRun)

	assert.Eventually(t, func() bool { return syncer.callCount() >= 1 }, 3*time.Second, 20*time.Millisecond)

	m.Cleanup()
	m.Cleanup()
	calls := syncer.callCount()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, calls, syncer.callCount())
	assert.False(t, m.Stats().Initialized)
}

func TestManager_InvalidSchedule(t *testing.T) {
	m := NewManager(&fakeSyncer{}, "every now and then")
	defer m.Cleanup()
	assert.Error(t, m.Initialize())
}

func TestManager_NoSyncer(t *testing.T) {
	m := NewManager(nil, "")
	defer m.Cleanup()

	assert.ErrorIs(t, m.Initialize(), ErrNoSyncer)
	_, err := m.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrNoSyncer)
}
