package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journey-tracker/internal/curve"
	"journey-tracker/internal/feed"
	mmetrics "journey-tracker/internal/metrics"
	"journey-tracker/internal/publisher"
)

type fakeLoader struct {
	res   feed.Result
	calls atomic.Int32
}

func (f *fakeLoader) Load(context.Context) feed.Result {
	f.calls.Add(1)
	return f.res
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []publisher.PositionMessage
	err  error
}

func (f *fakePublisher) PublishPosition(msg publisher.PositionMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakePublisher) messages() []publisher.PositionMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publisher.PositionMessage(nil), f.msgs...)
}

var refreshedAt = time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, loader Loader, pub Publisher, m *mmetrics.Collector, interval time.Duration) *Manager {
	t.Helper()
	r, c := testRoute(t)
	opts := Options{
		Route:           r,
		Curve:           c,
		Loader:          loader,
		Publisher:       pub,
		Metrics:         m,
		RefreshInterval: interval,
		Now:             func() time.Time { return refreshedAt },
	}
	return NewManager(opts)
}

func TestManagerRefresh(t *testing.T) {
	loader := &fakeLoader{res: feed.Result{
		Origin: feed.Cached,
		At:     refreshedAt.Add(-time.Hour),
		Err:    errors.New("sheet unavailable"),
		Records: []feed.Record{
			{Name: "Rosie", Steps: 458000},
			{Name: "Lily", Miles: 300},
		},
	}}
	pub := &fakePublisher{}
	collector := mmetrics.NewCollector(300, time.Minute)
	m := newTestManager(t, loader, pub, collector, time.Minute)

	_, ok := m.Snapshot()
	assert.False(t, ok)
	_, ok = m.Walker("rosie")
	assert.False(t, ok)

	snap, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, feed.Cached, snap.Origin)
	assert.Equal(t, refreshedAt, snap.UpdatedAt)
	require.NotNil(t, snap.Leader)
	assert.Equal(t, "Lily", snap.Leader.Name)

	stored, ok := m.Snapshot()
	require.True(t, ok)
	assert.Equal(t, snap, stored)

	w, ok := m.Walker("ROSIE")
	require.True(t, ok)
	assert.Equal(t, 229.0, w.Distance)
	assert.Equal(t, "Middle", w.Current.Name)
	_, ok = m.Walker("Frodo")
	assert.False(t, ok)

	msgs := pub.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Rosie", msgs[0].Walker)
	assert.Equal(t, "cached", msgs[0].Origin)
	assert.Equal(t, "End", msgs[0].Next)
	assert.Equal(t, refreshedAt, msgs[0].Timestamp)
	assert.Equal(t, "Lily", msgs[1].Walker)
	assert.Empty(t, msgs[1].Next)
	assert.Equal(t, 1.0, msgs[1].Progress)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Refreshes.WithLabelValues("cached")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.RefreshErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.Walkers))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.LeaderProgress))
	assert.Equal(t, 3600.0, testutil.ToFloat64(collector.DataAge))
}

func TestManagerRefreshPublishErrorIsNotFatal(t *testing.T) {
	loader := &fakeLoader{res: feed.Result{Origin: feed.Fetched, At: refreshedAt, Records: feed.DemoRecords()}}
	pub := &fakePublisher{err: errors.New("nats down")}
	m := newTestManager(t, loader, pub, nil, time.Minute)

	snap, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Walkers, 2)
	assert.Len(t, pub.messages(), 2)
}

func TestManagerRefreshCancelled(t *testing.T) {
	loader := &fakeLoader{res: feed.Result{Origin: feed.Default, Records: feed.DemoRecords()}}
	m := newTestManager(t, loader, nil, nil, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, ok := m.Snapshot()
	assert.False(t, ok)
}

func TestManagerStartRefresher(t *testing.T) {
	t.Run("refreshes immediately and on every tick", func(t *testing.T) {
		loader := &fakeLoader{res: feed.Result{Origin: feed.Default, Records: feed.DemoRecords()}}
		m := newTestManager(t, loader, nil, nil, 5*time.Millisecond)

		m.StartRefresher(context.Background())
		assert.Eventually(t, func() bool { return loader.calls.Load() >= 3 }, time.Second, time.Millisecond)
		m.Stop()

		calls := loader.calls.Load()
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, calls, loader.calls.Load())
	})

	t.Run("single refresh without interval", func(t *testing.T) {
		loader := &fakeLoader{res: feed.Result{Origin: feed.Default, Records: feed.DemoRecords()}}
		m := newTestManager(t, loader, nil, nil, 0)

		m.StartRefresher(context.Background())
		assert.Eventually(t, func() bool {
			_, ok := m.Snapshot()
			return ok
		}, time.Second, time.Millisecond)
		m.Stop()
		assert.Equal(t, int32(1), loader.calls.Load())
	})
}

func TestNewManagerDefaults(t *testing.T) {
	r, c := testRoute(t)
	m := NewManager(Options{Route: r, Curve: c, Loader: &fakeLoader{}})
	assert.Equal(t, curve.DefaultScene, m.scene)
	assert.NotNil(t, m.logger)
	assert.NotNil(t, m.now)
	assert.Same(t, r, m.Route())
	assert.Same(t, c, m.Curve())
	m.Stop()
}
