// Package tracker periodically loads walker progress and resolves every
// walker onto the journey route and its curve.
package tracker

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"journey-tracker/internal/curve"
	"journey-tracker/internal/feed"
	"journey-tracker/internal/logging"
	mmetrics "journey-tracker/internal/metrics"
	"journey-tracker/internal/publisher"
	"journey-tracker/internal/route"
)

// Loader supplies progress records; feed.Chain is the production implementation.
type Loader interface {
	Load(ctx context.Context) feed.Result
}

// Publisher receives one message per walker per refresh.
type Publisher interface {
	PublishPosition(msg publisher.PositionMessage) error
}

type Options struct {
	Route           *route.Route
	Curve           *curve.Curve
	Scene           curve.Scene
	Loader          Loader
	Publisher       Publisher           // optional
	Metrics         *mmetrics.Collector // optional
	Logger          *slog.Logger
	RefreshInterval time.Duration
	Now             func() time.Time
}

type Manager struct {
	route           *route.Route
	curve           *curve.Curve
	scene           curve.Scene
	loader          Loader
	pub             Publisher
	metrics         *mmetrics.Collector
	logger          *slog.Logger
	refreshInterval time.Duration
	now             func() time.Time

	refreshMu sync.Mutex // serializes Refresh

	mu       sync.RWMutex
	snapshot Snapshot
	ready    bool

	refreshCancel context.CancelFunc
	refreshWG     sync.WaitGroup
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		route:           opts.Route,
		curve:           opts.Curve,
		scene:           opts.Scene,
		loader:          opts.Loader,
		pub:             opts.Publisher,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		refreshInterval: opts.RefreshInterval,
		now:             opts.Now,
	}
	if m.logger == nil {
		m.logger = logging.Discard()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.scene == (curve.Scene{}) {
		m.scene = curve.DefaultScene
	}
	return m
}

func (m *Manager) Route() *route.Route { return m.route }

func (m *Manager) Curve() *curve.Curve { return m.curve }

// Snapshot returns the latest snapshot; ok is false before the first refresh.
func (m *Manager) Snapshot() (snap Snapshot, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot, m.ready
}

// Walker finds a walker in the latest snapshot by name, ignoring case.
func (m *Manager) Walker(name string) (WalkerStatus, bool) {
	snap, ok := m.Snapshot()
	if !ok {
		return WalkerStatus{}, false
	}
	for _, w := range snap.Walkers {
		if strings.EqualFold(w.Name, name) {
			return w, true
		}
	}
	return WalkerStatus{}, false
}

// Refresh loads progress, resolves every walker, stores and publishes the
// snapshot. It only fails when ctx ends first.
func (m *Manager) Refresh(ctx context.Context) (Snapshot, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	start := time.Now()
	res := m.loader.Load(ctx)
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	now := m.now()
	snap := BuildSnapshot(m.route, m.curve, m.scene, res, now)

	m.mu.Lock()
	m.snapshot = snap
	m.ready = true
	m.mu.Unlock()

	m.publish(snap)

	if m.metrics != nil {
		m.metrics.Refreshes.WithLabelValues(snap.Origin.String()).Inc()
		if res.Err != nil {
			m.metrics.RefreshErrors.Inc()
		}
		m.metrics.Walkers.Set(float64(len(snap.Walkers)))
		if snap.Leader != nil {
			m.metrics.LeaderProgress.Set(snap.Leader.Fraction)
		} else {
			m.metrics.LeaderProgress.Set(0)
		}
		m.metrics.TrailLength.Set(snap.TrailLength)
		if !res.At.IsZero() {
			m.metrics.DataAge.Set(now.Sub(res.At).Seconds())
		}
		m.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}

	attrs := []slog.Attr{
		slog.String("origin", snap.Origin.String()),
		slog.Int("walkers", len(snap.Walkers)),
		slog.Duration("duration", time.Since(start)),
	}
	if snap.Leader != nil {
		attrs = append(attrs,
			slog.String("leader", snap.Leader.Name),
			slog.String("location", snap.Leader.Current.Name),
			slog.Float64("percent", snap.Leader.Percent))
	}
	logging.LogOperation(m.logger, "progress refreshed", attrs...)
	return snap, nil
}

func (m *Manager) publish(snap Snapshot) {
	if m.pub == nil {
		return
	}
	for _, w := range snap.Walkers {
		msg := publisher.PositionMessage{
			Walker:      w.Name,
			Timestamp:   snap.UpdatedAt,
			Origin:      snap.Origin.String(),
			Distance:    w.Distance,
			Progress:    w.Fraction,
			Current:     w.Current.Name,
			Position:    w.Position,
			CurvePoint:  w.CurvePosition,
			TrailLength: w.TrailLength,
		}
		if w.Next != nil {
			msg.Next = w.Next.Name
		}
		if err := m.pub.PublishPosition(msg); err != nil {
			logging.LogError(m.logger, "publish error", err, slog.String("walker", w.Name))
		}
	}
}

// StartRefresher launches a background loop that refreshes immediately and
// then on every interval tick until Stop or ctx cancellation.
func (m *Manager) StartRefresher(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	m.refreshCancel = cancel
	m.refreshWG.Add(1)
	go func() {
		defer m.refreshWG.Done()
		// immediate refresh on start
		if _, err := m.Refresh(ctx); err != nil {
			return
		}
		if m.refreshInterval <= 0 {
			return
		}
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.Refresh(ctx); err != nil {
					m.logger.Debug("refresh interrupted", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

func (m *Manager) Stop() {
	if m.refreshCancel != nil {
		m.refreshCancel()
	}
	m.refreshWG.Wait()
}
