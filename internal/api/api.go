// Package api serves the journey route, its curve and walker progress as JSON.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"

	"journey-tracker/internal/curve"
	"journey-tracker/internal/logging"
	"journey-tracker/internal/route"
	"journey-tracker/internal/tracker"
)

// Tracker is the part of tracker.Manager the API reads from.
type Tracker interface {
	Route() *route.Route
	Curve() *curve.Curve
	Snapshot() (tracker.Snapshot, bool)
	Walker(name string) (tracker.WalkerStatus, bool)
	Refresh(ctx context.Context) (tracker.Snapshot, error)
}

type Options struct {
	Tracker     Tracker
	JourneyName string
	Unit        string
	Viewport    curve.Viewport
	// RefreshPerMinute bounds POST /api/refresh; see newRefreshLimiter.
	RefreshPerMinute int
	Logger           *slog.Logger
	Now              func() time.Time
}

type API struct {
	tracker        Tracker
	journeyName    string
	unit           string
	viewport       curve.Viewport
	refreshLimiter *rate.Limiter
	logger         *slog.Logger
	now            func() time.Time
}

func New(opts Options) *API {
	api := &API{
		tracker:        opts.Tracker,
		journeyName:    opts.JourneyName,
		unit:           opts.Unit,
		viewport:       opts.Viewport,
		refreshLimiter: newRefreshLimiter(opts.RefreshPerMinute),
		logger:         opts.Logger,
		now:            opts.Now,
	}
	if api.viewport.Width <= 0 || api.viewport.Height <= 0 {
		api.viewport = curve.DefaultViewport
	}
	if api.logger == nil {
		api.logger = logging.Discard()
	}
	if api.now == nil {
		api.now = time.Now
	}
	return api
}

// Handler returns the routed API with request logging and compression.
func (api *API) Handler() http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)
	router.HandlerFunc(http.MethodGet, "/api/route", api.routeHandler)
	router.HandlerFunc(http.MethodGet, "/api/path", api.pathHandler)
	router.HandlerFunc(http.MethodGet, "/api/walkers", api.walkersHandler)
	router.HandlerFunc(http.MethodGet, "/api/walkers/:name", api.walkerHandler)
	router.HandlerFunc(http.MethodPost, "/api/refresh", api.rateLimited(api.refreshHandler))
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.sendError(w, r, http.StatusNotFound, "resource not found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.sendError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return NewRequestLoggingMiddleware(api.logger)(CompressionMiddleware(router))
}
