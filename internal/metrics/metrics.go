package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Refreshes     *prometheus.CounterVec // origin label: fetched|cached|default
	RefreshErrors prometheus.Counter     // live fetch failures that forced a fallback

	Walkers        prometheus.Gauge
	LeaderProgress prometheus.Gauge // 0..1
	TrailLength    prometheus.Gauge
	DataAge        prometheus.Gauge // seconds since the records were fetched

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	RefreshDuration prometheus.Histogram
	PublishDuration prometheus.Histogram

	RouteDistance   prometheus.Gauge
	RefreshInterval prometheus.Gauge // seconds
}

func NewCollector(routeDistance float64, refreshInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_refreshes_total",
			Help: "Progress refreshes by data origin.",
		}, []string{"origin"}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_live_fetch_errors_total",
			Help: "Live progress fetches that failed and fell back to cached or default data.",
		}),
		Walkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_walkers",
			Help: "Number of walkers in the latest snapshot.",
		}),
		LeaderProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_leader_progress_ratio",
			Help: "Progress fraction of the furthest walker.",
		}),
		TrailLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_trail_length",
			Help: "Arc length of the traveled trail in map units.",
		}),
		DataAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_data_age_seconds",
			Help: "Age of the progress records at the latest refresh.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_refresh_duration_seconds",
			Help:    "Duration of a full progress refresh.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		RouteDistance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_route_total_distance",
			Help: "Configured total journey distance.",
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_refresh_interval_seconds",
			Help: "Progress refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.Refreshes, c.RefreshErrors,
		c.Walkers, c.LeaderProgress, c.TrailLength, c.DataAge,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.RefreshDuration, c.PublishDuration,
		c.RouteDistance, c.RefreshInterval,
	)

	c.RouteDistance.Set(routeDistance)
	c.RefreshInterval.Set(refreshInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.String("error", err.Error()))
		}
	}()
	logger.Info("metrics listening", slog.String("addr", addr))
	return srv
}

// NATSPublishedInc and the methods below satisfy publisher.PublisherMetrics.
func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }
func (c *Collector) NATSSetConnected(b bool) {
	if b {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}
