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

	TicksTotal   prometheus.Counter
	TickPanics   prometheus.Counter
	TickDuration prometheus.Histogram
	Phase        prometheus.Gauge

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	AuxFetches      *prometheus.CounterVec // target=viewer|weather, outcome=resolved|failed
	CameraRecenters *prometheus.CounterVec // kind=eased|immediate

	TickInterval prometheus.Gauge // seconds
	StreamerMode prometheus.Gauge
}

func NewCollector(tickInterval time.Duration, streamerMode bool) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_ticks_total",
			Help: "Total playback ticks evaluated.",
		}),
		TickPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_tick_panics_total",
			Help: "Total panics recovered at the tick boundary.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_tick_duration_seconds",
			Help:    "Duration of playback tick computations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		Phase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_phase",
			Help: "Current playback phase (0=pre, 1=stop, 2=travel, 3=complete).",
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
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		AuxFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_aux_fetches_total",
			Help: "Auxiliary data fetches by target and outcome.",
		}, []string{"target", "outcome"}),
		CameraRecenters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_camera_recenters_total",
			Help: "Camera recenter commands by kind.",
		}, []string{"kind"}),
		TickInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_tick_interval_seconds",
			Help: "Configured tick interval in seconds.",
		}),
		StreamerMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_streamer_mode",
			Help: "1 if the viewer-ETA privacy toggle is on.",
		}),
	}

	reg.MustRegister(
		c.TicksTotal, c.TickPanics, c.TickDuration, c.Phase,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.AuxFetches, c.CameraRecenters,
		c.TickInterval, c.StreamerMode,
	)

	c.TickInterval.Set(tickInterval.Seconds())
	if streamerMode {
		c.StreamerMode.Set(1)
	}

	return c
}

// AuxFetchInc satisfies auxdata.Metrics.
func (c *Collector) AuxFetchInc(target, outcome string) {
	c.AuxFetches.WithLabelValues(target, outcome).Inc()
}

// CameraRecenterInc satisfies camera.Metrics.
func (c *Collector) CameraRecenterInc(kind string) {
	c.CameraRecenters.WithLabelValues(kind).Inc()
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "err", err)
		}
	}()
	slog.Info("metrics listening", "addr", addr)
	return srv
}
