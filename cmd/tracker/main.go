package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"journey-tracker/internal/auxdata"
	"journey-tracker/internal/camera"
	"journey-tracker/internal/config"
	"journey-tracker/internal/db"
	"journey-tracker/internal/logging"
	"journey-tracker/internal/metrics"
	"journey-tracker/internal/playback"
	"journey-tracker/internal/publisher"
	"journey-tracker/internal/route"
)

func main() {
	logging.Init()

	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		fatal("config error", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r, err := loadRoute(ctx, cfg)
	if err != nil {
		fatal("route load error", err)
	}
	slog.Info("route loaded", "waypoints", r.Len(), "source", cfg.RouteSource)

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.TickInterval, cfg.StreamerMode)
		srv := mcol.Serve(cfg.MetricsAddr)
		go func() {
			<-ctx.Done()
			shutdownCtx, scancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer scancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectBase, cfg.JourneyID, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
	if err != nil {
		fatal("nats error", err)
	}
	defer pub.Close()

	aux := auxdata.NewStore(cfg.GeolocateURL, cfg.WeatherURL, wrapAuxMetrics(mcol))

	cam := camera.New(publisher.NewMapPublisher(pub), camera.Config{
		LockedZoom:   cfg.LockedZoom,
		MinZoom:      cfg.MinZoom,
		MaxZoom:      cfg.MaxZoom,
		EaseDuration: 1500 * time.Millisecond,
	}, wrapCameraMetrics(mcol))

	session := playback.NewSession(cfg.StreamerMode, cfg.MusicEnabled, "")
	tl := playback.NewTimeline(r, cfg.RevealSequence, cfg.FinalSequence, cfg.FirstStopGrace)
	driver := playback.NewDriver(tl, cfg.TickInterval, cfg.RevealSequence, session, cam, aux, pub, mcol)

	// User-facing commands arrive over NATS and mutate only the session
	// toggles and camera lock; playback itself stays a pure function of time.
	sub, err := pub.SubscribeCommands(func(command string) {
		switch command {
		case "toggleFollow":
			slog.Info("camera follow toggled", "locked", cam.Toggle())
		case "toggleMusic":
			slog.Info("music toggled", "enabled", session.ToggleMusic())
		case "toggleStreamer":
			slog.Info("streamer mode toggled", "enabled", session.ToggleStreamer())
		default:
			slog.Debug("unknown command", "command", command)
		}
	})
	if err != nil {
		fatal("command subscription error", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal("playback error", err)
	}
	slog.Info("shutdown complete")
}

func loadRoute(ctx context.Context, cfg *config.Config) (*route.Route, error) {
	if cfg.RouteSource == "db" {
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer sqlDB.Close()
		if err := db.Ping(ctx, sqlDB); err != nil {
			return nil, err
		}
		return db.FetchRoute(ctx, sqlDB)
	}
	return route.LoadFile(cfg.RoutePath)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

// wrapPublisherMetrics adapts the Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}

func wrapAuxMetrics(c *metrics.Collector) auxdata.Metrics {
	if c == nil {
		return nil
	}
	return c
}

func wrapCameraMetrics(c *metrics.Collector) camera.Metrics {
	if c == nil {
		return nil
	}
	return c
}
