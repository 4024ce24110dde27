package playback

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"journey-tracker/internal/auxdata"
	"journey-tracker/internal/camera"
	"journey-tracker/internal/geo"
	"journey-tracker/internal/metrics"
)

const (
	weatherLoadingText = "loading..."
	weatherUnknownText = "unknown"
	kmPerMile          = 1.609344
)

// SessionState groups the user-facing toggles that used to be ambient
// globals. It is owned by the driver and handed to the presentation
// boundary by reference; toggles arrive from the command subscriber's
// goroutine, hence the atomics.
type SessionState struct {
	streamerMode atomic.Bool
	musicEnabled atomic.Bool
	MapStyle     string
}

func NewSession(streamerMode, musicEnabled bool, style string) *SessionState {
	s := &SessionState{MapStyle: style}
	s.streamerMode.Store(streamerMode)
	s.musicEnabled.Store(musicEnabled)
	return s
}

func (s *SessionState) StreamerMode() bool   { return s.streamerMode.Load() }
func (s *SessionState) MusicEnabled() bool   { return s.musicEnabled.Load() }
func (s *SessionState) ToggleStreamer() bool { return toggle(&s.streamerMode) }
func (s *SessionState) ToggleMusic() bool    { return toggle(&s.musicEnabled) }

func toggle(b *atomic.Bool) bool {
	for {
		old := b.Load()
		if b.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Publisher receives the composed HUD snapshot each tick.
type Publisher interface {
	PublishSnapshot(Snapshot) error
}

// Driver orchestrates one playback session: it owns the tick cadence,
// derives a fresh snapshot from wall-clock time on every tick, feeds the
// camera and hands the snapshot to the publisher. It is the sole writer
// to playback state; the only values carried between ticks are the speed
// baseline and the last known travel direction.
type Driver struct {
	tl        *Timeline
	interval  time.Duration
	revealSeq int
	session   *SessionState

	cam     *camera.Controller
	aux     *auxdata.Store
	pub     Publisher
	metrics *metrics.Collector

	now func() time.Time

	lastDir     *geo.Sector
	lastPos     geo.Point
	lastPosTime time.Time
	havePos     bool
}

func NewDriver(tl *Timeline, interval time.Duration, revealSeq int, session *SessionState, cam *camera.Controller, aux *auxdata.Store, pub Publisher, m *metrics.Collector) *Driver {
	if session == nil {
		session = NewSession(false, true, "")
	}
	return &Driver{
		tl:        tl,
		interval:  interval,
		revealSeq: revealSeq,
		session:   session,
		cam:       cam,
		aux:       aux,
		pub:       pub,
		metrics:   m,
		now:       time.Now,
	}
}

func (d *Driver) Session() *SessionState { return d.session }

// Run drives the tick loop until the context is cancelled. The first
// evaluation happens immediately; every failure inside a tick is caught
// here so the timer never stops.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	slog.Info("playback started", "interval", d.interval, "waypoints", d.tl.Route().Len())

	d.tickSafe(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("playback stopped")
			return ctx.Err()
		case <-ticker.C:
			d.tickSafe(ctx)
		}
	}
}

func (d *Driver) tickSafe(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tick panic recovered", "panic", r)
			if d.metrics != nil {
				d.metrics.TickPanics.Inc()
			}
		}
	}()

	start := time.Now()
	snap := d.Tick(ctx, d.now())
	if d.pub != nil {
		if err := d.pub.PublishSnapshot(snap); err != nil {
			slog.Warn("publish snapshot failed", "err", err)
		}
	}
	if d.metrics != nil {
		d.metrics.TicksTotal.Inc()
		d.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}

// Tick computes the snapshot for one instant. Exported for tests and for
// embedders that drive their own cadence.
func (d *Driver) Tick(ctx context.Context, now time.Time) Snapshot {
	seg := d.tl.Resolve(now)
	pos, posOK := d.tl.PositionAt(seg, now)
	prog := d.tl.ProgressAt(seg, now)

	d.updateDirection(seg)
	speedKmh := d.updateSpeed(pos, posOK, now)

	if d.cam != nil {
		d.cam.Track(pos, posOK)
	}

	anchor := d.tl.anchorIndex(seg)
	anchorWp := d.tl.Route().At(anchor)

	viewerText := d.viewerText(ctx, now)
	weatherText := d.weatherText(ctx, anchor)

	last, next := d.tl.lastNextText(seg, d.revealSeq)

	lat, lon := math.NaN(), math.NaN()
	if posOK {
		lat, lon = pos.Lat, pos.Lon
	}
	dirLabel := ""
	if d.lastDir != nil {
		dirLabel = d.lastDir.Label()
	}
	if d.metrics != nil {
		d.metrics.Phase.Set(float64(seg.Phase))
	}

	return Snapshot{
		Timestamp:            now,
		Phase:                seg.Phase.String(),
		Lat:                  Float(lat),
		Lon:                  Float(lon),
		Fraction:             d.tl.Fraction(seg, now),
		StatusText:           d.tl.statusText(seg, d.revealSeq),
		LastWaypointText:     last,
		NextWaypointText:     next,
		ETASecondsOrText:     etaText(d.tl.PrimaryETA(seg, now)),
		StopRemainingSeconds: Float(d.tl.StopRemaining(seg, now)),
		SpeedKmh:             Float(speedKmh),
		SpeedMph:             Float(speedKmh / kmPerMile),
		CumulativeDeliveries: prog.Deliveries,
		CumulativeConsumed:   prog.Consumed,
		DirectionLabel:       dirLabel,
		ViewerETAText:        viewerText,
		WeatherText:          weatherText,
		TimezoneID:           anchorWp.TimezoneID,
		MusicEnabled:         d.session.MusicEnabled(),
		StreamerMode:         d.session.StreamerMode(),
		CameraLocked:         d.cam != nil && d.cam.Locked(),
	}
}

// anchorIndex is the waypoint whose descriptive attributes (timezone,
// weather) the HUD shows for the segment.
func (tl *Timeline) anchorIndex(seg Segment) int {
	switch seg.Phase {
	case PhaseStop:
		return seg.From
	case PhaseTravel:
		return seg.To
	case PhaseComplete:
		return tl.finalIdx
	}
	return 0
}

// updateDirection keeps the heading stable across ticks: travel legs
// update it when computable and retain the previous value when not;
// any other phase resets it.
func (d *Driver) updateDirection(seg Segment) {
	if seg.Phase != PhaseTravel {
		d.lastDir = nil
		return
	}
	if dir := d.tl.directionFor(seg); dir != nil {
		d.lastDir = dir
	}
}

// updateSpeed estimates instantaneous speed in km/h from the distance
// between consecutive resolved positions, NaN until two samples exist.
func (d *Driver) updateSpeed(pos geo.Point, posOK bool, now time.Time) float64 {
	speed := math.NaN()
	if !posOK {
		return speed
	}
	if d.havePos {
		dt := now.Sub(d.lastPosTime).Seconds()
		if dt > 0 {
			speed = geo.Haversine(d.lastPos, pos) / dt * 3.6
		}
	}
	d.lastPos, d.lastPosTime, d.havePos = pos, now, true
	return speed
}

func (d *Driver) viewerText(ctx context.Context, now time.Time) string {
	if d.session.StreamerMode() {
		return ViewerETARedacted
	}
	if d.aux == nil {
		return ViewerETAUnknown
	}
	d.aux.EnsureViewer(ctx)
	viewer, state := d.aux.Viewer()
	switch state {
	case auxdata.StateResolved:
		return d.tl.ViewerETAText(viewer, true, now, false)
	case auxdata.StatePending:
		return ViewerETALocating
	default:
		return ViewerETAUnknown
	}
}

func (d *Driver) weatherText(ctx context.Context, anchor int) string {
	if d.aux == nil {
		return weatherUnknownText
	}
	w := d.tl.Route().At(anchor)
	if p, ok := w.Position(); ok {
		d.aux.EnsureWeather(ctx, w.City, p.Lat, p.Lon)
	}
	text, state := d.aux.Weather(w.City)
	switch state {
	case auxdata.StateResolved:
		return text
	case auxdata.StatePending:
		return weatherLoadingText
	default:
		return weatherUnknownText
	}
}
