// Package camera implements the follow controller: a two-state machine
// that, while locked, keeps the viewport centered on the resolved
// traveler position.
package camera

import (
	"sync"
	"time"

	"journey-tracker/internal/geo"
)

// MapController is the rendering collaborator's command surface.
type MapController interface {
	Recenter(target geo.Point, zoom, bearing, pitch float64, ease time.Duration)
	SetInteractionEnabled(enabled bool)
	SetZoomBounds(min, max float64)
}

// Metrics is the optional hook for recenter accounting.
type Metrics interface {
	CameraRecenterInc(kind string)
}

type Config struct {
	LockedZoom   float64
	MinZoom      float64
	MaxZoom      float64
	EaseDuration time.Duration
}

// Intent is the read-only view of the controller's state.
type Intent struct {
	Locked bool
	Target geo.Point
	Zoom   float64
}

// Controller transitions only via explicit Toggle/SetLocked commands.
// The eased recenter is issued exactly once per lock transition; every
// tick after that re-centers immediately so the controller never fights
// its own in-flight ease.
type Controller struct {
	mc      MapController
	cfg     Config
	metrics Metrics

	mu          sync.Mutex
	locked      bool
	pendingEase bool
	target      geo.Point
	haveTarget  bool
}

func New(mc MapController, cfg Config, m Metrics) *Controller {
	return &Controller{mc: mc, cfg: cfg, metrics: m}
}

func (c *Controller) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// Toggle flips the lock state and returns the new state.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	locked := !c.locked
	c.mu.Unlock()
	c.SetLocked(locked)
	return locked
}

func (c *Controller) SetLocked(locked bool) {
	c.mu.Lock()
	if c.locked == locked {
		c.mu.Unlock()
		return
	}
	c.locked = locked
	if !locked {
		c.pendingEase = false
		c.mu.Unlock()
		c.mc.SetInteractionEnabled(true)
		c.mc.SetZoomBounds(c.cfg.MinZoom, c.cfg.MaxZoom)
		return
	}
	target, have := c.target, c.haveTarget
	c.pendingEase = !have
	c.mu.Unlock()

	c.mc.SetInteractionEnabled(false)
	if have {
		c.recenter(target, c.cfg.EaseDuration, "eased")
	}
	// else: no position resolved yet, the ease fires on the next Track
}

// Track feeds the latest resolved position, once per tick. While locked
// it issues an immediate recenter, except for the first position after a
// lock that still owes its entry ease.
func (c *Controller) Track(target geo.Point, ok bool) {
	if !ok {
		return
	}
	c.mu.Lock()
	c.target = target
	c.haveTarget = true
	locked := c.locked
	ease := c.pendingEase
	c.pendingEase = false
	c.mu.Unlock()

	if !locked {
		return
	}
	if ease {
		c.recenter(target, c.cfg.EaseDuration, "eased")
		return
	}
	c.recenter(target, 0, "immediate")
}

func (c *Controller) recenter(target geo.Point, ease time.Duration, kind string) {
	c.mc.Recenter(target, c.cfg.LockedZoom, 0, 0, ease)
	if c.metrics != nil {
		c.metrics.CameraRecenterInc(kind)
	}
}

func (c *Controller) Intent() Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Intent{Locked: c.locked, Target: c.target, Zoom: c.cfg.LockedZoom}
}
