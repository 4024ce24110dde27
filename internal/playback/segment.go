package playback

import (
	"time"

	"journey-tracker/internal/route"
)

type Phase int

const (
	PhasePre Phase = iota
	PhaseStop
	PhaseTravel
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhasePre:
		return "pre"
	case PhaseStop:
		return "stop"
	case PhaseTravel:
		return "travel"
	case PhaseComplete:
		return "complete"
	}
	return "unknown"
}

// Segment is the traveler's relation to the route at one instant.
// For PhaseStop, From == To == the stop index. For PhaseTravel, the
// traveler is between From and To. Pre anchors to 0, Complete to the
// final waypoint index.
type Segment struct {
	Phase Phase
	From  int
	To    int
}

// Timeline binds a route to the playback policy knobs resolved once at
// startup: the designated final waypoint, the phase-boundary waypoint and
// the first-stop grace period. All lookups on it are pure functions of
// the query time.
type Timeline struct {
	r        *route.Route
	finalIdx int
	boundary int
	graceSec float64
}

// NewTimeline resolves the final and phase-boundary indices. finalSeq < 0
// means "use the route's last entry".
func NewTimeline(r *route.Route, revealSeq, finalSeq int, grace time.Duration) *Timeline {
	finalIdx := r.Len() - 1
	if finalSeq >= 0 {
		finalIdx = r.FinalIndex(finalSeq)
	}
	return &Timeline{
		r:        r,
		finalIdx: finalIdx,
		boundary: r.BoundaryIndex(revealSeq),
		graceSec: grace.Seconds(),
	}
}

func (tl *Timeline) Route() *route.Route { return tl.r }
func (tl *Timeline) FinalIndex() int     { return tl.finalIdx }
func (tl *Timeline) BoundaryIndex() int  { return tl.boundary }

func unixSec(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

// departureEnd is the end of waypoint i's stop window. The first stop is
// extended by the grace period so startup clock skew does not immediately
// classify as in-transit.
func (tl *Timeline) departureEnd(i int) float64 {
	end := float64(tl.r.At(i).DepartureUnix)
	if i == 0 {
		end += tl.graceSec
	}
	return end
}

// Resolve maps a query time to exactly one segment. It is total: every t
// yields an outcome, with times past the last departure clamping to the
// final travel segment. No state is carried between calls.
func (tl *Timeline) Resolve(t time.Time) Segment {
	ts := unixSec(t)
	n := tl.r.Len()

	if ts < float64(tl.r.First().ArrivalUnix) {
		return Segment{Phase: PhasePre}
	}
	if ts >= float64(tl.r.At(tl.finalIdx).ArrivalUnix) {
		return Segment{Phase: PhaseComplete, From: tl.finalIdx, To: tl.finalIdx}
	}
	for i := 0; i < n; i++ {
		if ts < float64(tl.r.At(i).ArrivalUnix) {
			return Segment{Phase: PhaseTravel, From: i - 1, To: i}
		}
		if ts < tl.departureEnd(i) {
			return Segment{Phase: PhaseStop, From: i, To: i}
		}
	}
	// Past the last departure with no successor: clamp to the final
	// travel segment (fraction resolves to 1).
	if n >= 2 {
		return Segment{Phase: PhaseTravel, From: n - 2, To: n - 1}
	}
	return Segment{Phase: PhaseComplete, From: tl.finalIdx, To: tl.finalIdx}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Fraction is the normalized progress through the segment: elapsed time
// over window duration, clamped into [0, 1]. Zero-length windows resolve
// via a one second floor instead of dividing by zero.
func (tl *Timeline) Fraction(seg Segment, t time.Time) float64 {
	ts := unixSec(t)
	switch seg.Phase {
	case PhaseStop:
		w := tl.r.At(seg.From)
		dur := float64(w.DepartureUnix - w.ArrivalUnix)
		if dur < 1 {
			dur = 1
		}
		return clamp01((ts - float64(w.ArrivalUnix)) / dur)
	case PhaseTravel:
		dep := float64(tl.r.At(seg.From).DepartureUnix)
		dur := float64(tl.r.At(seg.To).ArrivalUnix) - dep
		if dur < 1 {
			dur = 1
		}
		return clamp01((ts - dep) / dur)
	case PhaseComplete:
		return 1
	}
	return 0
}
