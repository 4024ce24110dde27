package playback

import (
	"time"

	"journey-tracker/internal/geo"
)

// PositionAt computes the traveler's geographic point for the segment.
// Stops are stationary at the waypoint; travel interpolates latitude
// linearly and longitude along the shortest angular path, so segments
// crossing the antimeridian move through 180, not back through 0.
// Pre and Complete clamp to the first and final waypoint. ok is false
// when a required waypoint has non-finite coordinates.
func (tl *Timeline) PositionAt(seg Segment, t time.Time) (geo.Point, bool) {
	switch seg.Phase {
	case PhasePre:
		return tl.r.First().Position()
	case PhaseComplete:
		return tl.r.At(tl.finalIdx).Position()
	case PhaseStop:
		return tl.r.At(seg.From).Position()
	case PhaseTravel:
		from, okF := tl.r.At(seg.From).Position()
		to, okT := tl.r.At(seg.To).Position()
		if !okF || !okT {
			return geo.Point{}, false
		}
		return geo.Interpolate(from, to, tl.Fraction(seg, t)), true
	}
	return geo.Point{}, false
}
