package route

import (
	"errors"
	"fmt"

	"journey-tracker/internal/geo"
)

// Waypoint is one scheduled stop on the itinerary. Records are immutable
// after load; counters are cumulative as of the waypoint's departure and
// may be zero, meaning "not recorded here, carry the previous value
// forward".
type Waypoint struct {
	SequenceNumber int
	City           string
	Region         string // may be empty
	Lat            float64
	Lon            float64
	ArrivalUnix    int64 // seconds
	DepartureUnix  int64 // seconds, >= ArrivalUnix

	CumulativeDeliveries int64
	CumulativeConsumed   int64

	// Descriptive attributes, passed through to the info panel untouched.
	Population     int64
	PopulationYear int
	ElevationM     float64
	TimezoneID     string
	ReferenceURL   string
}

// Position returns the waypoint's coordinates and whether they are finite.
func (w Waypoint) Position() (geo.Point, bool) {
	p := geo.Point{Lat: w.Lat, Lon: w.Lon}
	return p, p.Finite()
}

// PreReveal reports whether the waypoint precedes the reveal threshold,
// i.e. its location should be displayed without the region.
func (w Waypoint) PreReveal(threshold int) bool {
	return w.SequenceNumber < threshold
}

// DisplayName is the single naming policy for status lines, last/next
// labels and the info panel: bare city name before the reveal threshold,
// "City, Region" at or after it (or bare city when region is absent).
func (w Waypoint) DisplayName(threshold int) string {
	if w.PreReveal(threshold) || w.Region == "" {
		return w.City
	}
	return w.City + ", " + w.Region
}

// Route is an immutable, time-ordered sequence of waypoints.
type Route struct {
	wps []Waypoint
}

var ErrEmptyRoute = errors.New("route has no waypoints")

// New validates the ordering invariants and wraps the slice. The slice is
// not copied; callers hand over ownership.
func New(wps []Waypoint) (*Route, error) {
	if len(wps) == 0 {
		return nil, ErrEmptyRoute
	}
	for i, w := range wps {
		if w.DepartureUnix < w.ArrivalUnix {
			return nil, fmt.Errorf("waypoint %d (%s): departure %d before arrival %d", i, w.City, w.DepartureUnix, w.ArrivalUnix)
		}
		if i > 0 && w.ArrivalUnix < wps[i-1].ArrivalUnix {
			return nil, fmt.Errorf("waypoint %d (%s): arrival %d before predecessor's %d", i, w.City, w.ArrivalUnix, wps[i-1].ArrivalUnix)
		}
	}
	return &Route{wps: wps}, nil
}

func (r *Route) Len() int          { return len(r.wps) }
func (r *Route) At(i int) Waypoint { return r.wps[i] }
func (r *Route) First() Waypoint   { return r.wps[0] }
func (r *Route) Last() Waypoint    { return r.wps[len(r.wps)-1] }

// FinalIndex locates the journey's designated final waypoint by exact
// sequence number, falling back to the route's last entry.
func (r *Route) FinalIndex(finalSeq int) int {
	for i, w := range r.wps {
		if w.SequenceNumber == finalSeq {
			return i
		}
	}
	return len(r.wps) - 1
}

// BoundaryIndex locates the phase-boundary waypoint: exact sequence match
// first, then the first waypoint at or past the threshold, then 0.
func (r *Route) BoundaryIndex(threshold int) int {
	for i, w := range r.wps {
		if w.SequenceNumber == threshold {
			return i
		}
	}
	for i, w := range r.wps {
		if w.SequenceNumber >= threshold {
			return i
		}
	}
	return 0
}

// ClosestTo returns the index of the waypoint nearest to p by great-circle
// distance, ties broken by first found. Waypoints with non-finite
// coordinates keep their ordinal slot but are skipped here. ok is false
// when p is not finite or no waypoint has usable coordinates.
func (r *Route) ClosestTo(p geo.Point) (int, bool) {
	if !p.Finite() {
		return 0, false
	}
	best := -1
	bestDist := 0.0
	for i, w := range r.wps {
		wp, ok := w.Position()
		if !ok {
			continue
		}
		d := geo.Haversine(p, wp)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}
