package playback

import (
	"fmt"
	"math"
	"time"

	"journey-tracker/internal/geo"
)

// Viewer ETA display states for conditions where no countdown exists.
const (
	ViewerETAUnknown  = "unknown"
	ViewerETALocating = "locating..."
	ViewerETARedacted = "[location hidden]"
	ViewerETAAnytime  = "anytime"
)

// PrimaryETA returns the seconds remaining on the main HUD countdown.
// Before the phase-boundary waypoint's arrival it counts down to that
// boundary regardless of the active segment; at or after it, it counts
// down to the next arrival under normal segment logic. NaN when no
// arrival remains.
func (tl *Timeline) PrimaryETA(seg Segment, t time.Time) float64 {
	ts := unixSec(t)
	boundaryArr := float64(tl.r.At(tl.boundary).ArrivalUnix)
	if ts < boundaryArr {
		return boundaryArr - ts
	}
	switch seg.Phase {
	case PhaseTravel:
		return float64(tl.r.At(seg.To).ArrivalUnix) - ts
	case PhaseStop:
		if seg.From+1 < tl.r.Len() {
			return float64(tl.r.At(seg.From+1).ArrivalUnix) - ts
		}
	}
	return math.NaN()
}

// StopRemaining returns the seconds until the current stop's departure,
// or NaN outside a stop. The first stop's grace extension counts.
func (tl *Timeline) StopRemaining(seg Segment, t time.Time) float64 {
	if seg.Phase != PhaseStop {
		return math.NaN()
	}
	rem := tl.departureEnd(seg.From) - unixSec(t)
	if rem < 0 {
		rem = 0
	}
	return rem
}

// ViewerETAText renders the countdown to the waypoint closest to the
// viewer's location. haveViewer is false while the location is still
// unresolved. Any failure degrades to a textual state; this never aborts
// the caller's tick.
func (tl *Timeline) ViewerETAText(viewer geo.Point, haveViewer bool, t time.Time, redacted bool) string {
	if redacted {
		return ViewerETARedacted
	}
	if !haveViewer {
		return ViewerETAUnknown
	}
	idx, ok := tl.r.ClosestTo(viewer)
	if !ok {
		return ViewerETAUnknown
	}
	delta := float64(tl.r.At(idx).ArrivalUnix) - unixSec(t)
	if math.IsNaN(delta) {
		return ViewerETAUnknown
	}
	return FormatViewerDelta(delta)
}

// FormatViewerDelta renders a viewer-relative countdown at half-hour
// granularity: anything under 30 minutes (or already past) is "anytime",
// the rest rounds to the nearest half hour.
func FormatViewerDelta(deltaSec float64) string {
	if deltaSec < 1800 {
		return ViewerETAAnytime
	}
	halfHours := int64(math.Round(deltaSec / 1800))
	hours := halfHours / 2
	if halfHours%2 == 1 {
		if hours == 0 {
			return "½ hour"
		}
		return fmt.Sprintf("%d½ hours", hours)
	}
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
