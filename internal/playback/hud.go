package playback

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"journey-tracker/internal/geo"
)

// Float is a HUD numeric that may be inapplicable in the current phase.
// Inapplicable values are NaN in-process and null on the wire, since
// encoding/json refuses bare NaN.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Snapshot is the composed HUD state emitted once per tick. It is derived
// fresh from the query time and never persisted; consumers receive it
// read-only.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Phase     string    `json:"phase"`

	Lat      Float   `json:"lat"`
	Lon      Float   `json:"lon"`
	Fraction float64 `json:"fraction"`

	StatusText           string `json:"statusText"`
	LastWaypointText     string `json:"lastWaypointText"`
	NextWaypointText     string `json:"nextWaypointText"`
	ETASecondsOrText     string `json:"etaSecondsOrText"`
	StopRemainingSeconds Float  `json:"stopRemainingSeconds"`
	SpeedKmh             Float  `json:"speedKmh"`
	SpeedMph             Float  `json:"speedMph"`
	CumulativeDeliveries int64  `json:"cumulativeDeliveries"`
	CumulativeConsumed   int64  `json:"cumulativeConsumed"`
	DirectionLabel       string `json:"directionLabel"`

	ViewerETAText string `json:"viewerEtaText"`
	WeatherText   string `json:"weatherText"`
	TimezoneID    string `json:"timezoneId"`

	MusicEnabled bool `json:"musicEnabled"`
	StreamerMode bool `json:"streamerMode"`
	CameraLocked bool `json:"cameraLocked"`
}

const noValueText = "—"

// statusText renders the one-line journey status for the segment, using
// the shared display-name policy for sub-threshold waypoints.
func (tl *Timeline) statusText(seg Segment, revealSeq int) string {
	switch seg.Phase {
	case PhasePre:
		return fmt.Sprintf("Preparing for departure from %s", tl.r.First().DisplayName(revealSeq))
	case PhaseStop:
		return fmt.Sprintf("Stopped in %s", tl.r.At(seg.From).DisplayName(revealSeq))
	case PhaseTravel:
		return fmt.Sprintf("En route to %s", tl.r.At(seg.To).DisplayName(revealSeq))
	case PhaseComplete:
		return "Journey complete"
	}
	return noValueText
}

// lastNextText renders the previous and upcoming waypoint labels.
func (tl *Timeline) lastNextText(seg Segment, revealSeq int) (last, next string) {
	last, next = noValueText, noValueText
	switch seg.Phase {
	case PhasePre:
		next = tl.r.First().DisplayName(revealSeq)
	case PhaseStop:
		last = tl.r.At(seg.From).DisplayName(revealSeq)
		if seg.From+1 < tl.r.Len() {
			next = tl.r.At(seg.From + 1).DisplayName(revealSeq)
		}
	case PhaseTravel:
		last = tl.r.At(seg.From).DisplayName(revealSeq)
		next = tl.r.At(seg.To).DisplayName(revealSeq)
	case PhaseComplete:
		last = tl.r.At(tl.finalIdx).DisplayName(revealSeq)
	}
	return last, next
}

// etaText renders the primary countdown as whole seconds, or a
// placeholder when no arrival remains.
func etaText(etaSec float64) string {
	if math.IsNaN(etaSec) {
		return noValueText
	}
	if etaSec < 0 {
		etaSec = 0
	}
	return strconv.FormatInt(int64(math.Round(etaSec)), 10)
}

// directionFor computes the travel heading sector, nil when the segment
// is not a travel leg or an endpoint is unusable.
func (tl *Timeline) directionFor(seg Segment) *geo.Sector {
	if seg.Phase != PhaseTravel {
		return nil
	}
	from, okF := tl.r.At(seg.From).Position()
	to, okT := tl.r.At(seg.To).Position()
	if !okF || !okT {
		return nil
	}
	s := geo.SectorOf(geo.Bearing(from, to))
	return &s
}
