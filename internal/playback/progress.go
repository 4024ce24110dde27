package playback

import (
	"math"
	"time"
)

// Progress holds the reconstructed cumulative counters at one instant.
type Progress struct {
	Deliveries int64
	Consumed   int64
}

// effectiveAt returns the carried-forward counter values as of waypoint
// i's departure: zero samples mean "not recorded here", so the previous
// non-empty value applies. i < 0 yields the pre-journey baseline of 0.
func (tl *Timeline) effectiveAt(i int) (deliveries, consumed int64) {
	for j := i; j >= 0; j-- {
		if deliveries == 0 && tl.r.At(j).CumulativeDeliveries != 0 {
			deliveries = tl.r.At(j).CumulativeDeliveries
		}
		if consumed == 0 && tl.r.At(j).CumulativeConsumed != 0 {
			consumed = tl.r.At(j).CumulativeConsumed
		}
		if deliveries != 0 && consumed != 0 {
			break
		}
	}
	return deliveries, consumed
}

// ProgressAt reconstructs both counters for the query time. Counters are
// sampled as of each waypoint's departure, so they climb during the stop
// (previous effective value to the stop's own, over the stop fraction)
// and hold the carried-forward value during travel. The result is
// non-decreasing in t for each counter independently.
func (tl *Timeline) ProgressAt(seg Segment, t time.Time) Progress {
	switch seg.Phase {
	case PhasePre:
		return Progress{}
	case PhaseComplete:
		d, c := tl.effectiveAt(tl.finalIdx)
		return Progress{Deliveries: d, Consumed: c}
	case PhaseTravel:
		d, c := tl.effectiveAt(seg.From)
		return Progress{Deliveries: d, Consumed: c}
	}

	frac := tl.Fraction(seg, t)
	loD, loC := tl.effectiveAt(seg.From - 1)
	hiD, hiC := tl.effectiveAt(seg.From)
	return Progress{
		Deliveries: lerpCounter(loD, hiD, frac),
		Consumed:   lerpCounter(loC, hiC, frac),
	}
}

// lerpCounter interpolates between two samples, flooring so the output
// never overshoots the upper bound mid-segment.
func lerpCounter(lo, hi int64, frac float64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + int64(math.Floor(float64(hi-lo)*frac))
}
