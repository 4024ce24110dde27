package playback

import (
	"testing"
	"time"

	"journey-tracker/internal/route"
)

// Fixture timeline: four stops, sparse counters, a zero-length final stop.
//
//	Workshop  arr 1000 dep 1100  (seq 0, counters unset)
//	Alpha     arr 1200 dep 1260  (seq 1, 100 delivered / 10 consumed)
//	Beta      arr 1400 dep 1460  (seq 2, counters unset -> carried)
//	Gamma     arr 1600 dep 1600  (seq 3, 300 delivered / 30 consumed)
func testRoute(t *testing.T) *route.Route {
	t.Helper()
	r, err := route.New([]route.Waypoint{
		{SequenceNumber: 0, City: "Workshop", Lat: 80, Lon: 0, ArrivalUnix: 1000, DepartureUnix: 1100, TimezoneID: "Arctic/Longyearbyen"},
		{SequenceNumber: 1, City: "Alpha", Region: "Northland", Lat: 60, Lon: 10, ArrivalUnix: 1200, DepartureUnix: 1260, CumulativeDeliveries: 100, CumulativeConsumed: 10},
		{SequenceNumber: 2, City: "Beta", Region: "Eastmark", Lat: 50, Lon: 20, ArrivalUnix: 1400, DepartureUnix: 1460},
		{SequenceNumber: 3, City: "Gamma", Region: "Southfield", Lat: 40, Lon: 30, ArrivalUnix: 1600, DepartureUnix: 1600, CumulativeDeliveries: 300, CumulativeConsumed: 30},
	})
	if err != nil {
		t.Fatalf("route.New: %v", err)
	}
	return r
}

func testTimeline(t *testing.T) *Timeline {
	return NewTimeline(testRoute(t), 1, -1, 30*time.Second)
}

func at(sec int64) time.Time { return time.Unix(sec, 0) }

func TestResolve(t *testing.T) {
	tl := testTimeline(t)
	tests := []struct {
		name string
		sec  int64
		want Segment
	}{
		{"before first arrival", 900, Segment{Phase: PhasePre}},
		{"one before first arrival", 999, Segment{Phase: PhasePre}},
		{"first arrival", 1000, Segment{Phase: PhaseStop, From: 0, To: 0}},
		{"first departure inside grace", 1100, Segment{Phase: PhaseStop, From: 0, To: 0}},
		{"last second of grace", 1129, Segment{Phase: PhaseStop, From: 0, To: 0}},
		{"grace expired", 1130, Segment{Phase: PhaseTravel, From: 0, To: 1}},
		{"mid travel", 1150, Segment{Phase: PhaseTravel, From: 0, To: 1}},
		{"second arrival", 1200, Segment{Phase: PhaseStop, From: 1, To: 1}},
		{"second departure", 1260, Segment{Phase: PhaseTravel, From: 1, To: 2}},
		{"third stop", 1420, Segment{Phase: PhaseStop, From: 2, To: 2}},
		{"final leg", 1500, Segment{Phase: PhaseTravel, From: 2, To: 3}},
		{"final arrival", 1600, Segment{Phase: PhaseComplete, From: 3, To: 3}},
		{"long after", 99999, Segment{Phase: PhaseComplete, From: 3, To: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tl.Resolve(at(tt.sec)); got != tt.want {
				t.Errorf("Resolve(%d) = %+v, want %+v", tt.sec, got, tt.want)
			}
		})
	}
}

// Every instant maps to exactly one phase, Pre and Complete bound the
// journey, and everything between is covered by Stop/Travel.
func TestResolveTotality(t *testing.T) {
	tl := testTimeline(t)
	r := tl.Route()
	firstArr := r.First().ArrivalUnix
	finalArr := r.At(tl.FinalIndex()).ArrivalUnix

	for sec := int64(900); sec <= 1700; sec++ {
		seg := tl.Resolve(at(sec))
		switch {
		case sec < firstArr:
			if seg.Phase != PhasePre {
				t.Fatalf("t=%d: phase %v, want pre", sec, seg.Phase)
			}
		case sec >= finalArr:
			if seg.Phase != PhaseComplete {
				t.Fatalf("t=%d: phase %v, want complete", sec, seg.Phase)
			}
		default:
			if seg.Phase != PhaseStop && seg.Phase != PhaseTravel {
				t.Fatalf("t=%d: phase %v, want stop or travel", sec, seg.Phase)
			}
			if seg.Phase == PhaseTravel && seg.To != seg.From+1 {
				t.Fatalf("t=%d: travel %d->%d not adjacent", sec, seg.From, seg.To)
			}
		}
	}
}

func TestResolveConfiguredFinal(t *testing.T) {
	// Final designated at Beta: anything at or past Beta's arrival is complete.
	tl := NewTimeline(testRoute(t), 1, 2, 0)
	if seg := tl.Resolve(at(1400)); seg.Phase != PhaseComplete || seg.From != 2 {
		t.Errorf("Resolve(1400) = %+v, want complete at 2", seg)
	}
	if seg := tl.Resolve(at(1399)); seg.Phase != PhaseTravel {
		t.Errorf("Resolve(1399) = %+v, want travel", seg)
	}
}

func TestResolveSingleWaypoint(t *testing.T) {
	r, err := route.New([]route.Waypoint{
		{SequenceNumber: 0, City: "Only", Lat: 1, Lon: 1, ArrivalUnix: 100, DepartureUnix: 200},
	})
	if err != nil {
		t.Fatal(err)
	}
	tl := NewTimeline(r, 0, -1, 0)
	if seg := tl.Resolve(at(50)); seg.Phase != PhasePre {
		t.Errorf("before: %+v", seg)
	}
	if seg := tl.Resolve(at(100)); seg.Phase != PhaseComplete {
		t.Errorf("at arrival: %+v", seg)
	}
	if seg := tl.Resolve(at(500)); seg.Phase != PhaseComplete {
		t.Errorf("after: %+v", seg)
	}
}

func TestFractionClamps(t *testing.T) {
	tl := NewTimeline(testRoute(t), 1, -1, 0)
	travel := Segment{Phase: PhaseTravel, From: 0, To: 1}
	if f := tl.Fraction(travel, at(1100)); f != 0 {
		t.Errorf("fraction at departure = %v, want 0", f)
	}
	if f := tl.Fraction(travel, at(1150)); f != 0.5 {
		t.Errorf("fraction mid = %v, want 0.5", f)
	}
	if f := tl.Fraction(travel, at(1300)); f != 1 {
		t.Errorf("fraction past arrival = %v, want 1", f)
	}
	stop := Segment{Phase: PhaseStop, From: 1, To: 1}
	if f := tl.Fraction(stop, at(1230)); f != 0.5 {
		t.Errorf("stop fraction mid = %v, want 0.5", f)
	}
}
