package route

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

// waypointRecord is the on-disk shape of one itinerary entry. Numeric
// fields arrive as JSON numbers; anything non-finite is tolerated and
// degrades downstream rather than failing the load.
type waypointRecord struct {
	Sequence       int     `json:"sequence"`
	City           string  `json:"city"`
	Region         string  `json:"region"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Arrival        int64   `json:"arrival"`
	Departure      int64   `json:"departure"`
	Deliveries     int64   `json:"deliveries"`
	Consumed       int64   `json:"consumed"`
	Population     int64   `json:"population"`
	PopulationYear int     `json:"populationYear"`
	ElevationM     float64 `json:"elevation"`
	Timezone       string  `json:"timezone"`
	URL            string  `json:"url"`
}

// LoadFile reads a JSON itinerary file, coerces records into Waypoints,
// sorts ascending by arrival time and validates the route invariants.
// Errors here are fatal for playback: there is no route to animate.
func LoadFile(path string) (*Route, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route file: %w", err)
	}
	var recs []waypointRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("parse route file %s: %w", path, err)
	}
	return fromRecords(recs)
}

func fromRecords(recs []waypointRecord) (*Route, error) {
	wps := make([]Waypoint, 0, len(recs))
	for _, rec := range recs {
		wps = append(wps, Waypoint{
			SequenceNumber:       rec.Sequence,
			City:                 rec.City,
			Region:               rec.Region,
			Lat:                  finiteOrNaN(rec.Lat),
			Lon:                  finiteOrNaN(rec.Lon),
			ArrivalUnix:          rec.Arrival,
			DepartureUnix:        rec.Departure,
			CumulativeDeliveries: rec.Deliveries,
			CumulativeConsumed:   rec.Consumed,
			Population:           rec.Population,
			PopulationYear:       rec.PopulationYear,
			ElevationM:           rec.ElevationM,
			TimezoneID:           rec.Timezone,
			ReferenceURL:         rec.URL,
		})
	}
	sort.SliceStable(wps, func(i, j int) bool { return wps[i].ArrivalUnix < wps[j].ArrivalUnix })
	return New(wps)
}

// finiteOrNaN collapses infinities to NaN so a single sentinel marks
// unusable coordinates everywhere downstream.
func finiteOrNaN(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
