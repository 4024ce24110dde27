package geo

import (
	"math"
	"testing"
)

func TestBearingCardinal(t *testing.T) {
	tests := []struct {
		name     string
		from, to Point
		want     float64
	}{
		{"due north", Point{0, 0}, Point{10, 0}, 0},
		{"due east", Point{0, 0}, Point{0, 10}, 90},
		{"due south", Point{10, 0}, Point{0, 0}, 180},
		{"due west", Point{0, 10}, Point{0, 0}, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.from, tt.to)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Bearing = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSectorOf(t *testing.T) {
	tests := []struct {
		bearing float64
		want    Sector
	}{
		{0, North},
		{22.5, NorthEast}, // exact boundary rounds up
		{22.4, North},
		{45, NorthEast},
		{90, East},
		{180, South},
		{270, West},
		{315, NorthWest},
		{337.4, NorthWest},
		{337.5, North}, // exact boundary rounds up, same as 22.5
		{359, North},
		{360, North}, // normalizes before bucketing
		{382.5, NorthEast},
	}
	for _, tt := range tests {
		if got := SectorOf(tt.bearing); got != tt.want {
			t.Errorf("SectorOf(%v) = %v (%s), want %v (%s)", tt.bearing, got, got.Label(), tt.want, tt.want.Label())
		}
	}
}

func TestSectorLabels(t *testing.T) {
	wantLabels := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	for i, want := range wantLabels {
		if got := Sector(i).Label(); got != want {
			t.Errorf("Sector(%d).Label = %q, want %q", i, got, want)
		}
		if Sector(i).Arrow() == "" {
			t.Errorf("Sector(%d).Arrow is empty", i)
		}
	}
}

func TestWrapLon(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{179, 179},
		{180, -180},
		{181, -179},
		{-180, -180},
		{-181, 179},
		{360, 0},
		{540, -180},
	}
	for _, tt := range tests {
		if got := WrapLon(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("WrapLon(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInterpolateEndpoints(t *testing.T) {
	a := Point{Lat: 55.5, Lon: 12.5}
	b := Point{Lat: 48.25, Lon: 16.375}
	if got := Interpolate(a, b, 0); got != a {
		t.Errorf("frac=0: got %+v, want %+v", got, a)
	}
	got := Interpolate(a, b, 1)
	if math.Abs(got.Lat-b.Lat) > 1e-9 || math.Abs(got.Lon-b.Lon) > 1e-9 {
		t.Errorf("frac=1: got %+v, want %+v", got, b)
	}
}

func TestInterpolateAntimeridian(t *testing.T) {
	a := Point{Lat: 0, Lon: 179}
	b := Point{Lat: 0, Lon: -179}
	mid := Interpolate(a, b, 0.5)
	// The short way from 179 to -179 passes through 180, not 0.
	if math.Abs(math.Abs(mid.Lon)-180) > 1e-9 {
		t.Errorf("midpoint lon = %v, want +/-180", mid.Lon)
	}
	// Moving eastward: a quarter of the way is still on the +179 side.
	q := Interpolate(a, b, 0.25)
	if q.Lon < 179 || q.Lon > 180 {
		t.Errorf("quarter-point lon = %v, want within [179, 180]", q.Lon)
	}
}

func TestHaversine(t *testing.T) {
	// Paris to London, roughly 344km.
	paris := Point{Lat: 48.8566, Lon: 2.3522}
	london := Point{Lat: 51.5074, Lon: -0.1278}
	d := Haversine(paris, london)
	if d < 330000 || d > 360000 {
		t.Errorf("Haversine(Paris, London) = %v m, want ~344km", d)
	}
	if d := Haversine(paris, paris); d != 0 {
		t.Errorf("zero distance = %v", d)
	}
}

func TestFinite(t *testing.T) {
	if !(Point{Lat: 1, Lon: 2}).Finite() {
		t.Error("finite point reported non-finite")
	}
	if (Point{Lat: math.NaN(), Lon: 2}).Finite() {
		t.Error("NaN lat reported finite")
	}
	if (Point{Lat: 1, Lon: math.Inf(1)}).Finite() {
		t.Error("Inf lon reported finite")
	}
}
