package geo

import "math"

const earthRadiusM = 6371000.0

// Point is a geographic coordinate in degrees (WGS84).
type Point struct {
	Lat float64
	Lon float64
}

// Finite reports whether both coordinates are usable for math.
func (p Point) Finite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lon) && !math.IsInf(p.Lon, 0)
}

func toRad(d float64) float64 { return d * math.Pi / 180 }

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}

// Bearing returns the initial great-circle bearing from a to b,
// normalized to [0, 360) degrees, 0 = north, clockwise.
func Bearing(a, b Point) float64 {
	y := math.Sin(toRad(b.Lon-a.Lon)) * math.Cos(toRad(b.Lat))
	x := math.Cos(toRad(a.Lat))*math.Sin(toRad(b.Lat)) -
		math.Sin(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Cos(toRad(b.Lon-a.Lon))
	brng := math.Atan2(y, x) * 180 / math.Pi
	return normalizeDeg(brng)
}

func normalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// WrapLon normalizes a longitude into [-180, 180).
func WrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// Interpolate returns the point at fraction frac between a and b.
// Latitude interpolates linearly. Longitude follows the shortest angular
// path: the signed delta is wrapped into [-180, 180) before scaling, so a
// segment from 179 to -179 crosses the antimeridian instead of wrapping
// the long way around through 0.
func Interpolate(a, b Point, frac float64) Point {
	dLon := WrapLon(b.Lon - a.Lon)
	return Point{
		Lat: a.Lat + (b.Lat-a.Lat)*frac,
		Lon: WrapLon(a.Lon + dLon*frac),
	}
}

// Sector is one of the 8 compass sectors, 0 = N, clockwise.
type Sector int

const (
	North Sector = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var sectorLabels = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
var sectorArrows = [8]string{"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"}

// SectorOf buckets a bearing in degrees into one of 8 compass sectors of
// 45 degrees each, rounding to the nearest sector center.
func SectorOf(bearing float64) Sector {
	return Sector(int(math.Round(normalizeDeg(bearing)/45)) % 8)
}

func (s Sector) Label() string { return sectorLabels[s%8] }
func (s Sector) Arrow() string { return sectorArrows[s%8] }
