package spatial

import (
	"math"
)

// LonLat is a coordinate pair. Callers decide the unit: AOI geometry is
// kept in radians, sample points are handed out in degrees.
type LonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// ToRadians converts a degree pair to radians
func (p LonLat) ToRadians() LonLat {
	return LonLat{Lon: p.Lon * math.Pi / 180, Lat: p.Lat * math.Pi / 180}
}

// ToDegrees converts a radian pair to degrees
func (p LonLat) ToDegrees() LonLat {
	return LonLat{Lon: p.Lon * 180 / math.Pi, Lat: p.Lat * 180 / math.Pi}
}

// BoundingBox calculates the bounding box of a set of points
// Returns (west, south, east, north)
func BoundingBox(points []LonLat) (float64, float64, float64, float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}

	west, east := points[0].Lon, points[0].Lon
	south, north := points[0].Lat, points[0].Lat

	for _, p := range points[1:] {
		if p.Lat < south {
			south = p.Lat
		}
		if p.Lat > north {
			north = p.Lat
		}
		if p.Lon < west {
			west = p.Lon
		}
		if p.Lon > east {
			east = p.Lon
		}
	}

	return west, south, east, north
}

// DistinctVertices counts the distinct vertices of a ring. A closing vertex
// that repeats the first one is not counted twice.
func DistinctVertices(ring []LonLat) int {
	seen := make(map[LonLat]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// PointInPolygon checks if a point is inside a ring using even-odd ray
// casting. The test is planar, so lon/lat must share a unit. Points exactly
// on an edge may land on either side.
func PointInPolygon(point LonLat, ring []LonLat) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	j := len(ring) - 1

	for i := 0; i < len(ring); i++ {
		if ((ring[i].Lat > point.Lat) != (ring[j].Lat > point.Lat)) &&
			(point.Lon < (ring[j].Lon-ring[i].Lon)*(point.Lat-ring[i].Lat)/(ring[j].Lat-ring[i].Lat)+ring[i].Lon) {
			inside = !inside
		}
		j = i
	}

	return inside
}

// PointInPolygonWithHoles is PointInPolygon against the outer ring, with any
// point falling inside one of the holes treated as outside.
func PointInPolygonWithHoles(point LonLat, ring []LonLat, holes [][]LonLat) bool {
	if !PointInPolygon(point, ring) {
		return false
	}
	for _, hole := range holes {
		if PointInPolygon(point, hole) {
			return false
		}
	}
	return true
}

// RingArea calculates the planar area of a ring with the shoelace formula,
// in the squared unit of the input.
func RingArea(ring []LonLat) float64 {
	if len(ring) < 3 {
		return 0
	}

	var sum float64
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		sum += ring[i].Lon*ring[j].Lat - ring[j].Lon*ring[i].Lat
	}

	return math.Abs(sum) / 2.0
}
