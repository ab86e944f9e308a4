package spatial

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// RectAreaSquareMiles returns the area of a lat/lon rectangle given in
// radians. s2.Rect.Area is the spherical-cap formula
// |sin(north)-sin(south)| * (east-west) on the unit sphere.
func RectAreaSquareMiles(west, south, east, north float64) float64 {
	rect := s2.Rect{
		Lat: r1.Interval{Lo: south, Hi: north},
		Lng: s1.IntervalFromEndpoints(west, east),
	}
	if rect.IsEmpty() {
		return 0
	}
	return rect.Area() * EarthRadiusMiles * EarthRadiusMiles
}

// RingAreaSquareMiles returns the spherical area enclosed by a ring given in
// radians. Orientation is normalized, so CW and CCW rings give the same
// answer.
func RingAreaSquareMiles(ring []LonLat) float64 {
	if DistinctVertices(ring) < 3 {
		return 0
	}

	pts := make([]s2.Point, 0, len(ring))
	for i, p := range ring {
		if i == len(ring)-1 && p == ring[0] {
			break
		}
		pts = append(pts, s2.PointFromLatLng(s2.LatLng{Lat: s1.Angle(p.Lat), Lng: s1.Angle(p.Lon)}))
	}

	loop := s2.LoopFromPoints(pts)
	loop.Normalize()
	return loop.Area() * EarthRadiusMiles * EarthRadiusMiles
}
