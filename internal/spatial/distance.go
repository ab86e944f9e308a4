package spatial

import (
	"github.com/golang/geo/s2"
)

const (
	EarthRadiusMeters = 6371000.0
	EarthRadiusMiles  = 3958.8
)

// HaversineDistance returns the great-circle distance in meters between two
// points given in degrees
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// ExtentKm measures a degree rectangle through its centre lines. Width is
// taken along the centre parallel, so it shrinks toward the poles.
func ExtentKm(west, south, east, north float64) (widthKm, heightKm float64) {
	midLat := (south + north) / 2
	midLon := (west + east) / 2
	widthKm = HaversineDistance(midLat, west, midLat, east) / 1000
	heightKm = HaversineDistance(south, midLon, north, midLon) / 1000
	return widthKm, heightKm
}
