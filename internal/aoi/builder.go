package aoi

import (
	"errors"
	"fmt"
	"strings"

	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/urban-twin-go/internal/spatial"
)

var (
	ErrUnresolvedPick      = errors.New("pick did not resolve to a ground position")
	ErrUnsupportedGeometry = errors.New("boundary geometry must be a Polygon or MultiPolygon")
)

// Corner identifies a rectangle corner being dragged
type Corner string

const (
	CornerNW Corner = "NW"
	CornerNE Corner = "NE"
	CornerSE Corner = "SE"
	CornerSW Corner = "SW"
)

// ParseCorner accepts NW, NE, SE or SW in any case
func ParseCorner(s string) (Corner, error) {
	c := Corner(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CornerNW, CornerNE, CornerSE, CornerSW:
		return c, nil
	}
	return "", fmt.Errorf("unknown corner %q", s)
}

// BuildRectangle returns the smallest axis-aligned rectangle containing both
// corner picks (radians). A nil pick means the pointer was off the globe.
func BuildRectangle(a, b *spatial.LonLat) (AreaOfInterest, error) {
	if a == nil || b == nil {
		return AreaOfInterest{}, ErrUnresolvedPick
	}

	aoi := NewRectangleAOI(Rectangle{West: a.Lon, South: a.Lat, East: b.Lon, North: b.Lat})
	if err := aoi.Validate(); err != nil {
		return AreaOfInterest{}, err
	}
	return aoi, nil
}

// BuildPolygon builds a polygon from picks in input order. Unresolved picks
// are skipped; the remaining vertices must include at least 3 distinct ones.
func BuildPolygon(picks []*spatial.LonLat) (AreaOfInterest, error) {
	ring := make([]spatial.LonLat, 0, len(picks))
	for _, p := range picks {
		if p != nil {
			ring = append(ring, *p)
		}
	}

	if spatial.DistinctVertices(ring) < 3 {
		return AreaOfInterest{}, ErrTooFewVertices
	}
	return NewPolygonAOI(ring, nil), nil
}

// FromBoundary uses an administrative boundary feature verbatim. Coordinates
// are GeoJSON degrees and are converted to radians. For a MultiPolygon the
// part with the largest outer ring is used.
func FromBoundary(feature *geojson.Feature) (AreaOfInterest, error) {
	if feature == nil || feature.Geometry == nil {
		return AreaOfInterest{}, ErrUnsupportedGeometry
	}
	return FromGeometry(feature.Geometry)
}

// FromGeometry is FromBoundary for a bare geometry
func FromGeometry(g *geojson.Geometry) (AreaOfInterest, error) {
	var poly [][][]float64
	switch {
	case g.IsPolygon():
		poly = g.Polygon
	case g.IsMultiPolygon():
		poly = largestPolygon(g.MultiPolygon)
	default:
		return AreaOfInterest{}, ErrUnsupportedGeometry
	}

	if len(poly) == 0 {
		return AreaOfInterest{}, ErrTooFewVertices
	}

	ring, err := ringFromCoords(poly[0])
	if err != nil {
		return AreaOfInterest{}, err
	}
	var holes [][]spatial.LonLat
	for _, coords := range poly[1:] {
		h, err := ringFromCoords(coords)
		if err != nil {
			return AreaOfInterest{}, fmt.Errorf("hole: %w", err)
		}
		holes = append(holes, h)
	}

	aoi := NewPolygonAOI(ring, holes)
	if err := aoi.Validate(); err != nil {
		return AreaOfInterest{}, err
	}
	return aoi, nil
}

// ToGeometry converts an AOI back to a GeoJSON polygon in degrees. Rings are
// closed as GeoJSON requires.
func ToGeometry(a AreaOfInterest) *geojson.Geometry {
	var rings [][]spatial.LonLat
	switch {
	case a.Kind == KindRectangle && a.Rect != nil:
		rings = append(rings, a.Rect.Ring())
	case a.Kind == KindPolygon && a.Poly != nil:
		rings = append(rings, a.Poly.Ring)
		rings = append(rings, a.Poly.Holes...)
	default:
		return nil
	}

	coords := make([][][]float64, 0, len(rings))
	for _, ring := range rings {
		out := make([][]float64, 0, len(ring)+1)
		for _, p := range ring {
			d := p.ToDegrees()
			out = append(out, []float64{d.Lon, d.Lat})
		}
		if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
			out = append(out, out[0])
		}
		coords = append(coords, out)
	}
	return geojson.NewPolygonGeometry(coords)
}

// EditCorner moves one corner of a rectangle to pos and re-normalizes, so
// dragging a corner past the opposite edge flips the rectangle.
func EditCorner(r Rectangle, c Corner, pos spatial.LonLat) Rectangle {
	switch c {
	case CornerNW:
		r.North, r.West = pos.Lat, pos.Lon
	case CornerNE:
		r.North, r.East = pos.Lat, pos.Lon
	case CornerSE:
		r.South, r.East = pos.Lat, pos.Lon
	case CornerSW:
		r.South, r.West = pos.Lat, pos.Lon
	}
	return r.Normalize()
}

// Editable reports whether corner editing applies to the AOI. Polygons are
// not editable; the edit control is simply disabled for them.
func Editable(a AreaOfInterest) bool {
	return a.Kind == KindRectangle && a.Rect != nil
}

func ringFromCoords(coords [][]float64) ([]spatial.LonLat, error) {
	ring := make([]spatial.LonLat, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return nil, fmt.Errorf("position has %d coordinates", len(c))
		}
		ring = append(ring, spatial.LonLat{Lon: c[0], Lat: c[1]}.ToRadians())
	}
	return ring, nil
}

func largestPolygon(multi [][][][]float64) [][][]float64 {
	var best [][][]float64
	bestArea := -1.0
	for _, poly := range multi {
		if len(poly) == 0 {
			continue
		}
		ring := make([]spatial.LonLat, 0, len(poly[0]))
		for _, c := range poly[0] {
			if len(c) >= 2 {
				ring = append(ring, spatial.LonLat{Lon: c[0], Lat: c[1]})
			}
		}
		if area := spatial.RingArea(ring); area > bestArea {
			best, bestArea = poly, area
		}
	}
	return best
}
