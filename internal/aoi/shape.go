package aoi

import (
	"errors"
	"fmt"
	"math"

	"github.com/brunoga/deep"

	"github.com/jengzang/urban-twin-go/internal/spatial"
)

// Kind tags the shape held by an AreaOfInterest
type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindPolygon   Kind = "polygon"
)

var (
	ErrEmptyArea      = errors.New("area of interest has no shape")
	ErrDegenerateRect = errors.New("rectangle has zero width or height")
	ErrTooFewVertices = errors.New("polygon needs at least 3 distinct vertices")
)

// Rectangle is an axis-aligned lat/lon rectangle in radians
type Rectangle struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Normalize swaps bounds so that West <= East and South <= North
func (r Rectangle) Normalize() Rectangle {
	if r.West > r.East {
		r.West, r.East = r.East, r.West
	}
	if r.South > r.North {
		r.South, r.North = r.North, r.South
	}
	return r
}

// Validate checks the strict rectangle invariant
func (r Rectangle) Validate() error {
	if !(r.West < r.East) || !(r.South < r.North) {
		return ErrDegenerateRect
	}
	if r.South < -math.Pi/2 || r.North > math.Pi/2 {
		return fmt.Errorf("latitude out of range [%f, %f]", r.South, r.North)
	}
	return nil
}

// Center returns the midpoint of the rectangle in radians
func (r Rectangle) Center() spatial.LonLat {
	return spatial.LonLat{Lon: (r.West + r.East) / 2, Lat: (r.South + r.North) / 2}
}

// Ring returns the rectangle corners counter-clockwise starting at SW
func (r Rectangle) Ring() []spatial.LonLat {
	return []spatial.LonLat{
		{Lon: r.West, Lat: r.South},
		{Lon: r.East, Lat: r.South},
		{Lon: r.East, Lat: r.North},
		{Lon: r.West, Lat: r.North},
	}
}

// Polygon is an outer ring with optional holes, vertices in radians
type Polygon struct {
	Ring  []spatial.LonLat   `json:"ring"`
	Holes [][]spatial.LonLat `json:"holes,omitempty"`
}

// AreaOfInterest is either a Rectangle or a Polygon
type AreaOfInterest struct {
	Kind Kind       `json:"kind"`
	Rect *Rectangle `json:"rect,omitempty"`
	Poly *Polygon   `json:"poly,omitempty"`
}

// NewRectangleAOI wraps a normalized rectangle
func NewRectangleAOI(r Rectangle) AreaOfInterest {
	r = r.Normalize()
	return AreaOfInterest{Kind: KindRectangle, Rect: &r}
}

// NewPolygonAOI wraps a polygon. The rings are copied.
func NewPolygonAOI(ring []spatial.LonLat, holes [][]spatial.LonLat) AreaOfInterest {
	p := &Polygon{Ring: append([]spatial.LonLat(nil), ring...)}
	for _, h := range holes {
		p.Holes = append(p.Holes, append([]spatial.LonLat(nil), h...))
	}
	return AreaOfInterest{Kind: KindPolygon, Poly: p}
}

// Validate checks the invariants of whichever shape is set
func (a AreaOfInterest) Validate() error {
	switch a.Kind {
	case KindRectangle:
		if a.Rect == nil {
			return ErrEmptyArea
		}
		return a.Rect.Validate()
	case KindPolygon:
		if a.Poly == nil {
			return ErrEmptyArea
		}
		if spatial.DistinctVertices(a.Poly.Ring) < 3 {
			return ErrTooFewVertices
		}
		return nil
	default:
		return ErrEmptyArea
	}
}

// IsZero reports whether no shape is set
func (a AreaOfInterest) IsZero() bool {
	return a.Rect == nil && a.Poly == nil
}

// Bounds returns the bounding rectangle of the shape
func (a AreaOfInterest) Bounds() Rectangle {
	switch {
	case a.Kind == KindRectangle && a.Rect != nil:
		return *a.Rect
	case a.Kind == KindPolygon && a.Poly != nil:
		west, south, east, north := spatial.BoundingBox(a.Poly.Ring)
		return Rectangle{West: west, South: south, East: east, North: north}
	}
	return Rectangle{}
}

// Contains tests a point given in radians against the shape. Polygon holes
// are excluded.
func (a AreaOfInterest) Contains(p spatial.LonLat) bool {
	switch {
	case a.Kind == KindRectangle && a.Rect != nil:
		r := a.Rect
		return p.Lon >= r.West && p.Lon <= r.East && p.Lat >= r.South && p.Lat <= r.North
	case a.Kind == KindPolygon && a.Poly != nil:
		return spatial.PointInPolygonWithHoles(p, a.Poly.Ring, a.Poly.Holes)
	}
	return false
}

// Clone returns a deep copy
func (a AreaOfInterest) Clone() AreaOfInterest {
	return deep.MustCopy(a)
}

// Summary describes the size of an AOI for display
type Summary struct {
	Kind        Kind           `json:"kind"`
	Center      spatial.LonLat `json:"center"` // degrees
	AreaSqMi    float64        `json:"area_sq_mi"`
	BoundsSqMi  float64        `json:"bounds_sq_mi"`
	WidthKm     float64        `json:"width_km"`
	HeightKm    float64        `json:"height_km"`
	GridDensity int            `json:"grid_density"`
	VertexCount int            `json:"vertex_count"`
	HoleCount   int            `json:"hole_count"`
}

// Summarize computes display metrics for an AOI using the sampler's density
// rule.
func Summarize(a AreaOfInterest, s *Sampler) Summary {
	b := a.Bounds()
	c := b.Center().ToDegrees()
	sw := spatial.LonLat{Lon: b.West, Lat: b.South}.ToDegrees()
	ne := spatial.LonLat{Lon: b.East, Lat: b.North}.ToDegrees()

	width, height := spatial.ExtentKm(sw.Lon, sw.Lat, ne.Lon, ne.Lat)

	sum := Summary{
		Kind:        a.Kind,
		Center:      c,
		BoundsSqMi:  spatial.RectAreaSquareMiles(b.West, b.South, b.East, b.North),
		WidthKm:     width,
		HeightKm:    height,
		GridDensity: s.DensityFor(a),
	}
	sum.AreaSqMi = sum.BoundsSqMi
	if a.Kind == KindPolygon && a.Poly != nil {
		sum.AreaSqMi = spatial.RingAreaSquareMiles(a.Poly.Ring)
		for _, h := range a.Poly.Holes {
			sum.AreaSqMi -= spatial.RingAreaSquareMiles(h)
		}
		sum.VertexCount = len(a.Poly.Ring)
		sum.HoleCount = len(a.Poly.Holes)
	} else {
		sum.VertexCount = 4
	}
	return sum
}
