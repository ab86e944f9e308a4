package aoi

import (
	"math"

	"github.com/jengzang/urban-twin-go/internal/spatial"
	"github.com/jengzang/urban-twin-go/internal/stats"
)

// SamplerConfig controls how grid density follows AOI size
type SamplerConfig struct {
	MinRectangle int     `yaml:"min_rectangle"`
	MinPolygon   int     `yaml:"min_polygon"`
	Max          int     `yaml:"max"`
	LowSqMi      float64 `yaml:"low_sq_mi"`
	HighSqMi     float64 `yaml:"high_sq_mi"`
}

// DefaultSamplerConfig interpolates 5 (8 for polygons) .. 16 points per side
// between 1,000 and 100,000 square miles.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		MinRectangle: 5,
		MinPolygon:   8,
		Max:          16,
		LowSqMi:      1000,
		HighSqMi:     100000,
	}
}

// Sampler produces evenly spaced sample points inside an AOI
type Sampler struct {
	Config SamplerConfig
}

// NewSampler creates a sampler with the given config
func NewSampler(cfg SamplerConfig) *Sampler {
	return &Sampler{Config: cfg}
}

// AreaSquareMiles is the spherical-cap area of the AOI's bounding rectangle.
// The lattice spans the bounding rectangle, so that is the area density is
// chosen for.
func AreaSquareMiles(a AreaOfInterest) float64 {
	b := a.Bounds()
	return spatial.RectAreaSquareMiles(b.West, b.South, b.East, b.North)
}

// DensityFor returns the points-per-side N for an AOI. N never decreases as
// area grows and stays within [min, Max].
func (s *Sampler) DensityFor(a AreaOfInterest) int {
	lo := s.Config.MinRectangle
	if a.Kind == KindPolygon {
		lo = s.Config.MinPolygon
	}
	hi := s.Config.Max
	if hi < lo {
		hi = lo
	}

	area := AreaSquareMiles(a)
	switch {
	case area <= s.Config.LowSqMi:
		return lo
	case area >= s.Config.HighSqMi:
		return hi
	}

	t := (area - s.Config.LowSqMi) / (s.Config.HighSqMi - s.Config.LowSqMi)
	n := int(math.Round(stats.Lerp(float64(lo), float64(hi), t)))
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Sample returns grid points in degrees, row-major from the south-west
// corner. fixedDensity > 0 forces an N x N lattice; otherwise N comes from
// DensityFor. Polygon AOIs keep only lattice points inside the outer ring and
// outside every hole.
func (s *Sampler) Sample(a AreaOfInterest, fixedDensity int) []spatial.LonLat {
	pts := s.sampleRadians(a, fixedDensity)
	for i := range pts {
		pts[i] = pts[i].ToDegrees()
	}
	return pts
}

func (s *Sampler) sampleRadians(a AreaOfInterest, fixedDensity int) []spatial.LonLat {
	if a.IsZero() {
		return nil
	}

	n := fixedDensity
	if n <= 0 {
		n = s.DensityFor(a)
	}

	lattice := Lattice(a.Bounds(), n)
	if a.Kind != KindPolygon {
		return lattice
	}

	kept := lattice[:0]
	for _, p := range lattice {
		if spatial.PointInPolygonWithHoles(p, a.Poly.Ring, a.Poly.Holes) {
			kept = append(kept, p)
		}
	}
	return kept
}

// Lattice returns the n x n lattice spanning r, row-major, in r's unit. The
// step is (max-min)/(n-1) per axis, or 0 when n is 1.
func Lattice(r Rectangle, n int) []spatial.LonLat {
	if n <= 0 {
		return nil
	}

	var stepLon, stepLat float64
	if n > 1 {
		stepLon = (r.East - r.West) / float64(n-1)
		stepLat = (r.North - r.South) / float64(n-1)
	}

	out := make([]spatial.LonLat, 0, n*n)
	for i := 0; i < n; i++ {
		lat := r.South + float64(i)*stepLat
		for j := 0; j < n; j++ {
			out = append(out, spatial.LonLat{Lon: r.West + float64(j)*stepLon, Lat: lat})
		}
	}
	return out
}
