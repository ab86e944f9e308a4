package aoi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/urban-twin-go/internal/spatial"
)

func rectDeg(west, south, east, north float64) AreaOfInterest {
	sw := spatial.LonLat{Lon: west, Lat: south}.ToRadians()
	ne := spatial.LonLat{Lon: east, Lat: north}.ToRadians()
	return NewRectangleAOI(Rectangle{West: sw.Lon, South: sw.Lat, East: ne.Lon, North: ne.Lat})
}

func TestSample_RectangleIsFullLattice(t *testing.T) {
	s := NewSampler(DefaultSamplerConfig())
	a := rectDeg(-100, 30, -99, 31)

	n := s.DensityFor(a)
	pts := s.Sample(a, 0)
	require.Len(t, pts, n*n)

	// row-major from the south-west corner
	assert.InDelta(t, -100, pts[0].Lon, 1e-9)
	assert.InDelta(t, 30, pts[0].Lat, 1e-9)
	assert.InDelta(t, -99, pts[n-1].Lon, 1e-9)
	assert.InDelta(t, 30, pts[n-1].Lat, 1e-9)
	assert.InDelta(t, -99, pts[len(pts)-1].Lon, 1e-9)
	assert.InDelta(t, 31, pts[len(pts)-1].Lat, 1e-9)
}

func TestSample_FixedDensity(t *testing.T) {
	s := NewSampler(DefaultSamplerConfig())
	pts := s.Sample(rectDeg(0, 0, 20, 20), 3)

	require.Len(t, pts, 9)
	assert.InDelta(t, 10, pts[4].Lon, 1e-9)
	assert.InDelta(t, 10, pts[4].Lat, 1e-9)
}

func TestSample_SinglePointAtSouthWest(t *testing.T) {
	pts := Lattice(Rectangle{West: 1, South: 2, East: 3, North: 4}, 1)
	require.Len(t, pts, 1)
	assert.Equal(t, spatial.LonLat{Lon: 1, Lat: 2}, pts[0])

	assert.Empty(t, Lattice(Rectangle{West: 1, South: 2, East: 3, North: 4}, 0))
}

func TestSample_PolygonKeepsOnlyInsidePoints(t *testing.T) {
	s := NewSampler(DefaultSamplerConfig())
	tri, err := BuildPolygon([]*spatial.LonLat{deg(0, 0), deg(10, 0), deg(0, 10)})
	require.NoError(t, err)

	n := s.DensityFor(tri)
	pts := s.sampleRadians(tri, 0)
	require.NotEmpty(t, pts)
	assert.Less(t, len(pts), n*n)

	lattice := Lattice(tri.Bounds(), n)
	for _, p := range pts {
		assert.True(t, tri.Contains(p))
		assert.Contains(t, lattice, p)
	}
	inside := 0
	for _, p := range lattice {
		if spatial.PointInPolygon(p, tri.Poly.Ring) {
			inside++
		}
	}
	assert.Equal(t, inside, len(pts))
}

func TestSample_PolygonHolesExcluded(t *testing.T) {
	s := NewSampler(DefaultSamplerConfig())
	outer := []spatial.LonLat{{Lon: 0, Lat: 0}, {Lon: 10, Lat: 0}, {Lon: 10, Lat: 10}, {Lon: 0, Lat: 10}}
	hole := []spatial.LonLat{{Lon: 3, Lat: 3}, {Lon: 7, Lat: 3}, {Lon: 7, Lat: 7}, {Lon: 3, Lat: 7}}
	for i := range outer {
		outer[i] = outer[i].ToRadians()
	}
	for i := range hole {
		hole[i] = hole[i].ToRadians()
	}

	withHole := s.sampleRadians(NewPolygonAOI(outer, [][]spatial.LonLat{hole}), 11)
	without := s.sampleRadians(NewPolygonAOI(outer, nil), 11)

	assert.Less(t, len(withHole), len(without))
	for _, p := range withHole {
		assert.False(t, spatial.PointInPolygon(p, hole))
	}
}

func TestDensityFor_MonotonicAndClamped(t *testing.T) {
	s := NewSampler(DefaultSamplerConfig())

	prevRect, prevPoly := 0, 0
	for _, size := range []float64{0.01, 0.1, 0.5, 1, 2, 3, 4, 5, 8, 12, 20, 40} {
		r := rectDeg(-100, 30, -100+size, 30+size)
		n := s.DensityFor(r)
		assert.GreaterOrEqual(t, n, prevRect, "size %v", size)
		assert.GreaterOrEqual(t, n, 5)
		assert.LessOrEqual(t, n, 16)
		prevRect = n

		p := NewPolygonAOI(r.Rect.Ring(), nil)
		m := s.DensityFor(p)
		assert.GreaterOrEqual(t, m, prevPoly, "size %v", size)
		assert.GreaterOrEqual(t, m, 8)
		assert.LessOrEqual(t, m, 16)
		prevPoly = m
	}

	assert.Equal(t, 5, s.DensityFor(rectDeg(0, 0, 0.1, 0.1)))
	assert.Equal(t, 8, s.DensityFor(NewPolygonAOI(rectDeg(0, 0, 0.1, 0.1).Rect.Ring(), nil)))
	assert.Equal(t, 16, s.DensityFor(rectDeg(-120, 20, -80, 50)))
}

func TestSample_Deterministic(t *testing.T) {
	s := NewSampler(DefaultSamplerConfig())
	a := rectDeg(-90, 40, -85, 44)

	assert.Equal(t, s.Sample(a, 0), s.Sample(a, 0))
	assert.Nil(t, s.Sample(AreaOfInterest{}, 0))
}

func TestSummarize(t *testing.T) {
	s := NewSampler(DefaultSamplerConfig())
	sum := Summarize(rectDeg(-100, 30, -99, 31), s)

	assert.Equal(t, KindRectangle, sum.Kind)
	assert.InDelta(t, -99.5, sum.Center.Lon, 1e-9)
	assert.InDelta(t, 30.5, sum.Center.Lat, 1e-9)
	assert.Greater(t, sum.AreaSqMi, 3000.0)
	assert.Less(t, sum.AreaSqMi, 5000.0)
	assert.InDelta(t, 111, sum.HeightKm, 2)
	assert.Equal(t, 5, sum.GridDensity)
}
