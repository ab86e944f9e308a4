package heatmap

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/spatial"
	"github.com/jengzang/urban-twin-go/internal/stats"
)

var (
	ErrBadCanvas = errors.New("canvas width and height must be positive")
	ErrNoPoints  = errors.New("no valued points to render")
)

// ValuedPoint is a sample position in degrees with its measured value
type ValuedPoint struct {
	Lon   float64 `json:"lon" msgpack:"lon"`
	Lat   float64 `json:"lat" msgpack:"lat"`
	Value float64 `json:"value" msgpack:"value"`
}

// Config holds renderer tunables
type Config struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	RadiusScale  float64 `yaml:"radius_scale"`
	RadiusMin    float64 `yaml:"radius_min"`
	RadiusMax    float64 `yaml:"radius_max"`
	BlurFraction float64 `yaml:"blur_fraction"`
	OpacityBoost float64 `yaml:"opacity_boost"`
}

// DefaultConfig returns the tunables used when none are configured
func DefaultConfig() Config {
	return Config{
		Width:        512,
		Height:       512,
		RadiusScale:  1.5,
		RadiusMin:    8,
		RadiusMax:    120,
		BlurFraction: 0.015,
		OpacityBoost: 1.6,
	}
}

// Renderer splats valued points into an intensity field and colors it
// through a ramp
type Renderer struct {
	cfg  Config
	ramp *Ramp
}

// NewRenderer creates a renderer. A nil ramp uses DefaultRamp.
func NewRenderer(cfg Config, ramp *Ramp) *Renderer {
	if ramp == nil {
		ramp = DefaultRamp()
	}
	return &Renderer{cfg: cfg, ramp: ramp}
}

// Config returns the renderer tunables
func (r *Renderer) Config() Config {
	return r.cfg
}

// Radius returns the splat radius in pixels. Sparser grids get larger
// splats so neighbouring samples still blend.
func (r *Renderer) Radius(w, h, pointsPerSide int) float64 {
	if pointsPerSide < 1 {
		pointsPerSide = 1
	}
	side := float64(w)
	if h < w {
		side = float64(h)
	}
	return stats.Clamp(r.cfg.RadiusScale*side/float64(pointsPerSide), r.cfg.RadiusMin, r.cfg.RadiusMax)
}

// Render draws points over the AOI's bounding rectangle, north up. Values
// are clamped to [MinF, MaxF]. For polygon AOIs pixels outside the shape are
// left transparent.
func (r *Renderer) Render(a aoi.AreaOfInterest, points []ValuedPoint, w, h int) (*Raster, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrBadCanvas
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	b := a.Bounds()
	sw := spatial.LonLat{Lon: b.West, Lat: b.South}.ToDegrees()
	ne := spatial.LonLat{Lon: b.East, Lat: b.North}.ToDegrees()
	spanLon, spanLat := ne.Lon-sw.Lon, ne.Lat-sw.Lat
	if spanLon <= 0 || spanLat <= 0 {
		return nil, aoi.ErrDegenerateRect
	}

	pps := int(math.Ceil(math.Sqrt(float64(len(points)))))
	radius := r.Radius(w, h, pps)

	dc := gg.NewContext(w, h)
	for _, p := range points {
		x := (p.Lon - sw.Lon) / spanLon * float64(w)
		y := (ne.Lat - p.Lat) / spanLat * float64(h)
		alpha := uint8(math.Round(Normalize(p.Value) * 255))
		if alpha == 0 {
			continue
		}

		grad := gg.NewRadialGradient(x, y, 0, x, y, radius)
		grad.AddColorStop(0, color.NRGBA{A: alpha})
		grad.AddColorStop(1, color.NRGBA{})
		dc.SetFillStyle(grad)
		dc.DrawCircle(x, y, radius)
		dc.Fill()
	}

	field := blur(dc.Image(), r.blurRadius(w, h))

	intensity := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, _, _, alpha := field.At(x, y).RGBA()
			intensity.Pix[y*intensity.Stride+x] = uint8(alpha >> 8)
		}
	}

	if a.Kind == aoi.KindPolygon {
		clip(intensity, a, b, w, h)
	}

	raster := &Raster{
		Width:     w,
		Height:    h,
		Intensity: intensity,
		ramp:      r.ramp,
		boost:     r.cfg.OpacityBoost,
	}
	raster.Recolor(1)
	return raster, nil
}

func (r *Renderer) blurRadius(w, h int) int {
	side := w
	if h < w {
		side = h
	}
	return int(math.Round(r.cfg.BlurFraction * float64(side)))
}

// blur approximates a box blur by scaling down by the radius and back up
// with bilinear filtering
func blur(src image.Image, radius int) image.Image {
	if radius <= 1 {
		return src
	}
	bounds := src.Bounds()
	sw := bounds.Dx() / radius
	sh := bounds.Dy() / radius
	if sw < 1 || sh < 1 {
		return src
	}

	small := image.NewRGBA(image.Rect(0, 0, sw, sh))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), src, bounds, draw.Src, nil)

	out := image.NewRGBA(bounds)
	draw.BiLinear.Scale(out, bounds, small, small.Bounds(), draw.Src, nil)
	return out
}

// clip clears intensity outside the polygon, testing pixel centres in
// radians against the AOI
func clip(intensity *image.Alpha, a aoi.AreaOfInterest, b aoi.Rectangle, w, h int) {
	dLon := (b.East - b.West) / float64(w)
	dLat := (b.North - b.South) / float64(h)
	for y := 0; y < h; y++ {
		lat := b.North - (float64(y)+0.5)*dLat
		for x := 0; x < w; x++ {
			i := y*intensity.Stride + x
			if intensity.Pix[i] == 0 {
				continue
			}
			lon := b.West + (float64(x)+0.5)*dLon
			if !a.Contains(spatial.LonLat{Lon: lon, Lat: lat}) {
				intensity.Pix[i] = 0
			}
		}
	}
}
