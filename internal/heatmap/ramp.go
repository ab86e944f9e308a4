package heatmap

import (
	"fmt"
	"image/color"
	"math"
)

const (
	// MinF and MaxF bound the temperature scale the ramp spans
	MinF = 0.0
	MaxF = 110.0

	RampSize = 256
)

// DefaultStops runs blue, cyan, green, yellow, red
var DefaultStops = []string{"#0000FF", "#00FFFF", "#00FF00", "#FFFF00", "#FF0000"}

// Ramp is a 256-entry lookup table indexed by intensity
type Ramp [RampSize]color.RGBA

var defaultRamp = mustRamp(DefaultStops)

// DefaultRamp returns the shared blue-to-red ramp
func DefaultRamp() *Ramp {
	return defaultRamp
}

// NewRamp interpolates linearly between evenly spaced hex stops. Entry 0 is
// the first stop and entry 255 the last one.
func NewRamp(stops []string) (*Ramp, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("ramp needs at least 2 stops, got %d", len(stops))
	}

	colors := make([]color.RGBA, len(stops))
	for i, s := range stops {
		c, err := parseHexColor(s)
		if err != nil {
			return nil, err
		}
		colors[i] = c
	}

	var r Ramp
	segments := float64(len(colors) - 1)
	for i := 0; i < RampSize; i++ {
		t := float64(i) / float64(RampSize-1) * segments
		seg := int(t)
		if seg > len(colors)-2 {
			seg = len(colors) - 2
		}
		r[i] = interpolateColor(colors[seg], colors[seg+1], t-float64(seg))
	}
	return &r, nil
}

func mustRamp(stops []string) *Ramp {
	r, err := NewRamp(stops)
	if err != nil {
		panic(err)
	}
	return r
}

// At returns the ramp color for a normalized value in [0, 1]
func (r *Ramp) At(n float64) color.RGBA {
	if n <= 0 || math.IsNaN(n) {
		return r[0]
	}
	if n >= 1 {
		return r[RampSize-1]
	}
	return r[int(math.Round(n*float64(RampSize-1)))]
}

// Normalize clamps a temperature to [MinF, MaxF] and scales it to [0, 1]
func Normalize(f float64) float64 {
	if f < MinF {
		f = MinF
	}
	if f > MaxF {
		f = MaxF
	}
	return (f - MinF) / (MaxF - MinF)
}

// ColorForTemperature maps degrees Fahrenheit onto the default ramp
func ColorForTemperature(f float64) color.RGBA {
	return defaultRamp.At(Normalize(f))
}

// Hex formats a color as #RRGGBB
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func parseHexColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid hex color format: %s", s)
	}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color format: %s", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

func interpolateColor(c1, c2 color.RGBA, factor float64) color.RGBA {
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + factor*(float64(b)-float64(a))))
	}
	return color.RGBA{
		R: lerp(c1.R, c2.R),
		G: lerp(c1.G, c2.G),
		B: lerp(c1.B, c2.B),
		A: lerp(c1.A, c2.A),
	}
}
