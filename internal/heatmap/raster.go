package heatmap

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
)

// Raster is a rendered heatmap. Intensity keeps the splatted field so the
// image can be recolored for a new opacity without splatting again.
type Raster struct {
	Width     int
	Height    int
	Intensity *image.Alpha
	Image     *image.NRGBA
	Opacity   float64

	ramp  *Ramp
	boost float64
}

// Recolor maps every intensity through the ramp. Alpha is the intensity
// scaled by the opacity boost and the given opacity in [0, 1].
func (r *Raster) Recolor(opacity float64) *image.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	ramp := r.ramp
	if ramp == nil {
		ramp = DefaultRamp()
	}
	boost := r.boost
	if boost <= 0 {
		boost = 1
	}

	img := r.Image
	if img == nil || img.Bounds().Dx() != r.Width || img.Bounds().Dy() != r.Height {
		img = image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	}

	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := r.Intensity.Pix[y*r.Intensity.Stride+x]
			off := img.PixOffset(x, y)
			if v == 0 {
				img.Pix[off+3] = 0
				continue
			}
			c := ramp[v]
			alpha := math.Min(255, float64(v)*boost) * opacity
			img.Pix[off] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = uint8(math.Round(alpha))
		}
	}

	r.Image = img
	r.Opacity = opacity
	return img
}

// At returns the colored pixel at (x, y)
func (r *Raster) At(x, y int) color.NRGBA {
	if r.Image == nil {
		return color.NRGBA{}
	}
	return r.Image.NRGBAAt(x, y)
}

// EncodePNG writes the colored image as PNG
func (r *Raster) EncodePNG(w io.Writer) error {
	if r.Image == nil {
		r.Recolor(1)
	}
	return png.Encode(w, r.Image)
}
