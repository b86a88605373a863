// Package surface is the raster the compositor draws each frame onto.
package surface

import (
	"image"
	"image/color"
	"math"
)

// Surface is a 2D drawing target. Text coordinates take x as the left edge of
// the string and y as its vertical middle.
type Surface interface {
	Size() (w, h int)
	Clear()
	DrawImage(src image.Image)
	SetFont(px float64, bold bool) error
	FontSize() float64
	MeasureText(s string) float64
	FillText(s string, x, y float64, c color.Color)
	// StrokeText draws an outline of the given width around the glyphs.
	StrokeText(s string, x, y, width float64, c color.Color)
	FillRect(r Rect, c color.Color)
	// Shadow draws a blurred silhouette of s grown by spread pixels.
	Shadow(s string, x, y, spread, blur float64, c color.Color)
	Image() *image.RGBA
}

// Rect is an axis-aligned rectangle in surface pixels.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) image() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.W)), int(math.Ceil(r.Y+r.H)),
	)
}

// MinOversampling is the smallest supersampling factor applied to the source size.
const MinOversampling = 3

// OversamplingFactor returns max(pixelRatio, MinOversampling).
func OversamplingFactor(pixelRatio float64) float64 {
	return math.Max(pixelRatio, MinOversampling)
}

// WithAlpha scales the opacity of c by a in [0,1].
func WithAlpha(c color.Color, a float64) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	n.A = uint8(math.Round(float64(n.A) * a))
	return n
}
