// Package compositor paints one output frame: the decoded source picture with
// the active caption drawn over it.
package compositor

import (
	"image"
	"image/color"
	"math"

	"github.com/ZacxDev/video-captioner/internal/captions"
	"github.com/ZacxDev/video-captioner/internal/layout"
	"github.com/ZacxDev/video-captioner/internal/style"
	"github.com/ZacxDev/video-captioner/internal/surface"
	"github.com/pkg/errors"
)

// Proportions of the scaled font size.
const (
	strokeRatio    = 0.15
	shadowRatio    = 0.2
	highlightRatio = 0.2
	// strokeSpread widens the outline by this many surface pixels per side.
	strokeSpread = 2
)

var shadowColor = color.NRGBA{A: 204}

// Options tune how the caption is laid out.
type Options struct {
	// Factor is the ratio of surface size to source size.
	Factor       float64
	Continuation layout.ContinuationFunc
}

// Compositor draws captions from a fixed track with a fixed style.
type Compositor struct {
	surf   surface.Surface
	style  style.Style
	track  captions.Track
	factor float64
	layout layout.Options
}

// New freezes st and track for the lifetime of the compositor.
func New(surf surface.Surface, st style.Style, track captions.Track, opts Options) *Compositor {
	factor := opts.Factor
	if factor <= 0 {
		factor = 1
	}
	group := st.GroupSize
	if group < 1 {
		group = style.DefaultGroupSize
	}
	return &Compositor{
		surf:   surf,
		style:  st,
		track:  track.Clone(),
		factor: factor,
		layout: layout.Options{
			Mode:         st.DisplayMode,
			GroupSize:    group,
			Continuation: opts.Continuation,
			Uppercase:    st.Uppercase,
			WordByWord:   st.WordByWordHighlight,
		},
	}
}

// Surface returns the draw target.
func (c *Compositor) Surface() surface.Surface { return c.surf }

// DrawFrame clears the surface, blits frame and overlays the caption active at
// t. It reports whether a caption was drawn; no active caption is not an error.
func (c *Compositor) DrawFrame(frame image.Image, t float64) (bool, error) {
	c.surf.Clear()
	c.surf.DrawImage(frame)

	f, ok := layout.Resolve(c.track, t, c.layout)
	if !ok {
		return false, nil
	}
	if c.layout.WordByWord {
		return true, c.drawWordHighlight(f, t)
	}
	return true, c.drawChunk(f, t)
}

func (c *Compositor) drawChunk(f layout.Frame, t float64) error {
	px, width, err := c.fitFont(f.Text)
	if err != nil {
		return err
	}
	cx, cy := c.anchor(t)
	left := cx - width/2
	stroke := strokeRatio * px

	if c.style.UseHighlight {
		c.surf.FillRect(highlightRect(left, cy, width, px), surface.WithAlpha(c.style.HighlightColor, f.Alpha))
	}
	if c.style.UseStroke {
		c.surf.Shadow(f.Text, left, cy, stroke/2+strokeSpread, shadowRatio*px, surface.WithAlpha(shadowColor, f.Alpha))
		c.surf.StrokeText(f.Text, left, cy, stroke+2*strokeSpread, surface.WithAlpha(c.style.StrokeColor, f.Alpha))
	}
	c.surf.FillText(f.Text, left, cy, surface.WithAlpha(c.fillColor(t), f.Alpha))
	return nil
}

func (c *Compositor) drawWordHighlight(f layout.Frame, t float64) error {
	px, _, err := c.fitFont(f.Text)
	if err != nil {
		return err
	}
	cx, cy := c.anchor(t)
	stroke := strokeRatio * px

	for i, box := range layout.LayoutWords(f.Words, c.surf, cx) {
		current := i == f.Index
		if current && c.style.UseHighlight {
			c.surf.FillRect(highlightRect(box.X, cy, box.Width, px), c.style.HighlightColor)
		}
		if c.style.UseStroke {
			c.surf.StrokeText(box.Text, box.X, cy, stroke, c.style.StrokeColor)
		}
		fill := color.Color(c.style.StrokeColor)
		if current {
			fill = c.fillColor(t)
		}
		c.surf.FillText(box.Text, box.X, cy, fill)
	}
	return nil
}

// fitFont selects the scaled font and shrinks it when text would exceed the
// maximum line width.
func (c *Compositor) fitFont(text string) (px, width float64, err error) {
	bold := style.IsBold(c.style.Weight)
	px = c.style.FontSize * c.factor
	if err := c.surf.SetFont(px, bold); err != nil {
		return 0, 0, errors.Wrap(err, "failed to set caption font")
	}
	width = c.surf.MeasureText(text)

	w, _ := c.surf.Size()
	limit := float64(w) * layout.MaxWidthRatio
	if width > limit && width > 0 {
		px *= limit / width
		if err := c.surf.SetFont(px, bold); err != nil {
			return 0, 0, errors.Wrap(err, "failed to set caption font")
		}
		width = c.surf.MeasureText(text)
	}
	return px, width, nil
}

func (c *Compositor) anchor(t float64) (float64, float64) {
	w, h := c.surf.Size()
	x, y := layout.Anchor(float64(w), float64(h), c.style.Position)
	if c.style.Bounce {
		y += layout.Bounce(t) * c.factor
	}
	return x, y
}

func (c *Compositor) fillColor(t float64) color.NRGBA {
	if c.style.Rainbow {
		r, g, b := hslToRGB(layout.RainbowHue(t), 1, 0.5)
		return color.NRGBA{R: r, G: g, B: b, A: c.style.FillColor.A}
	}
	return c.style.FillColor
}

func highlightRect(x, cy, width, px float64) surface.Rect {
	pad := highlightRatio * px
	return surface.Rect{
		X: x - pad/2,
		Y: cy - px/2 - pad/2,
		W: width + pad,
		H: px + pad,
	}
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	k := func(n float64) float64 { return math.Mod(n+h/30, 12) }
	a := s * math.Min(l, 1-l)
	ch := func(n float64) uint8 {
		v := l - a*math.Max(-1, math.Min(math.Min(k(n)-3, 9-k(n)), 1))
		return uint8(math.Round(v * 255))
	}
	return ch(0), ch(8), ch(4)
}
