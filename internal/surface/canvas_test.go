package surface

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func newTestCanvas(t *testing.T, w, h int) *Canvas {
	t.Helper()
	c, err := NewCanvas(w, h, FontSpec{})
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	if err := c.SetFont(32, true); err != nil {
		t.Fatalf("SetFont: %v", err)
	}
	return c
}

func countNonBlack(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.R != 0 || c.G != 0 || c.B != 0 {
				n++
			}
		}
	}
	return n
}

func TestOversamplingFactor(t *testing.T) {
	tests := []struct{ in, want float64 }{{1, 3}, {2, 3}, {3, 3}, {4, 4}}
	for _, tt := range tests {
		if got := OversamplingFactor(tt.in); got != tt.want {
			t.Errorf("OversamplingFactor(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithAlpha(t *testing.T) {
	got := WithAlpha(color.NRGBA{R: 10, G: 20, B: 30, A: 200}, 0.5)
	if got != (color.NRGBA{R: 10, G: 20, B: 30, A: 100}) {
		t.Errorf("WithAlpha = %v", got)
	}
}

func TestNewCanvasRejectsEmpty(t *testing.T) {
	if _, err := NewCanvas(0, 10, FontSpec{}); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestMeasureTextGrows(t *testing.T) {
	c := newTestCanvas(t, 200, 100)
	short, long := c.MeasureText("Hi"), c.MeasureText("Hi there")
	if short <= 0 || long <= short {
		t.Fatalf("MeasureText short=%v long=%v", short, long)
	}
	if c.MeasureText(" ") <= 0 {
		t.Fatal("space has no width")
	}
}

func TestFillTextDrawsNearAnchor(t *testing.T) {
	c := newTestCanvas(t, 300, 100)
	c.FillText("Hello", 20, 50, color.White)
	if n := countNonBlack(c.Image(), image.Rect(0, 20, 300, 80)); n == 0 {
		t.Fatal("no pixels drawn around the middle line")
	}
	if n := countNonBlack(c.Image(), image.Rect(0, 0, 300, 10)); n != 0 {
		t.Fatalf("%d pixels drawn far above text", n)
	}
}

func TestStrokeCoversMoreThanFill(t *testing.T) {
	fill := newTestCanvas(t, 300, 100)
	fill.FillText("Hello", 20, 50, color.White)
	stroke := newTestCanvas(t, 300, 100)
	stroke.StrokeText("Hello", 20, 50, 6, color.White)
	all := image.Rect(0, 0, 300, 100)
	if f, s := countNonBlack(fill.Image(), all), countNonBlack(stroke.Image(), all); s <= f {
		t.Fatalf("stroke covered %d pixels, fill %d", s, f)
	}
}

func TestShadowAndRect(t *testing.T) {
	c := newTestCanvas(t, 300, 100)
	c.Shadow("Hello", 20, 50, 2, 6, color.NRGBA{R: 255, A: 204})
	if countNonBlack(c.Image(), c.Image().Bounds()) == 0 {
		t.Fatal("shadow drew nothing")
	}
	c.Clear()
	c.FillRect(Rect{X: 10, Y: 10, W: 5, H: 5}, color.White)
	if n := countNonBlack(c.Image(), c.Image().Bounds()); n != 25 {
		t.Fatalf("rect covered %d pixels, want 25", n)
	}
}

func TestDrawImageScales(t *testing.T) {
	c := newTestCanvas(t, 40, 20)
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	c.DrawImage(src)
	if n := countNonBlack(c.Image(), c.Image().Bounds()); n != 800 {
		t.Fatalf("scaled image covered %d pixels, want 800", n)
	}
}

func TestEncodePNGResizes(t *testing.T) {
	c := newTestCanvas(t, 60, 30)
	var buf bytes.Buffer
	if err := c.EncodePNG(&buf, 20, 10); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Fatalf("bounds = %v", b)
	}
}
