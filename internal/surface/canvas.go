package surface

import (
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontSpec picks the typeface. A Path overrides Family.
type FontSpec struct {
	Family string
	Path   string
}

type faceKey struct {
	px   int64
	bold bool
}

// Canvas is an in-memory RGBA Surface with opentype text rendering.
type Canvas struct {
	img     *image.RGBA
	regular *opentype.Font
	bold    *opentype.Font
	faces   map[faceKey]font.Face
	face    font.Face
	px      float64
}

var _ Surface = (*Canvas)(nil)

// NewCanvas allocates a w×h canvas cleared to opaque black.
func NewCanvas(w, h int, spec FontSpec) (*Canvas, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.Errorf("invalid canvas size %dx%d", w, h)
	}
	regular, bold, err := loadFonts(spec)
	if err != nil {
		return nil, err
	}
	c := &Canvas{
		img:     image.NewRGBA(image.Rect(0, 0, w, h)),
		regular: regular,
		bold:    bold,
		faces:   make(map[faceKey]font.Face),
	}
	c.Clear()
	return c, nil
}

func loadFonts(spec FontSpec) (*opentype.Font, *opentype.Font, error) {
	if spec.Path != "" {
		data, err := os.ReadFile(spec.Path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to read font file")
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to parse font")
		}
		return f, f, nil
	}

	regularTTF, boldTTF := goregular.TTF, gobold.TTF
	switch strings.ToLower(strings.TrimSpace(spec.Family)) {
	case "mono", "go mono", "gomono", "monospace":
		regularTTF, boldTTF = gomono.TTF, gomonobold.TTF
	}
	regular, err := opentype.Parse(regularTTF)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse builtin font")
	}
	bold, err := opentype.Parse(boldTTF)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse builtin font")
	}
	return regular, bold, nil
}

func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
}

// DrawImage scales src to cover the whole canvas.
func (c *Canvas) DrawImage(src image.Image) {
	if src == nil {
		return
	}
	draw.ApproxBiLinear.Scale(c.img, c.img.Bounds(), src, src.Bounds(), draw.Src, nil)
}

func (c *Canvas) SetFont(px float64, bold bool) error {
	if px <= 0 {
		return errors.Errorf("invalid font size %v", px)
	}
	key := faceKey{px: int64(math.Round(px * 100)), bold: bold}
	if face, ok := c.faces[key]; ok {
		c.face, c.px = face, px
		return nil
	}
	f := c.regular
	if bold {
		f = c.bold
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create font face")
	}
	c.faces[key] = face
	c.face, c.px = face, px
	return nil
}

func (c *Canvas) FontSize() float64 { return c.px }

func (c *Canvas) MeasureText(s string) float64 {
	if c.face == nil {
		return 0
	}
	return float64(font.MeasureString(c.face, s)) / 64
}

func (c *Canvas) FillText(s string, x, y float64, col color.Color) {
	if c.face == nil || s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  c.dot(x, y),
	}
	d.DrawString(s)
}

func (c *Canvas) StrokeText(s string, x, y, width float64, col color.Color) {
	if c.face == nil || s == "" || width <= 0 {
		return
	}
	r := width / 2
	mask := c.textMask(s, x, y, int(math.Ceil(r))+1)
	outline := dilate(mask, r)
	draw.DrawMask(c.img, outline.Rect, image.NewUniform(col), image.Point{}, outline, outline.Rect.Min, draw.Over)
}

func (c *Canvas) FillRect(r Rect, col color.Color) {
	draw.Draw(c.img, r.image(), image.NewUniform(col), image.Point{}, draw.Over)
}

// Shadow follows the canvas convention where blur is twice the gaussian sigma.
func (c *Canvas) Shadow(s string, x, y, spread, blur float64, col color.Color) {
	if c.face == nil || s == "" {
		return
	}
	pad := int(math.Ceil(spread+1.5*blur)) + 1
	mask := dilate(c.textMask(s, x, y, pad), spread)

	n := color.NRGBAModel.Convert(col).(color.NRGBA)
	silhouette := image.NewNRGBA(mask.Rect)
	for py := mask.Rect.Min.Y; py < mask.Rect.Max.Y; py++ {
		for px := mask.Rect.Min.X; px < mask.Rect.Max.X; px++ {
			a := mask.AlphaAt(px, py).A
			if a == 0 {
				continue
			}
			silhouette.SetNRGBA(px, py, color.NRGBA{R: n.R, G: n.G, B: n.B, A: uint8(uint32(a) * uint32(n.A) / 255)})
		}
	}

	var shadow image.Image = silhouette
	if blur > 0 {
		shadow = imaging.Blur(silhouette, blur/2)
	}
	// imaging returns images anchored at the origin
	draw.Draw(c.img, mask.Rect, shadow, shadow.Bounds().Min, draw.Over)
}

// EncodePNG writes the canvas, resized to w×h when they differ from its size.
func (c *Canvas) EncodePNG(out io.Writer, w, h int) error {
	var img image.Image = c.img
	if cw, ch := c.Size(); w > 0 && h > 0 && (w != cw || h != ch) {
		img = imaging.Resize(c.img, w, h, imaging.Lanczos)
	}
	return errors.WithStack(imaging.Encode(out, img, imaging.PNG))
}

// Close releases cached font faces.
func (c *Canvas) Close() error {
	for k, f := range c.faces {
		f.Close()
		delete(c.faces, k)
	}
	c.face = nil
	return nil
}

// dot converts a left/middle anchor to the drawer's baseline origin.
func (c *Canvas) dot(x, y float64) fixed.Point26_6 {
	m := c.face.Metrics()
	baseline := y + float64(m.Ascent-m.Descent)/64/2
	return fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(baseline * 64))}
}

// textMask rasterizes s into an alpha mask padded by pad pixels on each side.
func (c *Canvas) textMask(s string, x, y float64, pad int) *image.Alpha {
	dot := c.dot(x, y)
	d := &font.Drawer{Face: c.face, Dot: dot}
	b, _ := d.BoundString(s)
	rect := image.Rect(b.Min.X.Floor()-pad, b.Min.Y.Floor()-pad, b.Max.X.Ceil()+pad, b.Max.Y.Ceil()+pad)
	mask := image.NewAlpha(rect)
	d.Dst = mask
	d.Src = image.Opaque
	d.DrawString(s)
	return mask
}

// dilate grows mask by radius r using a disc structuring element.
func dilate(src *image.Alpha, r float64) *image.Alpha {
	if r <= 0 {
		return src
	}
	ri := int(math.Ceil(r))
	var offsets []image.Point
	for dy := -ri; dy <= ri; dy++ {
		for dx := -ri; dx <= ri; dx++ {
			if float64(dx*dx+dy*dy) <= r*r+0.5 {
				offsets = append(offsets, image.Pt(dx, dy))
			}
		}
	}

	b := src.Rect
	dst := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := src.Pix[src.PixOffset(x, y)]
			if a == 0 {
				continue
			}
			for _, o := range offsets {
				p := image.Pt(x+o.X, y+o.Y)
				if !p.In(b) {
					continue
				}
				i := dst.PixOffset(p.X, p.Y)
				if dst.Pix[i] < a {
					dst.Pix[i] = a
				}
			}
		}
	}
	return dst
}
