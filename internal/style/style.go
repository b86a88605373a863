package style

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
)

// Style configures how captions are drawn. It is a plain value: copying it
// produces an independent snapshot.
type Style struct {
	FontFamily          string
	FontPath            string
	FontSize            float64
	Weight              string
	FillColor           color.NRGBA
	StrokeColor         color.NRGBA
	HighlightColor      color.NRGBA
	Position            float64
	DisplayMode         types.DisplayMode
	GroupSize           int
	UseStroke           bool
	UseHighlight        bool
	Uppercase           bool
	WordByWordHighlight bool
	Bounce              bool
	Rainbow             bool
}

const DefaultGroupSize = 3

// Default returns a bold white caption with a black outline near the bottom.
func Default() Style {
	return Style{
		FontFamily:     "Go",
		FontSize:       24,
		Weight:         "bold",
		FillColor:      color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		StrokeColor:    color.NRGBA{A: 255},
		HighlightColor: color.NRGBA{R: 255, G: 215, A: 255},
		Position:       10,
		DisplayMode:    types.DisplayModeLines,
		GroupSize:      DefaultGroupSize,
		UseStroke:      true,
	}
}

// Validate reports the first unusable field.
func (s Style) Validate() error {
	if s.FontSize <= 0 {
		return errors.Errorf("font size must be positive, got %v", s.FontSize)
	}
	if s.Position < 0 || s.Position > 100 {
		return errors.Errorf("position must be between 0 and 100, got %v", s.Position)
	}
	if _, ok := types.ParseDisplayMode(string(s.DisplayMode)); !ok {
		return errors.Errorf("unknown display mode %q", s.DisplayMode)
	}
	if s.GroupSize < 1 {
		return errors.Errorf("group size must be at least 1, got %d", s.GroupSize)
	}
	if !IsBold(s.Weight) && !isNumericWeight(s.Weight) && !strings.EqualFold(strings.TrimSpace(s.Weight), "normal") && s.Weight != "" {
		return errors.Errorf("unknown font weight %q", s.Weight)
	}
	return nil
}

// IsBold reports whether a CSS-style weight selects a bold face.
func IsBold(weight string) bool {
	w := strings.ToLower(strings.TrimSpace(weight))
	switch w {
	case "bold", "bolder":
		return true
	}
	if n, err := strconv.Atoi(w); err == nil {
		return n >= 600
	}
	return false
}

func isNumericWeight(weight string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(weight))
	return err == nil && n >= 100 && n <= 900 && n%100 == 0
}

var namedColors = map[string]color.NRGBA{
	"black":       {A: 255},
	"white":       {R: 255, G: 255, B: 255, A: 255},
	"red":         {R: 255, A: 255},
	"green":       {G: 128, A: 255},
	"lime":        {G: 255, A: 255},
	"blue":        {B: 255, A: 255},
	"yellow":      {R: 255, G: 255, A: 255},
	"cyan":        {G: 255, B: 255, A: 255},
	"magenta":     {R: 255, B: 255, A: 255},
	"orange":      {R: 255, G: 165, A: 255},
	"gold":        {R: 255, G: 215, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
	"transparent": {},
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa and a small set of CSS names.
func ParseColor(s string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	if !strings.HasPrefix(v, "#") {
		return color.NRGBA{}, errors.Errorf("invalid color %q", s)
	}
	hex := v[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, errors.Errorf("invalid color %q", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, errors.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// FormatColor renders c as #rrggbb, or #rrggbbaa when not opaque.
func FormatColor(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
