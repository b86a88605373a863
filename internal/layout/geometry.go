package layout

import "strings"

// Measurer returns the advance width of s in surface pixels.
type Measurer interface {
	MeasureText(s string) float64
}

// Box is one word placed on a line. X is the left edge.
type Box struct {
	Text  string
	X     float64
	Width float64
}

// LayoutWords places words left to right so the joined line is centered on centerX.
func LayoutWords(words []string, m Measurer, centerX float64) []Box {
	if len(words) == 0 {
		return nil
	}
	total := m.MeasureText(strings.Join(words, " "))
	space := m.MeasureText(" ")
	x := centerX - total/2
	boxes := make([]Box, len(words))
	for i, w := range words {
		width := m.MeasureText(w)
		boxes[i] = Box{Text: w, X: x, Width: width}
		x += width + space
	}
	return boxes
}
