// Package layout decides which caption text is on screen at a given playback
// time, how far through its display slice it is, and where it sits.
package layout

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ZacxDev/video-captioner/internal/captions"
)

const (
	fadeWindow = 0.1

	// MaxWidthRatio is the widest a rendered line may be relative to the surface.
	MaxWidthRatio = 0.8
)

// ContinuationFunc reports whether word must stay attached to the word before it.
type ContinuationFunc func(word string) bool

// DefaultContinuation keeps words led by a currency or math symbol, a percent
// sign, a bracket or a punctuation mark with the preceding word.
func DefaultContinuation(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return false
	}
	if unicode.Is(unicode.Sc, r) || unicode.Is(unicode.Sm, r) {
		return true
	}
	return strings.ContainsRune("%()[]{}.,;:!?", r)
}

// Find returns the first unit whose closed interval contains t.
func Find(track captions.Track, t float64) (captions.Unit, int, bool) {
	for i, u := range track {
		if u.Contains(t) {
			return u, i, true
		}
	}
	return captions.Unit{}, -1, false
}

// Progress is how far t is through u, clamped to [0,1]. A unit with no
// duration is always complete.
func Progress(u captions.Unit, t float64) float64 {
	d := u.Duration()
	if d <= 0 {
		return 1
	}
	return clamp01((t - u.StartTime) / d)
}

// Fade maps sub-progress through a display slice to opacity, ramping over the
// first and last tenth.
func Fade(sub float64) float64 {
	switch {
	case sub < fadeWindow:
		return clamp01(sub / fadeWindow)
	case sub > 1-fadeWindow:
		return clamp01((1 - sub) / fadeWindow)
	}
	return 1
}

// ActiveIndex splits progress into count equal slices and returns the active
// slice and how far through it progress is. At progress 1 the last slice is
// active with sub-progress 1.
func ActiveIndex(progress float64, count int) (int, float64) {
	if count <= 0 {
		return 0, 0
	}
	scaled := clamp01(progress) * float64(count)
	idx := int(math.Floor(scaled))
	if idx > count-1 {
		idx = count - 1
	}
	return idx, scaled - float64(idx)
}

// Chunk groups words into runs of size. A word accepted by isContinuation never
// opens a chunk, so a chunk can grow past size to keep it attached.
func Chunk(words []captions.Word, size int, isContinuation ContinuationFunc) [][]captions.Word {
	if size < 1 {
		size = 1
	}
	var chunks [][]captions.Word
	var current []captions.Word
	for _, w := range words {
		attach := isContinuation != nil && isContinuation(w.Word)
		if len(current) >= size && !attach {
			chunks = append(chunks, current)
			current = nil
		}
		current = append(current, w)
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// JoinWords renders words separated by single spaces.
func JoinWords(words []captions.Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Word
	}
	return strings.Join(parts, " ")
}

// Anchor returns the center point for caption text on a w×h surface with the
// caption raised position percent from the bottom.
func Anchor(w, h, position float64) (x, y float64) {
	return w / 2, h * (1 - position/100)
}

// Bounce is the vertical offset, in unscaled pixels, of the bounce animation at t.
func Bounce(t float64) float64 {
	return math.Sin(t*5) * 10
}

// RainbowHue is the hue in degrees of the rainbow fill at t.
func RainbowHue(t float64) float64 {
	return math.Mod(t*100, 360)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
