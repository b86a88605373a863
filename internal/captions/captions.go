package captions

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidDocument is returned when a caption document is missing or malformed.
var ErrInvalidDocument = errors.New("invalid caption document")

// Word is a single word of a caption unit. Timing is optional; untimed words
// get an even share of their unit.
type Word struct {
	Word      string   `json:"word"`
	StartTime *float64 `json:"startTime,omitempty"`
	EndTime   *float64 `json:"endTime,omitempty"`
}

// Timed reports whether the word carries both start and end times.
func (w Word) Timed() bool {
	return w.StartTime != nil && w.EndTime != nil
}

// Unit is one timed caption entry.
type Unit struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Text      string  `json:"text"`
	Words     []Word  `json:"words,omitempty"`
}

// Duration returns EndTime - StartTime.
func (u Unit) Duration() float64 {
	return u.EndTime - u.StartTime
}

// Contains reports whether t falls inside the closed interval [StartTime, EndTime].
func (u Unit) Contains(t float64) bool {
	return u.StartTime <= t && t <= u.EndTime
}

// WordList returns the unit's words, deriving them from Text when none were given.
func (u Unit) WordList() []Word {
	if len(u.Words) > 0 {
		return u.Words
	}
	fields := strings.Fields(u.Text)
	words := make([]Word, len(fields))
	for i, f := range fields {
		words[i] = Word{Word: f}
	}
	return words
}

// Track is an ordered list of caption units. Overlaps resolve to the first match.
type Track []Unit

// Clone returns a deep copy so a running export is isolated from edits.
func (t Track) Clone() Track {
	if t == nil {
		return nil
	}
	out := make(Track, len(t))
	for i, u := range t {
		out[i] = u
		if u.Words != nil {
			out[i].Words = make([]Word, len(u.Words))
			for j, w := range u.Words {
				out[i].Words[j] = Word{Word: w.Word, StartTime: copyFloat(w.StartTime), EndTime: copyFloat(w.EndTime)}
			}
		}
	}
	return out
}

// End returns the latest end time in the track.
func (t Track) End() float64 {
	var end float64
	for _, u := range t {
		if u.EndTime > end {
			end = u.EndTime
		}
	}
	return end
}

// Validate checks every unit for finite, ordered timing.
func (t Track) Validate() error {
	for i, u := range t {
		if !finite(u.StartTime) || !finite(u.EndTime) {
			return errors.Wrapf(ErrInvalidDocument, "unit %d: non-finite timing", i)
		}
		if u.StartTime < 0 {
			return errors.Wrapf(ErrInvalidDocument, "unit %d: negative start time %v", i, u.StartTime)
		}
		if u.EndTime < u.StartTime {
			return errors.Wrapf(ErrInvalidDocument, "unit %d: end time %v before start time %v", i, u.EndTime, u.StartTime)
		}
		for j, w := range u.Words {
			if w.Timed() && *w.EndTime < *w.StartTime {
				return errors.Wrapf(ErrInvalidDocument, "unit %d word %d: end time before start time", i, j)
			}
		}
	}
	return nil
}

// normalize fills Text from Words when only words were supplied.
func (t Track) normalize() {
	for i := range t {
		if strings.TrimSpace(t[i].Text) != "" || len(t[i].Words) == 0 {
			continue
		}
		parts := make([]string, 0, len(t[i].Words))
		for _, w := range t[i].Words {
			parts = append(parts, w.Word)
		}
		t[i].Text = strings.Join(parts, " ")
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
