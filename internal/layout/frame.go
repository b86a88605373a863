package layout

import (
	"strings"

	"github.com/ZacxDev/video-captioner/internal/captions"
	"github.com/ZacxDev/video-captioner/pkg/types"
)

// Options selects how a unit is broken up on screen.
type Options struct {
	Mode         types.DisplayMode
	GroupSize    int
	Continuation ContinuationFunc
	Uppercase    bool
	// WordByWord shows the whole unit and marks the word being spoken.
	WordByWord bool
}

// Frame is the caption state at one instant.
type Frame struct {
	Unit      captions.Unit
	UnitIndex int
	// Text is what to draw in lines/words/wordgroups modes.
	Text string
	// Words holds every word of the unit for word-by-word rendering.
	Words       []string
	Index       int
	Count       int
	Progress    float64
	SubProgress float64
	Alpha       float64
}

// Resolve computes the caption frame at t. ok is false when no unit is active.
func Resolve(track captions.Track, t float64, opts Options) (Frame, bool) {
	unit, unitIdx, ok := Find(track, t)
	if !ok {
		return Frame{}, false
	}
	words := unit.WordList()
	progress := Progress(unit, t)
	f := Frame{Unit: unit, UnitIndex: unitIdx, Progress: progress}

	if opts.WordByWord {
		f.Words = make([]string, len(words))
		for i, w := range words {
			f.Words[i] = transform(w.Word, opts.Uppercase)
		}
		f.Text = strings.Join(f.Words, " ")
		f.Count = len(words)
		f.Index, f.SubProgress = wordIndex(unit, words, t, progress)
		f.Alpha = 1
		return f, true
	}

	switch opts.Mode {
	case types.DisplayModeWords:
		if len(words) == 0 {
			return Frame{}, false
		}
		f.Count = len(words)
		f.Index, f.SubProgress = wordIndex(unit, words, t, progress)
		f.Text = transform(words[f.Index].Word, opts.Uppercase)
	case types.DisplayModeWordGroups:
		size := opts.GroupSize
		if size < 1 {
			size = 3
		}
		cont := opts.Continuation
		if cont == nil {
			cont = DefaultContinuation
		}
		chunks := Chunk(words, size, cont)
		if len(chunks) == 0 {
			return Frame{}, false
		}
		f.Count = len(chunks)
		f.Index, f.SubProgress = ActiveIndex(progress, f.Count)
		f.Text = transform(JoinWords(chunks[f.Index]), opts.Uppercase)
	default:
		text := unit.Text
		if strings.TrimSpace(text) == "" {
			text = JoinWords(words)
		}
		if strings.TrimSpace(text) == "" {
			return Frame{}, false
		}
		f.Count = 1
		f.Index, f.SubProgress = ActiveIndex(progress, 1)
		f.Text = transform(text, opts.Uppercase)
	}

	if unit.Duration() <= 0 {
		f.Alpha = 1
	} else {
		f.Alpha = Fade(f.SubProgress)
	}
	return f, true
}

// wordIndex picks the active word. Explicit word timing is used only when
// every word has it; between timed words the preceding word stays selected
// with its sub-progress pinned at the end of its slice.
func wordIndex(unit captions.Unit, words []captions.Word, t, progress float64) (int, float64) {
	if len(words) == 0 {
		return 0, 0
	}
	if !allTimed(words) || unit.Duration() <= 0 {
		return ActiveIndex(progress, len(words))
	}

	preceding := -1
	for i, w := range words {
		start, end := *w.StartTime, *w.EndTime
		if start <= t && t <= end {
			if end <= start {
				return i, 0.5
			}
			return i, clamp01((t - start) / (end - start))
		}
		if start <= t {
			preceding = i
		}
	}
	if preceding < 0 {
		return 0, 0
	}
	return preceding, 1
}

func allTimed(words []captions.Word) bool {
	for _, w := range words {
		if !w.Timed() {
			return false
		}
	}
	return true
}

func transform(s string, uppercase bool) string {
	if uppercase {
		return strings.ToUpper(s)
	}
	return s
}
