package layout

import (
	"math"
	"testing"
	"unicode/utf8"

	"github.com/ZacxDev/video-captioner/internal/captions"
	"github.com/ZacxDev/video-captioner/pkg/types"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func ptr(f float64) *float64 { return &f }

func TestFade(t *testing.T) {
	tests := []struct {
		sub  float64
		want float64
	}{
		{0, 0},
		{0.05, 0.5},
		{0.1, 1},
		{0.5, 1},
		{0.9, 1},
		{0.95, 0.5},
		{1, 0},
	}
	for _, tt := range tests {
		if got := Fade(tt.sub); !approx(got, tt.want) {
			t.Errorf("Fade(%v) = %v, want %v", tt.sub, got, tt.want)
		}
	}
}

func TestChunkAttachesContinuation(t *testing.T) {
	words := []captions.Word{{Word: "Pay"}, {Word: "$50"}, {Word: "now"}, {Word: "please"}}
	chunks := Chunk(words, 2, DefaultContinuation)
	var got []string
	for _, c := range chunks {
		got = append(got, JoinWords(c))
	}
	want := []string{"Pay $50", "now please"}
	if len(got) != len(want) {
		t.Fatalf("chunks = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunkContinuationCanOverflow(t *testing.T) {
	words := []captions.Word{{Word: "costs"}, {Word: "50"}, {Word: "%"}, {Word: "more"}}
	chunks := Chunk(words, 2, DefaultContinuation)
	if len(chunks) != 2 || JoinWords(chunks[0]) != "costs 50 %" || JoinWords(chunks[1]) != "more" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestChunkFixedSize(t *testing.T) {
	words := []captions.Word{{Word: "a"}, {Word: "b"}, {Word: "c"}, {Word: "d"}, {Word: "e"}, {Word: "f"}, {Word: "g"}}
	chunks := Chunk(words, 3, nil)
	if len(chunks) != 3 || len(chunks[2]) != 1 {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestDefaultContinuation(t *testing.T) {
	tests := map[string]bool{
		"$50": true, "€3": true, "%": true, "(aside)": true, "+1": true, "!": true,
		"hello": false, "50": false, "": false,
	}
	for in, want := range tests {
		if got := DefaultContinuation(in); got != want {
			t.Errorf("DefaultContinuation(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFindFirstMatchOnOverlap(t *testing.T) {
	track := captions.Track{
		{StartTime: 0, EndTime: 2, Text: "first"},
		{StartTime: 1, EndTime: 3, Text: "second"},
	}
	u, idx, ok := Find(track, 1.5)
	if !ok || idx != 0 || u.Text != "first" {
		t.Fatalf("Find = %+v, %d, %v; want first unit", u, idx, ok)
	}
}

func TestFindOutsideAllRanges(t *testing.T) {
	track := captions.Track{{StartTime: 1, EndTime: 2, Text: "x"}}
	for _, at := range []float64{0, 0.999, 2.001, 10} {
		if _, _, ok := Find(track, at); ok {
			t.Errorf("Find(%v) matched, want no caption", at)
		}
		if _, ok := Resolve(track, at, Options{}); ok {
			t.Errorf("Resolve(%v) matched, want no caption", at)
		}
	}
}

func TestFindEmptyTrack(t *testing.T) {
	if _, _, ok := Find(nil, 0); ok {
		t.Fatal("empty track matched")
	}
}

func TestProgressZeroDurationIsComplete(t *testing.T) {
	u := captions.Unit{StartTime: 2, EndTime: 2, Text: "flash"}
	if got := Progress(u, 2); got != 1 {
		t.Fatalf("Progress = %v, want 1", got)
	}
	f, ok := Resolve(captions.Track{u}, 2, Options{Mode: types.DisplayModeWordGroups})
	if !ok {
		t.Fatal("zero-duration unit not resolved")
	}
	if f.Alpha != 1 {
		t.Errorf("Alpha = %v, want 1", f.Alpha)
	}
	if math.IsNaN(f.Progress) || math.IsNaN(f.SubProgress) {
		t.Errorf("NaN in frame: %+v", f)
	}
}

func TestProgressMonotonic(t *testing.T) {
	u := captions.Unit{StartTime: 1, EndTime: 4}
	prev := -1.0
	for at := 0.0; at <= 5; at += 0.01 {
		p := Progress(u, at)
		if p < prev-epsilon {
			t.Fatalf("progress decreased at %v: %v < %v", at, p, prev)
		}
		if p < 0 || p > 1 {
			t.Fatalf("progress out of range at %v: %v", at, p)
		}
		prev = p
	}
}

func TestWordsModeHelloWorld(t *testing.T) {
	track := captions.Track{{StartTime: 0, EndTime: 2, Text: "Hello World",
		Words: []captions.Word{{Word: "Hello"}, {Word: "World"}}}}
	opts := Options{Mode: types.DisplayModeWords}

	f, ok := Resolve(track, 0.4, opts)
	if !ok || f.Index != 0 || f.Text != "Hello" {
		t.Fatalf("t=0.4: %+v", f)
	}
	if !approx(f.SubProgress, 0.4) || !approx(f.Alpha, 1) {
		t.Errorf("t=0.4: sub=%v alpha=%v", f.SubProgress, f.Alpha)
	}

	f, ok = Resolve(track, 1.6, opts)
	if !ok || f.Index != 1 || f.Text != "World" {
		t.Fatalf("t=1.6: %+v", f)
	}
	if !approx(f.SubProgress, 0.6) {
		t.Errorf("t=1.6: sub=%v, want 0.6", f.SubProgress)
	}
}

func TestWordsModeExplicitTiming(t *testing.T) {
	track := captions.Track{{StartTime: 0, EndTime: 4, Words: []captions.Word{
		{Word: "one", StartTime: ptr(0), EndTime: ptr(0.5)},
		{Word: "two", StartTime: ptr(1), EndTime: ptr(4)},
	}}}
	opts := Options{Mode: types.DisplayModeWords}

	f, _ := Resolve(track, 2.5, opts)
	if f.Index != 1 || !approx(f.SubProgress, 0.5) {
		t.Errorf("t=2.5: index=%d sub=%v", f.Index, f.SubProgress)
	}

	// gap between words keeps the previous word, faded out
	f, _ = Resolve(track, 0.75, opts)
	if f.Index != 0 || f.Alpha != 0 {
		t.Errorf("t=0.75: index=%d alpha=%v", f.Index, f.Alpha)
	}
}

func TestWordGroupsModeAndUppercase(t *testing.T) {
	track := captions.Track{{StartTime: 0, EndTime: 2, Text: "one two three four five six"}}
	f, ok := Resolve(track, 1.5, Options{Mode: types.DisplayModeWordGroups, GroupSize: 3, Uppercase: true})
	if !ok {
		t.Fatal("no frame")
	}
	if f.Count != 2 || f.Index != 1 || f.Text != "FOUR FIVE SIX" {
		t.Fatalf("frame = %+v", f)
	}
}

func TestLinesModeEndOfUnit(t *testing.T) {
	track := captions.Track{{StartTime: 0, EndTime: 1, Text: "line"}}
	f, ok := Resolve(track, 1, Options{})
	if !ok || f.Index != 0 || f.SubProgress != 1 || f.Alpha != 0 {
		t.Fatalf("frame at end = %+v", f)
	}
}

func TestWordByWord(t *testing.T) {
	track := captions.Track{{StartTime: 0, EndTime: 3, Text: "a b c"}}
	f, ok := Resolve(track, 1.5, Options{WordByWord: true, Uppercase: true})
	if !ok || f.Index != 1 || len(f.Words) != 3 || f.Words[0] != "A" || f.Alpha != 1 {
		t.Fatalf("frame = %+v", f)
	}
}

func TestActiveIndexClamp(t *testing.T) {
	idx, sub := ActiveIndex(1, 4)
	if idx != 3 || sub != 1 {
		t.Errorf("ActiveIndex(1,4) = %d,%v", idx, sub)
	}
	idx, sub = ActiveIndex(-0.5, 4)
	if idx != 0 || sub != 0 {
		t.Errorf("ActiveIndex(-0.5,4) = %d,%v", idx, sub)
	}
}

func TestAnchor(t *testing.T) {
	x, y := Anchor(1920, 1080, 10)
	if x != 960 || !approx(y, 972) {
		t.Errorf("Anchor = %v,%v", x, y)
	}
}

// runeMeasurer gives every rune a width of 10.
type runeMeasurer struct{}

func (runeMeasurer) MeasureText(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * 10
}

func TestLayoutWordsCentered(t *testing.T) {
	boxes := LayoutWords([]string{"ab", "cde"}, runeMeasurer{}, 100)
	// joined "ab cde" is 60 wide, so the line starts at 70
	if len(boxes) != 2 {
		t.Fatalf("boxes = %+v", boxes)
	}
	if boxes[0].X != 70 || boxes[0].Width != 20 {
		t.Errorf("box 0 = %+v", boxes[0])
	}
	if boxes[1].X != 100 || boxes[1].Width != 30 {
		t.Errorf("box 1 = %+v", boxes[1])
	}
}
