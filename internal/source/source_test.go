package source

import (
	"context"
	"io"
	"testing"

	"github.com/pkg/errors"
)

func TestSyntheticPlaysToEnd(t *testing.T) {
	s := NewSynthetic("clip.mp4", 4, 2, 10, 1, false)
	if _, err := s.ReadFrame(); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("ReadFrame before Play = %v, want ErrNotPlaying", err)
	}
	if err := s.Play(context.Background()); err != nil {
		t.Fatal(err)
	}

	frames := 0
	prev := -1.0
	for {
		img, err := s.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
			t.Fatalf("frame bounds = %v", b)
		}
		if now := s.CurrentTime(); now <= prev {
			t.Fatalf("clock did not advance: %v <= %v", now, prev)
		} else {
			prev = now
		}
		frames++
	}
	if frames != 10 {
		t.Errorf("frames = %d, want 10", frames)
	}
	if s.CurrentTime() != s.Duration() {
		t.Errorf("CurrentTime at EOF = %v, want %v", s.CurrentTime(), s.Duration())
	}
}

func TestSyntheticSeek(t *testing.T) {
	s := NewSynthetic("clip.mp4", 2, 2, 10, 2, true)
	_ = s.Play(context.Background())
	for i := 0; i < 5; i++ {
		if _, err := s.ReadFrame(); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Seek(0); err != nil {
		t.Fatal(err)
	}
	if s.CurrentTime() != 0 {
		t.Fatalf("CurrentTime after Seek(0) = %v", s.CurrentTime())
	}
	if _, err := s.ReadFrame(); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("seek should pause playback, got %v", err)
	}
	if err := s.Seek(1.5); err != nil {
		t.Fatal(err)
	}
	if s.CurrentTime() != 1.5 {
		t.Fatalf("CurrentTime after Seek(1.5) = %v", s.CurrentTime())
	}
}

func TestPlayHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSynthetic("clip.mp4", 2, 2, 10, 1, false)
	if err := s.Play(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestVolumeClamped(t *testing.T) {
	s := NewSynthetic("clip.mp4", 2, 2, 10, 1, false)
	if s.Volume() != 1 {
		t.Fatalf("default volume = %v", s.Volume())
	}
	s.SetVolume(2)
	if s.Volume() != 1 {
		t.Errorf("volume = %v, want clamp to 1", s.Volume())
	}
	s.SetVolume(-1)
	if s.Volume() != 0 {
		t.Errorf("volume = %v, want clamp to 0", s.Volume())
	}
}

func TestEndOfStream(t *testing.T) {
	tests := []struct {
		name     string
		read     int
		expected int
		eof      bool
	}{
		{"all frames read", 30, 30, true},
		{"one frame short from rounding", 29, 30, true},
		{"unknown frame count", 3, 0, true},
		{"truncated halfway", 15, 30, false},
		{"failed before first frame", 0, 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := endOfStream(tt.read, tt.expected)
			if got := err == io.EOF; got != tt.eof {
				t.Errorf("endOfStream(%d, %d) = %v, want EOF %v", tt.read, tt.expected, err, tt.eof)
			}
		})
	}
}

func TestSkipFrames(t *testing.T) {
	available := 4
	read := func() bool {
		if available == 0 {
			return false
		}
		available--
		return true
	}

	n, err := skipFrames(read, 3)
	if err != nil || n != 3 {
		t.Fatalf("skipFrames(3) = %d, %v", n, err)
	}
	n, err = skipFrames(read, 5)
	if err == nil {
		t.Fatal("expected error when the decoder runs dry")
	}
	if n != 1 {
		t.Errorf("skipped %d frames, want 1", n)
	}
}
