// Package source exposes a decodable video as a seekable, playable clock that
// yields one frame at a time.
package source

import (
	"context"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Source is a video being played back for capture. ReadFrame returns io.EOF
// once playback passes the last frame, at which point CurrentTime equals Duration.
type Source interface {
	Path() string
	Width() int
	Height() int
	Duration() float64
	FPS() float64
	HasAudio() bool
	CurrentTime() float64
	Seek(t float64) error
	Play(ctx context.Context) error
	ReadFrame() (image.Image, error)
	Volume() float64
	SetVolume(v float64)
	Close() error
}

// ErrNotPlaying is returned by ReadFrame before Play.
var ErrNotPlaying = errors.New("source is not playing")

// clock tracks playback position in whole frames.
type clock struct {
	mu       sync.Mutex
	fps      float64
	duration float64
	frame    int
	ended    bool
	playing  bool
	volume   float64
}

func newClock(fps, duration float64) *clock {
	if fps <= 0 {
		fps = 30
	}
	return &clock{fps: fps, duration: duration, volume: 1}
}

func (c *clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return c.duration
	}
	return math.Min(float64(c.frame)/c.fps, c.duration)
}

// position is the index of the next frame to be read.
func (c *clock) position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

func (c *clock) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

func (c *clock) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = math.Max(0, math.Min(1, v))
}

func (c *clock) reset(frame int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = frame
	c.ended = false
	c.playing = false
}

func (c *clock) start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = true
}

func (c *clock) isPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// advance records that the frame at the current position was read.
func (c *clock) advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame++
}

func (c *clock) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ended = true
}

func (c *clock) frameAt(t float64) int {
	if t <= 0 {
		return 0
	}
	return int(math.Floor(t * c.fps))
}

// Synthetic is an in-memory source producing solid frames.
type Synthetic struct {
	*clock
	path          string
	width, height int
	audio         bool
	fill          color.Color
	frames        int
}

var _ Source = (*Synthetic)(nil)

// NewSynthetic builds a w×h source of the given length.
func NewSynthetic(path string, w, h int, fps, duration float64, audio bool) *Synthetic {
	s := &Synthetic{
		clock:  newClock(fps, duration),
		path:   path,
		width:  w,
		height: h,
		audio:  audio,
		fill:   color.RGBA{R: 32, G: 64, B: 96, A: 255},
	}
	s.frames = int(math.Ceil(duration * s.clock.fps))
	return s
}

func (s *Synthetic) Path() string      { return s.path }
func (s *Synthetic) Width() int        { return s.width }
func (s *Synthetic) Height() int       { return s.height }
func (s *Synthetic) Duration() float64 { return s.clock.duration }
func (s *Synthetic) FPS() float64      { return s.clock.fps }
func (s *Synthetic) HasAudio() bool    { return s.audio }
func (s *Synthetic) Close() error      { return nil }

func (s *Synthetic) Seek(t float64) error {
	s.reset(s.frameAt(t))
	return nil
}

func (s *Synthetic) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.start()
	return nil
}

func (s *Synthetic) ReadFrame() (image.Image, error) {
	if !s.isPlaying() {
		return nil, ErrNotPlaying
	}
	s.mu.Lock()
	idx := s.frame
	s.mu.Unlock()
	if idx >= s.frames {
		s.end()
		return nil, io.EOF
	}
	frame := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(s.fill), image.Point{}, draw.Src)
	s.advance()
	return frame, nil
}
