package export

import (
	"image"
	"io"
	"math"

	"github.com/ZacxDev/video-captioner/internal/compositor"
	"github.com/ZacxDev/video-captioner/internal/source"
	"github.com/pkg/errors"
)

// Step tells the driver whether another tick should be scheduled.
type Step int

const (
	Continue Step = iota
	Stop
)

func (s Step) String() string {
	if s == Stop {
		return "stop"
	}
	return "continue"
}

// ProgressFunc receives the fraction of the source rendered so far, in [0,1].
type ProgressFunc func(fraction float64)

// FrameSink is the recorder end of the loop.
type FrameSink interface {
	Capture(img *image.RGBA) error
	Stop() error
}

// Loop renders one source frame per Tick. It calls sink.Stop exactly once,
// from the tick that observes the end of the source.
type Loop struct {
	src      source.Source
	comp     *compositor.Compositor
	sink     FrameSink
	progress ProgressFunc

	frames   int
	captions int
	last     float64
	stopped  bool
}

func NewLoop(src source.Source, comp *compositor.Compositor, sink FrameSink, progress ProgressFunc) *Loop {
	return &Loop{src: src, comp: comp, sink: sink, progress: progress}
}

// Tick draws and captures the next frame.
func (l *Loop) Tick() (Step, error) {
	if l.stopped {
		return Stop, nil
	}

	t := l.src.CurrentTime()
	frame, err := l.src.ReadFrame()
	if err == io.EOF {
		return l.stop()
	}
	if err != nil {
		return Stop, errors.Wrapf(err, "failed to decode frame at %.3fs", t)
	}

	drawn, err := l.comp.DrawFrame(frame, t)
	if err != nil {
		return Stop, errors.Wrapf(err, "failed to draw frame at %.3fs", t)
	}
	if drawn {
		l.captions++
	}
	if err := l.sink.Capture(l.comp.Surface().Image()); err != nil {
		return Stop, errors.Wrapf(err, "failed to capture frame at %.3fs", t)
	}
	l.frames++

	now := l.src.CurrentTime()
	l.report(now)
	if now >= l.src.Duration() {
		return l.stop()
	}
	return Continue, nil
}

func (l *Loop) stop() (Step, error) {
	l.stopped = true
	l.report(l.src.Duration())
	if err := l.sink.Stop(); err != nil {
		return Stop, errors.Wrap(err, "failed to stop recorder")
	}
	return Stop, nil
}

func (l *Loop) report(now float64) {
	d := l.src.Duration()
	fraction := 1.0
	if d > 0 {
		fraction = math.Max(0, math.Min(1, now/d))
	}
	if fraction < l.last {
		fraction = l.last
	}
	l.last = fraction
	if l.progress != nil {
		l.progress(fraction)
	}
}

// Frames is the number of frames captured so far.
func (l *Loop) Frames() int { return l.frames }

// CaptionFrames is the number of captured frames that carried a caption.
func (l *Loop) CaptionFrames() int { return l.captions }
