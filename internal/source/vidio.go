package source

import (
	"context"
	"image"
	"io"
	"log/slog"
	"math"

	vidio "github.com/AlexEidt/Vidio"
	"github.com/ZacxDev/video-captioner/internal/ffmpeg"
	"github.com/pkg/errors"
)

// VidioSource decodes frames through an ffmpeg pipe. Seeking reopens the
// decoder and skips forward.
type VidioSource struct {
	*clock
	path   string
	video  *vidio.Video
	meta   *ffmpeg.VideoMetadata
	logger *slog.Logger
}

var _ Source = (*VidioSource)(nil)

// Open probes path and prepares it for decoding.
func Open(path string, proc *ffmpeg.Processor, logger *slog.Logger) (*VidioSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if proc == nil {
		proc = ffmpeg.NewProcessor(logger)
	}
	meta, err := proc.GetVideoMetadata(path)
	if err != nil {
		return nil, err
	}
	video, err := vidio.NewVideo(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open video %s", path)
	}

	fps := video.FPS()
	if fps <= 0 {
		fps = meta.FPS
	}
	duration := video.Duration()
	if duration <= 0 {
		duration = meta.Duration
	}
	meta.Width, meta.Height = video.Width(), video.Height()

	return &VidioSource{
		clock:  newClock(fps, duration),
		path:   path,
		video:  video,
		meta:   meta,
		logger: logger,
	}, nil
}

func (s *VidioSource) Path() string      { return s.path }
func (s *VidioSource) Width() int        { return s.meta.Width }
func (s *VidioSource) Height() int       { return s.meta.Height }
func (s *VidioSource) Duration() float64 { return s.clock.duration }
func (s *VidioSource) FPS() float64      { return s.clock.fps }
func (s *VidioSource) HasAudio() bool    { return s.meta.HasAudio }

// Metadata returns the probe result for the source.
func (s *VidioSource) Metadata() ffmpeg.VideoMetadata { return *s.meta }

func (s *VidioSource) Seek(t float64) error {
	target := s.frameAt(t)
	s.video.Close()
	video, err := vidio.NewVideo(s.path)
	if err != nil {
		return errors.Wrapf(err, "unable to reopen video %s", s.path)
	}
	s.video = video
	if read, err := skipFrames(s.video.Read, target); err != nil {
		if endOfStream(read, s.expectedFrames()) != io.EOF {
			return errors.Wrapf(err, "failed to seek %s to %.3fs", s.path, t)
		}
		// past the last frame; ReadFrame reports EOF from here
		target = read
	}
	s.reset(target)
	s.logger.Debug("seeked source", "time", t, "frame", target)
	return nil
}

func (s *VidioSource) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.start()
	return nil
}

// ReadFrame returns the next decoded frame. The returned image aliases the
// decoder buffer and is only valid until the next call.
func (s *VidioSource) ReadFrame() (image.Image, error) {
	if !s.isPlaying() {
		return nil, ErrNotPlaying
	}
	if !s.video.Read() {
		if err := endOfStream(s.position(), s.expectedFrames()); err != io.EOF {
			return nil, errors.Wrapf(err, "failed to decode %s", s.path)
		}
		s.end()
		return nil, io.EOF
	}
	w, h := s.video.Width(), s.video.Height()
	frame := &image.RGBA{
		Pix:    s.video.FrameBuffer(),
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
	s.advance()
	return frame, nil
}

func (s *VidioSource) Close() error {
	s.video.Close()
	return nil
}

func (s *VidioSource) expectedFrames() int {
	if n := s.video.Frames(); n > 0 {
		return n
	}
	return int(math.Ceil(s.clock.duration * s.clock.fps))
}

// endOfStream classifies a failed decoder read after read frames. Vidio
// reports a truncated stream and a real end of file the same way, so only a
// read at the expected frame count (less one frame of rounding) is io.EOF.
func endOfStream(read, expected int) error {
	if expected <= 0 || read >= expected-1 {
		return io.EOF
	}
	return errors.Errorf("decoder stopped after %d of %d frames", read, expected)
}

// skipFrames calls read n times and returns how many succeeded.
func skipFrames(read func() bool, n int) (int, error) {
	for i := 0; i < n; i++ {
		if !read() {
			return i, errors.Errorf("decoder stopped after %d of %d frames", i, n)
		}
	}
	return n, nil
}
