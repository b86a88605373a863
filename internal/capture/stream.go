package capture

import (
	"image"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// AudioTrack is the source audio merged into a capture.
type AudioTrack struct {
	Path   string
	Volume float64
}

// Stream carries raw RGBA frames from the draw loop to an encoder.
type Stream struct {
	Width  int
	Height int
	FPS    float64

	pr     *io.PipeReader
	pw     *io.PipeWriter
	audio  *AudioTrack
	mu     sync.Mutex
	frames int
	closed bool
}

// NewStream creates a stream for w×h frames at fps.
func NewStream(w, h int, fps float64) *Stream {
	pr, pw := io.Pipe()
	return &Stream{Width: w, Height: h, FPS: fps, pr: pr, pw: pw}
}

// AddAudioTrack merges the audio of the file at path into the capture.
func (s *Stream) AddAudioTrack(path string, volume float64) {
	s.audio = &AudioTrack{Path: path, Volume: volume}
}

// Audio returns the merged audio track, if any.
func (s *Stream) Audio() *AudioTrack { return s.audio }

// Reader is the encoder's end of the stream.
func (s *Stream) Reader() io.Reader { return s.pr }

// Frames returns how many frames were captured.
func (s *Stream) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Capture writes one frame. It blocks until the encoder has consumed it.
func (s *Stream) Capture(img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() != s.Width || b.Dy() != s.Height {
		return errors.Errorf("frame is %dx%d, stream expects %dx%d", b.Dx(), b.Dy(), s.Width, s.Height)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.WithStack(io.ErrClosedPipe)
	}
	s.mu.Unlock()

	rowLen := 4 * s.Width
	if img.Stride == rowLen {
		start := img.PixOffset(b.Min.X, b.Min.Y)
		if _, err := s.pw.Write(img.Pix[start : start+rowLen*s.Height]); err != nil {
			return errors.Wrap(err, "failed to write frame")
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := img.PixOffset(b.Min.X, y)
			if _, err := s.pw.Write(img.Pix[off : off+rowLen]); err != nil {
				return errors.Wrap(err, "failed to write frame")
			}
		}
	}

	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
	return nil
}

// Close signals end of stream to the encoder.
func (s *Stream) Close() error {
	return s.CloseWithError(nil)
}

// CloseWithError ends the stream; the encoder sees err instead of io.EOF.
func (s *Stream) CloseWithError(err error) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.pw.CloseWithError(err)
}

// abortRead unblocks writers when the encoder has gone away.
func (s *Stream) abortRead(err error) {
	s.pr.CloseWithError(err)
}
