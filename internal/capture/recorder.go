// Package capture records composited frames through a streaming encoder and
// collects the encoded output in arrival order.
package capture

import (
	"bytes"
	"context"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/ZacxDev/video-captioner/internal/profile"
	"github.com/pkg/errors"
)

var (
	ErrRecorderStart  = errors.New("recorder failed to start")
	ErrNotRecording   = errors.New("recorder is not recording")
	ErrAlreadyStarted = errors.New("recorder already started")
	ErrAlreadyStopped = errors.New("recorder already stopped")
	ErrEncoderExited  = errors.New("encoder exited before stop")
	ErrAborted        = errors.New("recording aborted")
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopping
	StateFinalized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Encoder turns a raw frame stream into container bytes written to out.
// Start launches the encoder; wait blocks until it has flushed and exited.
type Encoder interface {
	Start(ctx context.Context, stream *Stream, out io.Writer) (wait func() error, err error)
}

// Recording is the finalized output of a recorder.
type Recording struct {
	Chunks    [][]byte
	MimeType  string
	Extension string
}

// Size is the total byte length of all chunks.
func (r *Recording) Size() int64 {
	var n int64
	for _, c := range r.Chunks {
		n += int64(len(c))
	}
	return n
}

// Bytes concatenates chunks in arrival order.
func (r *Recording) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(int(r.Size()))
	for _, c := range r.Chunks {
		buf.Write(c)
	}
	return buf.Bytes()
}

// WriteTo writes chunks in arrival order.
func (r *Recording) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, c := range r.Chunks {
		n, err := w.Write(c)
		total += int64(n)
		if err != nil {
			return total, errors.WithStack(err)
		}
	}
	return total, nil
}

// chunkCollector stores every Write as its own chunk.
type chunkCollector struct {
	mu     sync.Mutex
	chunks [][]byte
}

func (c *chunkCollector) Write(p []byte) (int, error) {
	chunk := make([]byte, len(p))
	copy(chunk, p)
	c.mu.Lock()
	c.chunks = append(c.chunks, chunk)
	c.mu.Unlock()
	return len(p), nil
}

func (c *chunkCollector) snapshot() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.chunks))
	copy(out, c.chunks)
	return out
}

// Recorder drives one encoder over one stream:
// Idle -> Recording -> Stopping -> Finalized, or Failed on encoder error.
type Recorder struct {
	stream  *Stream
	encoder Encoder
	profile profile.Profile
	logger  *slog.Logger

	mu     sync.Mutex
	state  State
	chunks chunkCollector
	done   chan struct{}
	err    error
	cancel context.CancelFunc
}

// NewRecorder binds an encoder to a stream for the given profile.
func NewRecorder(stream *Stream, enc Encoder, p profile.Profile, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		stream:  stream,
		encoder: enc,
		profile: p,
		logger:  logger.With("component", "recorder"),
		done:    make(chan struct{}),
	}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Stream returns the stream the recorder consumes.
func (r *Recorder) Stream() *Stream { return r.stream }

// Start launches the encoder. It must be called before the first Capture.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIdle {
		return ErrAlreadyStarted
	}

	encCtx, cancel := context.WithCancel(ctx)
	wait, err := r.encoder.Start(encCtx, r.stream, &r.chunks)
	if err != nil {
		cancel()
		r.state = StateFailed
		r.err = errors.Wrapf(ErrRecorderStart, "%v", err)
		close(r.done)
		return r.err
	}
	r.cancel = cancel
	r.state = StateRecording
	r.logger.Debug("recorder started",
		"mime", r.profile.GetMimeType(),
		"bitrate", r.profile.GetVideoBitrate(),
		"size", image.Pt(r.stream.Width, r.stream.Height),
	)

	go r.finish(wait)
	return nil
}

func (r *Recorder) finish(wait func() error) {
	err := wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	defer close(r.done)
	defer r.cancel()

	switch {
	case err != nil:
		r.state = StateFailed
		r.err = errors.Wrap(err, "encoder failed")
		r.stream.abortRead(r.err)
	case r.state == StateRecording:
		r.state = StateFailed
		r.err = ErrEncoderExited
		r.stream.abortRead(r.err)
	default:
		r.state = StateFinalized
	}
	r.logger.Debug("recorder finished", "state", r.state.String(), "chunks", len(r.chunks.chunks))
}

// Capture forwards one frame to the encoder.
func (r *Recorder) Capture(img *image.RGBA) error {
	if st := r.State(); st != StateRecording {
		if st == StateFailed {
			return r.failure()
		}
		return ErrNotRecording
	}
	if err := r.stream.Capture(img); err != nil {
		if st := r.State(); st == StateFailed {
			return r.failure()
		}
		return err
	}
	return nil
}

// Stop ends the stream so the encoder can flush. It succeeds exactly once.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	switch r.state {
	case StateIdle:
		r.mu.Unlock()
		return ErrNotRecording
	case StateRecording:
	case StateFailed:
		r.mu.Unlock()
		return r.failure()
	default:
		r.mu.Unlock()
		return ErrAlreadyStopped
	}
	r.state = StateStopping
	r.mu.Unlock()

	r.logger.Debug("recorder stopping", "frames", r.stream.Frames())
	return errors.Wrap(r.stream.Close(), "failed to close stream")
}

// Wait blocks until the encoder has finalized and returns the recording.
func (r *Recorder) Wait(ctx context.Context) (*Recording, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		r.Abort()
		<-r.done
		return nil, errors.Wrap(ctx.Err(), "waiting for recorder")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateFinalized {
		return nil, r.err
	}
	return &Recording{
		Chunks:    r.chunks.snapshot(),
		MimeType:  r.profile.GetMimeType(),
		Extension: r.profile.GetFileExtension(),
	}, nil
}

// Abort kills the encoder and discards output.
func (r *Recorder) Abort() {
	r.mu.Lock()
	if r.state == StateIdle {
		r.state = StateFailed
		r.err = ErrAborted
		close(r.done)
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.mu.Unlock()
	r.stream.CloseWithError(ErrAborted)
	if cancel != nil {
		cancel()
	}
}

func (r *Recorder) failure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		return ErrNotRecording
	}
	return r.err
}
