// Package export drives a full caption burn: source playback, per-frame
// compositing, recording, audio re-attachment and artifact storage.
package export

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/ZacxDev/video-captioner/internal/artifact"
	"github.com/ZacxDev/video-captioner/internal/captions"
	"github.com/ZacxDev/video-captioner/internal/capture"
	"github.com/ZacxDev/video-captioner/internal/compositor"
	"github.com/ZacxDev/video-captioner/internal/layout"
	"github.com/ZacxDev/video-captioner/internal/logging"
	"github.com/ZacxDev/video-captioner/internal/profile"
	"github.com/ZacxDev/video-captioner/internal/remux"
	"github.com/ZacxDev/video-captioner/internal/source"
	"github.com/ZacxDev/video-captioner/internal/style"
	"github.com/ZacxDev/video-captioner/internal/surface"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

var (
	ErrSessionActive = errors.New("an export is already running for this source")
	ErrInvalidSource = errors.New("source has no frames to export")
)

// EncoderFactory builds the recorder's encoder for a profile and output size.
type EncoderFactory func(p profile.Profile, outWidth, outHeight int, logger *slog.Logger) capture.Encoder

// SurfaceFactory builds the draw surface for one session.
type SurfaceFactory func(w, h int, st style.Style) (surface.Surface, error)

// Reattacher is the audio post-pass.
type Reattacher interface {
	Reattach(ctx context.Context, rec *capture.Recording, sourcePath string, hasAudio bool) remux.Result
}

func defaultEncoder(p profile.Profile, w, h int, logger *slog.Logger) capture.Encoder {
	return &capture.FFmpegEncoder{Profile: p, OutputWidth: w, OutputHeight: h, Logger: logger}
}

func defaultSurface(w, h int, st style.Style) (surface.Surface, error) {
	return surface.NewCanvas(w, h, surface.FontSpec{Family: st.FontFamily, Path: st.FontPath})
}

// Options configure one export.
type Options struct {
	Profile    profile.Profile
	PixelRatio float64
	// Continuation overrides which words stay attached in word groups.
	Continuation layout.ContinuationFunc
	// ReattachAudio mutes the capture and muxes the original audio afterwards.
	ReattachAudio bool
	// MergeAudio feeds the source audio into the capture itself.
	MergeAudio bool
	// Downscale encodes at the source size instead of the oversampled size.
	Downscale bool
	// Name is the artifact file name; derived from the source when empty.
	Name      string
	Progress  ProgressFunc
	Scheduler Scheduler
}

// Result describes a finished export.
type Result struct {
	SessionID string
	URL       string
	Path      string
	Outcome   remux.Outcome
	// Degraded is the reason audio re-attachment fell back, if it did.
	Degraded      error
	Frames        int
	CaptionFrames int
	Duration      float64
	Size          int64
	MimeType      string
	Elapsed       time.Duration
}

type Exporter struct {
	store      artifact.Store
	encoder    EncoderFactory
	surface    SurfaceFactory
	reattacher Reattacher
	logger     *slog.Logger
	sessions   registry
}

type Option func(*Exporter)

func WithEncoderFactory(f EncoderFactory) Option { return func(e *Exporter) { e.encoder = f } }

func WithSurfaceFactory(f SurfaceFactory) Option { return func(e *Exporter) { e.surface = f } }

func WithReattacher(r Reattacher) Option { return func(e *Exporter) { e.reattacher = r } }

func New(store artifact.Store, logger *slog.Logger, opts ...Option) *Exporter {
	logger = logging.NewComponentLogger(logger, "export")
	e := &Exporter{
		store:   store,
		encoder: defaultEncoder,
		surface: defaultSurface,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.reattacher == nil {
		e.reattacher = remux.New(nil, logger)
	}
	return e
}

// Active lists sessions currently running.
func (e *Exporter) Active() []*Session { return e.sessions.active() }

// Export burns track into src with style st and stores the result.
func (e *Exporter) Export(ctx context.Context, src source.Source, track captions.Track, st style.Style, opts Options) (res *Result, err error) {
	if src == nil || src.Width() <= 0 || src.Height() <= 0 || src.Duration() <= 0 {
		return nil, ErrInvalidSource
	}
	if err := track.Validate(); err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid caption style")
	}
	if e.store == nil {
		return nil, errors.New("no artifact store configured")
	}
	if opts.Profile == nil {
		p, err := profile.Get(profile.DefaultName)
		if err != nil {
			return nil, err
		}
		opts.Profile = p
	}
	if opts.Scheduler == nil {
		opts.Scheduler = Immediate{}
	}

	session, ok := e.sessions.claim(src.Path())
	if !ok {
		return nil, errors.Wrap(ErrSessionActive, src.Path())
	}
	defer e.sessions.release(session)
	defer func() {
		if err != nil {
			session.setState(types.SessionStateFailed)
		}
	}()

	logger := e.logger.With("session", session.ID, "source", src.Path())
	started := time.Now()

	// frozen copies for the whole run
	frozen := st
	track = track.Clone()
	if end := track.End(); end > src.Duration() {
		logger.Warn("captions extend past the end of the video",
			"caption_end", end,
			"duration", src.Duration(),
		)
	}

	factor := surface.OversamplingFactor(opts.PixelRatio)
	w := int(math.Round(float64(src.Width()) * factor))
	h := int(math.Round(float64(src.Height()) * factor))
	surf, err := e.surface(w, h, frozen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create draw surface")
	}
	if c, ok := surf.(io.Closer); ok {
		defer c.Close()
	}
	comp := compositor.New(surf, frozen, track, compositor.Options{Factor: factor, Continuation: opts.Continuation})

	savedVolume := src.Volume()
	defer src.SetVolume(savedVolume)
	if opts.ReattachAudio {
		src.SetVolume(0)
	}

	stream := capture.NewStream(w, h, src.FPS())
	if opts.MergeAudio && src.HasAudio() {
		stream.AddAudioTrack(src.Path(), src.Volume())
	}
	outW, outH := w, h
	if opts.Downscale {
		outW, outH = src.Width(), src.Height()
	}
	rec := capture.NewRecorder(stream, e.encoder(opts.Profile, outW, outH, logger), opts.Profile, logger)
	if err := rec.Start(ctx); err != nil {
		return nil, err
	}
	session.setState(types.SessionStateRecording)
	logger.Info("export started",
		"width", w,
		"height", h,
		"factor", factor,
		"fps", src.FPS(),
		"duration", src.Duration(),
		"profile", opts.Profile.GetName(),
	)

	abort := func(cause error) error {
		rec.Abort()
		_, _ = rec.Wait(context.Background())
		logger.Error("export aborted", "error", cause)
		return cause
	}

	if err := src.Seek(0); err != nil {
		return nil, abort(errors.Wrap(err, "failed to seek source"))
	}
	if err := src.Play(ctx); err != nil {
		return nil, abort(errors.Wrap(err, "failed to start playback"))
	}

	progress := func(f float64) {
		session.setProgress(f)
		if opts.Progress != nil {
			opts.Progress(f)
		}
	}
	loop := NewLoop(src, comp, rec, progress)
	for {
		if err := opts.Scheduler.Wait(ctx); err != nil {
			return nil, abort(errors.Wrap(err, "export cancelled"))
		}
		step, err := loop.Tick()
		if err != nil {
			return nil, abort(err)
		}
		if step == Stop {
			break
		}
	}

	session.setState(types.SessionStateFinalizing)
	recording, err := rec.Wait(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "recorder failed to finalize")
	}
	logger.Debug("recording finalized", "frames", loop.Frames(), "bytes", humanize.Bytes(uint64(recording.Size())))

	result := &Result{
		SessionID:     session.ID,
		Outcome:       remux.OutcomeOK,
		Frames:        loop.Frames(),
		CaptionFrames: loop.CaptionFrames(),
		Duration:      src.Duration(),
		MimeType:      recording.MimeType,
	}
	if opts.ReattachAudio {
		r := e.reattacher.Reattach(ctx, recording, src.Path(), src.HasAudio())
		if r.Outcome == remux.OutcomeFatal {
			return nil, errors.Wrap(r.Err, "audio re-attachment")
		}
		result.Outcome = r.Outcome
		result.Degraded = r.Err
		recording = r.Recording
	}

	name := opts.Name
	if name == "" {
		name = artifact.ObjectName(src.Path(), recording.Extension)
	}
	art, err := e.store.Save(ctx, name, recording)
	if err != nil {
		return nil, errors.Wrap(err, "failed to store artifact")
	}
	result.URL = art.URL
	result.Path = art.Path
	result.Size = art.Size
	result.Elapsed = time.Since(started)

	session.setState(types.SessionStateDone)
	logger.Info("export finished",
		"url", art.URL,
		"size", humanize.Bytes(uint64(art.Size)),
		"frames", result.Frames,
		"outcome", result.Outcome.String(),
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)
	return result, nil
}
