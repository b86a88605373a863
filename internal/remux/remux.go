// Package remux re-attaches the original audio of a source video to a
// finished captioned recording.
package remux

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ZacxDev/video-captioner/internal/capture"
	"github.com/ZacxDev/video-captioner/internal/profile"
	"github.com/pkg/errors"
)

const (
	audioFile = "audio.mka"
)

var (
	ErrNoAudio        = errors.New("source has no audio stream")
	ErrEmptyRecording = errors.New("recording is empty")
	ErrEmptyOutput    = errors.New("transcoder produced an empty file")
)

type Outcome int

const (
	// OutcomeOK means the returned recording carries the original audio.
	OutcomeOK Outcome = iota
	// OutcomeDegraded means the returned recording is the pre-mux input.
	OutcomeDegraded
	// OutcomeFatal means there is nothing usable to return.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeFatal:
		return "fatal"
	}
	return "unknown"
}

// Result of a re-attachment. Recording is set unless Outcome is fatal; Err
// holds the degrade reason or the fatal error.
type Result struct {
	Outcome   Outcome
	Recording *capture.Recording
	Err       error
}

func ok(rec *capture.Recording) Result { return Result{Outcome: OutcomeOK, Recording: rec} }

func degraded(rec *capture.Recording, reason error) Result {
	return Result{Outcome: OutcomeDegraded, Recording: rec, Err: reason}
}

func fatal(err error) Result { return Result{Outcome: OutcomeFatal, Err: err} }

type Reattacher struct {
	transcoder Transcoder
	tempDir    string
	logger     *slog.Logger
}

// New builds a Reattacher. A nil transcoder uses the ffmpeg binary.
func New(t Transcoder, logger *slog.Logger) *Reattacher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "remux")
	if t == nil {
		t = &FFmpegTranscoder{Logger: logger}
	}
	return &Reattacher{transcoder: t, logger: logger}
}

// WithTempDir places workspaces under dir instead of os.TempDir.
func (r *Reattacher) WithTempDir(dir string) *Reattacher {
	r.tempDir = dir
	return r
}

// Reattach extracts the audio of sourcePath and muxes it against the video of
// rec. Any failure other than cancellation falls back to rec.
func (r *Reattacher) Reattach(ctx context.Context, rec *capture.Recording, sourcePath string, hasAudio bool) Result {
	if rec == nil || rec.Size() == 0 {
		return fatal(ErrEmptyRecording)
	}
	if err := ctx.Err(); err != nil {
		return fatal(errors.WithStack(err))
	}
	if !hasAudio {
		r.logger.Info("skipping audio re-attachment", "reason", ErrNoAudio.Error())
		return degraded(rec, ErrNoAudio)
	}

	out, err := r.run(ctx, rec, sourcePath)
	if err != nil {
		if ctx.Err() != nil {
			return fatal(errors.Wrap(ctx.Err(), "audio re-attachment cancelled"))
		}
		r.logger.Warn("audio re-attachment failed, keeping captured recording", "error", err)
		return degraded(rec, err)
	}
	r.logger.Info("audio re-attached", "bytes", out.Size())
	return ok(out)
}

func (r *Reattacher) run(ctx context.Context, rec *capture.Recording, sourcePath string) (*capture.Recording, error) {
	ws, err := NewWorkspace(r.tempDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			r.logger.Warn("failed to remove remux workspace", "dir", ws.Dir(), "error", err)
		}
	}()

	ext := rec.Extension
	if ext == "" {
		ext = ".webm"
	}
	srcExt := strings.ToLower(filepath.Ext(sourcePath))
	if srcExt == "" {
		srcExt = ".mp4"
	}
	original := "original" + srcExt
	processed := "processed" + ext
	output := "output" + ext

	if err := ws.Import(original, sourcePath); err != nil {
		return nil, err
	}
	if err := ws.WriteFile(processed, rec.Bytes()); err != nil {
		return nil, err
	}

	r.logger.Debug("extracting audio", "source", sourcePath)
	if err := r.transcoder.Run(ctx, ws, ExtractAudio(original, audioFile)); err != nil {
		return nil, errors.Wrap(err, "audio extraction failed")
	}
	if err := ws.Unlink(original); err != nil {
		r.logger.Debug("failed to unlink source copy", "error", err)
	}

	r.logger.Debug("muxing audio", "container", ext)
	if err := r.transcoder.Run(ctx, ws, Mux(processed, audioFile, output, audioCodec(rec.MimeType))); err != nil {
		return nil, errors.Wrap(err, "mux failed")
	}

	data, err := ws.ReadFile(output)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyOutput
	}
	for _, name := range []string{processed, audioFile, output} {
		_ = ws.Unlink(name)
	}

	return &capture.Recording{
		Chunks:    [][]byte{data},
		MimeType:  rec.MimeType,
		Extension: ext,
	}, nil
}

// audioCodec picks the audio encoder matching the recording's container.
func audioCodec(mime string) string {
	if p, err := profile.ForMimeType(mime); err == nil {
		return p.GetAudioCodec()
	}
	if strings.Contains(mime, "mp4") {
		return "aac"
	}
	return "libopus"
}
