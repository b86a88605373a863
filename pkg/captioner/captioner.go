// Package captioner is the public entry point for burning captions into a
// video and storing the result.
package captioner

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/ZacxDev/video-captioner/internal/artifact"
	"github.com/ZacxDev/video-captioner/internal/captions"
	"github.com/ZacxDev/video-captioner/internal/compositor"
	"github.com/ZacxDev/video-captioner/internal/config"
	"github.com/ZacxDev/video-captioner/internal/export"
	"github.com/ZacxDev/video-captioner/internal/ffmpeg"
	"github.com/ZacxDev/video-captioner/internal/logging"
	"github.com/ZacxDev/video-captioner/internal/profile"
	"github.com/ZacxDev/video-captioner/internal/remux"
	"github.com/ZacxDev/video-captioner/internal/source"
	"github.com/ZacxDev/video-captioner/internal/style"
	"github.com/ZacxDev/video-captioner/internal/surface"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
)

// Config is the TOML-backed configuration.
type Config = config.Config

// Result describes a finished burn.
type Result = export.Result

// VideoMetadata contains metadata about a video file
type VideoMetadata = ffmpeg.VideoMetadata

// LoadConfig reads path, or the default locations when path is empty. It
// also reports the resolved path and whether a file was found there.
func LoadConfig(path string) (*Config, string, bool, error) {
	return config.Load(path)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	cfg := config.Default()
	return &cfg
}

// BurnOptions defines options for burning captions
type BurnOptions struct {
	InputPath    string
	CaptionsPath string
	// OutputName overrides the artifact file name.
	OutputName string
	Config     *Config
	Logger     *slog.Logger
	Progress   func(float64)
}

// PreviewOptions defines options for rendering a single captioned frame
type PreviewOptions struct {
	InputPath    string
	CaptionsPath string
	OutputPath   string
	// At is the playback time in seconds.
	At     float64
	Config *Config
	Logger *slog.Logger
}

// ProfileInfo summarizes a recording profile.
type ProfileInfo struct {
	Name         string
	MimeType     string
	Extension    string
	VideoCodec   string
	AudioCodec   string
	VideoBitrate string
}

// GetSupportedProfiles returns the recording profiles sorted by name
func GetSupportedProfiles() []ProfileInfo {
	names := profile.GetSupportedProfiles()
	infos := make([]ProfileInfo, 0, len(names))
	for _, name := range names {
		p, err := profile.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, ProfileInfo{
			Name:         p.GetName(),
			MimeType:     p.GetMimeType(),
			Extension:    p.GetFileExtension(),
			VideoCodec:   p.GetVideoCodec(),
			AudioCodec:   p.GetAudioCodec(),
			VideoBitrate: profile.FormatBitrate(p.GetVideoBitrate()),
		})
	}
	return infos
}

// GetVideoMetadata retrieves metadata about a video file
func GetVideoMetadata(inputPath string) (*VideoMetadata, error) {
	return ffmpeg.NewProcessor(nil).GetVideoMetadata(inputPath)
}

// Burn renders the captions in CaptionsPath over InputPath and stores the
// encoded result according to the storage section of the config.
func Burn(ctx context.Context, opts *BurnOptions) (*Result, error) {
	if opts == nil || opts.InputPath == "" || opts.CaptionsPath == "" {
		return nil, errors.New("input path and captions path are required")
	}
	cfg, logger, err := prepare(opts.Config, opts.Logger)
	if err != nil {
		return nil, err
	}
	st, err := cfg.CaptionStyle()
	if err != nil {
		return nil, err
	}
	track, err := captions.Load(opts.CaptionsPath)
	if err != nil {
		return nil, err
	}
	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	src, err := source.Open(opts.InputPath, ffmpeg.NewProcessor(logger), logger)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	reattacher := remux.New(nil, logger).WithTempDir(cfg.Export.TempDir)
	return burn(ctx, src, track, st, store, cfg, opts, logger, export.WithReattacher(reattacher))
}

func burn(ctx context.Context, src source.Source, track captions.Track, st style.Style, store artifact.Store, cfg *Config, opts *BurnOptions, logger *slog.Logger, extra ...export.Option) (*Result, error) {
	p, err := profile.Get(cfg.Export.Profile)
	if err != nil {
		return nil, err
	}
	exportOpts := export.Options{
		Profile:       p,
		PixelRatio:    cfg.Export.PixelRatio,
		ReattachAudio: cfg.Export.ReattachAudio,
		MergeAudio:    cfg.Export.MergeAudio,
		Downscale:     cfg.Export.Downscale,
		Name:          opts.OutputName,
		Progress:      opts.Progress,
	}
	if cfg.Export.Realtime {
		rt := export.NewRealtime(src.FPS())
		defer rt.Stop()
		exportOpts.Scheduler = rt
	}

	logger.Debug("burning captions",
		"input", src.Path(),
		"captions", opts.CaptionsPath,
		"units", len(track),
		"profile", p.GetName(),
		"storage", cfg.Storage.Backend,
	)
	return export.New(store, logger, extra...).Export(ctx, src, track, st, exportOpts)
}

// Preview renders the captioned frame at At into a PNG at OutputPath.
func Preview(ctx context.Context, opts *PreviewOptions) error {
	if opts == nil || opts.InputPath == "" || opts.CaptionsPath == "" || opts.OutputPath == "" {
		return errors.New("input path, captions path and output path are required")
	}
	cfg, logger, err := prepare(opts.Config, opts.Logger)
	if err != nil {
		return err
	}
	st, err := cfg.CaptionStyle()
	if err != nil {
		return err
	}
	track, err := captions.Load(opts.CaptionsPath)
	if err != nil {
		return err
	}
	src, err := source.Open(opts.InputPath, ffmpeg.NewProcessor(logger), logger)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(opts.OutputPath)
	if err != nil {
		return errors.Wrap(err, "failed to create preview file")
	}
	captioned, err := renderPreview(ctx, out, src, track, st, cfg.Export.PixelRatio, opts.At)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, "failed to write preview file")
	}
	if err != nil {
		_ = os.Remove(opts.OutputPath)
		return err
	}
	logger.Info("preview written", "path", opts.OutputPath, "at", opts.At, "captioned", captioned)
	return nil
}

// renderPreview draws one frame at source resolution and reports whether a
// caption was visible at that time.
func renderPreview(ctx context.Context, out io.Writer, src source.Source, track captions.Track, st style.Style, pixelRatio, at float64) (bool, error) {
	if err := track.Validate(); err != nil {
		return false, err
	}
	if at < 0 || at >= src.Duration() {
		return false, errors.Errorf("preview time %.3fs is outside the video (0-%.3fs)", at, src.Duration())
	}

	factor := surface.OversamplingFactor(pixelRatio)
	w := int(math.Round(float64(src.Width()) * factor))
	h := int(math.Round(float64(src.Height()) * factor))
	canvas, err := surface.NewCanvas(w, h, surface.FontSpec{Family: st.FontFamily, Path: st.FontPath})
	if err != nil {
		return false, err
	}
	defer canvas.Close()

	if err := src.Seek(at); err != nil {
		return false, errors.Wrap(err, "failed to seek source")
	}
	if err := src.Play(ctx); err != nil {
		return false, errors.Wrap(err, "failed to start playback")
	}
	t := src.CurrentTime()
	frame, err := src.ReadFrame()
	if err != nil {
		return false, errors.Wrap(err, "failed to decode frame")
	}

	comp := compositor.New(canvas, st, track.Clone(), compositor.Options{Factor: factor})
	captioned, err := comp.DrawFrame(frame, t)
	if err != nil {
		return false, err
	}
	return captioned, canvas.EncodePNG(out, src.Width(), src.Height())
}

func prepare(cfg *Config, logger *slog.Logger) (*Config, *slog.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid configuration")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return cfg, logger, nil
}

func newStore(ctx context.Context, cfg *Config, logger *slog.Logger) (artifact.Store, error) {
	switch types.StorageBackend(cfg.Storage.Backend) {
	case types.StorageBackendS3:
		store, err := artifact.NewS3Store(ctx, artifact.S3Options{
			Bucket:       cfg.Storage.Bucket,
			Region:       cfg.Storage.Region,
			Prefix:       cfg.Storage.Prefix,
			Profile:      cfg.Storage.Profile,
			UsePathStyle: cfg.Storage.UsePathStyle,
			Expires:      cfg.PresignExpiry(),
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case types.StorageBackendLocal, "":
		return artifact.NewLocalStore(cfg.Storage.Dir, logger), nil
	}
	return nil, errors.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
}
