package config

import (
	"time"

	"github.com/ZacxDev/video-captioner/internal/logging"
	"github.com/ZacxDev/video-captioner/internal/profile"
	"github.com/ZacxDev/video-captioner/internal/style"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.CaptionStyle(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateExport() error {
	if _, err := profile.Get(c.Export.Profile); err != nil {
		return errors.Wrap(err, "export.profile")
	}
	if c.Export.PixelRatio < 0 {
		return errors.Errorf("export.pixel_ratio must not be negative, got %v", c.Export.PixelRatio)
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch types.StorageBackend(c.Storage.Backend) {
	case types.StorageBackendLocal:
		return nil
	case types.StorageBackendS3:
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for the s3 backend")
		}
		if c.Storage.PresignMinutes < 1 {
			return errors.Errorf("storage.presign_minutes must be positive, got %d", c.Storage.PresignMinutes)
		}
		return nil
	}
	return errors.Errorf("storage.backend: unsupported value %q", c.Storage.Backend)
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return errors.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "text", "json":
		return nil
	}
	return errors.Errorf("logging.format: unsupported value %q", c.Logging.Format)
}

// CaptionStyle converts the style section into a validated snapshot.
func (c *Config) CaptionStyle() (style.Style, error) {
	s := c.Style
	fill, err := style.ParseColor(s.FillColor)
	if err != nil {
		return style.Style{}, errors.Wrap(err, "style.fill_color")
	}
	stroke, err := style.ParseColor(s.StrokeColor)
	if err != nil {
		return style.Style{}, errors.Wrap(err, "style.stroke_color")
	}
	highlight, err := style.ParseColor(s.HighlightColor)
	if err != nil {
		return style.Style{}, errors.Wrap(err, "style.highlight_color")
	}
	mode, ok := types.ParseDisplayMode(s.DisplayMode)
	if !ok {
		return style.Style{}, errors.Errorf("style.display_mode: unsupported value %q", s.DisplayMode)
	}

	st := style.Style{
		FontFamily:          s.FontFamily,
		FontPath:            s.FontPath,
		FontSize:            s.FontSize,
		Weight:              s.Weight,
		FillColor:           fill,
		StrokeColor:         stroke,
		HighlightColor:      highlight,
		Position:            s.Position,
		DisplayMode:         mode,
		GroupSize:           s.GroupSize,
		UseStroke:           s.UseStroke,
		UseHighlight:        s.UseHighlight,
		Uppercase:           s.Uppercase,
		WordByWordHighlight: s.WordByWordHighlight,
		Bounce:              s.Bounce,
		Rainbow:             s.Rainbow,
	}
	if err := st.Validate(); err != nil {
		return style.Style{}, errors.Wrap(err, "style")
	}
	return st, nil
}

// PresignExpiry is the lifetime of S3 artifact URLs.
func (c *Config) PresignExpiry() time.Duration {
	return time.Duration(c.Storage.PresignMinutes) * time.Minute
}
