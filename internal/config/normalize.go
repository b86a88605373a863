package config

import (
	"os"
	"strings"

	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStyle()
	c.normalizeExport()
	c.normalizeStorage()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Style.FontPath, err = expandPath(strings.TrimSpace(c.Style.FontPath)); err != nil {
		return errors.Wrap(err, "style.font_path")
	}
	if c.Storage.Dir, err = expandPath(strings.TrimSpace(c.Storage.Dir)); err != nil {
		return errors.Wrap(err, "storage.dir")
	}
	if c.Export.TempDir, err = expandPath(strings.TrimSpace(c.Export.TempDir)); err != nil {
		return errors.Wrap(err, "export.temp_dir")
	}
	return nil
}

func (c *Config) normalizeStyle() {
	c.Style.FontFamily = strings.TrimSpace(c.Style.FontFamily)
	c.Style.Weight = strings.ToLower(strings.TrimSpace(c.Style.Weight))
	if mode, ok := types.ParseDisplayMode(c.Style.DisplayMode); ok {
		c.Style.DisplayMode = string(mode)
	}
	if c.Style.GroupSize == 0 {
		c.Style.GroupSize = Default().Style.GroupSize
	}
}

func (c *Config) normalizeExport() {
	c.Export.Profile = strings.ToLower(strings.TrimSpace(c.Export.Profile))
	if c.Export.Profile == "" {
		c.Export.Profile = Default().Export.Profile
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = string(types.StorageBackendLocal)
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = strings.TrimSpace(os.Getenv("CAPTIONER_S3_BUCKET"))
	}
	if c.Storage.Region == "" {
		c.Storage.Region = strings.TrimSpace(os.Getenv("CAPTIONER_S3_REGION"))
	}
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	if c.Storage.PresignMinutes == 0 {
		c.Storage.PresignMinutes = defaultPresignMinutes
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}
