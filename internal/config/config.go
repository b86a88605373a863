package config

import (
	_ "embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

//go:embed sample_config.toml
var sampleConfig string

// StyleConfig is the caption look, as written in the config file.
type StyleConfig struct {
	FontFamily          string  `toml:"font_family"`
	FontPath            string  `toml:"font_path"`
	FontSize            float64 `toml:"font_size"`
	Weight              string  `toml:"weight"`
	FillColor           string  `toml:"fill_color"`
	StrokeColor         string  `toml:"stroke_color"`
	HighlightColor      string  `toml:"highlight_color"`
	Position            float64 `toml:"position"`
	DisplayMode         string  `toml:"display_mode"`
	GroupSize           int     `toml:"group_size"`
	UseStroke           bool    `toml:"use_stroke"`
	UseHighlight        bool    `toml:"use_highlight"`
	Uppercase           bool    `toml:"uppercase"`
	WordByWordHighlight bool    `toml:"word_by_word_highlight"`
	Bounce              bool    `toml:"bounce"`
	Rainbow             bool    `toml:"rainbow"`
}

// ExportConfig controls recording and the audio post-pass.
type ExportConfig struct {
	Profile       string  `toml:"profile"`
	PixelRatio    float64 `toml:"pixel_ratio"`
	ReattachAudio bool    `toml:"reattach_audio"`
	MergeAudio    bool    `toml:"merge_audio"`
	Realtime      bool    `toml:"realtime"`
	Downscale     bool    `toml:"downscale"`
	TempDir       string  `toml:"temp_dir"`
}

// StorageConfig selects where finished videos go.
type StorageConfig struct {
	Backend        string `toml:"backend"`
	Dir            string `toml:"dir"`
	Bucket         string `toml:"bucket"`
	Region         string `toml:"region"`
	Prefix         string `toml:"prefix"`
	Profile        string `toml:"profile"`
	UsePathStyle   bool   `toml:"use_path_style"`
	PresignMinutes int    `toml:"presign_minutes"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Style   StyleConfig   `toml:"style"`
	Export  ExportConfig  `toml:"export"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// Load reads path (or the default locations when empty) on top of Default.
// A missing file is not an error; the returned bool reports whether one was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, errors.Wrap(err, "open config")
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, errors.Wrap(err, "parse config")
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, errors.Wrap(err, "stat config")
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/video-captioner/config.toml")
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("captioner.toml")
	if err != nil {
		return "", false, errors.WithStack(err)
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "resolve home directory")
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", errors.Wrapf(err, "resolve absolute path for %q", pathValue)
	}
	return absolute, nil
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create config directory")
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return errors.Wrap(err, "write sample config")
	}
	return nil
}
