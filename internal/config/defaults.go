package config

import (
	"github.com/ZacxDev/video-captioner/internal/profile"
	"github.com/ZacxDev/video-captioner/internal/style"
	"github.com/ZacxDev/video-captioner/pkg/types"
)

const defaultPresignMinutes = 60

// Default mirrors style.Default and exports to ./captioned with the audio
// post-pass enabled.
func Default() Config {
	st := style.Default()
	return Config{
		Style: StyleConfig{
			FontFamily:     st.FontFamily,
			FontSize:       st.FontSize,
			Weight:         st.Weight,
			FillColor:      style.FormatColor(st.FillColor),
			StrokeColor:    style.FormatColor(st.StrokeColor),
			HighlightColor: style.FormatColor(st.HighlightColor),
			Position:       st.Position,
			DisplayMode:    string(st.DisplayMode),
			GroupSize:      st.GroupSize,
			UseStroke:      st.UseStroke,
		},
		Export: ExportConfig{
			Profile:       profile.DefaultName,
			PixelRatio:    1,
			ReattachAudio: true,
		},
		Storage: StorageConfig{
			Backend:        string(types.StorageBackendLocal),
			Dir:            "captioned",
			PresignMinutes: defaultPresignMinutes,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
