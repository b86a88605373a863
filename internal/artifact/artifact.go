// Package artifact persists finished recordings and hands back a URL the
// caller can download them from.
package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ZacxDev/video-captioner/internal/capture"
	"github.com/ZacxDev/video-captioner/internal/ffmpeg"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
)

// Artifact describes a stored recording.
type Artifact struct {
	URL      string
	Path     string // local path, empty for remote stores
	Key      string // object key, empty for local stores
	Size     int64
	MimeType string
}

type Store interface {
	Save(ctx context.Context, name string, rec *capture.Recording) (*Artifact, error)
	Backend() types.StorageBackend
}

var (
	invalidChars = regexp.MustCompile(`[^a-zA-Z0-9-_.]`)
	underscores  = regexp.MustCompile(`_+`)
)

// ObjectName derives the artifact file name for a captioned copy of source.
func ObjectName(source, ext string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = sanitizeFilename(base)
	if base == "" {
		base = "video"
	}
	return ffmpeg.EnsureExtension(fmt.Sprintf("%s_captioned", base), ext)
}

func sanitizeFilename(filename string) string {
	sanitized := invalidChars.ReplaceAllString(filename, "_")
	sanitized = underscores.ReplaceAllString(sanitized, "_")
	return strings.Trim(sanitized, "_.")
}

func checkRecording(rec *capture.Recording) error {
	if rec == nil || rec.Size() == 0 {
		return errors.New("refusing to store an empty recording")
	}
	return nil
}
