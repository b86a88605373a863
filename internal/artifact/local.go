package artifact

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/ZacxDev/video-captioner/internal/capture"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
)

// LocalStore writes artifacts into a directory and returns file:// URLs.
type LocalStore struct {
	Dir    string
	Logger *slog.Logger
}

func NewLocalStore(dir string, logger *slog.Logger) *LocalStore {
	if dir == "" {
		dir = "."
	}
	return &LocalStore{Dir: dir, Logger: logger}
}

func (s *LocalStore) Backend() types.StorageBackend { return types.StorageBackendLocal }

func (s *LocalStore) Save(ctx context.Context, name string, rec *capture.Recording) (*Artifact, error) {
	if err := checkRecording(rec); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", s.Dir)
	}

	path, err := filepath.Abs(filepath.Join(s.Dir, filepath.Base(name)))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create artifact")
	}
	n, err := rec.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return nil, errors.Wrap(err, "failed to write artifact")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, errors.Wrap(err, "failed to finalize artifact")
	}

	if s.Logger != nil {
		s.Logger.Debug("artifact written", "path", path, "bytes", n)
	}
	return &Artifact{
		URL:      (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(),
		Path:     path,
		Size:     n,
		MimeType: rec.MimeType,
	}, nil
}
