package remux

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Workspace is a scratch directory holding the named files of one remux.
// Names are plain file names relative to the directory; ffmpeg runs with the
// directory as its working directory so the names work as arguments as-is.
type Workspace struct {
	dir string
}

// NewWorkspace creates a fresh directory under parent (os.TempDir when empty).
func NewWorkspace(parent string) (*Workspace, error) {
	dir, err := os.MkdirTemp(parent, "captioner-remux-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create remux workspace")
	}
	return &Workspace{dir: dir}, nil
}

func (w *Workspace) Dir() string { return w.dir }

// Path resolves name inside the workspace.
func (w *Workspace) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", errors.Errorf("invalid workspace file name %q", name)
	}
	return filepath.Join(w.dir, name), nil
}

func (w *Workspace) WriteFile(name string, data []byte) error {
	p, err := w.Path(name)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(p, data, 0o644), "failed to write %s", name)
}

// Import copies the file at src into the workspace as name.
func (w *Workspace) Import(name, src string) error {
	p, err := w.Path(name)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	out, err := os.Create(p)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", name)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to copy %s", src)
	}
	return errors.Wrapf(out.Close(), "failed to close %s", name)
}

func (w *Workspace) ReadFile(name string) ([]byte, error) {
	p, err := w.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	return data, errors.Wrapf(err, "failed to read %s", name)
}

// Unlink removes name; a missing file is not an error.
func (w *Workspace) Unlink(name string) error {
	p, err := w.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove %s", name)
	}
	return nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	return errors.WithStack(os.RemoveAll(w.dir))
}
