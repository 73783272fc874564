package marker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// InProgressFile is created empty while a run owns the target directory
	InProgressFile = "in_progress.txt"

	// DoneFile is written with DoneContent once all frameworks are installed
	DoneFile = "ref_assemblies_downloaded.txt"

	// DoneContent is the content of DoneFile
	DoneContent = "done"
)

// Guard manages the marker files of one target directory
type Guard struct {
	dir string
}

// New creates a Guard for the target directory
func New(dir string) *Guard {
	return &Guard{dir: dir}
}

// InProgressPath returns the path of the in-progress marker
func (g *Guard) InProgressPath() string { return filepath.Join(g.dir, InProgressFile) }

// DonePath returns the path of the completion marker
func (g *Guard) DonePath() string { return filepath.Join(g.dir, DoneFile) }

// EnsureDir creates the target directory and its parents if absent
func (g *Guard) EnsureDir() error {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return goerr.Wrap(err, "failed to create target directory", goerr.V("dir", g.dir))
	}
	return nil
}

// Acquire creates the in-progress marker. The marker is created with
// O_EXCL so that two concurrent runs cannot both acquire the directory;
// false is returned when the marker already exists.
func (g *Guard) Acquire() (bool, error) {
	path := g.InProgressPath()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to create in-progress marker", goerr.V("path", path))
	}

	if err := f.Close(); err != nil {
		return false, goerr.Wrap(err, "failed to close in-progress marker", goerr.V("path", path))
	}
	return true, nil
}

// Release removes the in-progress marker if present
func (g *Guard) Release() error {
	path := g.InProgressPath()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to remove in-progress marker", goerr.V("path", path))
	}
	return nil
}

// MarkDone writes the completion marker
func (g *Guard) MarkDone() error {
	path := g.DonePath()
	if err := os.WriteFile(path, []byte(DoneContent), 0644); err != nil {
		return goerr.Wrap(err, "failed to write completion marker", goerr.V("path", path))
	}
	return nil
}

// Done reports whether the completion marker exists with the expected content
func (g *Guard) Done() (bool, error) {
	data, err := os.ReadFile(g.DonePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to read completion marker", goerr.V("path", g.DonePath()))
	}
	return string(data) == DoneContent, nil
}
