package fsutil

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// ResetDir removes dir recursively if it exists and recreates it empty
func ResetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return goerr.Wrap(err, "failed to remove directory", goerr.V("dir", dir))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return goerr.Wrap(err, "failed to create directory", goerr.V("dir", dir))
	}
	return nil
}

// SubDirs returns the names of the immediate subdirectories of dir in lexical order
func SubDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read directory", goerr.V("dir", dir))
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	return dirs, nil
}

// CopyTree copies the contents of src into dst. Existing files with the same
// relative path are overwritten; files that exist only in dst are kept.
// Returns the number of regular files copied.
func CopyTree(ctx context.Context, src, dst string) (int, error) {
	var copied int

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		case info.Mode().IsRegular():
			if err := copyFile(path, target, info.Mode().Perm()); err != nil {
				return err
			}
			copied++
			return nil
		default:
			// Packages only carry directories and regular files
			return nil
		}
	})
	if err != nil {
		return copied, goerr.Wrap(err, "failed to copy directory tree",
			goerr.V("src", src),
			goerr.V("dst", dst),
		)
	}

	return copied, nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return goerr.Wrap(err, "failed to open source file", goerr.V("path", src))
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return goerr.Wrap(err, "failed to create parent directory", goerr.V("path", dst))
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm|0600)
	if err != nil {
		return goerr.Wrap(err, "failed to create destination file", goerr.V("path", dst))
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return goerr.Wrap(err, "failed to copy file content", goerr.V("src", src), goerr.V("dst", dst))
	}

	if err := out.Close(); err != nil {
		return goerr.Wrap(err, "failed to close destination file", goerr.V("path", dst))
	}
	return nil
}
