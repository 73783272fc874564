package usecase

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refasm/pkg/domain/model"
	"github.com/m-mizutani/refasm/pkg/domain/types"
)

// extractZip extracts the archive at src into destDir. destDir is removed
// first so that files from an earlier extraction do not leak into this one.
func extractZip(ctx context.Context, src, destDir string) (*model.ExtractResult, error) {
	logger := ctxlog.From(ctx)

	if err := os.RemoveAll(destDir); err != nil {
		return nil, goerr.Wrap(err, "failed to remove stale extraction directory", goerr.V("dir", destDir))
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create extraction directory", goerr.V("dir", destDir))
	}

	zipReader, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		_ = zipReader.Close()
		return nil, goerr.Wrap(types.ErrInvalidArchivePath, err.Error(), goerr.V("path", src))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open zip archive", goerr.V("path", src))
	}
	defer zipReader.Close()

	result := &model.ExtractResult{Dir: destDir}

	for _, file := range zipReader.File {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "extraction interrupted")
		}
		if err := extractFile(file, destDir); err != nil {
			return nil, goerr.Wrap(err, "failed to extract file", goerr.V("file", file.Name))
		}

		result.Files = append(result.Files, file.Name)
		result.Size += int64(file.UncompressedSize64)
	}

	logger.Debug("Extracted archive",
		"archive", src,
		"dir", destDir,
		"file_count", len(result.Files),
		"total_size_bytes", result.Size,
	)

	return result, nil
}

// extractFile extracts a single entry from the archive into destDir
func extractFile(file *zip.File, destDir string) error {
	destPath := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return goerr.Wrap(types.ErrInvalidArchivePath, "entry escapes extraction directory",
			goerr.V("file", file.Name),
			goerr.V("dest", destPath),
		)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return goerr.Wrap(err, "failed to create parent directories", goerr.V("dir", filepath.Dir(destPath)))
	}

	rc, err := file.Open()
	if err != nil {
		return goerr.Wrap(err, "failed to open file in zip", goerr.V("file", file.Name))
	}
	defer rc.Close()

	// NuGet packages are produced on Windows and often carry no permission bits
	perm := file.FileInfo().Mode().Perm() | 0644
	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return goerr.Wrap(err, "failed to create destination file", goerr.V("path", destPath))
	}

	if _, err := io.Copy(destFile, rc); err != nil {
		_ = destFile.Close()
		return goerr.Wrap(err, "failed to copy file content", goerr.V("path", destPath))
	}

	if err := destFile.Close(); err != nil {
		return goerr.Wrap(err, "failed to close destination file", goerr.V("path", destPath))
	}

	return nil
}
