package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/refasm/pkg/utils/fsutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	gt.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	gt.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	return string(data)
}

func TestResetDir(t *testing.T) {
	t.Run("removes existing content", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "v4.0")
		writeFile(t, filepath.Join(dir, "old.dll"), "old")
		writeFile(t, filepath.Join(dir, "nested", "old.xml"), "old")

		gt.NoError(t, fsutil.ResetDir(dir))

		entries, err := os.ReadDir(dir)
		gt.NoError(t, err)
		gt.Number(t, len(entries)).Equal(0)
	})

	t.Run("creates missing directory with parents", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), ".NETFramework", "v4.0")
		gt.NoError(t, fsutil.ResetDir(dir))

		info, err := os.Stat(dir)
		gt.NoError(t, err)
		gt.True(t, info.IsDir())
	})
}

func TestSubDirs(t *testing.T) {
	root := t.TempDir()
	gt.NoError(t, os.MkdirAll(filepath.Join(root, "v4.5"), 0755))
	gt.NoError(t, os.MkdirAll(filepath.Join(root, "v4.0"), 0755))
	writeFile(t, filepath.Join(root, "readme.txt"), "not a dir")

	dirs, err := fsutil.SubDirs(root)
	gt.NoError(t, err)
	gt.Value(t, dirs).Equal([]string{"v4.0", "v4.5"})

	_, err = fsutil.SubDirs(filepath.Join(root, "missing"))
	gt.Error(t, err)
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "mscorlib.dll"), "mscorlib")
	writeFile(t, filepath.Join(src, "RedistList", "FrameworkList.xml"), "<FileList/>")
	writeFile(t, filepath.Join(dst, "mscorlib.dll"), "outdated")
	writeFile(t, filepath.Join(dst, "extra.dll"), "kept")

	n, err := fsutil.CopyTree(context.Background(), src, dst)
	gt.NoError(t, err)
	gt.Number(t, n).Equal(2)

	gt.Value(t, readFile(t, filepath.Join(dst, "mscorlib.dll"))).Equal("mscorlib")
	gt.Value(t, readFile(t, filepath.Join(dst, "RedistList", "FrameworkList.xml"))).Equal("<FileList/>")
	gt.Value(t, readFile(t, filepath.Join(dst, "extra.dll"))).Equal("kept")
}

func TestCopyTree_Cancelled(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.dll"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fsutil.CopyTree(ctx, src, t.TempDir())
	gt.Error(t, err)
}

func TestCopyTree_MissingSource(t *testing.T) {
	_, err := fsutil.CopyTree(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	gt.Error(t, err)
}
