package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
}

func TestListMonthDirectories(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"2024/12", "2025/01", "2025/02", "2025/13", "2025/1", "misc/01", "20255/01"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0750))
	}
	touch(t, filepath.Join(root, "2025", "01", "202501-summary.xlsx"))
	touch(t, filepath.Join(root, "2025", "stray.txt"))

	got, err := ListMonthDirectories(root)
	require.NoError(t, err)

	var periods []string
	for _, m := range got {
		periods = append(periods, m.Period)
	}
	assert.Equal(t, []string{"202502", "202501", "202412"}, periods)
	assert.False(t, got[0].HasSummary)
	assert.True(t, got[1].HasSummary)
	assert.Equal(t, filepath.Join(root, "2025", "01"), got[1].Path)
}

func TestListMonthDirectories_MissingRoot(t *testing.T) {
	got, err := ListMonthDirectories(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEnsureMonthDirectory(t *testing.T) {
	root := t.TempDir()

	dir, err := EnsureMonthDirectory(root, "202503")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2025", "03"), dir)
	assert.DirExists(t, dir)

	_, err = EnsureMonthDirectory(root, "202513")
	assert.ErrorIs(t, err, common.ErrInvalidPeriod)
}

func TestListReceiptFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.pdf", "c.heic", "notes.txt", "202501-summary.xlsx", "202501-summary.json"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "thumbnails.png"), 0750))

	got, err := ListReceiptFiles(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range got {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a.pdf", "b.JPG", "c.heic"}, names)
	assert.True(t, got[0].IsPDF)
	assert.False(t, got[1].IsPDF)
	assert.Equal(t, int64(1), got[1].Size)
}

func TestCopyToMonth_UniqueNames(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "scan.jpg")
	touch(t, src)

	first, err := CopyToMonth(root, "202501", src)
	require.NoError(t, err)
	second, err := CopyToMonth(root, "202501", src)
	require.NoError(t, err)
	third, err := CopyToMonth(root, "202501", src)
	require.NoError(t, err)

	dir := filepath.Join(root, "2025", "01")
	assert.Equal(t, filepath.Join(dir, "scan.jpg"), first)
	assert.Equal(t, filepath.Join(dir, "scan_1.jpg"), second)
	assert.Equal(t, filepath.Join(dir, "scan_2.jpg"), third)
}

func TestSummaryFileName(t *testing.T) {
	assert.Equal(t, "202501-summary.xlsx", SummaryFileName("202501"))
}
