package output

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iafilius/FixtureCharts/src/types"
)

func tinyImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.Black)
	return img
}

func TestResolveDirPrefersExistingCandidate(t *testing.T) {
	root := t.TempDir()
	second := filepath.Join(root, "static", "charts")
	require.NoError(t, os.MkdirAll(second, 0o755))

	got, err := ResolveDir([]string{filepath.Join(root, "app", "static", "charts"), second}, filepath.Join(root, "fallback"))
	require.NoError(t, err)
	assert.Equal(t, second, got)

	got, err = ResolveDir([]string{filepath.Join(root, "missing")}, filepath.Join(root, "fallback"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "fallback"), got)
	assert.DirExists(t, got)
}

func TestLookupDirCreatesNothing(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "static", "charts")
	require.NoError(t, os.MkdirAll(existing, 0o755))
	fallback := filepath.Join(root, "fallback")

	assert.Equal(t, existing, LookupDir([]string{filepath.Join(root, "missing"), existing}, fallback))
	assert.Equal(t, fallback, LookupDir([]string{filepath.Join(root, "missing")}, fallback))
	assert.NoDirExists(t, fallback)
	assert.Empty(t, LookupDir(nil, " "))
}

func TestWriteImageOverwritesInPlace(t *testing.T) {
	w := NewWriter(t.TempDir())
	require.NoError(t, w.WriteImage("chart.png", tinyImage()))
	require.NoError(t, w.WriteImage("chart.png", tinyImage()))

	f, err := os.Open(filepath.Join(w.Dir, "chart.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	entries, err := os.ReadDir(w.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteImageRejectsPaths(t *testing.T) {
	w := NewWriter(t.TempDir())
	for _, name := range []string{"", "../escape.png", "sub/dir.png", ".."} {
		assert.ErrorIs(t, w.WriteImage(name, tinyImage()), ErrBadName, name)
	}
}

func TestWriteManifestAfterSuccess(t *testing.T) {
	w := NewWriter(t.TempDir())
	res := w.Write([]Named{{"a.png", tinyImage()}, {"b.png", tinyImage()}}, "batch-1")
	require.Equal(t, types.StatusOK, res.Status)
	assert.Equal(t, []string{"a.png", "b.png"}, res.Generated)
	assert.Empty(t, res.Failures)

	m, err := ReadManifest(w.Dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, m.Charts)
	assert.Equal(t, "batch-1", m.BatchID)
	assert.Len(t, m.Items, 2)
	assert.True(t, m.GeneratedAt.Equal(res.GeneratedAt))

	raw, err := os.ReadFile(filepath.Join(w.Dir, ManifestName))
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	_, err = time.Parse(time.RFC3339Nano, generic["generated_at"].(string))
	assert.NoError(t, err, "generated_at must be RFC3339")
}

func TestWriteFailureSkipsManifest(t *testing.T) {
	w := NewWriter(t.TempDir())
	res := w.Write([]Named{{"ok.png", tinyImage()}, {"broken.png", nil}}, "b")
	assert.Equal(t, types.StatusError, res.Status)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "broken.png", res.Failures[0].Spec)
	_, err := ReadManifest(w.Dir)
	assert.True(t, errors.Is(err, os.ErrNotExist), "no manifest may be written after a failed write")
}

func TestManifestTimestampStrictlyIncreases(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	w := &Writer{Dir: t.TempDir(), Now: func() time.Time { return fixed }}
	first, err := w.WriteManifest([]string{"a.png"}, "1")
	require.NoError(t, err)
	second, err := w.WriteManifest([]string{"a.png"}, "2")
	require.NoError(t, err)
	assert.True(t, second.GeneratedAt.After(first.GeneratedAt))

	// clock going backwards still produces a later manifest
	w.Now = func() time.Time { return fixed.Add(-time.Hour) }
	third, err := w.WriteManifest([]string{"a.png"}, "3")
	require.NoError(t, err)
	assert.True(t, third.GeneratedAt.After(second.GeneratedAt))
}

func TestEnsureWritableFailsOnFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	w := NewWriter(filepath.Join(blocker, "charts"))
	assert.ErrorIs(t, w.EnsureWritable(), ErrUnwritable)

	res := w.Write([]Named{{"a.png", tinyImage()}}, "x")
	assert.Equal(t, types.StatusError, res.Status)
	assert.NotContains(t, res.Message, blocker, "messages must not leak paths")
}

func TestEnsureWritableReadOnlyDir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
	assert.ErrorIs(t, NewWriter(dir).EnsureWritable(), ErrUnwritable)
}

func TestListReturnsExistingKnownFiles(t *testing.T) {
	w := NewWriter(t.TempDir())
	require.NoError(t, w.WriteImage("b.png", tinyImage()))
	require.NoError(t, w.WriteImage("a.png", tinyImage()))
	require.NoError(t, os.Mkdir(filepath.Join(w.Dir, "c.png"), 0o755))

	got := w.List([]string{"a.png", "b.png", "c.png", "d.png", "../a.png"})
	assert.Equal(t, []string{"a.png", "b.png"}, got.Charts)
	assert.Equal(t, 2, got.Total)

	empty := NewWriter(filepath.Join(t.TempDir(), "none")).List([]string{"a.png"})
	assert.Equal(t, 0, empty.Total)
	assert.NotNil(t, empty.Charts)
}

func TestSnapshotAndWorkbook(t *testing.T) {
	w := NewWriter(t.TempDir())
	recs := []types.Record{
		{"id": 1, "f1": 1.5, "f4": "abcde", "f5": true},
		{"id": 2, "f1": 2.5, "f4": "vwxyz", "f5": false},
	}
	require.NoError(t, w.WriteSnapshot(recs))
	raw, err := os.ReadFile(filepath.Join(w.Dir, SnapshotName))
	require.NoError(t, err)
	var back []map[string]any
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Len(t, back, 2)

	require.NoError(t, w.WriteWorkbook(recs))
	f, err := excelize.OpenFile(filepath.Join(w.Dir, WorkbookName))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(workbookSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "f1", "f4", "f5"}, rows[0])
	assert.Equal(t, "abcde", rows[1][2])
}
