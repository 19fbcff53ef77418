// Package output owns the chart directory: PNG files, the charts_list.json manifest and
// the fixture snapshots.
package output

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/iafilius/FixtureCharts/src/logging"
	"github.com/iafilius/FixtureCharts/src/types"
)

const (
	ManifestName = "charts_list.json"
	SnapshotName = "fixtures.json"
	WorkbookName = "fixtures.xlsx"
)

var (
	// ErrUnwritable means the output directory cannot be created or written.
	ErrUnwritable = errors.New("output directory is not writable")
	// ErrBadName rejects filenames that would escape the output directory.
	ErrBadName = errors.New("invalid output filename")
)

// ResolveDir returns the first candidate that already exists as a directory. When none does,
// fallback is created and returned.
func ResolveDir(candidates []string, fallback string) (string, error) {
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if st, err := os.Stat(c); err == nil && st.IsDir() {
			return filepath.Clean(c), nil
		}
	}
	if strings.TrimSpace(fallback) == "" {
		return "", fmt.Errorf("%w: no candidate directory exists and no fallback is set", ErrUnwritable)
	}
	if err := os.MkdirAll(fallback, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnwritable, err)
	}
	return filepath.Clean(fallback), nil
}

// LookupDir is the read-only counterpart of ResolveDir: it returns the first existing
// candidate, or the fallback path without creating it.
func LookupDir(candidates []string, fallback string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if st, err := os.Stat(c); err == nil && st.IsDir() {
			return filepath.Clean(c)
		}
	}
	if strings.TrimSpace(fallback) == "" {
		return ""
	}
	return filepath.Clean(fallback)
}

// Writer persists artifacts into one directory.
type Writer struct {
	Dir string
	// Now is the manifest clock; nil means time.Now.
	Now func() time.Time
}

// NewWriter returns a writer for dir.
func NewWriter(dir string) *Writer { return &Writer{Dir: dir} }

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// EnsureWritable creates the directory if needed and proves a file can be created in it.
func (w *Writer) EnsureWritable() error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrUnwritable, err)
	}
	f, err := os.CreateTemp(w.Dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnwritable, err)
	}
	name := f.Name()
	f.Close()
	_ = os.Remove(name)
	return nil
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

// writeAtomic streams into a temp file in the target directory and renames it over name,
// so readers see either the previous or the complete new file.
func (w *Writer) writeAtomic(name string, fill func(io.Writer) error) error {
	if err := checkName(name); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(w.Dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if err := fill(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(w.Dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// WriteImage encodes img as PNG under name, replacing any previous file.
func (w *Writer) WriteImage(name string, img image.Image) error {
	if img == nil {
		return fmt.Errorf("write %s: nil image", name)
	}
	return w.writeAtomic(name, func(f io.Writer) error { return png.Encode(f, img) })
}

// Named pairs an image with its target filename.
type Named struct {
	Name  string
	Image image.Image
}

// Write persists every image, then the manifest. When any image fails the manifest is left
// untouched and the result is an error listing the failed files.
func (w *Writer) Write(images []Named, batchID string) types.BatchResult {
	res := types.BatchResult{Generated: []string{}, Failures: []types.Failure{}}
	if err := w.EnsureWritable(); err != nil {
		res.Status = types.StatusError
		res.Message = "output directory is not writable"
		logging.Errorf("[output] %v", err)
		return res
	}
	for _, im := range images {
		if err := w.WriteImage(im.Name, im.Image); err != nil {
			logging.Errorf("[output] %v", err)
			res.Failures = append(res.Failures, types.Failure{Spec: im.Name, Reason: "write failed"})
			continue
		}
		res.Generated = append(res.Generated, im.Name)
	}
	if len(res.Failures) > 0 {
		res.Status = types.StatusError
		res.Message = fmt.Sprintf("%d of %d charts could not be written; manifest not updated", len(res.Failures), len(images))
		return res
	}
	m, err := w.WriteManifest(res.Generated, batchID)
	if err != nil {
		logging.Errorf("[output] %v", err)
		res.Status = types.StatusError
		res.Message = "manifest could not be written"
		return res
	}
	res.Status = types.StatusOK
	res.GeneratedAt = m.GeneratedAt
	return res
}

// WriteManifest records names as the current chart set. generated_at is forced strictly
// after the previous manifest's timestamp so consumers can order batches even when the
// clock stalls or steps back.
func (w *Writer) WriteManifest(names []string, batchID string) (types.Manifest, error) {
	at := w.now().UTC()
	if prev, err := ReadManifest(w.Dir); err == nil && !at.After(prev.GeneratedAt) {
		at = prev.GeneratedAt.Add(time.Microsecond)
	}
	m := types.Manifest{
		Charts:      append([]string{}, names...),
		GeneratedAt: at,
		BatchID:     batchID,
		Items:       make([]types.GeneratedChart, 0, len(names)),
	}
	for _, n := range names {
		m.Items = append(m.Items, types.GeneratedChart{Filename: n, GeneratedAt: at})
	}
	err := w.writeAtomic(ManifestName, func(f io.Writer) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	})
	if err != nil {
		return types.Manifest{}, err
	}
	return m, nil
}

// ReadManifest loads the manifest of dir. A missing manifest yields an error wrapping
// os.ErrNotExist.
func ReadManifest(dir string) (types.Manifest, error) {
	var m types.Manifest
	b, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

// WriteSnapshot stores records as an indented JSON array.
func (w *Writer) WriteSnapshot(records []types.Record) error {
	if records == nil {
		records = []types.Record{}
	}
	return w.writeAtomic(SnapshotName, func(f io.Writer) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	})
}

// List reports which of the known filenames currently exist in the directory, in the order
// given. Anything that is not a regular file is ignored.
func (w *Writer) List(known []string) types.Listing {
	out := types.Listing{Charts: []string{}}
	for _, name := range known {
		if checkName(name) != nil {
			continue
		}
		st, err := os.Stat(filepath.Join(w.Dir, name))
		if err != nil || !st.Mode().IsRegular() {
			continue
		}
		out.Charts = append(out.Charts, name)
	}
	out.Total = len(out.Charts)
	return out
}
