package pipeline

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iafilius/FixtureCharts/src/analysis"
	"github.com/iafilius/FixtureCharts/src/fixtures"
	"github.com/iafilius/FixtureCharts/src/output"
	"github.com/iafilius/FixtureCharts/src/render"
	"github.com/iafilius/FixtureCharts/src/types"
)

type staticSource struct {
	recs []types.Record
	err  error
}

func (s staticSource) Records() ([]types.Record, error) { return s.recs, s.err }

type panicRenderer struct{ kind types.ChartKind }

func (p panicRenderer) Render(spec types.ChartSpec, data render.Data) (image.Image, error) {
	if spec.Kind == p.kind {
		panic("boom")
	}
	return render.New(400, 300, 72).Render(spec, data)
}

func noProbe() error { return nil }

func employees() fixtures.Source {
	return fixtures.Source{Count: 50, Seed: 42, Profile: fixtures.ProfileEmployees, Anchor: fixtures.DefaultAnchor}
}

func newGen(t *testing.T, src Source, opts Options) (*Generator, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "charts")
	if opts.Probe == nil {
		opts.Probe = noProbe
	}
	return New(src, render.New(480, 320, 72), output.NewWriter(dir), opts), dir
}

func TestRunEndToEnd(t *testing.T) {
	gen, dir := newGen(t, employees(), Options{Watermark: types.WatermarkSpec{Text: "Backend\nStatistics", Opacity: 0.25}})
	res := gen.Run()
	require.Equal(t, types.StatusOK, res.Status, res.Message)
	assert.Empty(t, res.Failures)
	assert.Equal(t, Filenames(DefaultSpecs()), res.Generated)

	for _, name := range res.Generated {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	m, err := output.ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, res.Generated, m.Charts)
	assert.NotEmpty(t, m.BatchID)

	listing := gen.List()
	assert.Equal(t, len(DefaultSpecs()), listing.Total)
}

func TestEmployeeRecordsSpanEveryDepartment(t *testing.T) {
	recs, err := employees().Records()
	require.NoError(t, err)
	require.Len(t, recs, 50)
	assert.Len(t, analysis.CountBy(recs, analysis.FieldKey("department")), len(fixtures.Departments))

	for _, spec := range DefaultSpecs() {
		if spec.Selector.Group != "department" {
			continue
		}
		data, err := render.Prepare(spec, recs)
		require.NoError(t, err, spec.Filename)
		switch spec.Kind {
		case types.KindBoxplot:
			assert.Len(t, data.Boxes, len(fixtures.Departments), spec.Filename)
		case types.KindBar:
			assert.Len(t, data.Categories, len(fixtures.Departments), spec.Filename)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	gen, dir := newGen(t, employees(), Options{})
	first := gen.Run()
	require.Equal(t, types.StatusOK, first.Status)
	m1, err := output.ReadManifest(dir)
	require.NoError(t, err)

	second := gen.Run()
	require.Equal(t, types.StatusOK, second.Status)
	assert.Equal(t, first.Generated, second.Generated)
	m2, err := output.ReadManifest(dir)
	require.NoError(t, err)
	assert.True(t, m2.GeneratedAt.After(m1.GeneratedAt), "second manifest must be strictly later")
	assert.NotEqual(t, m1.BatchID, m2.BatchID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(DefaultSpecs())+1, "charts plus manifest, nothing else")
}

func TestRunMissingCapabilitySkips(t *testing.T) {
	gen, dir := newGen(t, employees(), Options{Probe: func() error { return errors.New("no fonts") }})
	res := gen.Run()
	assert.Equal(t, types.StatusSkipped, res.Status)
	assert.Empty(t, res.Generated)
	assert.NoDirExists(t, dir)
}

func TestRunEmptyInputSkips(t *testing.T) {
	gen, dir := newGen(t, staticSource{}, Options{})
	res := gen.Run()
	assert.Equal(t, types.StatusSkipped, res.Status)
	_, err := output.ReadManifest(dir)
	assert.Error(t, err)
}

func TestRunSourceErrorIsError(t *testing.T) {
	gen, _ := newGen(t, staticSource{err: errors.New("db down at /var/lib/app.db")}, Options{})
	res := gen.Run()
	assert.Equal(t, types.StatusError, res.Status)
	assert.NotContains(t, res.Message, "/var/lib")
}

func TestRunMissingWatermarkStillOK(t *testing.T) {
	gen, _ := newGen(t, employees(), Options{Watermark: types.WatermarkSpec{ImagePath: "/does/not/exist.png", Opacity: 0.5}})
	res := gen.Run()
	assert.Equal(t, types.StatusOK, res.Status)
	assert.Len(t, res.Generated, len(DefaultSpecs()))
}

func TestRunRecordsFailingSpecAndContinues(t *testing.T) {
	specs := append(DefaultSpecs()[:2:2], types.ChartSpec{Kind: types.KindScatter, Title: "broken", Filename: "broken.png"})
	gen, dir := newGen(t, employees(), Options{Specs: specs})
	res := gen.Run()
	require.Equal(t, types.StatusOK, res.Status)
	assert.Len(t, res.Generated, 2)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "broken.png", res.Failures[0].Spec)
	assert.Contains(t, res.Failures[0].Reason, "prepare")

	m, err := output.ReadManifest(dir)
	require.NoError(t, err)
	assert.NotContains(t, m.Charts, "broken.png")
	assert.NoFileExists(t, filepath.Join(dir, "broken.png"))
}

func TestRunRecoversRendererPanic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	gen := New(employees(), panicRenderer{kind: types.KindLine}, output.NewWriter(dir), Options{Probe: noProbe})
	res := gen.Run()
	assert.Equal(t, types.StatusOK, res.Status)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "chart_registrations_timeline.png", res.Failures[0].Spec)
	assert.Len(t, res.Generated, len(DefaultSpecs())-1)
}

func TestRunInvalidSpecsOnlyIsError(t *testing.T) {
	gen, dir := newGen(t, employees(), Options{Specs: []types.ChartSpec{{Kind: "pie", Filename: "pie.png"}, {Kind: types.KindBar}}})
	res := gen.Run()
	assert.Equal(t, types.StatusError, res.Status)
	assert.Len(t, res.Failures, 2)
	_, err := output.ReadManifest(dir)
	assert.Error(t, err, "no manifest when nothing succeeded")
}

func TestRunUnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	gen := New(employees(), render.New(400, 300, 72), output.NewWriter(filepath.Join(blocker, "charts")), Options{Probe: noProbe})
	res := gen.Run()
	assert.Equal(t, types.StatusError, res.Status)
	assert.NotContains(t, res.Message, blocker)
}

func TestRunSnapshotFiles(t *testing.T) {
	src := fixtures.Source{Count: 50, Seed: 42, Profile: fixtures.ProfileFixtures}
	gen, dir := newGen(t, src, Options{Specs: FixtureSpecs(), Snapshot: true})
	res := gen.Run()
	require.Equal(t, types.StatusOK, res.Status, res.Message)
	assert.FileExists(t, filepath.Join(dir, output.SnapshotName))
	assert.FileExists(t, filepath.Join(dir, output.WorkbookName))
	assert.Len(t, res.Generated, len(FixtureSpecs()))
}

func TestConcurrentRunsAreSerialised(t *testing.T) {
	gen, dir := newGen(t, employees(), Options{Specs: DefaultSpecs()[:2]})
	var wg sync.WaitGroup
	results := make([]types.BatchResult, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = gen.Run()
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, types.StatusOK, r.Status)
	}
	m, err := output.ReadManifest(dir)
	require.NoError(t, err)
	assert.Len(t, m.Charts, 2)
}

func TestFixtureSpecsMatchStoreChartNames(t *testing.T) {
	assert.Equal(t, []string{"scatter.png", "bar.png", "hist.png"}, Filenames(FixtureSpecs()))
}

func TestSpecsFor(t *testing.T) {
	assert.Equal(t, FixtureSpecs(), SpecsFor("fixtures"))
	assert.Equal(t, SalesSpecs(), SpecsFor("sales"))
	assert.Equal(t, DefaultSpecs(), SpecsFor("anything"))
}

func TestScheduler(t *testing.T) {
	gen, _ := newGen(t, employees(), Options{})
	_, err := NewScheduler(gen, "not a schedule")
	assert.Error(t, err)
	_, err = NewScheduler(gen, " ")
	assert.Error(t, err)

	s, err := NewScheduler(gen, "@every 1h")
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
