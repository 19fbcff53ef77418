// Package pipeline runs a chart generation batch: fetch records, render each configured
// chart, stamp the watermark, persist the images and the manifest.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iafilius/FixtureCharts/src/logging"
	"github.com/iafilius/FixtureCharts/src/metrics"
	"github.com/iafilius/FixtureCharts/src/output"
	"github.com/iafilius/FixtureCharts/src/render"
	"github.com/iafilius/FixtureCharts/src/types"
	"github.com/iafilius/FixtureCharts/src/watermark"
)

// Source yields the records of one batch.
type Source interface {
	Records() ([]types.Record, error)
}

// ChartRenderer draws one chart.
type ChartRenderer interface {
	Render(spec types.ChartSpec, data render.Data) (image.Image, error)
}

// Options configures a Generator. Zero values select defaults.
type Options struct {
	Specs     []types.ChartSpec
	Watermark types.WatermarkSpec
	// Snapshot also writes fixtures.json and fixtures.xlsx next to the charts.
	Snapshot bool
	// Probe checks the plotting capability before anything is done; nil uses render.Probe.
	Probe func() error
}

// Generator runs batches against one source and one output directory. Run is safe for
// concurrent use; batches are serialised.
type Generator struct {
	source   Source
	renderer ChartRenderer
	writer   *output.Writer
	opts     Options
	validate *validator.Validate

	mu sync.Mutex
}

// New builds a generator.
func New(source Source, renderer ChartRenderer, writer *output.Writer, opts Options) *Generator {
	if opts.Specs == nil {
		opts.Specs = DefaultSpecs()
	}
	if opts.Probe == nil {
		opts.Probe = render.Probe
	}
	return &Generator{
		source:   source,
		renderer: renderer,
		writer:   writer,
		opts:     opts,
		validate: validator.New(),
	}
}

// Specs returns the configured chart specifications.
func (g *Generator) Specs() []types.ChartSpec { return g.opts.Specs }

// Known returns the filenames a batch can produce, in spec order.
func (g *Generator) Known() []string { return Filenames(g.opts.Specs) }

// List reports which known charts currently exist on disk.
func (g *Generator) List() types.Listing { return g.writer.List(g.Known()) }

// Run executes one batch. It never panics and always returns a result whose Status tells
// the caller what happened.
func (g *Generator) Run() (res types.BatchResult) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	batchID := uuid.NewString()
	defer func() {
		if rec := recover(); rec != nil {
			logging.Errorf("[pipeline] batch %s aborted: %v", batchID, rec)
			res = types.BatchResult{Status: types.StatusError, Generated: []string{}, Failures: []types.Failure{}, Message: "chart generation aborted"}
		}
		metrics.RecordBatch(res, time.Since(start))
		logging.Infof("[pipeline] batch %s finished status=%s generated=%d failures=%d in %s",
			batchID, res.Status, len(res.Generated), len(res.Failures), time.Since(start).Round(time.Millisecond))
	}()
	return g.run(batchID)
}

func result(status types.Status, msg string) types.BatchResult {
	return types.BatchResult{Status: status, Generated: []string{}, Failures: []types.Failure{}, Message: msg}
}

func (g *Generator) run(batchID string) types.BatchResult {
	if err := g.opts.Probe(); err != nil {
		logging.Warnf("[pipeline] plotting capability unavailable: %v", err)
		return result(types.StatusSkipped, "charting capability unavailable")
	}

	records, err := g.source.Records()
	if err != nil {
		logging.Errorf("[pipeline] fetch records: %v", err)
		return result(types.StatusError, "records could not be loaded")
	}
	if len(records) == 0 {
		logging.Infof("[pipeline] no records, nothing to chart")
		return result(types.StatusSkipped, "no records to chart")
	}

	if err := g.writer.EnsureWritable(); err != nil {
		logging.Errorf("[pipeline] %v", err)
		return result(types.StatusError, "output directory is not writable")
	}

	mark := g.loadWatermark()

	images := make([]output.Named, 0, len(g.opts.Specs))
	kinds := map[string]types.ChartKind{}
	var failures []types.Failure
	for _, spec := range g.opts.Specs {
		img, stage, err := g.renderOne(spec, records)
		if err != nil {
			logging.Warnf("[pipeline] %s (%s) failed at %s: %v", spec.Filename, spec.Kind, stage, err)
			metrics.RecordFailure(spec.Kind, stage)
			failures = append(failures, types.Failure{Spec: specName(spec), Reason: fmt.Sprintf("%s: %v", stage, err)})
			continue
		}
		if out, applied := watermark.Apply(img, mark); applied {
			img = out
		}
		images = append(images, output.Named{Name: spec.Filename, Image: img})
		kinds[spec.Filename] = spec.Kind
	}

	if g.opts.Snapshot {
		if err := g.writer.WriteSnapshot(records); err != nil {
			logging.Warnf("[pipeline] snapshot: %v", err)
		}
		if err := g.writer.WriteWorkbook(records); err != nil {
			logging.Warnf("[pipeline] workbook: %v", err)
		}
	}

	if len(images) == 0 && len(g.opts.Specs) > 0 {
		res := result(types.StatusError, "no chart could be rendered")
		res.Failures = failures
		return res
	}

	res := g.writer.Write(images, batchID)
	for _, f := range res.Failures {
		metrics.RecordFailure(kinds[f.Spec], "write")
	}
	for _, name := range res.Generated {
		metrics.RecordChart(kinds[name])
	}
	res.Failures = append(failures, res.Failures...)
	if res.Failures == nil {
		res.Failures = []types.Failure{}
	}
	if res.Status == types.StatusOK && len(failures) > 0 {
		res.Message = fmt.Sprintf("%d of %d charts failed", len(failures), len(g.opts.Specs))
	}
	return res
}

// renderOne validates, prepares and renders one spec. stage names the step that failed.
func (g *Generator) renderOne(spec types.ChartSpec, records []types.Record) (img image.Image, stage string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img, stage, err = nil, "render", fmt.Errorf("recovered panic: %v", rec)
		}
	}()
	if err := g.validate.Struct(spec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, "validate", fmt.Errorf("invalid field %s", verrs[0].Field())
		}
		return nil, "validate", err
	}
	data, err := render.Prepare(spec, records)
	if err != nil {
		return nil, "prepare", err
	}
	img, err = g.renderer.Render(spec, data)
	if err != nil {
		return nil, "render", err
	}
	return img, "", nil
}

func (g *Generator) loadWatermark() *watermark.Mark {
	wm := g.opts.Watermark
	if wm.ImagePath == "" && wm.Text == "" {
		return nil
	}
	mark, err := watermark.Load(wm)
	if err != nil {
		logging.Warnf("[pipeline] watermark unavailable, composited without watermark: %v", err)
		metrics.WatermarkDegradedTotal.Inc()
		return nil
	}
	if mark.Spec.Opacity == 0 {
		logging.Infof("[pipeline] watermark opacity is 0, composited without watermark")
	}
	return mark
}

func specName(s types.ChartSpec) string {
	if s.Filename != "" {
		return s.Filename
	}
	if s.Title != "" {
		return s.Title
	}
	return string(s.Kind)
}
