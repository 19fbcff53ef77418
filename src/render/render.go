// Package render turns prepared chart data into raster images with go-chart.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"sync"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/iafilius/FixtureCharts/src/analysis"
	"github.com/iafilius/FixtureCharts/src/logging"
	"github.com/iafilius/FixtureCharts/src/types"
)

// NoDataCaption is drawn on charts whose input reduced to nothing.
const NoDataCaption = "no data"

var (
	// alpha 0 with a non-zero RGB so go-chart does not treat it as unset
	invisible = drawing.Color{R: 255, G: 255, B: 255, A: 0}

	palette = []drawing.Color{
		drawing.ColorFromHex("4C72B0"),
		drawing.ColorFromHex("DD8452"),
		drawing.ColorFromHex("55A868"),
		drawing.ColorFromHex("C44E52"),
		drawing.ColorFromHex("8172B3"),
		drawing.ColorFromHex("937860"),
		drawing.ColorFromHex("DA8BC3"),
		drawing.ColorFromHex("8C8C8C"),
	}
)

func paletteColor(i int) drawing.Color { return palette[i%len(palette)] }

// pointStyle returns a style that renders points only (no connecting line)
func pointStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    width,
		DotColor:    col,
	}
}

// Renderer draws charts on a fixed-size canvas.
type Renderer struct {
	Width  int
	Height int
	DPI    float64
}

// New returns a renderer for the given canvas. Zero values select the defaults and
// out-of-range values are clamped.
func New(width, height int, dpi float64) *Renderer {
	w, h, d := clampCanvas(width, height, dpi)
	return &Renderer{Width: w, Height: h, DPI: d}
}

// Size returns the effective canvas size.
func (r *Renderer) Size() (int, int) {
	w, h, _ := clampCanvas(r.Width, r.Height, r.DPI)
	return w, h
}

// Render draws one chart. Empty data yields a valid chart with axes, title and a "no data"
// caption. A panic inside the chart library is returned as an error.
func (r *Renderer) Render(spec types.ChartSpec, data Data) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img = nil
			err = fmt.Errorf("render %s: recovered panic: %v", spec.Kind, rec)
		}
	}()
	if !spec.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
	}
	if data.Empty(spec.Kind) {
		logging.Debugf("[render] %s: empty input, drawing placeholder", spec.Filename)
		return r.renderEmpty(spec)
	}
	var ch chart.Chart
	switch spec.Kind {
	case types.KindScatter:
		ch = r.scatterChart(spec, data.Points)
	case types.KindBar:
		ch = r.barChart(spec, data.Categories)
	case types.KindHistogram:
		ch = r.histogramChart(spec, data.Bins)
	case types.KindBoxplot:
		ch = r.boxplotChart(spec, data.Boxes)
	case types.KindLine:
		ch = r.lineChart(spec, data.Periods)
	}
	return rasterise(ch)
}

func (r *Renderer) base(spec types.ChartSpec) chart.Chart {
	w, h, dpi := clampCanvas(r.Width, r.Height, r.DPI)
	return chart.Chart{
		Title:      spec.Title,
		Width:      w,
		Height:     h,
		DPI:        dpi,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 20, Right: 24, Bottom: 24}},
		XAxis:      chart.XAxis{Name: spec.XLabel},
		YAxis:      chart.YAxis{Name: spec.YLabel},
	}
}

// rotateCategoryLabels tilts x labels when there are many categories and reserves room for them.
func rotateCategoryLabels(ch *chart.Chart, n int) {
	if n <= 6 {
		return
	}
	ch.XAxis.TickStyle = chart.Style{TextRotationDegrees: 45}
	ch.Background.Padding.Bottom = 80
}

// spanTicks makes the outermost ticks coincide with the axis range. go-chart derives the
// plotted range from explicit ticks, so padding that lies beyond the labelled ticks would be lost.
func spanTicks(rng chart.Range, ticks []chart.Tick) []chart.Tick {
	if rng == nil || len(ticks) == 0 {
		return ticks
	}
	lo, hi := rng.GetMin(), rng.GetMax()
	out := make([]chart.Tick, 0, len(ticks)+2)
	if ticks[0].Value > lo {
		out = append(out, chart.Tick{Value: lo})
	}
	out = append(out, ticks...)
	if ticks[len(ticks)-1].Value < hi {
		out = append(out, chart.Tick{Value: hi})
	}
	return out
}

func rasterise(ch chart.Chart) (image.Image, error) {
	if ch.XAxis.Range != nil {
		ch.XAxis.Ticks = spanTicks(ch.XAxis.Range, ch.XAxis.Ticks)
	}
	if ch.YAxis.Range != nil {
		ch.YAxis.Ticks = spanTicks(ch.YAxis.Range, ch.YAxis.Ticks)
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	return img, nil
}

func (r *Renderer) renderEmpty(spec types.ChartSpec) (image.Image, error) {
	ch := r.base(spec)
	ch.XAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	ch.XAxis.Ticks = niceTicks(0, 1, 5)
	ch.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	ch.YAxis.Ticks = niceTicks(0, 1, 5)
	// go-chart refuses to render without a series
	ch.Series = []chart.Series{chart.ContinuousSeries{
		Style:   chart.Style{StrokeWidth: chart.Disabled, StrokeColor: invisible, DotWidth: 0},
		XValues: []float64{0, 1},
		YValues: []float64{0, 1},
	}}
	img, err := rasterise(ch)
	if err != nil {
		return nil, err
	}
	return drawCaption(img, NoDataCaption, 0.5), nil
}

func bounds(vs []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// trendLabel formats a fitted line as "Trend: y=ax+b" with the sign folded into b.
func trendLabel(slope, intercept float64) string {
	return fmt.Sprintf("Trend: y=%.2fx%+.2f", slope, intercept)
}

func (r *Renderer) scatterChart(spec types.ChartSpec, pts []analysis.Point) chart.Chart {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	minX, maxX := bounds(xs)
	minY, maxY := bounds(ys)

	st := pointStyle(paletteColor(0), 5)
	if maxY > minY {
		st.DotColorProvider = func(_, _ chart.Range, _ int, _, y float64) drawing.Color {
			return chart.Viridis(y, minY, maxY)
		}
	}
	if len(pts) == 1 {
		st.DotWidth = 7
	}
	series := []chart.Series{chart.ContinuousSeries{Name: "observations", Style: st, XValues: xs, YValues: ys}}

	slope, intercept, ok := analysis.LinearFit(pts)
	if ok {
		series = append(series, chart.ContinuousSeries{
			Name: trendLabel(slope, intercept),
			Style: chart.Style{
				StrokeColor:     chart.ColorRed,
				StrokeWidth:     2,
				StrokeDashArray: []float64{6, 4},
			},
			XValues: []float64{minX, maxX},
			YValues: []float64{slope*minX + intercept, slope*maxX + intercept},
		})
		minY = math.Min(minY, math.Min(slope*minX+intercept, slope*maxX+intercept))
		maxY = math.Max(maxY, math.Max(slope*minX+intercept, slope*maxX+intercept))
	}

	ch := r.base(spec)
	ch.XAxis.Range, ch.XAxis.Ticks = buildRangeAndTicks(minX, maxX, 8, 0.02)
	ch.YAxis.Range, ch.YAxis.Ticks = buildRangeAndTicks(minY, maxY, 6, 0.02)
	ch.Series = series
	if ok {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch
}

// barPolygon outlines a bar of the given half width around x from 0 to v. go-chart fills
// the polygon down to the bottom of the plot area, which is the zero line here.
func barPolygon(x, halfWidth, v float64, col drawing.Color, fill bool) chart.ContinuousSeries {
	st := chart.Style{StrokeColor: col, StrokeWidth: 1}
	if fill {
		st.FillColor = col.WithAlpha(210)
	}
	return chart.ContinuousSeries{
		Style:   st,
		XValues: []float64{x - halfWidth, x - halfWidth, x + halfWidth, x + halfWidth},
		YValues: []float64{0, v, v, 0},
	}
}

func (r *Renderer) barChart(spec types.ChartSpec, cats []analysis.Group[float64]) chart.Chart {
	labels := make([]string, len(cats))
	vals := make([]float64, len(cats))
	for i, c := range cats {
		labels[i], vals[i] = c.Key, c.Value
	}
	lo, hi := bounds(vals)

	ch := r.base(spec)
	fill := lo >= 0
	if fill {
		ch.YAxis.Range, ch.YAxis.Ticks = buildZeroAnchoredRangeAndTicks(hi, 6, 0.12)
	} else {
		ch.YAxis.Range, ch.YAxis.Ticks = buildRangeAndTicks(math.Min(lo, 0), math.Max(hi, 0), 6, 0.08)
	}
	series := make([]chart.Series, 0, len(cats)+1)
	notes := make([]chart.Value2, 0, len(cats))
	for i, v := range vals {
		series = append(series, barPolygon(float64(i), 0.38, v, paletteColor(i), fill))
		notes = append(notes, chart.Value2{XValue: float64(i), YValue: v, Label: formatValue(v)})
	}
	series = append(series, chart.AnnotationSeries{Annotations: notes})

	ch.XAxis.Range = &chart.ContinuousRange{Min: -0.6, Max: float64(len(cats)) - 0.4}
	ch.XAxis.Ticks = categoryTicks(labels)
	rotateCategoryLabels(&ch, len(cats))
	ch.Series = series
	return ch
}

func (r *Renderer) histogramChart(spec types.ChartSpec, bins []analysis.Bin) chart.Chart {
	maxCount := 0
	series := make([]chart.Series, 0, len(bins))
	edges := make([]float64, 0, len(bins)+1)
	col := paletteColor(0)
	for i, b := range bins {
		if b.Count > maxCount {
			maxCount = b.Count
		}
		mid := (b.Lo + b.Hi) / 2
		series = append(series, barPolygon(mid, (b.Hi-b.Lo)/2, float64(b.Count), col, true))
		if i == 0 {
			edges = append(edges, b.Lo)
		}
		edges = append(edges, b.Hi)
	}
	lo, hi := bins[0].Lo, bins[len(bins)-1].Hi
	pad := (hi - lo) * 0.02

	ch := r.base(spec)
	ch.XAxis.Range = &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	if len(edges) <= 16 {
		ticks := make([]chart.Tick, 0, len(edges))
		for _, e := range edges {
			ticks = append(ticks, chart.Tick{Value: e, Label: formatTick(e)})
		}
		ch.XAxis.Ticks = ticks
		rotateCategoryLabels(&ch, len(edges))
	} else {
		rng, ticks := buildRangeAndTicks(lo, hi, 8, 0)
		ch.XAxis.Range, ch.XAxis.Ticks = rng, ticks
	}
	ch.YAxis.Range, ch.YAxis.Ticks = buildZeroAnchoredRangeAndTicks(float64(maxCount), 6, 0.08)
	ch.Series = series
	return ch
}

func (r *Renderer) boxplotChart(spec types.ChartSpec, boxes []analysis.BoxStats) chart.Chart {
	const half = 0.25
	labels := make([]string, len(boxes))
	var all []float64
	series := make([]chart.Series, 0, len(boxes)*5)
	for i, b := range boxes {
		labels[i] = b.Label
		x := float64(i)
		col := paletteColor(i)
		line := chart.Style{StrokeColor: col, StrokeWidth: 2}
		series = append(series,
			chart.ContinuousSeries{Style: line,
				XValues: []float64{x - half, x + half, x + half, x - half, x - half},
				YValues: []float64{b.Q1, b.Q1, b.Q3, b.Q3, b.Q1}},
			chart.ContinuousSeries{Style: chart.Style{StrokeColor: chart.ColorBlack, StrokeWidth: 2.5},
				XValues: []float64{x - half, x + half},
				YValues: []float64{b.Median, b.Median}},
			// lower whisker with cap
			chart.ContinuousSeries{Style: line,
				XValues: []float64{x - half/2, x + half/2, x, x},
				YValues: []float64{b.WhiskerLow, b.WhiskerLow, b.WhiskerLow, b.Q1}},
			// upper whisker with cap
			chart.ContinuousSeries{Style: line,
				XValues: []float64{x, x, x - half/2, x + half/2},
				YValues: []float64{b.Q3, b.WhiskerHigh, b.WhiskerHigh, b.WhiskerHigh}},
		)
		if len(b.Outliers) > 0 {
			xs := make([]float64, len(b.Outliers))
			for j := range xs {
				xs[j] = x
			}
			series = append(series, chart.ContinuousSeries{Style: pointStyle(col, 4), XValues: xs, YValues: b.Outliers})
		}
		all = append(all, b.WhiskerLow, b.WhiskerHigh)
		all = append(all, b.Outliers...)
	}
	lo, hi := bounds(all)

	ch := r.base(spec)
	ch.XAxis.Range = &chart.ContinuousRange{Min: -0.6, Max: float64(len(boxes)) - 0.4}
	ch.XAxis.Ticks = categoryTicks(labels)
	rotateCategoryLabels(&ch, len(boxes))
	ch.YAxis.Range, ch.YAxis.Ticks = buildRangeAndTicks(lo, hi, 6, 0.02)
	ch.Series = series
	return ch
}

func (r *Renderer) lineChart(spec types.ChartSpec, periods []analysis.PeriodCount) chart.Chart {
	xs := make([]float64, len(periods))
	ys := make([]float64, len(periods))
	labels := make([]string, len(periods))
	maxY := 0.0
	for i, p := range periods {
		xs[i], ys[i], labels[i] = float64(i), float64(p.Count), p.Period
		maxY = math.Max(maxY, ys[i])
	}
	col := paletteColor(0)
	st := chart.Style{StrokeColor: col, StrokeWidth: 2, DotWidth: 4, DotColor: col}
	if len(periods) > 1 {
		st.FillColor = col.WithAlpha(60)
	}

	ch := r.base(spec)
	ch.XAxis.Range = &chart.ContinuousRange{Min: -0.5, Max: float64(len(periods)) - 0.5}
	ch.XAxis.Ticks = thinTicks(categoryTicks(labels), 24)
	rotateCategoryLabels(&ch, len(periods))
	ch.YAxis.Range, ch.YAxis.Ticks = buildZeroAnchoredRangeAndTicks(maxY, 6, 0.08)
	ch.Series = []chart.Series{chart.ContinuousSeries{Name: spec.YLabel, Style: st, XValues: xs, YValues: ys}}
	return ch
}

// thinTicks keeps every k-th tick so that at most limit labels remain.
func thinTicks(ticks []chart.Tick, limit int) []chart.Tick {
	if limit <= 0 || len(ticks) <= limit {
		return ticks
	}
	step := int(math.Ceil(float64(len(ticks)) / float64(limit)))
	out := make([]chart.Tick, 0, limit)
	for i := 0; i < len(ticks); i += step {
		out = append(out, ticks[i])
	}
	return out
}

var (
	probeOnce sync.Once
	probeErr  error
)

// Probe verifies once per process that the plotting stack (fonts, rasteriser, PNG codec)
// works by rendering a tiny chart. Later calls return the cached outcome.
func Probe() error {
	probeOnce.Do(func() {
		r := New(minWidth, minHeight, DefaultDPI)
		_, probeErr = r.Render(
			types.ChartSpec{Kind: types.KindLine, Title: "probe", Filename: "probe.png"},
			Data{Periods: []analysis.PeriodCount{{Period: "a", Count: 1}, {Period: "b", Count: 2}}},
		)
		if probeErr != nil {
			logging.Warnf("[render] capability probe failed: %v", probeErr)
		}
	})
	return probeErr
}
