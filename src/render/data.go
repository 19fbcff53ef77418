package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/iafilius/FixtureCharts/src/analysis"
	"github.com/iafilius/FixtureCharts/src/types"
)

var (
	// ErrUnknownKind is returned for a chart kind the renderer does not implement.
	ErrUnknownKind = errors.New("unknown chart kind")
	// ErrSelector is returned when a selector lacks the fields its chart kind needs.
	ErrSelector = errors.New("invalid data selector")
)

// DefaultBins is the histogram bin count when the selector leaves it unset.
const DefaultBins = 10

// Data is the aggregated input of one chart. Only the field matching the chart kind is read.
type Data struct {
	Points     []analysis.Point
	Categories []analysis.Group[float64]
	Bins       []analysis.Bin
	Boxes      []analysis.BoxStats
	Periods    []analysis.PeriodCount
}

// Empty reports whether there is nothing to plot for kind.
func (d Data) Empty(kind types.ChartKind) bool {
	switch kind {
	case types.KindScatter:
		return len(d.Points) == 0
	case types.KindBar:
		return len(d.Categories) == 0
	case types.KindHistogram:
		return len(d.Bins) == 0
	case types.KindBoxplot:
		return len(d.Boxes) == 0
	case types.KindLine:
		return len(d.Periods) == 0
	}
	return true
}

// Prepare reduces records to the data a chart spec plots.
func Prepare(spec types.ChartSpec, records []types.Record) (Data, error) {
	sel := spec.Selector
	switch spec.Kind {
	case types.KindScatter:
		if sel.X == "" || sel.Y == "" {
			return Data{}, fmt.Errorf("%w: scatter needs x and y", ErrSelector)
		}
		return Data{Points: analysis.Points(records, sel.X, sel.Y)}, nil

	case types.KindBar:
		if sel.Group == "" {
			return Data{}, fmt.Errorf("%w: bar needs group", ErrSelector)
		}
		key := analysis.FieldKey(sel.Group)
		switch sel.Reduce {
		case types.ReduceCount, "":
			return Data{Categories: toFloat(analysis.CountBy(records, key))}, nil
		case types.ReduceTopK:
			return Data{Categories: toFloat(analysis.TopK(records, key, sel.TopK))}, nil
		case types.ReduceSum, types.ReduceMean:
			if sel.Y == "" {
				return Data{}, fmt.Errorf("%w: bar %s needs y", ErrSelector, sel.Reduce)
			}
			if sel.Reduce == types.ReduceSum {
				return Data{Categories: analysis.SumBy(records, key, sel.Y)}, nil
			}
			return Data{Categories: analysis.MeanBy(records, key, sel.Y)}, nil
		default:
			return Data{}, fmt.Errorf("%w: unknown reduce %q", ErrSelector, sel.Reduce)
		}

	case types.KindHistogram:
		if sel.X == "" {
			return Data{}, fmt.Errorf("%w: histogram needs x", ErrSelector)
		}
		bins := sel.Bins
		if bins <= 0 {
			bins = DefaultBins
		}
		return Data{Bins: analysis.Histogram(analysis.Values(records, sel.X), bins)}, nil

	case types.KindBoxplot:
		if sel.Group == "" || sel.Y == "" {
			return Data{}, fmt.Errorf("%w: boxplot needs group and y", ErrSelector)
		}
		var boxes []analysis.BoxStats
		for _, g := range analysis.ValuesBy(records, analysis.FieldKey(sel.Group), sel.Y) {
			if b, ok := analysis.Box(g.Key, g.Value); ok {
				boxes = append(boxes, b)
			}
		}
		return Data{Boxes: boxes}, nil

	case types.KindLine:
		if sel.X == "" {
			return Data{}, fmt.Errorf("%w: line needs a date field in x", ErrSelector)
		}
		var times []time.Time
		for _, r := range records {
			if t, ok := r.Time(sel.X); ok {
				times = append(times, t)
			}
		}
		return Data{Periods: analysis.PeriodCounts(times, sel.Period)}, nil
	}
	return Data{}, fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
}

func toFloat(gs []analysis.Group[int]) []analysis.Group[float64] {
	out := make([]analysis.Group[float64], 0, len(gs))
	for _, g := range gs {
		out = append(out, analysis.Group[float64]{Key: g.Key, Value: float64(g.Value)})
	}
	return out
}
