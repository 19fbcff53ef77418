package render

import (
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// niceTicks generates up to n tick marks between [min, max] using 1/2/2.5/5/10 steps.
func niceTicks(min, max float64, n int) []chart.Tick {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		count := math.Ceil(span / step)
		if count < 2 {
			count = 2
		}
		if score := math.Abs(count - float64(n)); score < bestScore {
			bestScore = score
			bestStep = step
		}
	}
	start := math.Floor(min/bestStep) * bestStep
	end := math.Ceil(max/bestStep) * bestStep
	ticks := []chart.Tick{}
	for i := 0; ; i++ {
		v := start + float64(i)*bestStep
		if v > end+bestStep/2 || len(ticks) > n+2 {
			break
		}
		ticks = append(ticks, chart.Tick{Value: v, Label: formatTick(v)})
	}
	return ticks
}

// buildRangeAndTicks returns a range spanning nice ticks around [min,max] (data padded by 5%
// before rounding), widened by padPct of the tick span on both sides. A degenerate input is
// widened first.
func buildRangeAndTicks(min, max float64, n int, padPct float64) (*chart.ContinuousRange, []chart.Tick) {
	if max <= min {
		w := math.Max(math.Abs(min)*0.1, 1)
		min, max = min-w, max+w
	}
	margin := (max - min) * 0.05
	ticks := niceTicks(min-margin, max+margin, n)
	lo, hi := min-margin, max+margin
	if len(ticks) >= 2 {
		lo, hi = ticks[0].Value, ticks[len(ticks)-1].Value
	}
	pad := (hi - lo) * padPct
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}, ticks
}

// buildZeroAnchoredRangeAndTicks is buildRangeAndTicks for non-negative data drawn from a
// zero baseline (bars, histograms, counts).
func buildZeroAnchoredRangeAndTicks(maxVal float64, n int, padPct float64) (*chart.ContinuousRange, []chart.Tick) {
	if maxVal <= 0 || math.IsNaN(maxVal) {
		maxVal = 1
	}
	top := maxVal * (1 + math.Max(padPct, 0))
	ticks := niceTicks(0, top, n)
	hi := top
	if len(ticks) >= 2 {
		hi = ticks[len(ticks)-1].Value
	}
	return &chart.ContinuousRange{Min: 0, Max: hi}, ticks
}

// categoryTicks places one labelled tick on every integer position.
func categoryTicks(labels []string) []chart.Tick {
	out := make([]chart.Tick, 0, len(labels))
	for i, l := range labels {
		out = append(out, chart.Tick{Value: float64(i), Label: l})
	}
	return out
}

func printer() *message.Printer { return message.NewPrinter(language.English) }

// formatTick renders axis values with thousands grouping and fewer decimals as magnitude grows.
func formatTick(v float64) string {
	if v == 0 {
		return "0"
	}
	av := math.Abs(v)
	switch {
	case av >= 100:
		return printer().Sprintf("%.0f", v)
	case av >= 10:
		return printer().Sprintf("%.1f", v)
	default:
		return printer().Sprintf("%.2f", v)
	}
}

// formatValue labels a data value: whole numbers without decimals, everything else with two.
func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return printer().Sprintf("%d", int64(v))
	}
	return printer().Sprintf("%.2f", v)
}
