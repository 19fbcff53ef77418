package render

import (
	"math"
	"testing"

	"github.com/wcharczuk/go-chart/v2"
)

func TestBuildRangeAndTicksBasicPadding(t *testing.T) {
	min, max := 10.0, 10.0 // degenerate
	rng, ticks := buildRangeAndTicks(min, max, 6, 0.05)
	if rng.Min >= rng.Max {
		t.Fatalf("expected widened range; got %v >= %v", rng.Min, rng.Max)
	}
	if len(ticks) < 2 {
		t.Fatalf("expected >=2 ticks, got %d", len(ticks))
	}
	first, last := ticks[0].Value, ticks[len(ticks)-1].Value
	if !(rng.Min < first && rng.Max > last) {
		t.Fatalf("expected padding beyond tick span: range [%v,%v] ticks [%v,%v]", rng.Min, rng.Max, first, last)
	}
	if !(first <= min && last >= max) {
		t.Fatalf("ticks [%v,%v] do not cover the data", first, last)
	}
}

func TestBuildRangeAndTicksNoPadding(t *testing.T) {
	min, max := 5.0, 123.0
	rng, ticks := buildRangeAndTicks(min, max, 6, 0)
	if len(ticks) < 2 {
		t.Fatalf("expected ticks")
	}
	first, last := ticks[0].Value, ticks[len(ticks)-1].Value
	if math.Abs(rng.Min-first) > 1e-9 || math.Abs(rng.Max-last) > 1e-9 {
		t.Fatalf("expected no padding: range [%v,%v] vs tick span [%v,%v]", rng.Min, rng.Max, first, last)
	}
	if first > min || last < max {
		t.Fatalf("ticks [%v,%v] do not cover [%v,%v]", first, last, min, max)
	}
}

func TestBuildZeroAnchoredRangeAndTicks(t *testing.T) {
	rng, ticks := buildZeroAnchoredRangeAndTicks(93, 6, 0.04)
	if rng.Min != 0 {
		t.Fatalf("expected zero anchor, got %v", rng.Min)
	}
	if rng.Max < 93*1.04 {
		t.Fatalf("range max %v leaves no headroom above 93", rng.Max)
	}
	if ticks[0].Value != 0 {
		t.Fatalf("first tick should be the zero baseline")
	}
	// non-positive input still yields a drawable range
	rng, _ = buildZeroAnchoredRangeAndTicks(0, 6, 0.1)
	if rng.Max <= rng.Min {
		t.Fatalf("degenerate zero-anchored range [%v,%v]", rng.Min, rng.Max)
	}
}

func TestTickLabelsNonEmpty(t *testing.T) {
	_, ticks := buildRangeAndTicks(1, 9, 6, 0.02)
	for i, tk := range ticks {
		if tk.Label == "" {
			t.Fatalf("empty label at index %d", i)
		}
	}
}

func TestFormatTickGroupsThousands(t *testing.T) {
	if got := formatTick(0); got != "0" {
		t.Fatalf("zero: got %q", got)
	}
	if got := formatTick(125000); got != "125,000" {
		t.Fatalf("expected grouped thousands, got %q", got)
	}
	if got := formatTick(2.5); got != "2.50" {
		t.Fatalf("small values keep two decimals, got %q", got)
	}
	if got := formatValue(12); got != "12" {
		t.Fatalf("whole values drop decimals, got %q", got)
	}
}

func TestSpanTicksCoversRange(t *testing.T) {
	ticks := []chart.Tick{{Value: 0, Label: "a"}, {Value: 1, Label: "b"}}
	got := spanTicks(&chart.ContinuousRange{Min: -0.6, Max: 1.6}, ticks)
	if len(got) != 4 || got[0].Value != -0.6 || got[3].Value != 1.6 {
		t.Fatalf("expected boundary ticks, got %+v", got)
	}
	if got[0].Label != "" || got[3].Label != "" {
		t.Fatalf("boundary ticks must be unlabelled")
	}
	same := spanTicks(&chart.ContinuousRange{Min: 0, Max: 1}, ticks)
	if len(same) != 2 {
		t.Fatalf("ticks already spanning the range must not grow: %+v", same)
	}
}

func TestThinTicks(t *testing.T) {
	labels := make([]string, 50)
	for i := range labels {
		labels[i] = "p"
	}
	got := thinTicks(categoryTicks(labels), 24)
	if len(got) > 24 || got[0].Value != 0 {
		t.Fatalf("expected at most 24 ticks starting at 0, got %d", len(got))
	}
}

func TestClampCanvas(t *testing.T) {
	w, h, dpi := clampCanvas(0, 0, 0)
	if w != DefaultWidth || h != DefaultHeight || dpi != DefaultDPI {
		t.Fatalf("defaults not applied: %d %d %v", w, h, dpi)
	}
	w, h, _ = clampCanvas(10, 100000, 96)
	if w != minWidth || h != maxHeight {
		t.Fatalf("bounds not applied: %d %d", w, h)
	}
}
