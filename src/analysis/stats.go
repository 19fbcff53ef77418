package analysis

import (
	"math"
	"sort"
	"time"
)

// Percentile returns the p-th percentile (0..100) of a using linear interpolation between
// closest ranks. ok is false for an empty input.
func Percentile(a []float64, p float64) (float64, bool) {
	if len(a) == 0 {
		return 0, false
	}
	cp := append([]float64(nil), a...)
	sort.Float64s(cp)
	return percentileSorted(cp, p), true
}

func percentileSorted(cp []float64, p float64) float64 {
	if p <= 0 {
		return cp[0]
	}
	if p >= 100 {
		return cp[len(cp)-1]
	}
	pos := p / 100 * float64(len(cp)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return cp[lo]
	}
	frac := pos - float64(lo)
	return cp[lo] + (cp[hi]-cp[lo])*frac
}

// BoxStats summarises one group for a box plot. Whiskers reach the most extreme values
// within 1.5·IQR of the box; anything beyond is an outlier.
type BoxStats struct {
	Label       string
	N           int
	Min, Max    float64
	Q1, Median  float64
	Q3          float64
	WhiskerLow  float64
	WhiskerHigh float64
	Outliers    []float64
}

// Box computes box statistics. A single observation yields a degenerate box where every
// statistic equals that value.
func Box(label string, values []float64) (BoxStats, bool) {
	if len(values) == 0 {
		return BoxStats{}, false
	}
	cp := append([]float64(nil), values...)
	sort.Float64s(cp)
	b := BoxStats{
		Label:  label,
		N:      len(cp),
		Min:    cp[0],
		Max:    cp[len(cp)-1],
		Q1:     percentileSorted(cp, 25),
		Median: percentileSorted(cp, 50),
		Q3:     percentileSorted(cp, 75),
	}
	iqr := b.Q3 - b.Q1
	lowFence := b.Q1 - 1.5*iqr
	highFence := b.Q3 + 1.5*iqr
	b.WhiskerLow, b.WhiskerHigh = b.Q1, b.Q3
	for _, v := range cp {
		if v < lowFence || v > highFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		if v < b.WhiskerLow {
			b.WhiskerLow = v
		}
		if v > b.WhiskerHigh {
			b.WhiskerHigh = v
		}
	}
	return b, true
}

// Bin is one histogram bucket [Lo, Hi). The last bucket is closed on both ends.
type Bin struct {
	Lo, Hi float64
	Count  int
}

// Histogram splits values into equal-width bins spanning [min, max]. When all values are
// equal the span is widened by 0.5 on each side so the bins keep a positive width.
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		// ±0.5 vanishes in float64 for large magnitudes
		half := math.Max(0.5, math.Abs(lo)*1e-6)
		lo -= half
		hi += half
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		out[idx].Count++
	}
	return out
}

// LinearFit computes the least-squares line y = slope·x + intercept. ok is false with
// fewer than two points or when every x is identical.
func LinearFit(points []Point) (slope, intercept float64, ok bool) {
	n := float64(len(points))
	if len(points) < 2 {
		return 0, 0, false
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	mx, my := sx/n, sy/n
	var sxx, sxy float64
	for _, p := range points {
		dx := p.X - mx
		sxx += dx * dx
		sxy += dx * (p.Y - my)
	}
	if sxx == 0 {
		return 0, 0, false
	}
	slope = sxy / sxx
	intercept = my - slope*mx
	if math.IsNaN(slope) || math.IsNaN(intercept) {
		return 0, 0, false
	}
	return slope, intercept, true
}

// PeriodCount is the number of observations within one calendar period.
type PeriodCount struct {
	Period string
	Start  time.Time
	Count  int
}

// PeriodCounts buckets timestamps by the given Go time layout (e.g. "2006-01" for months)
// and returns the observed periods in ascending chronological order. Periods with no
// observations are omitted, not zero-filled.
func PeriodCounts(times []time.Time, layout string) []PeriodCount {
	if layout == "" {
		layout = "2006-01"
	}
	idx := map[string]int{}
	var out []PeriodCount
	for _, t := range times {
		key := t.Format(layout)
		start, err := time.Parse(layout, key)
		if err != nil {
			start = t
		}
		if i, ok := idx[key]; ok {
			out[i].Count++
			if start.Before(out[i].Start) {
				out[i].Start = start
			}
			continue
		}
		idx[key] = len(out)
		out = append(out, PeriodCount{Period: key, Start: start, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
