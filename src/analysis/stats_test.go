package analysis

import (
	"math"
	"testing"
	"time"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPercentileInterpolates(t *testing.T) {
	vals := []float64{4, 1, 3, 2}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1}, {25, 1.75}, {50, 2.5}, {75, 3.25}, {100, 4},
	}
	for _, c := range cases {
		got, ok := Percentile(vals, c.p)
		if !ok || !almost(got, c.want) {
			t.Fatalf("p%.0f: got %v want %v", c.p, got, c.want)
		}
	}
	if _, ok := Percentile(nil, 50); ok {
		t.Fatalf("expected !ok for empty input")
	}
	// input must not be reordered
	if vals[0] != 4 {
		t.Fatalf("Percentile mutated its input")
	}
}

func TestBoxSingleObservationIsDegenerate(t *testing.T) {
	b, ok := Box("IT", []float64{42000})
	if !ok {
		t.Fatalf("expected ok")
	}
	for name, v := range map[string]float64{"min": b.Min, "q1": b.Q1, "median": b.Median, "q3": b.Q3, "max": b.Max, "wlo": b.WhiskerLow, "whi": b.WhiskerHigh} {
		if v != 42000 {
			t.Fatalf("%s: got %v want 42000", name, v)
		}
	}
	if len(b.Outliers) != 0 {
		t.Fatalf("single value cannot be an outlier")
	}
}

func TestBoxOutliers(t *testing.T) {
	b, _ := Box("x", []float64{1, 2, 3, 4, 5, 100})
	if len(b.Outliers) != 1 || b.Outliers[0] != 100 {
		t.Fatalf("expected 100 as outlier, got %v", b.Outliers)
	}
	if b.WhiskerHigh != 5 || b.WhiskerLow != 1 {
		t.Fatalf("unexpected whiskers [%v,%v]", b.WhiskerLow, b.WhiskerHigh)
	}
	if _, ok := Box("empty", nil); ok {
		t.Fatalf("expected !ok for empty group")
	}
}

func TestHistogramCountsAllValues(t *testing.T) {
	vals := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	bins := Histogram(vals, 5)
	if len(bins) != 5 {
		t.Fatalf("expected 5 bins, got %d", len(bins))
	}
	total := 0
	for _, b := range bins {
		total += b.Count
		if b.Hi <= b.Lo {
			t.Fatalf("non-positive bin width %v", b)
		}
	}
	if total != len(vals) {
		t.Fatalf("histogram lost values: %d != %d", total, len(vals))
	}
	// max value lands in the closed last bin
	if bins[4].Count != 3 {
		t.Fatalf("last bin should hold 8,9,10; got %d", bins[4].Count)
	}
}

func TestHistogramZeroSpan(t *testing.T) {
	bins := Histogram([]float64{7, 7, 7}, 4)
	if len(bins) != 4 || bins[0].Lo != 6.5 || bins[3].Hi != 7.5 {
		t.Fatalf("expected widened span [6.5,7.5], got %v", bins)
	}
	if Histogram(nil, 10) != nil {
		t.Fatalf("expected nil bins for empty input")
	}
}

func TestHistogramZeroSpanLargeMagnitude(t *testing.T) {
	bins := Histogram([]float64{1e20, 1e20}, 10)
	if len(bins) != 10 {
		t.Fatalf("expected 10 bins, got %d", len(bins))
	}
	total := 0
	for _, b := range bins {
		if !(b.Hi > b.Lo) {
			t.Fatalf("bin has no width: %+v", b)
		}
		total += b.Count
	}
	if total != 2 {
		t.Fatalf("expected 2 values counted, got %d", total)
	}
}

func TestLinearFit(t *testing.T) {
	s, i, ok := LinearFit([]Point{{1, 3}, {2, 5}, {3, 7}})
	if !ok || !almost(s, 2) || !almost(i, 1) {
		t.Fatalf("got slope=%v intercept=%v ok=%v", s, i, ok)
	}
	if _, _, ok := LinearFit([]Point{{1, 1}}); ok {
		t.Fatalf("single point must not fit")
	}
	if _, _, ok := LinearFit([]Point{{2, 1}, {2, 5}}); ok {
		t.Fatalf("vertical data must not fit")
	}
}

func TestPeriodCountsChronologicalAndSparse(t *testing.T) {
	d := func(s string) time.Time {
		tm, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return tm
	}
	// deliberately unordered, March 2024 missing
	times := []time.Time{d("2024-04-10"), d("2024-01-05"), d("2024-02-20"), d("2024-01-30"), d("2023-12-31")}
	got := PeriodCounts(times, "2006-01")
	want := []PeriodCount{
		{Period: "2023-12", Count: 1},
		{Period: "2024-01", Count: 2},
		{Period: "2024-02", Count: 1},
		{Period: "2024-04", Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d periods, got %v", len(want), got)
	}
	for i := range want {
		if got[i].Period != want[i].Period || got[i].Count != want[i].Count {
			t.Fatalf("period %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}
