package analysis

import (
	"math"
	"sort"

	"github.com/iafilius/FixtureCharts/src/types"
)

// Group is one reduced bucket. Slices of Group keep first-occurrence order unless a
// helper documents otherwise.
type Group[V any] struct {
	Key   string
	Value V
}

// KeyFunc extracts the grouping key of an item; ok=false skips the item.
type KeyFunc[T any] func(T) (string, bool)

// GroupReduce buckets items by key and reduces each bucket. Buckets are returned in the
// order their key first appeared. A reducer returning ok=false drops the bucket, which is
// how empty or undefined reductions (mean of nothing) stay out of the result.
func GroupReduce[T any, V any](items []T, key KeyFunc[T], reduce func([]T) (V, bool)) []Group[V] {
	order := []string{}
	buckets := map[string][]T{}
	for _, it := range items {
		k, ok := key(it)
		if !ok {
			continue
		}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], it)
	}
	out := make([]Group[V], 0, len(order))
	for _, k := range order {
		v, ok := reduce(buckets[k])
		if !ok {
			continue
		}
		out = append(out, Group[V]{Key: k, Value: v})
	}
	return out
}

// FieldKey groups records by the string form of a field.
func FieldKey(field string) KeyFunc[types.Record] {
	return func(r types.Record) (string, bool) {
		s, ok := r.String(field)
		if !ok || s == "" {
			return "", false
		}
		return s, true
	}
}

// CountBy counts records per group.
func CountBy(records []types.Record, key KeyFunc[types.Record]) []Group[int] {
	return GroupReduce(records, key, func(rs []types.Record) (int, bool) {
		return len(rs), len(rs) > 0
	})
}

// SumBy sums a numeric field per group. Records whose field is missing or non-numeric
// are ignored; a group with no numeric values is omitted.
func SumBy(records []types.Record, key KeyFunc[types.Record], field string) []Group[float64] {
	return GroupReduce(records, key, func(rs []types.Record) (float64, bool) {
		sum, n := sumField(rs, field)
		return sum, n > 0
	})
}

// MeanBy averages a numeric field per group. Groups without numeric values are omitted
// rather than reported as NaN.
func MeanBy(records []types.Record, key KeyFunc[types.Record], field string) []Group[float64] {
	return GroupReduce(records, key, func(rs []types.Record) (float64, bool) {
		sum, n := sumField(rs, field)
		if n == 0 {
			return 0, false
		}
		m := sum / float64(n)
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return 0, false
		}
		return m, true
	})
}

func sumField(rs []types.Record, field string) (float64, int) {
	var sum float64
	n := 0
	for _, r := range rs {
		v, ok := r.Float(field)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	return sum, n
}

// TopK returns the k most frequent keys by descending count. Ties keep first-occurrence
// order. k<=0 returns every group.
func TopK(records []types.Record, key KeyFunc[types.Record], k int) []Group[int] {
	counts := CountBy(records, key)
	// stable sort keeps first-occurrence order among equal counts
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Value > counts[j].Value })
	if k > 0 && len(counts) > k {
		counts = counts[:k]
	}
	return counts
}

// Values collects the finite numeric values of a field, in record order.
func Values(records []types.Record, field string) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		v, ok := r.Float(field)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ValuesBy collects a numeric field per group (first-occurrence order).
func ValuesBy(records []types.Record, key KeyFunc[types.Record], field string) []Group[[]float64] {
	return GroupReduce(records, key, func(rs []types.Record) ([]float64, bool) {
		vs := Values(rs, field)
		return vs, len(vs) > 0
	})
}

// Point is one (x, y) observation.
type Point struct {
	X, Y float64
}

// Points pairs two numeric fields; records missing either are skipped.
func Points(records []types.Record, xField, yField string) []Point {
	out := make([]Point, 0, len(records))
	for _, r := range records {
		x, okx := r.Float(xField)
		y, oky := r.Float(yField)
		if !okx || !oky {
			continue
		}
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}
		out = append(out, Point{X: x, Y: y})
	}
	return out
}
