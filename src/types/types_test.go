package types

import "testing"

func TestRecordAccessors(t *testing.T) {
	r := Record{
		"age":    int64(42),
		"score":  "81.5",
		"dept":   "IT",
		"flag":   true,
		"joined": "2024-03-15",
		"nil":    nil,
	}
	if v, ok := r.Float("age"); !ok || v != 42 {
		t.Fatalf("age: got %v ok=%v", v, ok)
	}
	if v, ok := r.Float("score"); !ok || v != 81.5 {
		t.Fatalf("score: got %v ok=%v", v, ok)
	}
	if _, ok := r.Float("dept"); ok {
		t.Fatalf("expected non-numeric string to fail conversion")
	}
	if _, ok := r.Float("missing"); ok {
		t.Fatalf("expected missing field to report !ok")
	}
	if _, ok := r.Float("nil"); ok {
		t.Fatalf("expected nil field to report !ok")
	}
	if s, ok := r.String("dept"); !ok || s != "IT" {
		t.Fatalf("dept: got %q ok=%v", s, ok)
	}
	if b, ok := r.Bool("flag"); !ok || !b {
		t.Fatalf("flag: got %v ok=%v", b, ok)
	}
	ts, ok := r.Time("joined")
	if !ok || ts.Year() != 2024 || ts.Month() != 3 || ts.Day() != 15 {
		t.Fatalf("joined: got %v ok=%v", ts, ok)
	}
}

func TestChartKindValid(t *testing.T) {
	for _, k := range []ChartKind{KindScatter, KindBar, KindHistogram, KindBoxplot, KindLine} {
		if !k.Valid() {
			t.Fatalf("%s should be valid", k)
		}
	}
	if ChartKind("pie").Valid() {
		t.Fatalf("pie is not a supported kind")
	}
}
