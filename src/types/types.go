// Package types holds the value types shared by the chart generation pipeline:
// records, chart and watermark specifications, manifests and batch results.
package types

import (
	"time"

	"github.com/spf13/cast"
)

// Record is one synthetic observation: a flat mapping of field name to a
// continuous number, a categorical string, a bool or a date string.
// Records are produced once by a source and only read afterwards.
type Record map[string]any

// Float returns the named field as float64. ok is false when the field is absent
// or cannot be converted.
func (r Record) Float(field string) (float64, bool) {
	v, present := r[field]
	if !present || v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String returns the named field as string.
func (r Record) String(field string) (string, bool) {
	v, present := r[field]
	if !present || v == nil {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return s, true
}

// Bool returns the named field as bool.
func (r Record) Bool(field string) (bool, bool) {
	v, present := r[field]
	if !present || v == nil {
		return false, false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Time returns the named field parsed as a time (YYYY-MM-DD, RFC3339 and the other layouts cast understands).
func (r Record) Time(field string) (time.Time, bool) {
	v, present := r[field]
	if !present || v == nil {
		return time.Time{}, false
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ChartKind enumerates the supported chart variants.
type ChartKind string

const (
	KindScatter   ChartKind = "scatter"
	KindBar       ChartKind = "bar"
	KindHistogram ChartKind = "histogram"
	KindBoxplot   ChartKind = "boxplot"
	KindLine      ChartKind = "line"
)

// Valid reports whether k is one of the known kinds.
func (k ChartKind) Valid() bool {
	switch k {
	case KindScatter, KindBar, KindHistogram, KindBoxplot, KindLine:
		return true
	}
	return false
}

// Reduce names the per-group reduction a bar chart applies.
type Reduce string

const (
	ReduceCount Reduce = "count"
	ReduceSum   Reduce = "sum"
	ReduceMean  Reduce = "mean"
	ReduceTopK  Reduce = "topk"
)

// DataSelector describes which record fields feed a chart and how they are reduced.
//   - scatter:   X, Y
//   - bar:       Group + Reduce (+ Y for sum/mean, TopK for topk)
//   - histogram: X, Bins
//   - boxplot:   Group, Y
//   - line:      X (a date field), Period (Go time layout, default "2006-01")
type DataSelector struct {
	X      string `koanf:"x" json:"x,omitempty"`
	Y      string `koanf:"y" json:"y,omitempty"`
	Group  string `koanf:"group" json:"group,omitempty"`
	Reduce Reduce `koanf:"reduce" json:"reduce,omitempty"`
	TopK   int    `koanf:"top_k" json:"top_k,omitempty"`
	Bins   int    `koanf:"bins" json:"bins,omitempty"`
	Period string `koanf:"period" json:"period,omitempty"`
}

// ChartSpec is the static description of one chart to produce.
type ChartSpec struct {
	Kind     ChartKind    `koanf:"kind" json:"kind" validate:"required,oneof=scatter bar histogram boxplot line"`
	Title    string       `koanf:"title" json:"title"`
	XLabel   string       `koanf:"x_label" json:"x_label"`
	YLabel   string       `koanf:"y_label" json:"y_label"`
	Filename string       `koanf:"filename" json:"filename" validate:"required"`
	Selector DataSelector `koanf:"selector" json:"selector"`
}

// Anchor is the corner (or center) a watermark is pinned to.
type Anchor string

const (
	AnchorTopLeft     Anchor = "top-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
	AnchorCenter      Anchor = "center"
)

// WatermarkSpec describes the overlay stamped onto every chart. Either ImagePath or Text
// is used as the asset (ImagePath wins when both are set). A zero value disables watermarking.
type WatermarkSpec struct {
	ImagePath string  `koanf:"image_path" json:"image_path,omitempty"`
	Text      string  `koanf:"text" json:"text,omitempty"`
	Opacity   float64 `koanf:"opacity" json:"opacity"`
	Scale     float64 `koanf:"scale" json:"scale"`
	Anchor    Anchor  `koanf:"anchor" json:"anchor"`
	Margin    int     `koanf:"margin" json:"margin"`
}

// GeneratedChart is one manifest entry.
type GeneratedChart struct {
	Filename    string    `json:"filename"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Manifest records which charts a successful batch produced and when.
type Manifest struct {
	Charts      []string         `json:"charts"`
	GeneratedAt time.Time        `json:"generated_at"`
	BatchID     string           `json:"batch_id,omitempty"`
	Items       []GeneratedChart `json:"items,omitempty"`
}

// Status of a batch run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Failure records why one chart specification did not produce a file.
type Failure struct {
	Spec   string `json:"spec"`
	Reason string `json:"reason"`
}

// BatchResult is the structured outcome of a generation run. Callers branch on Status.
type BatchResult struct {
	Status      Status    `json:"status"`
	Generated   []string  `json:"generated"`
	Failures    []Failure `json:"failures"`
	Message     string    `json:"message,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// Listing is the subset of known chart files currently present on disk.
type Listing struct {
	Charts []string `json:"charts"`
	Total  int      `json:"total"`
}
