// Package watermark overlays a semi-transparent image or text mark on rendered charts.
package watermark

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"strings"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/iafilius/FixtureCharts/src/types"
)

// ErrNoAsset means the watermark names neither an image nor a text.
var ErrNoAsset = errors.New("watermark has no asset")

const (
	DefaultScale  = 0.3
	DefaultMargin = 10
	// text marks are rasterised at this size and scaled down with the image path
	textSize = 64
)

// Normalize clamps opacity to [0,1] and fills in scale and anchor defaults.
func Normalize(s types.WatermarkSpec) types.WatermarkSpec {
	switch {
	case math.IsNaN(s.Opacity) || s.Opacity < 0:
		s.Opacity = 0
	case s.Opacity > 1:
		s.Opacity = 1
	}
	if s.Scale <= 0 || math.IsNaN(s.Scale) {
		s.Scale = DefaultScale
	}
	if s.Scale > 1 {
		s.Scale = 1
	}
	switch s.Anchor {
	case types.AnchorTopLeft, types.AnchorTopRight, types.AnchorBottomLeft, types.AnchorBottomRight, types.AnchorCenter:
	default:
		s.Anchor = types.AnchorBottomRight
	}
	if s.Margin < 0 {
		s.Margin = 0
	}
	return s
}

// Mark is a decoded watermark asset plus its placement settings.
type Mark struct {
	Spec  types.WatermarkSpec
	Asset image.Image
}

// Load decodes the image asset, or rasterises the text asset when no image path is set.
// The returned mark is meant to be reused for every chart of a batch.
func Load(spec types.WatermarkSpec) (*Mark, error) {
	spec = Normalize(spec)
	switch {
	case strings.TrimSpace(spec.ImagePath) != "":
		img, err := loadImage(spec.ImagePath)
		if err != nil {
			return nil, err
		}
		return &Mark{Spec: spec, Asset: img}, nil
	case strings.TrimSpace(spec.Text) != "":
		img, err := TextImage(spec.Text)
		if err != nil {
			return nil, err
		}
		return &Mark{Spec: spec, Asset: img}, nil
	}
	return nil, ErrNoAsset
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watermark: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode watermark: %w", err)
	}
	return img, nil
}

var (
	faceOnce sync.Once
	faceErr  error
	textFace font.Face
)

func regularFace() (font.Face, error) {
	faceOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			faceErr = fmt.Errorf("parse font: %w", err)
			return
		}
		textFace, faceErr = opentype.NewFace(f, &opentype.FaceOptions{Size: textSize, DPI: 72, Hinting: font.HintingFull})
	})
	return textFace, faceErr
}

// TextImage rasterises text (one mark line per "\n") in grey on a transparent canvas,
// each line centered.
func TextImage(text string) (image.Image, error) {
	face, err := regularFace()
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	m := face.Metrics()
	lineH := m.Height.Ceil()
	widths := make([]int, len(lines))
	maxW := 1
	for i, l := range lines {
		widths[i] = font.MeasureString(face, l).Ceil()
		if widths[i] > maxW {
			maxW = widths[i]
		}
	}
	pad := lineH / 4
	dst := image.NewRGBA(image.Rect(0, 0, maxW+2*pad, lineH*len(lines)+2*pad))
	dr := &font.Drawer{Dst: dst, Src: image.NewUniform(color.RGBA{R: 128, G: 128, B: 128, A: 255}), Face: face}
	for i, l := range lines {
		x := pad + (maxW-widths[i])/2
		y := pad + i*lineH + m.Ascent.Ceil()
		dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
		dr.DrawString(l)
	}
	return dst, nil
}

// fitSize scales (w,h) to fit inside (maxW,maxH) keeping the aspect ratio.
func fitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	f := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	sw := int(math.Max(1, math.Round(float64(w)*f)))
	sh := int(math.Max(1, math.Round(float64(h)*f)))
	return sw, sh
}

// placement returns the top-left corner of a w×h mark anchored inside bounds with margin.
func placement(bounds image.Rectangle, w, h int, anchor types.Anchor, margin int) image.Point {
	left := bounds.Min.X + margin
	top := bounds.Min.Y + margin
	right := bounds.Max.X - margin - w
	bottom := bounds.Max.Y - margin - h
	var p image.Point
	switch anchor {
	case types.AnchorTopLeft:
		p = image.Pt(left, top)
	case types.AnchorTopRight:
		p = image.Pt(right, top)
	case types.AnchorBottomLeft:
		p = image.Pt(left, bottom)
	case types.AnchorCenter:
		p = image.Pt(bounds.Min.X+(bounds.Dx()-w)/2, bounds.Min.Y+(bounds.Dy()-h)/2)
	default:
		p = image.Pt(right, bottom)
	}
	// keep the mark on the canvas when margin plus mark exceed it
	p.X = max(bounds.Min.X, min(p.X, bounds.Max.X-w))
	p.Y = max(bounds.Min.Y, min(p.Y, bounds.Max.Y-h))
	return p
}

// Apply composites m onto base. With a nil mark, an empty asset or zero opacity the base
// image is returned unchanged and applied is false. The base image is never modified.
func Apply(base image.Image, m *Mark) (out image.Image, applied bool) {
	if base == nil || m == nil || m.Asset == nil {
		return base, false
	}
	spec := Normalize(m.Spec)
	if spec.Opacity == 0 {
		return base, false
	}
	b := base.Bounds()
	ab := m.Asset.Bounds()
	w, h := fitSize(ab.Dx(), ab.Dy(), int(float64(b.Dx())*spec.Scale), int(float64(b.Dy())*spec.Scale))
	if w == 0 || h == 0 {
		return base, false
	}
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), m.Asset, ab, xdraw.Over, nil)

	dst := image.NewRGBA(b)
	draw.Draw(dst, b, base, b.Min, draw.Src)
	at := placement(b, w, h, spec.Anchor, spec.Margin)
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(spec.Opacity * 255))})
	draw.DrawMask(dst, image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}, scaled, image.Point{}, mask, image.Point{}, draw.Over)
	return dst, true
}
