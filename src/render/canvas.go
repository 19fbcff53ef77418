package render

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultWidth  = 1000
	DefaultHeight = 600
	DefaultDPI    = 96.0

	minWidth, maxWidth   = 320, 4000
	minHeight, maxHeight = 240, 4000
)

// clampCanvas bounds the canvas to sizes go-chart can lay out; zero values fall back to the
// defaults.
func clampCanvas(w, h int, dpi float64) (int, int, float64) {
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	w = clampInt(w, minWidth, maxWidth)
	h = clampInt(h, minHeight, maxHeight)
	if dpi < 48 {
		dpi = 48
	}
	if dpi > 300 {
		dpi = 300
	}
	return w, h, dpi
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}

// drawCaption writes text centered horizontally at fraction yFrac of the image height on a
// light backing box. Used for the "no data" notice of empty charts.
func drawCaption(img image.Image, text string, yFrac float64) image.Image {
	if img == nil || strings.TrimSpace(text) == "" {
		return img
	}
	rgba := toRGBA(img)
	b := rgba.Bounds()
	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: rgba, Src: image.NewUniform(color.RGBA{R: 90, G: 90, B: 90, A: 255}), Face: face}
	tw := dr.MeasureString(text).Ceil()
	x := b.Min.X + (b.Dx()-tw)/2
	y := b.Min.Y + int(float64(b.Dy())*yFrac)
	pad := 6
	bg := image.NewUniform(color.RGBA{R: 245, G: 245, B: 245, A: 230})
	rect := image.Rect(x-pad, y-face.Metrics().Ascent.Ceil()-pad, x+tw+pad, y+pad/2)
	draw.Draw(rgba, rect, bg, image.Point{}, draw.Over)
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(text)
	return rgba
}
