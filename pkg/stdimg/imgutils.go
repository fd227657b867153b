// Package stdimg: pure-Go image kernels over *image.NRGBA used by the skin
// smoothing pipeline. Every function returns nil for a nil input.
package stdimg

import (
	"image"
	"image/draw"
	"math"
	"reflect"
)

// ToNRGBA converts any image.Image to *image.NRGBA (non-premultiplied RGBA)
// with the same bounds. The result never aliases src. A nil src, including a
// nil pointer held in the interface, yields nil.
func ToNRGBA(src image.Image) *image.NRGBA {
	if IsNilImage(src) {
		return nil
	}
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok {
		return CloneNRGBA(n)
	}
	out := image.NewNRGBA(b)
	draw.Draw(out, b, src, b.Min, draw.Src)
	return out
}

// IsNilImage reports whether img is nil or a nil pointer of a concrete image type.
func IsNilImage(img image.Image) bool {
	if img == nil {
		return true
	}
	v := reflect.ValueOf(img)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// CloneNRGBA returns a copy of the provided image.NRGBA with the same bounds.
// Sub-images are copied row by row so only pixels inside Rect are kept.
func CloneNRGBA(src *image.NRGBA) *image.NRGBA {
	if src == nil {
		return nil
	}
	out := image.NewNRGBA(src.Rect)
	rowLen := src.Rect.Dx() * 4
	for y := src.Rect.Min.Y; y < src.Rect.Max.Y; y++ {
		si := src.PixOffset(src.Rect.Min.X, y)
		di := out.PixOffset(src.Rect.Min.X, y)
		copy(out.Pix[di:di+rowLen], src.Pix[si:si+rowLen])
	}
	return out
}

// clampInt clamps v to [lo,hi]
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// toUint8 rounds v and clamps it to [0,255].
func toUint8(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// luma709 returns Rec. 709 luminance for 0..255 channel values.
func luma709(r, g, b float64) float64 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}
