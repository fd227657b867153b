package stdimg

import (
	"image"
)

// DefaultSharpenRadius is the blur radius, in pixels, of the luminance
// detail extracted by SharpenLuminance.
const DefaultSharpenRadius = 1.69

// SharpenLuminance applies an unsharp mask to the luminance of src only.
// The luminance detail (Y minus its gaussian blur at sigma) is scaled by
// sharpness and added equally to R, G and B, so hue is preserved. Alpha is
// copied. sharpness <= 0 returns a copy of src.
func SharpenLuminance(src *image.NRGBA, sharpness, sigma float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	if sharpness <= 0 || src.Rect.Empty() {
		return CloneNRGBA(src)
	}
	if sigma <= 0 {
		sigma = DefaultSharpenRadius
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	luma := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			luma[y*w+x] = luma709(float64(src.Pix[i+0]), float64(src.Pix[i+1]), float64(src.Pix[i+2]))
		}
	}
	blurred := blurChannels(luma, w, h, 1, sigma)

	out := image.NewNRGBA(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			o := out.PixOffset(b.Min.X+x, b.Min.Y+y)
			delta := sharpness * (luma[y*w+x] - blurred[y*w+x])
			out.Pix[o+0] = toUint8(float64(src.Pix[i+0]) + delta)
			out.Pix[o+1] = toUint8(float64(src.Pix[i+1]) + delta)
			out.Pix[o+2] = toUint8(float64(src.Pix[i+2]) + delta)
			out.Pix[o+3] = src.Pix[i+3]
		}
	}
	return out
}
