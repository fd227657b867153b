package stdimg

import (
	"image"
)

// BlendWithMask interpolates per pixel between background and foreground:
// a mask value of 0 shows the background, 255 shows the foreground.
// All three images must share the same bounds; otherwise, or when any
// operand is nil, BlendWithMask returns nil.
func BlendWithMask(background, foreground *image.NRGBA, mask *image.Gray) *image.NRGBA {
	if background == nil || foreground == nil || mask == nil {
		return nil
	}
	b := background.Bounds()
	if foreground.Bounds() != b || mask.Bounds() != b {
		return nil
	}
	out := image.NewNRGBA(b)
	parallelRows(b.Dy(), func(y0, y1 int) {
		for y := b.Min.Y + y0; y < b.Min.Y+y1; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				bi := background.PixOffset(x, y)
				fi := foreground.PixOffset(x, y)
				oi := out.PixOffset(x, y)
				m := float64(mask.Pix[mask.PixOffset(x, y)]) / 255.0
				for c := 0; c < 4; c++ {
					bg := float64(background.Pix[bi+c])
					fg := float64(foreground.Pix[fi+c])
					out.Pix[oi+c] = toUint8(bg + (fg-bg)*m)
				}
			}
		}
	})
	return out
}
