package skin

import (
	"image"
	"math"
)

// MinRadius is the smallest high-pass radius the mask generator uses.
// Smaller or non-finite radii are raised to it.
const MinRadius = 0.5

// boostPasses is the number of hard-light passes applied to the high-pass signal.
const boostPasses = 3

// MaskGenerator derives the blend mask from the high-pass signal of an image.
// Mask values are 0 where the image is flat and approach 255 where it
// carries fine texture.
type MaskGenerator struct {
	Kernels Kernels
}

// Generate returns the detail mask of img with the same bounds, or nil when
// img is nil or the blur collaborator fails.
//
// The detail channel is the brighter of the green/blue overlay 2·g·b, where
// skin texture shows most, and the Rec. 709 luminance, which carries detail
// in red or dark regions the overlay flattens. Its high-pass (detail minus blur, biased to 0.5) is pushed away
// from neutral by repeated hard-light, and the distance from neutral,
// doubled, is the mask value.
func (g MaskGenerator) Generate(img *image.NRGBA, radius float64) *image.Gray {
	if img == nil || g.Kernels == nil {
		return nil
	}
	if !(radius >= MinRadius) || math.IsInf(radius, 0) {
		radius = MinRadius
	}
	r := img.Bounds()
	detail := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := img.PixOffset(x, y)
			gv := float64(img.Pix[i+1]) / 255.0
			bv := float64(img.Pix[i+2]) / 255.0
			d := toByte(max(clamp01(2*gv*bv)*255.0, luma(img.Pix[i:i+3])))
			o := detail.PixOffset(x, y)
			detail.Pix[o+0] = d
			detail.Pix[o+1] = d
			detail.Pix[o+2] = d
			detail.Pix[o+3] = 0xff
		}
	}

	blurred := g.Kernels.Blur(detail, radius)
	if blurred == nil || blurred.Bounds() != r {
		return nil
	}

	mask := image.NewGray(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			d := float64(detail.Pix[detail.PixOffset(x, y)])
			b := float64(blurred.Pix[blurred.PixOffset(x, y)])
			mask.Pix[mask.PixOffset(x, y)] = toByte(maskValue((d-b)/255.0) * 255.0)
		}
	}
	return mask
}

// maskValue maps a high-pass difference in [-1,1] to a mask value in [0,1].
func maskValue(diff float64) float64 {
	c := clamp01(diff + 0.5)
	for i := 0; i < boostPasses; i++ {
		c = hardLight(c)
	}
	return clamp01(2 * math.Abs(c-0.5))
}

func hardLight(c float64) float64 {
	if c <= 0.5 {
		return 2 * c * c
	}
	return 1 - 2*(1-c)*(1-c)
}
