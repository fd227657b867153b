package skin

import (
	"image"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/Fepozopo/skinsmooth/pkg/stdimg"
)

// GiftKernels implements Kernels on top of github.com/disintegration/gift
// filters. Results keep the bounds of their inputs.
type GiftKernels struct {
	// SharpenRadius is the unsharp-mask sigma used when sharpening.
	SharpenRadius float64
}

func (GiftKernels) Blur(img *image.NRGBA, radius float64) *image.NRGBA {
	if img == nil {
		return nil
	}
	return runGift(img, gift.GaussianBlur(float32(radius)))
}

func (GiftKernels) Blend(background, foreground *image.NRGBA, mask *image.Gray) *image.NRGBA {
	if background == nil || foreground == nil || mask == nil {
		return nil
	}
	r := background.Bounds()
	if foreground.Bounds() != r || mask.Bounds() != r {
		return nil
	}
	dst := imaging.Clone(background)
	// image/draw reads coverage from alpha; reinterpret the gray plane as one.
	coverage := &image.Alpha{Pix: mask.Pix, Stride: mask.Stride, Rect: mask.Rect}
	draw.DrawMask(dst, dst.Bounds(), foreground, r.Min, coverage, r.Min, draw.Over)
	return rebase(dst, r)
}

func (k GiftKernels) SharpenLuminance(img *image.NRGBA, sharpness float64) *image.NRGBA {
	if img == nil {
		return nil
	}
	if sharpness <= 0 {
		return stdimg.CloneNRGBA(img)
	}
	sigma := k.SharpenRadius
	if sigma <= 0 {
		sigma = stdimg.DefaultSharpenRadius
	}
	sharp := runGift(img, gift.UnsharpMask(float32(sigma), float32(sharpness), 0))

	// keep only the luminance change so colors do not fringe
	out := image.NewNRGBA(img.Rect)
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			i := img.PixOffset(x, y)
			j := sharp.PixOffset(x, y)
			o := out.PixOffset(x, y)
			delta := luma(sharp.Pix[j:j+3]) - luma(img.Pix[i:i+3])
			for c := 0; c < 3; c++ {
				out.Pix[o+c] = toByte(float64(img.Pix[i+c]) + delta)
			}
			out.Pix[o+3] = img.Pix[i+3]
		}
	}
	return out
}

func (GiftKernels) ToneCurve(img *image.NRGBA, points []ControlPoint, intensity float64) *image.NRGBA {
	if img == nil {
		return nil
	}
	curve := newCurve(points)
	mix := float32(clamp01(intensity))
	apply := func(v float32) float32 {
		return v + (float32(curve.Eval(float64(v)))-v)*mix
	}
	return runGift(img, gift.ColorFunc(func(r0, g0, b0, a0 float32) (r, g, b, a float32) {
		return apply(r0), apply(g0), apply(b0), a0
	}))
}

func runGift(img *image.NRGBA, filters ...gift.Filter) *image.NRGBA {
	g := gift.New(filters...)
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return rebase(dst, img.Bounds())
}

// rebase moves img to bounds r without copying. r must have img's size.
func rebase(img *image.NRGBA, r image.Rectangle) *image.NRGBA {
	if img.Rect.Size() != r.Size() {
		return nil
	}
	img.Rect = r
	return img
}

func luma(rgb []uint8) float64 {
	return 0.2126*float64(rgb[0]) + 0.7152*float64(rgb[1]) + 0.0722*float64(rgb[2])
}

func toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
