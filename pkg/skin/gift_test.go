package skin

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

// The gift backend must agree with the stdimg reference within rounding.
func TestGiftKernelsAgreeWithStd(t *testing.T) {
	std, gk := StdKernels{}, GiftKernels{}
	src := checker(16, 16, 70, 190)

	t.Run("tone curve", func(t *testing.T) {
		img := solid(4, 4, color.NRGBA{120, 120, 120, 255})
		a := std.ToneCurve(img, DefaultToneCurveControlPoints(), 1)
		b := gk.ToneCurve(img, DefaultToneCurveControlPoints(), 1)
		for i := range a.Pix {
			require.LessOrEqual(t, absDiff(a.Pix[i], b.Pix[i]), 1)
		}
	})

	t.Run("blend", func(t *testing.T) {
		bg := solid(16, 16, color.NRGBA{200, 100, 50, 255})
		mask := image.NewGray(bg.Rect)
		for i := range mask.Pix {
			mask.Pix[i] = uint8(i % 256)
		}
		a := std.Blend(bg, src, mask)
		b := gk.Blend(bg, src, mask)
		for i := range a.Pix {
			require.LessOrEqual(t, absDiff(a.Pix[i], b.Pix[i]), 2, "pixel byte %d", i)
		}
	})

	t.Run("blur uniform", func(t *testing.T) {
		img := solid(10, 10, color.NRGBA{90, 90, 90, 255})
		out := gk.Blur(img, 3)
		require.Equal(t, img.Rect, out.Rect)
		for i := range out.Pix {
			require.LessOrEqual(t, absDiff(out.Pix[i], img.Pix[i]), 1)
		}
	})
}

func TestGiftKernelsKeepBounds(t *testing.T) {
	gk := GiftKernels{}
	src := checker(20, 20, 10, 240).SubImage(image.Rect(3, 5, 15, 17)).(*image.NRGBA)

	require.Equal(t, src.Bounds(), gk.Blur(src, 2).Bounds())
	require.Equal(t, src.Bounds(), gk.SharpenLuminance(src, 0.5).Bounds())
	require.Equal(t, src.Bounds(), gk.ToneCurve(src, nil, 1).Bounds())
}

func TestGiftSharpenLuminancePreservesAlphaAndHue(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 12, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 12; x++ {
			c := color.NRGBA{60, 60, 60, 180}
			if x >= 6 {
				c = color.NRGBA{190, 190, 190, 180}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	out := GiftKernels{}.SharpenLuminance(img, 1)
	require.NotNil(t, out)
	dark, light := out.NRGBAAt(5, 2), out.NRGBAAt(6, 2)
	require.Less(t, dark.R, uint8(60))
	require.Greater(t, light.R, uint8(190))
	require.Equal(t, dark.R, dark.G)
	require.Equal(t, uint8(180), light.A)

	require.Equal(t, img.Pix, GiftKernels{}.SharpenLuminance(img, 0).Pix)
}

func TestGiftBlendRejectsMismatch(t *testing.T) {
	gk := GiftKernels{}
	a := solid(4, 4, color.NRGBA{A: 255})
	b := solid(5, 4, color.NRGBA{A: 255})
	require.Nil(t, gk.Blend(a, b, image.NewGray(a.Rect)))
	require.Nil(t, gk.Blend(a, a, nil))
}

func TestRebase(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	require.Equal(t, image.Rect(2, 2, 5, 5), rebase(img, image.Rect(2, 2, 5, 5)).Rect)
	require.Nil(t, rebase(img, image.Rect(0, 0, 4, 3)))
}
