package skin

import (
	"image"
	"image/color"
	"sync"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func checker(w, h int, a, b uint8) *image.NRGBA {
	return checkerColors(w, h, color.NRGBA{a, a, a, 255}, color.NRGBA{b, b, b, 255})
}

func checkerColors(w, h int, a, b color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := a
			if (x+y)%2 == 1 {
				c = b
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// recordingKernels wraps StdKernels, records the arguments the pipeline
// passes and can simulate collaborator failures.
type recordingKernels struct {
	StdKernels

	mu       sync.Mutex
	radii    []float64
	points   [][]ControlPoint
	intens   []float64
	sharpens []float64

	failBlur, failTone, failBlend, failSharpen bool
}

func (k *recordingKernels) Blur(img *image.NRGBA, radius float64) *image.NRGBA {
	k.mu.Lock()
	k.radii = append(k.radii, radius)
	fail := k.failBlur
	k.mu.Unlock()
	if fail {
		return nil
	}
	return k.StdKernels.Blur(img, radius)
}

func (k *recordingKernels) ToneCurve(img *image.NRGBA, points []ControlPoint, intensity float64) *image.NRGBA {
	k.mu.Lock()
	k.points = append(k.points, points)
	k.intens = append(k.intens, intensity)
	fail := k.failTone
	k.mu.Unlock()
	if fail {
		return nil
	}
	return k.StdKernels.ToneCurve(img, points, intensity)
}

func (k *recordingKernels) Blend(background, foreground *image.NRGBA, mask *image.Gray) *image.NRGBA {
	if k.failBlend {
		return nil
	}
	return k.StdKernels.Blend(background, foreground, mask)
}

func (k *recordingKernels) SharpenLuminance(img *image.NRGBA, sharpness float64) *image.NRGBA {
	k.mu.Lock()
	k.sharpens = append(k.sharpens, sharpness)
	k.mu.Unlock()
	if k.failSharpen {
		return nil
	}
	return k.StdKernels.SharpenLuminance(img, sharpness)
}
