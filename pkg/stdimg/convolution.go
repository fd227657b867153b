package stdimg

import (
	"image"
	"math"
	"runtime"
	"sync"
)

// gaussianKernel1D generates a 1D Gaussian kernel with given sigma. Returns kernel and half-width radius.
func gaussianKernel1D(sigma float64) ([]float64, int) {
	if sigma <= 0 || math.IsNaN(sigma) {
		return []float64{1.0}, 0
	}
	// choose radius ~ ceil(3*sigma)
	radius := int(math.Ceil(3 * sigma))
	kern := make([]float64, radius*2+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kern[i+radius] = v
		sum += v
	}
	for i := range kern {
		kern[i] /= sum
	}
	return kern, radius
}

// parallelRows splits [0,h) into contiguous bands and runs fn on each band
// concurrently. Every output row is owned by exactly one band.
func parallelRows(h int, fn func(y0, y1 int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > h {
		workers = h
	}
	if workers <= 1 {
		fn(0, h)
		return
	}
	band := (h + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(y0, y1)
		}()
	}
	wg.Wait()
}

// blurChannels blurs an interleaved float buffer of w*h pixels with ch
// channels each. Samples outside the buffer are clamped to the nearest edge.
func blurChannels(src []float64, w, h, ch int, sigma float64) []float64 {
	kern, radius := gaussianKernel1D(sigma)
	dst := make([]float64, len(src))
	if radius == 0 {
		copy(dst, src)
		return dst
	}
	tmp := make([]float64, len(src))

	// horizontal pass
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := y * w * ch
			for x := 0; x < w; x++ {
				o := row + x*ch
				for k := -radius; k <= radius; k++ {
					ix := clampInt(x+k, 0, w-1)
					wgt := kern[k+radius]
					s := row + ix*ch
					for c := 0; c < ch; c++ {
						tmp[o+c] += src[s+c] * wgt
					}
				}
			}
		}
	})

	// vertical pass
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				o := (y*w + x) * ch
				for k := -radius; k <= radius; k++ {
					iy := clampInt(y+k, 0, h-1)
					wgt := kern[k+radius]
					s := (iy*w + x) * ch
					for c := 0; c < ch; c++ {
						dst[o+c] += tmp[s+c] * wgt
					}
				}
			}
		}
	})
	return dst
}

// nrgbaToFloat unpacks src into an interleaved RGBA float buffer (0..255).
func nrgbaToFloat(src *image.NRGBA) ([]float64, int, int) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := make([]float64, w*h*4)
	for y := 0; y < h; y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		row := src.Pix[si : si+w*4]
		for i, v := range row {
			buf[y*w*4+i] = float64(v)
		}
	}
	return buf, w, h
}

// floatToNRGBA packs an interleaved RGBA float buffer into a new image with bounds r.
func floatToNRGBA(buf []float64, r image.Rectangle) *image.NRGBA {
	out := image.NewNRGBA(r)
	w := r.Dx()
	for y := 0; y < r.Dy(); y++ {
		di := out.PixOffset(r.Min.X, r.Min.Y+y)
		for i := 0; i < w*4; i++ {
			out.Pix[di+i] = toUint8(buf[y*w*4+i])
		}
	}
	return out
}

// SeparableGaussianBlur applies a separable gaussian blur to src and returns a new *image.NRGBA
// with the same bounds. sigma <= 0 returns an unblurred copy.
func SeparableGaussianBlur(src *image.NRGBA, sigma float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	if src.Rect.Empty() {
		return CloneNRGBA(src)
	}
	buf, w, h := nrgbaToFloat(src)
	return floatToNRGBA(blurChannels(buf, w, h, 4, sigma), src.Rect)
}
