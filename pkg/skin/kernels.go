package skin

import (
	"fmt"
	"image"
	"strings"

	"github.com/Fepozopo/skinsmooth/pkg/stdimg"
)

// Kernels are the primitive image filters the pipeline is composed of.
// Implementations must be pure and safe for concurrent use. A nil result
// means the primitive could not produce an image.
type Kernels interface {
	// Blur returns a gaussian blur of img at radius pixels.
	Blur(img *image.NRGBA, radius float64) *image.NRGBA
	// Blend shows foreground where mask is 255 and background where it is 0.
	Blend(background, foreground *image.NRGBA, mask *image.Gray) *image.NRGBA
	// SharpenLuminance sharpens the luminance of img by sharpness.
	SharpenLuminance(img *image.NRGBA, sharpness float64) *image.NRGBA
	// ToneCurve maps img through the curve through points, mixed with the
	// identity by intensity.
	ToneCurve(img *image.NRGBA, points []ControlPoint, intensity float64) *image.NRGBA
}

// Backend names accepted by KernelsByName.
const (
	BackendStd  = "std"
	BackendGift = "gift"
)

// KernelsByName returns the kernels for a backend name. sharpenRadius <= 0
// selects stdimg.DefaultSharpenRadius.
func KernelsByName(name string, sharpenRadius float64) (Kernels, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendStd:
		return StdKernels{SharpenRadius: sharpenRadius}, nil
	case BackendGift:
		return GiftKernels{SharpenRadius: sharpenRadius}, nil
	default:
		return nil, fmt.Errorf("unknown kernel backend %q (want %s or %s)", name, BackendStd, BackendGift)
	}
}

// StdKernels implements Kernels with the pure-Go filters of package stdimg.
type StdKernels struct {
	// SharpenRadius is the luminance blur radius used when sharpening.
	SharpenRadius float64
}

func (StdKernels) Blur(img *image.NRGBA, radius float64) *image.NRGBA {
	return stdimg.SeparableGaussianBlur(img, radius)
}

func (StdKernels) Blend(background, foreground *image.NRGBA, mask *image.Gray) *image.NRGBA {
	return stdimg.BlendWithMask(background, foreground, mask)
}

func (k StdKernels) SharpenLuminance(img *image.NRGBA, sharpness float64) *image.NRGBA {
	return stdimg.SharpenLuminance(img, sharpness, k.SharpenRadius)
}

func (StdKernels) ToneCurve(img *image.NRGBA, points []ControlPoint, intensity float64) *image.NRGBA {
	return stdimg.ApplyCurve(img, newCurve(points), intensity)
}

func newCurve(points []ControlPoint) *stdimg.Curve {
	knots := make([]stdimg.CurvePoint, len(points))
	for i, p := range points {
		knots[i] = stdimg.CurvePoint{X: p.X, Y: p.Y}
	}
	return stdimg.NewCurve(knots)
}
