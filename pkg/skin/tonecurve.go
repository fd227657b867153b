package skin

import (
	"image"
)

// ToneCurveAdjuster produces the brightened variant of the input that shows
// through in flat regions.
type ToneCurveAdjuster struct {
	Kernels Kernels
}

// Apply maps img through the curve defined by points. intensity is clamped
// to [0,1]; 0 approximates img and 1 applies the full curve. points are used
// as given: substituting the default curve for an empty sequence is the
// caller's job (see Parameters.EffectiveControlPoints).
func (a ToneCurveAdjuster) Apply(img *image.NRGBA, points []ControlPoint, intensity float64) *image.NRGBA {
	if img == nil || a.Kernels == nil {
		return nil
	}
	return a.Kernels.ToneCurve(img, points, clamp01(intensity))
}
