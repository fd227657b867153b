package skin

import (
	"math"
	"slices"
)

// ControlPoint is one knot of the tone curve, both coordinates in [0,1].
type ControlPoint struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

const (
	// DefaultAmount is the default overall filter strength.
	DefaultAmount = 0.75
	// DefaultRadius is the default high-pass blur radius in pixels.
	DefaultRadius = 8.0
	// DefaultSharpnessFactor is multiplied with the amount to get the sharpen strength.
	DefaultSharpnessFactor = 0.6
)

// DefaultToneCurveControlPoints returns a fresh copy of the default curve
// [(0,0), (120/255,146/255), (1,1)].
func DefaultToneCurveControlPoints() []ControlPoint {
	return []ControlPoint{
		{X: 0, Y: 0},
		{X: 120.0 / 255.0, Y: 146.0 / 255.0},
		{X: 1, Y: 1},
	}
}

// Parameters are the tunables of the smoothing pipeline.
type Parameters struct {
	// Amount in [0,1] scales the tone-curve intensity and, with
	// SharpnessFactor, the final sharpen strength.
	Amount float64
	// Radius of the high-pass blur in pixels.
	Radius float64
	// ToneCurveControlPoints define the brightening curve. An empty
	// sequence means the default curve.
	ToneCurveControlPoints []ControlPoint
	// SharpnessFactor in [0,1].
	SharpnessFactor float64
}

// DefaultParameters returns the documented defaults.
func DefaultParameters() Parameters {
	return Parameters{
		Amount:                 DefaultAmount,
		Radius:                 DefaultRadius,
		ToneCurveControlPoints: DefaultToneCurveControlPoints(),
		SharpnessFactor:        DefaultSharpnessFactor,
	}
}

// EffectiveControlPoints returns the curve the pipeline will use: a copy of
// ToneCurveControlPoints, or the default curve when it is empty.
func (p Parameters) EffectiveControlPoints() []ControlPoint {
	if len(p.ToneCurveControlPoints) == 0 {
		return DefaultToneCurveControlPoints()
	}
	return slices.Clone(p.ToneCurveControlPoints)
}

// SharpenStrength is Amount * SharpnessFactor, both clamped to [0,1].
func (p Parameters) SharpenStrength() float64 {
	return clamp01(p.Amount) * clamp01(p.SharpnessFactor)
}

// resolved is the snapshot a single render works from.
func (p Parameters) resolved() Parameters {
	return Parameters{
		Amount:                 clamp01(p.Amount),
		Radius:                 p.Radius,
		ToneCurveControlPoints: p.EffectiveControlPoints(),
		SharpnessFactor:        clamp01(p.SharpnessFactor),
	}
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
