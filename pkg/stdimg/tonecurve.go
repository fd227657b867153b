package stdimg

import (
	"image"
	"math"
	"sort"
)

// CurvePoint is one knot of a tone curve in normalized [0,1] coordinates.
type CurvePoint struct {
	X, Y float64
}

// Curve is a tone curve sampled at the 256 possible 8-bit input levels.
// Sample values are normalized to [0,1].
type Curve struct {
	lut [256]float64
}

// NewCurve builds a natural cubic spline through points and samples it.
// Points are sorted by X and clamped to [0,1]; a point whose X repeats an
// earlier one is dropped. Inputs left of the first knot or right of the last
// knot take that knot's Y. Fewer than two distinct knots yield the identity.
func NewCurve(points []CurvePoint) *Curve {
	c := &Curve{}
	xs, ys := prepareKnots(points)
	if len(xs) < 2 {
		for i := range c.lut {
			c.lut[i] = float64(i) / 255.0
		}
		return c
	}
	m := splineSecondDerivatives(xs, ys)
	for i := range c.lut {
		c.lut[i] = clamp01(evalSpline(xs, ys, m, float64(i)/255.0))
	}
	return c
}

// At returns the curve value for an 8-bit input level.
func (c *Curve) At(v uint8) float64 {
	return c.lut[v]
}

// Eval returns the curve value for a normalized input in [0,1].
func (c *Curve) Eval(v float64) float64 {
	v = clamp01(v) * 255.0
	i := int(math.Floor(v))
	if i >= 255 {
		return c.lut[255]
	}
	f := v - float64(i)
	return c.lut[i] + (c.lut[i+1]-c.lut[i])*f
}

func prepareKnots(points []CurvePoint) (xs, ys []float64) {
	sorted := make([]CurvePoint, len(points))
	for i, p := range points {
		sorted[i] = CurvePoint{X: clamp01(p.X), Y: clamp01(p.Y)}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })
	for i, p := range sorted {
		if i > 0 && p.X == sorted[i-1].X {
			continue
		}
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
	}
	return xs, ys
}

// splineSecondDerivatives solves the tridiagonal system of a natural cubic
// spline (zero curvature at both ends) with the Thomas algorithm.
func splineSecondDerivatives(xs, ys []float64) []float64 {
	n := len(xs)
	m := make([]float64, n)
	if n < 3 {
		return m
	}
	diag := make([]float64, n)
	rhs := make([]float64, n)
	for i := 1; i < n-1; i++ {
		hPrev := xs[i] - xs[i-1]
		hNext := xs[i+1] - xs[i]
		diag[i] = 2 * (hPrev + hNext)
		rhs[i] = 6 * ((ys[i+1]-ys[i])/hNext - (ys[i]-ys[i-1])/hPrev)
		if i > 1 {
			w := hPrev / diag[i-1]
			diag[i] -= w * hPrev
			rhs[i] -= w * rhs[i-1]
		}
	}
	m[n-2] = rhs[n-2] / diag[n-2]
	for i := n - 3; i >= 1; i-- {
		hNext := xs[i+1] - xs[i]
		m[i] = (rhs[i] - hNext*m[i+1]) / diag[i]
	}
	return m
}

func evalSpline(xs, ys, m []float64, t float64) float64 {
	n := len(xs)
	if t <= xs[0] {
		return ys[0]
	}
	if t >= xs[n-1] {
		return ys[n-1]
	}
	k := sort.SearchFloat64s(xs, t)
	if k > 0 {
		k--
	}
	h := xs[k+1] - xs[k]
	a := (xs[k+1] - t) / h
	b := (t - xs[k]) / h
	return a*ys[k] + b*ys[k+1] + ((a*a*a-a)*m[k]+(b*b*b-b)*m[k+1])*h*h/6
}

// ApplyCurve maps the R, G and B channels of src through curve, mixed with
// the identity by intensity in [0,1]: 0 leaves colors unchanged, 1 applies
// the full curve. Alpha is copied.
func ApplyCurve(src *image.NRGBA, curve *Curve, intensity float64) *image.NRGBA {
	if src == nil || curve == nil {
		return nil
	}
	intensity = clamp01(intensity)
	var lut [256]uint8
	for i := range lut {
		in := float64(i)
		lut[i] = toUint8(in + (curve.lut[i]*255.0-in)*intensity)
	}
	out := CloneNRGBA(src)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		out.Pix[i+0] = lut[out.Pix[i+0]]
		out.Pix[i+1] = lut[out.Pix[i+1]]
		out.Pix[i+2] = lut[out.Pix[i+2]]
	}
	return out
}
