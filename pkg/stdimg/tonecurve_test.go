package stdimg

import (
	"image/color"
	"math"
	"testing"
)

var defaultKnots = []CurvePoint{{0, 0}, {120.0 / 255.0, 146.0 / 255.0}, {1, 1}}

func TestCurvePassesThroughKnots(t *testing.T) {
	c := NewCurve(defaultKnots)
	if got := math.Round(c.At(120) * 255); got != 146 {
		t.Fatalf("expected curve(120)=146, got %v", got)
	}
	if c.At(0) != 0 || c.At(255) != 1 {
		t.Fatalf("unexpected endpoints %v %v", c.At(0), c.At(255))
	}
	// brightening curve: strictly above identity in the midtones
	if c.At(64) <= 64.0/255.0 || c.At(200) <= 200.0/255.0 {
		t.Fatalf("expected curve above identity in midtones")
	}
}

func TestCurveIsMonotonicForDefaultKnots(t *testing.T) {
	c := NewCurve(defaultKnots)
	for i := 1; i < 256; i++ {
		if c.At(uint8(i)) < c.At(uint8(i-1)) {
			t.Fatalf("curve decreases at %d", i)
		}
	}
}

func TestCurveDegenerateKnotsAreIdentity(t *testing.T) {
	for _, pts := range [][]CurvePoint{nil, {{0.5, 0.9}}, {{0.3, 0.1}, {0.3, 0.8}}} {
		c := NewCurve(pts)
		for i := 0; i < 256; i++ {
			if math.Abs(c.At(uint8(i))-float64(i)/255.0) > 1e-12 {
				t.Fatalf("expected identity for %v at %d, got %v", pts, i, c.At(uint8(i)))
			}
		}
	}
}

func TestCurveSortsKnotsAndHoldsEnds(t *testing.T) {
	c := NewCurve([]CurvePoint{{0.75, 0.5}, {0.25, 0.5}})
	for _, v := range []uint8{0, 128, 255} {
		if math.Abs(c.At(v)-0.5) > 1e-9 {
			t.Fatalf("expected flat curve at 0.5, got %v at %d", c.At(v), v)
		}
	}
	if v := c.Eval(0.5); math.Abs(v-0.5) > 1e-9 {
		t.Fatalf("Eval(0.5) = %v", v)
	}
}

func TestApplyCurveIntensity(t *testing.T) {
	src := makeSolidNRGBA(4, 4, color.NRGBA{R: 120, G: 120, B: 120, A: 77})
	c := NewCurve(defaultKnots)

	full := ApplyCurve(src, c, 1)
	if p := full.NRGBAAt(1, 1); p.R != 146 || p.G != 146 || p.B != 146 || p.A != 77 {
		t.Fatalf("full intensity: got %v", p)
	}
	none := ApplyCurve(src, c, 0)
	if p := none.NRGBAAt(1, 1); p.R != 120 {
		t.Fatalf("zero intensity should be identity, got %v", p)
	}
	half := ApplyCurve(src, c, 0.5)
	if p := half.NRGBAAt(1, 1); p.R != 133 {
		t.Fatalf("half intensity: got %v", p)
	}
	if src.NRGBAAt(1, 1).R != 120 {
		t.Fatalf("source was mutated")
	}
	if ApplyCurve(nil, c, 1) != nil || ApplyCurve(src, nil, 1) != nil {
		t.Fatalf("expected nil for missing operands")
	}
}
