package stdimg

import (
	"image"
	"image/color"
	"testing"
)

func TestToNRGBAKeepsBounds(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(5, 7, 9, 10))
	rgba.Set(6, 8, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	out := ToNRGBA(rgba)
	if out.Bounds() != rgba.Bounds() {
		t.Fatalf("expected bounds %v, got %v", rgba.Bounds(), out.Bounds())
	}
	if c := out.NRGBAAt(6, 8); c != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Fatalf("unexpected pixel %v", c)
	}

	base := makeSolidNRGBA(10, 10, color.NRGBA{1, 2, 3, 255})
	sub := base.SubImage(image.Rect(2, 3, 6, 8)).(*image.NRGBA)
	out = ToNRGBA(sub)
	if out.Bounds() != sub.Bounds() {
		t.Fatalf("expected bounds %v, got %v", sub.Bounds(), out.Bounds())
	}
	out.Pix[0] = 99
	if base.NRGBAAt(2, 3).R != 1 {
		t.Fatalf("ToNRGBA must not alias its input")
	}
}

func TestToNRGBANil(t *testing.T) {
	for _, img := range []image.Image{nil, (*image.NRGBA)(nil), (*image.RGBA)(nil)} {
		if ToNRGBA(img) != nil {
			t.Fatalf("expected nil for %T", img)
		}
	}
	if IsNilImage(makeSolidNRGBA(1, 1, color.NRGBA{})) {
		t.Fatalf("non-nil image reported as nil")
	}
}
