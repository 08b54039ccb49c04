package endorse

import (
	"image"
	"math"
	"testing"

	"github.com/verdant/endorser/pdf"
)

const tolerance = 0.00001

func TestStampSize(t *testing.T) {
	tests := []struct {
		pixels image.Point
		dpi    DPI
		width  float64
		height float64
	}{
		{image.Pt(295, 301), DPI{X: 295, Y: 301}, 72, 72},
		{image.Pt(590, 150), DPI{X: 295, Y: 301}, 144, 150.0 / 301 * 72},
		{image.Pt(100, 200), DPI{X: 72, Y: 72}, 100, 200},
	}

	for _, test := range tests {
		w, h := StampSize(test.pixels, test.dpi)
		if math.Abs(w-test.width) > tolerance || math.Abs(h-test.height) > tolerance {
			t.Errorf("Incorrect stamp size for %v @ %v\n   expected: %vx%v\n   got:      %vx%v", test.pixels, test.dpi, test.width, test.height, w, h)
		}
	}
}

func TestStampRect(t *testing.T) {
	expected := pdf.Rect{X0: 708, Y0: 493, X1: 780, Y1: 565}

	r := StampRect(pdf.Box(792, 612), image.Pt(295, 301), DPI{X: 295, Y: 301}, Inset{Right: 12, Top: 47})
	if r != expected {
		t.Errorf("Incorrect stamp position\n   expected: %v\n   got:      %v", expected, r)
	}
}

func TestStampRectWithOffsetMediaBox(t *testing.T) {
	expected := pdf.Rect{X0: 808, Y0: 543, X1: 880, Y1: 615}

	r := StampRect(pdf.Rect{X0: 100, Y0: 50, X1: 892, Y1: 662}, image.Pt(295, 301), DPI{X: 295, Y: 301}, Inset{Right: 12, Top: 47})
	if r != expected {
		t.Errorf("Incorrect stamp position\n   expected: %v\n   got:      %v", expected, r)
	}
}

func TestFitCentered(t *testing.T) {
	tests := []struct {
		width, height float64
	}{
		{400, 100},
		{100, 200},
		{841.89, 595.28},
		{3000, 2000},
		{1, 1},
	}

	for _, test := range tests {
		r := FitCentered(test.width, test.height, A4Landscape)

		if r.X0 < -tolerance || r.Y0 < -tolerance || r.X1 > A4Landscape.Width+tolerance || r.Y1 > A4Landscape.Height+tolerance {
			t.Errorf("%vx%v: fitted region %v exceeds page", test.width, test.height, r)
		}

		if math.Abs(r.Width()-A4Landscape.Width) > tolerance && math.Abs(r.Height()-A4Landscape.Height) > tolerance {
			t.Errorf("%vx%v: fitted region %v does not fill either axis", test.width, test.height, r)
		}

		if ratio := r.Width() / r.Height(); math.Abs(ratio-test.width/test.height) > tolerance {
			t.Errorf("%vx%v: aspect ratio not preserved\n   expected: %v\n   got:      %v", test.width, test.height, test.width/test.height, ratio)
		}

		if left, right := r.X0, A4Landscape.Width-r.X1; math.Abs(left-right) > tolerance {
			t.Errorf("%vx%v: not centred horizontally (%v, %v)", test.width, test.height, left, right)
		}

		if bottom, top := r.Y0, A4Landscape.Height-r.Y1; math.Abs(bottom-top) > tolerance {
			t.Errorf("%vx%v: not centred vertically (%v, %v)", test.width, test.height, bottom, top)
		}
	}
}

func TestFitCenteredWide(t *testing.T) {
	r := FitCentered(400, 100, A4Landscape)

	if r.X0 != 0 || r.X1 != A4Landscape.Width {
		t.Errorf("Wide image should fill page width, got %v", r)
	}
}

func TestFitCenteredEmpty(t *testing.T) {
	if r := FitCentered(0, 100, A4Landscape); r != (pdf.Rect{}) {
		t.Errorf("Expected empty region for zero width image, got %v", r)
	}
}

func TestNormaliseIsIdempotent(t *testing.T) {
	page := pdf.NewPage(pdf.Box(612, 792)).With(pdf.Placement{Object: &pdf.Form{BBox: pdf.Box(612, 792)}, Matrix: pdf.Identity})

	once := Normalise(page, A4Landscape)
	twice := Normalise(once, A4Landscape)

	for _, p := range []*pdf.Page{once, twice} {
		if p.MediaBox != pdf.Box(841.89, 595.28) {
			t.Errorf("Incorrect media box\n   expected: %v\n   got:      %v", pdf.Box(841.89, 595.28), p.MediaBox)
		}

		if len(p.Placements) != 1 || p.Placements[0].Matrix != pdf.Identity {
			t.Errorf("Normalised content should be unscaled and origin aligned: %v", p.Placements)
		}
	}

	if page.MediaBox != pdf.Box(612, 792) {
		t.Errorf("Original page modified: %v", page.MediaBox)
	}
}
