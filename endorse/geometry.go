package endorse

import (
	"image"

	"github.com/verdant/endorser/pdf"
)

const pointsPerInch = 72.0

// StampSize returns the physical size of a stamp in points: pixels / DPI * 72 on each axis.
func StampSize(pixels image.Point, dpi DPI) (float64, float64) {
	width := float64(pixels.X) / dpi.X * pointsPerInch
	height := float64(pixels.Y) / dpi.Y * pointsPerInch

	return width, height
}

// StampRect returns where the stamp is drawn on a page: right aligned inset.Right from the
// right edge of the media box and top aligned inset.Top below its top edge.
func StampRect(mediabox pdf.Rect, pixels image.Point, dpi DPI, inset Inset) pdf.Rect {
	width, height := StampSize(pixels, dpi)

	x := mediabox.X1 - width - inset.Right
	y := mediabox.Y1 - height - inset.Top

	return pdf.Rect{X0: x, Y0: y, X1: x + width, Y1: y + height}
}

// FitCentered scales a width x height region to fit entirely inside the page, keeping
// its aspect ratio, and centres it on the axis it does not fill.
func FitCentered(width, height float64, page Size) pdf.Rect {
	if width <= 0 || height <= 0 {
		return pdf.Rect{}
	}

	aspect := width / height
	pageAspect := page.Width / page.Height

	var w, h float64
	if aspect > pageAspect {
		w = page.Width
		h = page.Width / aspect
	} else {
		h = page.Height
		w = page.Height * aspect
	}

	x := (page.Width - w) / 2
	y := (page.Height - h) / 2

	return pdf.Rect{X0: x, Y0: y, X1: x + w, Y1: y + h}
}
