package endorse

import (
	"fmt"
	"image"

	"github.com/verdant/endorser/pdf"
)

// Stamp is a decoded stamp image, loaded once and shared by every page it is drawn on.
type Stamp struct {
	image  *pdf.Image
	pixels image.Point
	dpi    DPI
	inset  Inset
}

// LoadStamp decodes the configured stamp asset. Any failure is reported as ErrAssetUnreadable.
func LoadStamp(config StampConfig) (*Stamp, error) {
	x, err := decode(config.File)
	if err != nil {
		return nil, fmt.Errorf("%w: stamp %v (%v)", ErrAssetUnreadable, config.File, err)
	}

	return &Stamp{
		image:  x,
		pixels: image.Pt(x.Width, x.Height),
		dpi:    config.DPI,
		inset:  config.Inset,
	}, nil
}

// Size returns the drawn size of the stamp in points.
func (s *Stamp) Size() (float64, float64) {
	return StampSize(s.pixels, s.dpi)
}

// Apply returns a copy of the page with the stamp drawn over its top-right corner. The
// position is relative to the page's own media box, so the page must not have been
// resized yet.
func (s *Stamp) Apply(page *pdf.Page) *pdf.Page {
	r := StampRect(page.MediaBox, s.pixels, s.dpi, s.inset)

	return page.With(pdf.Placement{
		Object: s.image,
		Matrix: pdf.Place(r),
	})
}
