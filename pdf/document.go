// Package pdf implements the small page model used to compose endorsed documents: pages are
// immutable canvases holding placed XObjects (imported page content or raster images), loaded
// from existing files with the tabula reader and serialized with a minimal PDF 1.7 writer.
package pdf

import (
	"github.com/tsawler/tabula/core"
)

// XObject is anything that can be painted onto a page with the Do operator.
type XObject interface {
	// Bounds is the extent of the object in its own space. Images occupy the unit square.
	Bounds() Rect
}

// Form is the content of an imported page, replayed as a form XObject.
type Form struct {
	BBox      Rect
	Content   []byte
	Resources core.Dict
}

func (f *Form) Bounds() Rect {
	return f.BBox
}

// Image is a raster image XObject. Data is either raw samples (Filter "") or
// a complete encoded image (e.g. Filter "DCTDecode").
type Image struct {
	Width            int
	Height           int
	ColorSpace       string
	BitsPerComponent int
	Filter           string
	Decode           []float64
	Data             []byte
	SMask            *Image
}

func (i *Image) Bounds() Rect {
	return Box(1, 1)
}

// Placement positions an XObject on a page.
type Placement struct {
	Object XObject
	Matrix Matrix
}

// Extent is the area of the page covered by the placed object.
func (p Placement) Extent() Rect {
	return p.Matrix.Transform(p.Object.Bounds())
}

// Page is an immutable page: a media box plus the XObjects painted on it, in order.
// The With* methods return new pages and never modify the receiver.
type Page struct {
	MediaBox   Rect
	Placements []Placement
}

// NewPage returns an empty page with the given media box.
func NewPage(box Rect) *Page {
	return &Page{
		MediaBox: box,
	}
}

func (p *Page) Width() float64 {
	return p.MediaBox.Width()
}

func (p *Page) Height() float64 {
	return p.MediaBox.Height()
}

// With returns a copy of the page with the placement painted last.
func (p *Page) With(placement Placement) *Page {
	placements := make([]Placement, 0, len(p.Placements)+1)
	placements = append(placements, p.Placements...)
	placements = append(placements, placement)

	return &Page{
		MediaBox:   p.MediaBox,
		Placements: placements,
	}
}

// WithMediaBox returns a copy of the page with a different media box. The content is
// not moved or scaled, so anything outside the new box is clipped.
func (p *Page) WithMediaBox(box Rect) *Page {
	placements := make([]Placement, len(p.Placements))
	copy(placements, p.Placements)

	return &Page{
		MediaBox:   box,
		Placements: placements,
	}
}

// Transformed returns a copy of the page with media box box and every placement
// additionally transformed by m.
func (p *Page) Transformed(box Rect, m Matrix) *Page {
	placements := make([]Placement, len(p.Placements))
	for i, placement := range p.Placements {
		placements[i] = Placement{
			Object: placement.Object,
			Matrix: placement.Matrix.Multiply(m),
		}
	}

	return &Page{
		MediaBox:   box,
		Placements: placements,
	}
}

// Document is an ordered list of pages.
type Document struct {
	Pages []*Page
}

// Append adds pages to the end of the document.
func (d *Document) Append(pages ...*Page) {
	d.Pages = append(d.Pages, pages...)
}
