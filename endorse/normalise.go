package endorse

import (
	"github.com/verdant/endorser/pdf"
)

// Normalise returns a copy of the page on a size.Width x size.Height media box with its
// origin at (0,0). The content is composited at its original coordinates, without scaling
// or centring: anything beyond the new box is clipped and any shortfall is blank.
func Normalise(page *pdf.Page, size Size) *pdf.Page {
	return page.WithMediaBox(pdf.Box(size.Width, size.Height))
}
