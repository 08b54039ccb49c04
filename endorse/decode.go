package endorse

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/verdant/endorser/pdf"
)

// decode reads an image file and converts it to an image XObject. Baseline JPEG data is
// embedded as is once it has been fully decoded, everything else is re-encoded as RGB.
func decode(file string) (*pdf.Image, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", file, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%v: empty image", file)
	}

	if format == "jpeg" {
		if x, err := pdf.FromJPEG(data); err == nil {
			return x, nil
		}
	}

	return pdf.FromImage(img), nil
}
