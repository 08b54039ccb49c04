package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
)

// FromImage converts a decoded image to an RGB image XObject, with the alpha channel
// attached as a soft mask when any pixel is not fully opaque.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), src, bounds.Min, draw.Src)

	pixels := make([]byte, 0, w*h*3)
	alpha := make([]byte, 0, w*h)
	translucent := false

	for i := 0; i < w*h; i++ {
		offset := i * 4
		pixels = append(pixels, nrgba.Pix[offset], nrgba.Pix[offset+1], nrgba.Pix[offset+2])

		a := nrgba.Pix[offset+3]
		alpha = append(alpha, a)
		if a < 0xff {
			translucent = true
		}
	}

	img := &Image{
		Width:            w,
		Height:           h,
		ColorSpace:       "DeviceRGB",
		BitsPerComponent: 8,
		Data:             pixels,
	}

	if translucent {
		img.SMask = &Image{
			Width:            w,
			Height:           h,
			ColorSpace:       "DeviceGray",
			BitsPerComponent: 8,
			Data:             alpha,
		}
	}

	return img
}

// FromJPEG wraps JPEG data as a DCTDecode image XObject without re-encoding it.
func FromJPEG(data []byte) (*Image, error) {
	config, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid JPEG: %w", err)
	}

	img := Image{
		Width:            config.Width,
		Height:           config.Height,
		BitsPerComponent: 8,
		Filter:           "DCTDecode",
		Data:             data,
	}

	switch config.ColorModel {
	case color.YCbCrModel, color.RGBAModel:
		img.ColorSpace = "DeviceRGB"

	case color.GrayModel:
		img.ColorSpace = "DeviceGray"

	case color.CMYKModel:
		// Adobe CMYK JPEGs store inverted samples
		img.ColorSpace = "DeviceCMYK"
		img.Decode = []float64{1, 0, 1, 0, 1, 0, 1, 0}

	default:
		return nil, fmt.Errorf("unsupported JPEG colour model %T", config.ColorModel)
	}

	return &img, nil
}
