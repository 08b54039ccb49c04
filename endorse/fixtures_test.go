package endorse

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/tabula/core"

	"github.com/verdant/endorser/pdf"
)

func writePNG(t *testing.T, file string, w, h int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 0xc0, G: 0x10, B: 0x10, A: uint8((x + y) % 256)})
		}
	}

	f, err := os.Create(file)
	if err != nil {
		t.Fatalf("Error creating %v (%v)", file, err)
	}

	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Error encoding %v (%v)", file, err)
	}
}

func writeJPEG(t *testing.T, file string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}

	f, err := os.Create(file)
	if err != nil {
		t.Fatalf("Error creating %v (%v)", file, err)
	}

	defer f.Close()

	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("Error encoding %v (%v)", file, err)
	}
}

func writeLayout(t *testing.T, file string, box pdf.Rect, pages int) {
	t.Helper()

	doc := pdf.Document{}
	for i := 0; i < pages; i++ {
		form := pdf.Form{
			BBox:      box,
			Content:   []byte("0 0 m 100 100 l S"),
			Resources: core.Dict{},
		}

		doc.Append(pdf.NewPage(box).With(pdf.Placement{Object: &form, Matrix: pdf.Identity}))
	}

	if err := doc.WriteFile(file); err != nil {
		t.Fatalf("Error writing layout %v (%v)", file, err)
	}
}

func writeFile(t *testing.T, file string, content string) {
	t.Helper()

	if err := os.WriteFile(file, []byte(content), 0660); err != nil {
		t.Fatalf("Error writing %v (%v)", file, err)
	}
}

// testConfig returns a configuration with a 295x301 pixel stamp (72x72pt at the default DPI)
// and the external rasterizer disabled.
func testConfig(t *testing.T) Config {
	t.Helper()

	dir := t.TempDir()
	stamp := filepath.Join(dir, "stamp.png")
	writePNG(t, stamp, 295, 301)

	config := DefaultConfig()
	config.Stamp.File = stamp
	config.Workdir = filepath.Join(dir, "work")
	config.Rasterizer.Disabled = true

	return config
}

func mkdir(t *testing.T, dir string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0770); err != nil {
		t.Fatalf("Error creating %v (%v)", dir, err)
	}

	return dir
}

// writeEmptyPDF writes a well formed document with an empty page tree.
func writeEmptyPDF(t *testing.T, file string) {
	t.Helper()

	var b bytes.Buffer
	offsets := []int{}

	b.WriteString("%PDF-1.7\n")
	for _, object := range []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	} {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), object)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, offset := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	writeFile(t, file, b.String())
}
