package pdf

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tsawler/tabula/core"
)

// WriteFile serializes the document to path. The file is written to a temporary
// file in the same directory and renamed, so a failed write never leaves a partial
// document behind.
func (d *Document) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".endorser-*.pdf")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := d.Write(tmp); err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Write serializes the document as a PDF 1.7 file with a classic cross-reference table.
func (d *Document) Write(w io.Writer) error {
	if len(d.Pages) == 0 {
		return fmt.Errorf("document has no pages")
	}

	e := encoder{
		out:     bufio.NewWriter(w),
		refs:    map[*Ref]int{},
		streams: map[*core.Stream]int{},
		xobjs:   map[XObject]int{},
		offsets: []int64{0},
	}

	return e.encode(d)
}

type pending struct {
	number int
	body   func() ([]byte, error)
}

type encoder struct {
	out     *bufio.Writer
	written int64
	offsets []int64
	queue   []pending
	refs    map[*Ref]int
	streams map[*core.Stream]int
	xobjs   map[XObject]int
}

func (e *encoder) encode(d *Document) error {
	catalog := e.allocate(nil)
	tree := e.allocate(nil)

	kids := []int{}
	for _, page := range d.Pages {
		kids = append(kids, e.page(page, tree))
	}

	e.queue[catalog-1].body = func() ([]byte, error) {
		return []byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree)), nil
	}

	e.queue[tree-1].body = func() ([]byte, error) {
		var b bytes.Buffer

		b.WriteString("<< /Type /Pages /Kids [")
		for i, kid := range kids {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%d 0 R", kid)
		}
		fmt.Fprintf(&b, "] /Count %d >>", len(kids))

		return b.Bytes(), nil
	}

	if err := e.raw("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"); err != nil {
		return err
	}

	// bodies may allocate further objects, so the queue grows while it is drained
	for i := 0; i < len(e.queue); i++ {
		body, err := e.queue[i].body()
		if err != nil {
			return err
		}

		e.offsets = append(e.offsets, e.written)

		if err := e.raw(fmt.Sprintf("%d 0 obj\n", e.queue[i].number)); err != nil {
			return err
		} else if err := e.bytes(body); err != nil {
			return err
		} else if err := e.raw("\nendobj\n"); err != nil {
			return err
		}
	}

	xref := e.written

	var b bytes.Buffer
	fmt.Fprintf(&b, "xref\n0 %d\n", len(e.offsets))
	fmt.Fprintf(&b, "%010d %05d f \n", 0, 65535)
	for _, offset := range e.offsets[1:] {
		fmt.Fprintf(&b, "%010d %05d n \n", offset, 0)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root %d 0 R >>\n", len(e.offsets), catalog)
	fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF\n", xref)

	if err := e.bytes(b.Bytes()); err != nil {
		return err
	}

	return e.out.Flush()
}

func (e *encoder) raw(s string) error {
	return e.bytes([]byte(s))
}

func (e *encoder) bytes(b []byte) error {
	n, err := e.out.Write(b)
	e.written += int64(n)

	return err
}

// allocate reserves the next object number. Objects are written in allocation order,
// which keeps the cross-reference table contiguous.
func (e *encoder) allocate(body func() ([]byte, error)) int {
	number := len(e.queue) + 1
	e.queue = append(e.queue, pending{number: number, body: body})

	return number
}

func (e *encoder) page(page *Page, parent int) int {
	content := e.allocate(nil)
	obj := e.allocate(nil)

	names := make([]string, len(page.Placements))
	numbers := make([]int, len(page.Placements))

	for i, placement := range page.Placements {
		names[i] = fmt.Sprintf("X%d", i)
		numbers[i] = e.xobject(placement.Object)
	}

	e.queue[content-1].body = func() ([]byte, error) {
		var ops bytes.Buffer
		for i, placement := range page.Placements {
			m := placement.Matrix
			fmt.Fprintf(&ops, "q %v %v %v %v %v %v cm /%s Do Q\n",
				number(m[0]), number(m[1]), number(m[2]), number(m[3]), number(m[4]), number(m[5]), names[i])
		}

		return e.stream(core.Dict{}, ops.Bytes(), true)
	}

	e.queue[obj-1].body = func() ([]byte, error) {
		var b bytes.Buffer

		fmt.Fprintf(&b, "<< /Type /Page /Parent %d 0 R /MediaBox %v", parent, page.MediaBox)
		b.WriteString(" /Resources << /XObject <<")
		for i := range names {
			fmt.Fprintf(&b, " /%s %d 0 R", names[i], numbers[i])
		}
		fmt.Fprintf(&b, " >> >> /Contents %d 0 R >>", content)

		return b.Bytes(), nil
	}

	return obj
}

func (e *encoder) xobject(x XObject) int {
	if obj, ok := e.xobjs[x]; ok {
		return obj
	}

	var obj int

	switch v := x.(type) {
	case *Form:
		obj = e.allocate(func() ([]byte, error) {
			dict := core.Dict{
				"Type":      core.Name("XObject"),
				"Subtype":   core.Name("Form"),
				"BBox":      rectArray(v.BBox),
				"Resources": v.Resources,
			}

			if v.Resources == nil {
				dict["Resources"] = core.Dict{}
			}

			return e.stream(dict, v.Content, true)
		})

	case *Image:
		obj = e.allocate(nil)
		e.queue[obj-1].body = func() ([]byte, error) {
			return e.image(v)
		}

	default:
		obj = e.allocate(func() ([]byte, error) {
			return nil, fmt.Errorf("unsupported XObject %T", x)
		})
	}

	e.xobjs[x] = obj

	return obj
}

func (e *encoder) image(img *Image) ([]byte, error) {
	dict := core.Dict{
		"Type":             core.Name("XObject"),
		"Subtype":          core.Name("Image"),
		"Width":            core.Int(img.Width),
		"Height":           core.Int(img.Height),
		"ColorSpace":       core.Name(img.ColorSpace),
		"BitsPerComponent": core.Int(img.BitsPerComponent),
	}

	if len(img.Decode) > 0 {
		decode := core.Array{}
		for _, v := range img.Decode {
			decode = append(decode, core.Real(v))
		}
		dict["Decode"] = decode
	}

	if img.SMask != nil {
		dict["SMask"] = core.IndirectRef{Number: e.xobject(img.SMask)}
	}

	if img.Filter != "" {
		dict["Filter"] = core.Name(img.Filter)
		return e.stream(dict, img.Data, false)
	}

	return e.stream(dict, img.Data, true)
}

// stream renders a stream object body, optionally Flate compressing the data.
func (e *encoder) stream(dict core.Dict, data []byte, compress bool) ([]byte, error) {
	if compress {
		var z bytes.Buffer
		w := zlib.NewWriter(&z)
		if _, err := w.Write(data); err != nil {
			return nil, err
		} else if err := w.Close(); err != nil {
			return nil, err
		}

		data = z.Bytes()
		dict["Filter"] = core.Name("FlateDecode")
	}

	dict["Length"] = core.Int(len(data))

	var b bytes.Buffer
	if err := e.serialize(&b, dict); err != nil {
		return nil, err
	}

	b.WriteString("\nstream\n")
	b.Write(data)
	b.WriteString("\nendstream")

	return b.Bytes(), nil
}

func rectArray(r Rect) core.Array {
	return core.Array{core.Real(r.X0), core.Real(r.Y0), core.Real(r.X1), core.Real(r.Y1)}
}
