package pdf

import (
	"fmt"

	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
)

// Open reads a PDF file and returns its pages as form XObjects placed on pages of the
// same size. The returned document holds no reference to the file.
func Open(path string) (*Document, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, err
	}

	defer r.Close()

	count, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	im := importer{
		reader: r,
		refs:   map[int]*Ref{},
	}

	doc := Document{}
	for i := 0; i < count; i++ {
		page, err := r.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i+1, err)
		}

		p, err := im.page(page)
		if err != nil {
			return nil, fmt.Errorf("failed to import page %d: %w", i+1, err)
		}

		doc.Append(p)
	}

	return &doc, nil
}

// Ref is an indirect object of an imported document. Shared objects (fonts, images)
// are imported once and written once no matter how many pages use them.
type Ref struct {
	Object core.Object
}

func (r *Ref) Type() core.ObjectType {
	return core.ObjIndirect
}

func (r *Ref) String() string {
	if r.Object == nil {
		return "null"
	}

	return r.Object.String()
}

type importer struct {
	reader *reader.Reader
	refs   map[int]*Ref
}

func (im *importer) page(page *pages.Page) (*Page, error) {
	box, err := page.MediaBox()
	if err != nil {
		return nil, err
	}

	mediabox := Rect{X0: box[0], Y0: box[1], X1: box[2], Y1: box[3]}
	if mediabox.X0 > mediabox.X1 {
		mediabox.X0, mediabox.X1 = mediabox.X1, mediabox.X0
	}
	if mediabox.Y0 > mediabox.Y1 {
		mediabox.Y0, mediabox.Y1 = mediabox.Y1, mediabox.Y0
	}

	resources := core.Dict{}
	if dict, err := page.Resources(); err == nil {
		if v, err := im.value(dict); err != nil {
			return nil, err
		} else if d, ok := v.(core.Dict); ok {
			resources = d
		}
	}

	contents, err := page.Contents()
	if err != nil {
		return nil, err
	}

	var content []byte
	for i, object := range contents {
		stream, ok := object.(*core.Stream)
		if !ok {
			continue
		}

		data, err := stream.Decode()
		if err != nil {
			return nil, fmt.Errorf("content stream %d: %w", i, err)
		}

		// separate streams: a token may not span two content streams
		content = append(content, data...)
		content = append(content, '\n')
	}

	form := Form{
		BBox:      mediabox,
		Content:   content,
		Resources: resources,
	}

	return &Page{
		MediaBox: mediabox,
		Placements: []Placement{
			{Object: &form, Matrix: Identity},
		},
	}, nil
}

// value copies an object out of the source document, replacing indirect references
// with shared *Ref nodes. Dangling references become null, as PDF requires.
func (im *importer) value(object core.Object) (core.Object, error) {
	switch v := object.(type) {
	case core.IndirectRef:
		if ref, ok := im.refs[v.Number]; ok {
			return ref, nil
		}

		ref := &Ref{}
		im.refs[v.Number] = ref

		resolved, err := im.reader.ResolveReference(v)
		if err != nil {
			ref.Object = core.Null{}
			return ref, nil
		}

		if ref.Object, err = im.value(resolved); err != nil {
			return nil, err
		}

		return ref, nil

	case core.Dict:
		dict := make(core.Dict, len(v))
		for key, value := range v {
			copied, err := im.value(value)
			if err != nil {
				return nil, err
			}
			dict[key] = copied
		}
		return dict, nil

	case core.Array:
		array := make(core.Array, len(v))
		for i, value := range v {
			copied, err := im.value(value)
			if err != nil {
				return nil, err
			}
			array[i] = copied
		}
		return array, nil

	case *core.Stream:
		dict, err := im.value(v.Dict)
		if err != nil {
			return nil, err
		}

		data := make([]byte, len(v.Data))
		copy(data, v.Data)

		return &core.Stream{Dict: dict.(core.Dict), Data: data}, nil

	case nil:
		return core.Null{}, nil

	default:
		return v, nil
	}
}
