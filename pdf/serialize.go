package pdf

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/tsawler/tabula/core"
)

// number formats a real for a content stream or dictionary: fixed point, at most
// five decimals, no exponent.
func number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}

	s := strconv.FormatFloat(math.Round(v*1e5)/1e5, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}

	return s
}

// serialize writes a direct object. Streams and shared references are allocated as
// indirect objects on first use and written as references.
func (e *encoder) serialize(b *bytes.Buffer, object core.Object) error {
	switch v := object.(type) {
	case nil, core.Null:
		b.WriteString("null")

	case core.Bool:
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}

	case core.Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))

	case core.Real:
		b.WriteString(number(float64(v)))

	case core.String:
		b.Write(literal([]byte(v)))

	case core.Name:
		b.WriteString(name(string(v)))

	case core.Array:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(' ')
			}
			if err := e.serialize(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')

	case core.Dict:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		b.WriteString("<<")
		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(name(k))
			b.WriteByte(' ')
			if err := e.serialize(b, v[k]); err != nil {
				return err
			}
		}
		b.WriteString(" >>")

	case core.IndirectRef:
		fmt.Fprintf(b, "%d 0 R", v.Number)

	case *Ref:
		fmt.Fprintf(b, "%d 0 R", e.ref(v))

	case *core.Stream:
		fmt.Fprintf(b, "%d 0 R", e.imported(v))

	default:
		return fmt.Errorf("cannot serialize %T", object)
	}

	return nil
}

func (e *encoder) ref(r *Ref) int {
	if number, ok := e.refs[r]; ok {
		return number
	}

	// an indirect stream is written as the stream object itself
	if stream, ok := r.Object.(*core.Stream); ok {
		number := e.imported(stream)
		e.refs[r] = number
		return number
	}

	number := e.allocate(nil)
	e.refs[r] = number
	e.queue[number-1].body = func() ([]byte, error) {
		var b bytes.Buffer
		if err := e.serialize(&b, r.Object); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	}

	return number
}

// imported allocates an object for a stream copied from another document. The data
// is written unchanged with its original filters; only the length is recomputed.
func (e *encoder) imported(stream *core.Stream) int {
	if number, ok := e.streams[stream]; ok {
		return number
	}

	number := e.allocate(nil)
	e.streams[stream] = number
	e.queue[number-1].body = func() ([]byte, error) {
		dict := core.Dict{}
		for k, v := range stream.Dict {
			dict[k] = v
		}

		delete(dict, "Length")

		return e.stream(dict, stream.Data, false)
	}

	return number
}

func literal(s []byte) []byte {
	var b bytes.Buffer

	b.WriteByte('(')
	for _, ch := range s {
		switch ch {
		case '\\', '(', ')':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\t':
			b.WriteString("\\t")
		case '\b':
			b.WriteString("\\b")
		case '\f':
			b.WriteString("\\f")
		default:
			if ch < 0x20 || ch >= 0x7f {
				fmt.Fprintf(&b, "\\%03o", ch)
			} else {
				b.WriteByte(ch)
			}
		}
	}
	b.WriteByte(')')

	return b.Bytes()
}

func name(value string) string {
	var b bytes.Buffer

	b.WriteByte('/')
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch < 0x21 || ch > 0x7e:
			fmt.Fprintf(&b, "#%02X", ch)
		case bytes.IndexByte([]byte("#/%()<>[]{}"), ch) >= 0:
			fmt.Fprintf(&b, "#%02X", ch)
		default:
			b.WriteByte(ch)
		}
	}

	return b.String()
}
