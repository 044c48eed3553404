package jsontree

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// Marshal renders a [Value] as compact JSON, emitting object keys in
// insertion order.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer

	err := encode(&buf, v, "", "")
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// MarshalIndent renders a [Value] as indented JSON, emitting object keys in
// insertion order.
func MarshalIndent(v Value, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer

	err := encode(&buf, v, prefix, indent)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v Value, curIndent, indent string) error {
	switch tv := v.(type) {
	case *Object:
		if tv.Len() == 0 {
			buf.WriteString("{}")

			return nil
		}

		inner := curIndent + indent

		buf.WriteByte('{')

		for i, k := range tv.keys {
			if i > 0 {
				buf.WriteByte(',')
			}

			writeNewlineIndent(buf, inner, indent)

			err := encodeString(buf, k)
			if err != nil {
				return err
			}

			buf.WriteByte(':')

			if indent != "" {
				buf.WriteByte(' ')
			}

			err = encode(buf, tv.entries[k], inner, indent)
			if err != nil {
				return err
			}
		}

		writeNewlineIndent(buf, curIndent, indent)
		buf.WriteByte('}')

		return nil

	case *Array:
		if len(tv.Items) == 0 {
			buf.WriteString("[]")

			return nil
		}

		inner := curIndent + indent

		buf.WriteByte('[')

		for i, item := range tv.Items {
			if i > 0 {
				buf.WriteByte(',')
			}

			writeNewlineIndent(buf, inner, indent)

			err := encode(buf, item, inner, indent)
			if err != nil {
				return err
			}
		}

		writeNewlineIndent(buf, curIndent, indent)
		buf.WriteByte(']')

		return nil

	case String:
		return encodeString(buf, string(tv))

	case Number:
		if !json.Valid([]byte(tv)) {
			return fmt.Errorf("%w: number literal %q", ErrUnsupportedValue, string(tv))
		}

		buf.WriteString(string(tv))

		return nil

	case Bool:
		if tv {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}

		return nil

	case Null:
		buf.WriteString("null")

		return nil
	}

	return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

func writeNewlineIndent(buf *bytes.Buffer, curIndent, indent string) {
	if indent == "" {
		return
	}

	buf.WriteByte('\n')
	buf.WriteString(curIndent)
}

func encodeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}

	buf.Write(b)

	return nil
}
