package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"mcstatus/varint"
)

// tagKey is the struct tag used to select one of the four non-default field
// encodings. A field with no "mc" tag gets the default encoding for its Go
// kind, per the table in the schema.
const tagKey = "mc"

const (
	tagVarInt        = "varint"
	tagRest          = "rest"
	tagIntPrefixed   = "intprefixed"
	tagShortPrefixed = "shortprefixed"
)

// validateStruct checks that every tagged field of t names a tag compatible
// with its Go kind, and that "rest" only ever appears on the last field.
// Called once per type, the first time it is encoded or decoded, and cached
// by the caller.
func validateStruct(t reflect.Type) error {
	if t.Kind() != reflect.Struct {
		return schemaErrorf("%s is not a struct", t)
	}
	n := t.NumField()
	for i := 0; i < n; i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get(tagKey)
		last := i == n-1
		if err := validateField(f.Type, tag, last); err != nil {
			return schemaErrorf("field %s: %v", f.Name, err)
		}
	}
	return nil
}

func validateField(t reflect.Type, tag string, last bool) error {
	switch tag {
	case tagVarInt:
		if !isIntKind(t.Kind()) {
			return schemaErrorf("varint tag on non-integer field of kind %s", t.Kind())
		}
	case tagRest:
		if !last {
			return schemaErrorf("rest tag on non-trailing field")
		}
		if t.Kind() != reflect.Slice || t.Elem().Kind() != reflect.Uint8 {
			return schemaErrorf("rest tag on non-[]byte field of kind %s", t.Kind())
		}
	case tagIntPrefixed, tagShortPrefixed:
		if t.Kind() != reflect.Slice {
			return schemaErrorf("%s tag on non-sequence field of kind %s", tag, t.Kind())
		}
	case "":
		return validateDefaultKind(t)
	default:
		return schemaErrorf("unknown tag %q", tag)
	}
	return nil
}

func validateDefaultKind(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8, reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return nil
	case reflect.Slice:
		return validateDefaultKind(t.Elem())
	case reflect.Ptr:
		return validateDefaultKind(t.Elem())
	default:
		return schemaErrorf("unsupported field kind %s", t.Kind())
	}
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// encodeStruct writes rv's fields, in declaration order, to buf.
func encodeStruct(buf *bytes.Buffer, rv reflect.Value) error {
	t := rv.Type()
	n := t.NumField()
	for i := 0; i < n; i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get(tagKey)
		last := i == n-1
		if err := encodeField(buf, rv.Field(i), tag, last); err != nil {
			return fmt.Errorf("packet: field %s: %w", f.Name, err)
		}
	}
	return nil
}

func encodeField(buf *bytes.Buffer, fv reflect.Value, tag string, last bool) error {
	switch tag {
	case tagVarInt:
		return encodeVarIntField(buf, fv)
	case tagRest:
		if !last {
			return schemaErrorf("rest tag on non-trailing field")
		}
		buf.Write(fv.Bytes())
		return nil
	case tagIntPrefixed:
		return encodeSequence(buf, fv, 4)
	case tagShortPrefixed:
		return encodeSequence(buf, fv, 2)
	case "":
		return encodeDefault(buf, fv)
	default:
		return schemaErrorf("unknown tag %q", tag)
	}
}

func encodeVarIntField(buf *bytes.Buffer, fv reflect.Value) error {
	var v int32
	switch fv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v = int32(fv.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v = int32(uint32(fv.Uint()))
	default:
		return schemaErrorf("varint tag on non-integer field of kind %s", fv.Kind())
	}
	buf.Write(varint.Encode(v))
	return nil
}

// encodeSequence writes an explicit big-endian length prefix (prefixWidth
// bytes, 4 for INTPREFIXED, 2 for SHORTPREFIXED) followed by each element,
// used for the two tagged sequence modifiers.
func encodeSequence(buf *bytes.Buffer, fv reflect.Value, prefixWidth int) error {
	if fv.Kind() != reflect.Slice {
		return schemaErrorf("prefixed-length tag on non-sequence field of kind %s", fv.Kind())
	}
	n := fv.Len()
	switch prefixWidth {
	case 4:
		if err := binary.Write(buf, binary.BigEndian, int32(n)); err != nil {
			return err
		}
	case 2:
		if err := binary.Write(buf, binary.BigEndian, int16(n)); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		if err := encodeDefault(buf, fv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func encodeDefault(buf *bytes.Buffer, fv reflect.Value) error {
	switch fv.Kind() {
	case reflect.Bool:
		if fv.Bool() {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		return nil
	case reflect.Int8:
		return buf.WriteByte(byte(int8(fv.Int())))
	case reflect.Uint8:
		return buf.WriteByte(byte(fv.Uint()))
	case reflect.Int16:
		return binary.Write(buf, binary.BigEndian, int16(fv.Int()))
	case reflect.Uint16:
		return binary.Write(buf, binary.BigEndian, uint16(fv.Uint()))
	case reflect.Int32:
		return binary.Write(buf, binary.BigEndian, int32(fv.Int()))
	case reflect.Uint32:
		return binary.Write(buf, binary.BigEndian, uint32(fv.Uint()))
	case reflect.Int64:
		return binary.Write(buf, binary.BigEndian, fv.Int())
	case reflect.Uint64:
		return binary.Write(buf, binary.BigEndian, fv.Uint())
	case reflect.Float32:
		return binary.Write(buf, binary.BigEndian, math.Float32bits(float32(fv.Float())))
	case reflect.Float64:
		return binary.Write(buf, binary.BigEndian, math.Float64bits(fv.Float()))
	case reflect.String:
		s := fv.String()
		buf.Write(varint.Encode(int32(len(s))))
		buf.WriteString(s)
		return nil
	case reflect.Slice:
		if fv.Type().Elem().Kind() == reflect.Uint8 {
			b := fv.Bytes()
			buf.Write(varint.Encode(int32(len(b))))
			buf.Write(b)
			return nil
		}
		n := fv.Len()
		buf.Write(varint.Encode(int32(n)))
		for i := 0; i < n; i++ {
			if err := encodeDefault(buf, fv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Ptr:
		if fv.IsNil() {
			buf.WriteByte(0)
			return nil
		}
		buf.WriteByte(1)
		return encodeDefault(buf, fv.Elem())
	default:
		return schemaErrorf("unsupported field kind %s", fv.Kind())
	}
}

// decodeStruct reads rv's fields, in declaration order, from r.
func decodeStruct(r *bytes.Reader, rv reflect.Value) error {
	t := rv.Type()
	n := t.NumField()
	for i := 0; i < n; i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get(tagKey)
		last := i == n-1
		if err := decodeField(r, rv.Field(i), tag, last); err != nil {
			return fmt.Errorf("packet: field %s: %w", f.Name, err)
		}
	}
	return nil
}

func decodeField(r *bytes.Reader, fv reflect.Value, tag string, last bool) error {
	switch tag {
	case tagVarInt:
		return decodeVarIntField(r, fv)
	case tagRest:
		if !last {
			return schemaErrorf("rest tag on non-trailing field")
		}
		if fv.Kind() != reflect.Slice || fv.Type().Elem().Kind() != reflect.Uint8 {
			return schemaErrorf("rest tag on non-[]byte field of kind %s", fv.Kind())
		}
		rest := make([]byte, r.Len())
		if _, err := io.ReadFull(r, rest); err != nil {
			return err
		}
		fv.SetBytes(rest)
		return nil
	case tagIntPrefixed:
		return decodeSequence(r, fv, 4)
	case tagShortPrefixed:
		return decodeSequence(r, fv, 2)
	case "":
		return decodeDefault(r, fv)
	default:
		return schemaErrorf("unknown tag %q", tag)
	}
}

func decodeVarIntField(r *bytes.Reader, fv reflect.Value) error {
	v, err := varint.ReadFrom(r)
	if err != nil {
		return err
	}
	switch fv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fv.SetInt(int64(v))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fv.SetUint(uint64(uint32(v)))
	default:
		return schemaErrorf("varint tag on non-integer field of kind %s", fv.Kind())
	}
	return nil
}

func decodeSequence(r *bytes.Reader, fv reflect.Value, prefixWidth int) error {
	if fv.Kind() != reflect.Slice {
		return schemaErrorf("prefixed-length tag on non-sequence field of kind %s", fv.Kind())
	}
	var n int
	switch prefixWidth {
	case 4:
		var v int32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		n = int(v)
	case 2:
		var v int16
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		n = int(v)
	}
	if n < 0 {
		return schemaErrorf("negative sequence length %d", n)
	}
	out := reflect.MakeSlice(fv.Type(), n, n)
	for i := 0; i < n; i++ {
		if err := decodeDefault(r, out.Index(i)); err != nil {
			return err
		}
	}
	fv.Set(out)
	return nil
}

func decodeDefault(r *bytes.Reader, fv reflect.Value) error {
	switch fv.Kind() {
	case reflect.Bool:
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b > 1 {
			return schemaErrorf("boolean byte %d outside {0,1}", b)
		}
		fv.SetBool(b == 1)
		return nil
	case reflect.Int8:
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		fv.SetInt(int64(int8(b)))
		return nil
	case reflect.Uint8:
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		fv.SetUint(uint64(b))
		return nil
	case reflect.Int16:
		var v int16
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		fv.SetInt(int64(v))
		return nil
	case reflect.Uint16:
		var v uint16
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		fv.SetUint(uint64(v))
		return nil
	case reflect.Int32:
		var v int32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		fv.SetInt(int64(v))
		return nil
	case reflect.Uint32:
		var v uint32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		fv.SetUint(uint64(v))
		return nil
	case reflect.Int64:
		var v int64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		fv.SetInt(v)
		return nil
	case reflect.Uint64:
		var v uint64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		fv.SetUint(v)
		return nil
	case reflect.Float32:
		var v uint32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		fv.SetFloat(float64(math.Float32frombits(v)))
		return nil
	case reflect.Float64:
		var v uint64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		fv.SetFloat(math.Float64frombits(v))
		return nil
	case reflect.String:
		length, err := varint.ReadFrom(r)
		if err != nil {
			return err
		}
		if length < 0 {
			return schemaErrorf("negative string length %d", length)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		s := string(buf)
		if !utf8.ValidString(s) {
			s = strings.ToValidUTF8(s, "�")
		}
		fv.SetString(s)
		return nil
	case reflect.Slice:
		if fv.Type().Elem().Kind() == reflect.Uint8 {
			length, err := varint.ReadFrom(r)
			if err != nil {
				return err
			}
			if length < 0 {
				return schemaErrorf("negative byte-sequence length %d", length)
			}
			buf := make([]byte, length)
			if _, err := io.ReadFull(r, buf); err != nil {
				return err
			}
			fv.SetBytes(buf)
			return nil
		}
		count, err := varint.ReadFrom(r)
		if err != nil {
			return err
		}
		if count < 0 {
			return schemaErrorf("negative sequence length %d", count)
		}
		out := reflect.MakeSlice(fv.Type(), int(count), int(count))
		for i := 0; i < int(count); i++ {
			if err := decodeDefault(r, out.Index(i)); err != nil {
				return err
			}
		}
		fv.Set(out)
		return nil
	case reflect.Ptr:
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b > 1 {
			return schemaErrorf("presence byte %d outside {0,1}", b)
		}
		if b == 0 {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		elem := reflect.New(fv.Type().Elem())
		if err := decodeDefault(r, elem.Elem()); err != nil {
			return err
		}
		fv.Set(elem)
		return nil
	default:
		return schemaErrorf("unsupported field kind %s", fv.Kind())
	}
}
