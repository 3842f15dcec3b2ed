package packet

import (
	"bytes"
	"testing"
)

type allDefaults struct {
	Flag   bool
	Byte   int8
	UByte  uint8
	Short  int16
	UShort uint16
	Int    int32
	Long   int64
	Single float32
	Double float64
	Text   string
	Blob   []byte
	Nums   []int32
	Maybe  *int32
}

func TestEncodeDecodeDefaults(t *testing.T) {
	n := int32(7)
	in := allDefaults{
		Flag: true, Byte: -5, UByte: 250, Short: -1000, UShort: 60000,
		Int: -123456, Long: 1 << 40, Single: 3.5, Double: -2.25,
		Text: "hello", Blob: []byte{1, 2, 3}, Nums: []int32{1, -1, 1000000},
		Maybe: &n,
	}
	buf, err := Encode(0, &in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	schema := NewSchema("test", map[int32]Factory{
		0: func() any { return &allDefaults{} },
	})
	id, v, err := Decode(schema, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if id != 0 {
		t.Fatalf("id = %d, want 0", id)
	}
	out := v.(*allDefaults)
	if out.Flag != in.Flag || out.Byte != in.Byte || out.UByte != in.UByte ||
		out.Short != in.Short || out.UShort != in.UShort || out.Int != in.Int ||
		out.Long != in.Long || out.Single != in.Single || out.Double != in.Double ||
		out.Text != in.Text || !bytes.Equal(out.Blob, in.Blob) ||
		len(out.Nums) != len(in.Nums) || *out.Maybe != *in.Maybe {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
	for i := range in.Nums {
		if out.Nums[i] != in.Nums[i] {
			t.Fatalf("Nums[%d] = %d, want %d", i, out.Nums[i], in.Nums[i])
		}
	}
}

func TestOptionAbsent(t *testing.T) {
	in := allDefaults{Text: "x"}
	buf, err := Encode(0, &in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	schema := NewSchema("test-absent", map[int32]Factory{
		0: func() any { return &allDefaults{} },
	})
	_, v, err := Decode(schema, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.(*allDefaults).Maybe != nil {
		t.Fatalf("Maybe = %v, want nil", v.(*allDefaults).Maybe)
	}
}

type taggedFields struct {
	Count     int32  `mc:"varint"`
	Shorts    []int8 `mc:"shortprefixed"`
	Ints      []int8 `mc:"intprefixed"`
	Remainder []byte `mc:"rest"`
}

func TestTaggedModifiers(t *testing.T) {
	in := taggedFields{
		Count:     300,
		Shorts:    []int8{1, 2, 3},
		Ints:      []int8{4, 5},
		Remainder: []byte{0xde, 0xad, 0xbe, 0xef},
	}
	buf, err := Encode(1, &in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	schema := NewSchema("test-tagged", map[int32]Factory{
		1: func() any { return &taggedFields{} },
	})
	_, v, err := Decode(schema, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out := v.(*taggedFields)
	if out.Count != in.Count || len(out.Shorts) != 3 || len(out.Ints) != 2 ||
		!bytes.Equal(out.Remainder, in.Remainder) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestUnknownVariant(t *testing.T) {
	schema := NewSchema("test-unknown", map[int32]Factory{
		0: func() any { return &allDefaults{} },
	})
	buf, _ := Encode(99, &allDefaults{})
	_, _, err := Decode(schema, buf)
	var uv *UnknownVariantError
	if err == nil {
		t.Fatal("Decode: want error, got nil")
	}
	if !asUnknownVariant(err, &uv) {
		t.Fatalf("Decode error = %v (%T), want *UnknownVariantError", err, err)
	}
	if uv.Index != 99 {
		t.Fatalf("Index = %d, want 99", uv.Index)
	}
}

func asUnknownVariant(err error, target **UnknownVariantError) bool {
	if e, ok := err.(*UnknownVariantError); ok {
		*target = e
		return true
	}
	return false
}

func TestInvalidSchemaPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewSchema: want panic for rest tag on non-trailing field")
		}
	}()
	type bad struct {
		Remainder []byte `mc:"rest"`
		Trailing  int32
	}
	NewSchema("bad", map[int32]Factory{0: func() any { return &bad{} }})
}

func TestBooleanOutOfRange(t *testing.T) {
	type justBool struct {
		Flag bool
	}
	schema := NewSchema("test-bool", map[int32]Factory{
		0: func() any { return &justBool{} },
	})
	// discriminant 0, then a boolean byte of 2
	body := append(append([]byte{}, 0x00), 0x02)
	_, _, err := Decode(schema, body)
	if err == nil {
		t.Fatal("Decode: want error for boolean byte 2")
	}
}
