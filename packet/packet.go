// Package packet implements the schema-driven packet serializer: a single
// reflection-based engine, shared by every protocol state, that turns
// tagged Go structs into wire bytes and back. A packet's Go type is its
// wire format — there is no separate per-packet marshalling code to keep in
// sync.
//
// Fields are read in struct declaration order. By default each Go kind maps
// to the wire representation from the schema table (bool as one byte,
// fixed-width integers and floats big-endian, strings and byte/generic
// sequences length-prefixed with a VarInt count, *T as a one-byte presence
// flag plus T). Four kinds need an explicit `mc:"..."` struct tag to pick a
// non-default representation: "varint" (encode this integer field as a
// VarInt regardless of its declared width), "rest" (consume/emit every
// remaining byte, valid only on a trailing []byte field), "intprefixed" and
// "shortprefixed" (a sequence whose count is a fixed 4- or 2-byte
// big-endian integer instead of a VarInt).
package packet

import (
	"bytes"
	"fmt"
	"reflect"
	"sync"

	"mcstatus/varint"
)

// Factory returns a fresh zero value of one packet variant. Schemas store
// one Factory per wire discriminant so Decode can allocate the right
// concrete type before filling in its fields.
type Factory func() any

// Schema is the set of packet variants valid in one direction of one
// protocol state (e.g. "status serverbound"). Construct with NewSchema.
type Schema struct {
	name     string
	variants map[int32]Factory
}

var validated sync.Map // reflect.Type -> error (nil means valid), memoized across schemas

// NewSchema builds a Schema for the given named state, validating every
// variant's struct shape up front. An incompatible tag/kind pairing is a
// programming error, not a runtime condition, so NewSchema panics rather
// than returning an error — the same tradeoff protobuf-generated
// registration and prometheus metric registration make.
func NewSchema(name string, variants map[int32]Factory) *Schema {
	for id, factory := range variants {
		t := reflect.TypeOf(factory())
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if err := validateType(t); err != nil {
			panic(fmt.Sprintf("packet: schema %s variant %d: %v", name, id, err))
		}
	}
	return &Schema{name: name, variants: variants}
}

func validateType(t reflect.Type) error {
	if cached, ok := validated.Load(t); ok {
		if cached == nil {
			return nil
		}
		return cached.(error)
	}
	err := validateStruct(t)
	validated.Store(t, err)
	return err
}

// Encode writes variantID as a VarInt discriminant followed by v's fields.
// v must be a struct or a pointer to one, matching the shape of whatever
// Factory was registered for variantID in the Schema this packet belongs
// to (Encode itself does not consult a Schema — the caller already knows
// which variant it is producing).
func Encode(variantID int32, v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, schemaErrorf("Encode: %T is not a struct", v)
	}
	if err := validateType(rv.Type()); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(varint.Encode(variantID))
	if err := encodeStruct(&buf, rv); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a VarInt discriminant off body, looks it up in schema, and
// decodes the remaining bytes into a freshly allocated instance of the
// matching variant. It returns an *UnknownVariantError if the discriminant
// names no registered variant, and, on malformed field data, an error that
// names the field and wraps a *SchemaError (or whatever error the
// underlying reader produced, e.g. io.ErrUnexpectedEOF on a short body).
func Decode(schema *Schema, body []byte) (id int32, v any, err error) {
	r := bytes.NewReader(body)
	id, err = varint.ReadFrom(r)
	if err != nil {
		return 0, nil, err
	}
	factory, ok := schema.variants[id]
	if !ok {
		return id, nil, &UnknownVariantError{State: schema.name, Index: id}
	}
	v = factory()
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return id, nil, schemaErrorf("schema %s variant %d: factory must return a pointer", schema.name, id)
	}
	rv = rv.Elem()
	if err := decodeStruct(r, rv); err != nil {
		return id, nil, err
	}
	return id, v, nil
}
