package packet

import "fmt"

// SchemaError covers a boolean/presence byte outside {0,1}, a negative
// length prefix, an unknown tag, or a tagged modifier applied to a field
// kind it doesn't support. An unknown variant discriminant is reported as
// *UnknownVariantError instead, and a short read surfaces as the reader's
// own error (io.EOF or io.ErrUnexpectedEOF), not as a SchemaError.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return "packet: " + e.Msg }

func schemaErrorf(format string, args ...any) *SchemaError {
	return &SchemaError{Msg: fmt.Sprintf(format, args...)}
}

// UnknownVariantError is returned by Decode when the discriminant read off
// the wire does not name any registered variant for the schema.
type UnknownVariantError struct {
	State string
	Index int32
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("packet: unknown variant index %d for state %s", e.Index, e.State)
}
