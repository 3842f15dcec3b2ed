// Package frame implements length-prefixed packet framing over a byte
// stream, with an optional zlib compression envelope gated by a
// per-direction threshold. It knows nothing about packet contents — a
// RawPacket is just the bytes between frame boundaries, already stripped
// of compression.
package frame

import (
	"bytes"
	"compress/zlib"
	"io"

	"mcstatus/varint"
)

// MaxPacketLength is the sane upper bound on a single packet's total
// length, matching the real Java Edition protocol's limit of 2^21-1
// bytes (the largest value a 3-byte VarInt length prefix can name without
// risking ambiguity with a runaway 5-byte prefix).
const MaxPacketLength = 2097151

// RawPacket is an opaque decoded packet payload: framing and any
// compression envelope have already been stripped. It is safe to read
// concurrently with further decoding, since Decode never reuses the slice
// it returns.
type RawPacket []byte

// Codec holds one direction's framing state: whether compression is
// enabled and, if so, its threshold. A Codec is not safe for concurrent
// use by multiple goroutines; session gives each direction its own
// instance.
type Codec struct {
	threshold    int32
	hasThreshold bool
}

// SetCompression enables compression with the given byte threshold:
// outbound payloads at or above threshold are zlib-compressed, payloads
// below it are sent uncompressed but still inside the compression
// envelope. It may be called at most once; a second call returns an
// error rather than silently changing behavior, since the peer has no
// way to observe the change atomically mid-stream.
func (c *Codec) SetCompression(threshold int32) error {
	if c.hasThreshold {
		return framingErrorf("compression threshold already set")
	}
	c.threshold = threshold
	c.hasThreshold = true
	return nil
}

// Decode attempts to remove one framed packet from the front of buf. It
// returns (packet, true, nil) on success, with those bytes consumed from
// buf; (nil, false, nil) if buf does not yet hold a complete frame ("need
// more data" — buf is left untouched); or (nil, false, err) on a framing
// or decompression error, in which case buf should be discarded along
// with the rest of the session.
func (c *Codec) Decode(buf *bytes.Buffer) (RawPacket, bool, error) {
	data := buf.Bytes()

	total, prefixLen, err := varint.ReadSlice(data)
	if err == varint.ErrIncomplete {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, framingErrorf("invalid length prefix: %v", err)
	}
	if total < 0 {
		return nil, false, framingErrorf("negative length %d", total)
	}
	if total > MaxPacketLength {
		return nil, false, framingErrorf("length %d exceeds sane bound %d", total, MaxPacketLength)
	}
	if !c.hasThreshold && total == 0 {
		return nil, false, framingErrorf("zero-length frame: no packet id can fit")
	}

	need := prefixLen + int(total)
	if len(data) < need {
		return nil, false, nil
	}
	payload := append([]byte(nil), data[prefixLen:need]...)
	buf.Next(need)

	if !c.hasThreshold {
		return RawPacket(payload), true, nil
	}
	return c.decodeCompressed(payload)
}

func (c *Codec) decodeCompressed(payload []byte) (RawPacket, bool, error) {
	uncompressedLen, un, err := varint.ReadSlice(payload)
	if err != nil {
		return nil, false, framingErrorf("invalid uncompressed-length prefix: %v", err)
	}
	rest := payload[un:]
	if uncompressedLen == 0 {
		if len(rest) == 0 {
			return nil, false, framingErrorf("zero-length compressed payload")
		}
		return RawPacket(rest), true, nil
	}
	if uncompressedLen < 0 {
		return nil, false, framingErrorf("negative uncompressed length %d", uncompressedLen)
	}

	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return nil, false, &DecompressionError{Msg: "zlib reader init failed", Err: err}
	}
	inflated, err := io.ReadAll(zr)
	if err != nil {
		return nil, false, &DecompressionError{Msg: "inflate failed", Err: err}
	}
	if int32(len(inflated)) != uncompressedLen {
		return nil, false, &DecompressionError{
			Msg: framingErrorf("inflated %d bytes, declared %d", len(inflated), uncompressedLen).Msg,
		}
	}
	return RawPacket(inflated), true, nil
}

// Encode appends one framed packet carrying body to out.
func (c *Codec) Encode(body []byte, out *bytes.Buffer) error {
	if !c.hasThreshold {
		out.Write(varint.Encode(int32(len(body))))
		out.Write(body)
		return nil
	}
	if len(body) >= int(c.threshold) {
		compressed, err := deflate(body)
		if err != nil {
			return err
		}
		uncompressedLenVarint := varint.Encode(int32(len(body)))
		total := len(uncompressedLenVarint) + len(compressed)
		out.Write(varint.Encode(int32(total)))
		out.Write(uncompressedLenVarint)
		out.Write(compressed)
		return nil
	}
	out.Write(varint.Encode(int32(len(body) + 1)))
	out.Write(varint.Encode(0))
	out.Write(body)
	return nil
}

func deflate(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, &DecompressionError{Msg: "deflate failed", Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &DecompressionError{Msg: "deflate close failed", Err: err}
	}
	return buf.Bytes(), nil
}
