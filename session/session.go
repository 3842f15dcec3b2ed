// Package session drives a full-duplex byte transport through the
// Handshake and Status phases. Handshake and Status are distinct Go
// types sharing one private *conn: a phase transition hands the caller a
// new typed handle over the same underlying connection, moving (never
// copying) the framing buffer and per-direction compression state. The
// old handle should be discarded — Go has no linear types to enforce
// this, but nothing in either type makes reuse of a stale Handshake
// useful once Accept/Request has returned a Status.
package session

import (
	"bytes"
	"context"
	"io"

	"mcstatus/frame"
	"mcstatus/packet"
	"mcstatus/protocol"
)

// conn is the shared state a Handshake and its descendant Status carry
// across the phase transition: the underlying transport, one read buffer
// accumulating bytes off the wire, and one frame.Codec per direction so
// compression can be (and is, in this protocol) negotiated symmetrically
// but tracked independently.
type conn struct {
	rw         io.ReadWriter
	readBuf    bytes.Buffer
	readCodec  frame.Codec
	writeCodec frame.Codec
}

// readWithContext and writeWithContext bound how long a caller waits for
// a blocking Read/Write by racing it against ctx in a background
// goroutine. Cancelling ctx does not stop the underlying Read/Write call;
// it abandons the goroutine and its eventual result is discarded. This
// means a single cancelled read can leak a goroutine until the
// connection's next byte (or its close) unblocks it — an accepted
// tradeoff, since Go has no way to interrupt an in-flight net.Conn.Read
// without closing the whole connection.
func readWithContext(ctx context.Context, r io.Reader, buf []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := r.Read(buf)
		ch <- result{n, err}
	}()
	select {
	case res := <-ch:
		return res.n, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func writeWithContext(ctx context.Context, w io.Writer, buf []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := w.Write(buf)
		ch <- result{n, err}
	}()
	select {
	case res := <-ch:
		return res.n, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (c *conn) fill(ctx context.Context) error {
	tmp := make([]byte, 4096)
	n, err := readWithContext(ctx, c.rw, tmp)
	if n > 0 {
		c.readBuf.Write(tmp[:n])
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Op: "read", Err: err}
	}
	return nil
}

// readPacket blocks (respecting ctx) until one framed RawPacket has been
// decoded from the transport.
func (c *conn) readPacket(ctx context.Context) (frame.RawPacket, error) {
	for {
		pkt, ok, err := c.readCodec.Decode(&c.readBuf)
		if err != nil {
			return nil, err
		}
		if ok {
			return pkt, nil
		}
		if err := c.fill(ctx); err != nil {
			return nil, err
		}
	}
}

func (c *conn) writeAll(ctx context.Context, data []byte) error {
	for len(data) > 0 {
		n, err := writeWithContext(ctx, c.rw, data)
		if n > 0 {
			data = data[n:]
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &TransportError{Op: "write", Err: err}
		}
	}
	return nil
}

func (c *conn) writePacket(ctx context.Context, body []byte) error {
	var buf bytes.Buffer
	if err := c.writeCodec.Encode(body, &buf); err != nil {
		return err
	}
	return c.writeAll(ctx, buf.Bytes())
}

// SetCompression enables compression, with the given byte threshold, on
// both directions of c. It may be called once; see frame.Codec.SetCompression.
func (c *conn) SetCompression(threshold int32) error {
	if err := c.readCodec.SetCompression(threshold); err != nil {
		return err
	}
	return c.writeCodec.SetCompression(threshold)
}

// Handshake is a session in its initial phase: the only thing it can do
// is send (client side) or accept (server side) exactly one
// ServerListPing.
type Handshake struct {
	c *conn
}

// New wraps rw (typically a net.Conn) in a fresh Handshake-phase session.
func New(rw io.ReadWriter) *Handshake {
	return &Handshake{c: &conn{rw: rw}}
}

// SetCompression enables compression before any packet has been sent or
// received. See frame.Codec.SetCompression for the at-most-once rule.
func (h *Handshake) SetCompression(threshold int32) error {
	return h.c.SetCompression(threshold)
}

// Request sends a ServerListPing requesting the Status phase and returns
// the Status handle for the same connection. This is the client-side
// operation: it never requests Login and so can never observe a
// ProtocolError, unlike Accept.
func (h *Handshake) Request(ctx context.Context, host string, port uint16, version int32) (*Status, error) {
	ping := &protocol.ServerListPing{
		Version:   version,
		Host:      host,
		Port:      port,
		NextState: int32(protocol.NextStateStatus),
	}
	body, err := packet.Encode(0, ping)
	if err != nil {
		return nil, err
	}
	if err := h.c.writePacket(ctx, body); err != nil {
		return nil, err
	}
	return &Status{c: h.c}, nil
}

// HandshakeInfo is what Accept learns from the client's ServerListPing.
type HandshakeInfo struct {
	Version int32
	Host    string
	Port    uint16
}

// Accept reads one ServerListPing and, if it names the Status phase,
// returns the Status handle and the client-supplied fields. Any other
// next_state (there is no Login support in this module) is reported as
// a *ProtocolError and h's connection should be closed by the caller.
func (h *Handshake) Accept(ctx context.Context) (*Status, HandshakeInfo, error) {
	raw, err := h.c.readPacket(ctx)
	if err != nil {
		return nil, HandshakeInfo{}, err
	}
	_, v, err := packet.Decode(protocol.HandshakeServerbound, raw)
	if err != nil {
		return nil, HandshakeInfo{}, err
	}
	ping := v.(*protocol.ServerListPing)
	if ping.NextState != int32(protocol.NextStateStatus) {
		return nil, HandshakeInfo{}, protocolErrorf("login not supported (next_state=%d)", ping.NextState)
	}
	info := HandshakeInfo{Version: ping.Version, Host: ping.Host, Port: ping.Port}
	return &Status{c: h.c}, info, nil
}

// Status is a session in the Status phase: client operations (Request,
// Ping, ReadResponse, ReadPong) and server operations (ReadRequest,
// WriteResponse, ReadPing, WritePong) both live here, since either side
// of a test harness may need either role.
type Status struct {
	c *conn
}

// SetCompression enables compression if the Handshake phase did not
// already. See frame.Codec.SetCompression for the at-most-once rule.
func (s *Status) SetCompression(threshold int32) error {
	return s.c.SetCompression(threshold)
}

// Request sends Status.Serverbound.Request (no payload).
func (s *Status) Request(ctx context.Context) error {
	body, err := packet.Encode(0, &protocol.Request{})
	if err != nil {
		return err
	}
	return s.c.writePacket(ctx, body)
}

// ReadResponse reads and returns the JSON payload of a
// Status.Clientbound.ServerListResp. The content is not validated or
// parsed — that is left to the caller, exactly as spec'd.
func (s *Status) ReadResponse(ctx context.Context) (string, error) {
	raw, err := s.c.readPacket(ctx)
	if err != nil {
		return "", err
	}
	id, v, err := packet.Decode(protocol.StatusClientbound, raw)
	if err != nil {
		return "", err
	}
	resp, ok := v.(*protocol.ServerListResp)
	if !ok {
		return "", schemaMismatch("ServerListResp", id)
	}
	return resp.Data, nil
}

// Ping sends Status.Serverbound.Ping with the given token.
func (s *Status) Ping(ctx context.Context, token uint64) error {
	body, err := packet.Encode(1, &protocol.Ping{Token: token})
	if err != nil {
		return err
	}
	return s.c.writePacket(ctx, body)
}

// ReadPong reads a Status.Clientbound.Pong and returns its token.
func (s *Status) ReadPong(ctx context.Context) (uint64, error) {
	raw, err := s.c.readPacket(ctx)
	if err != nil {
		return 0, err
	}
	id, v, err := packet.Decode(protocol.StatusClientbound, raw)
	if err != nil {
		return 0, err
	}
	pong, ok := v.(*protocol.Pong)
	if !ok {
		return 0, schemaMismatch("Pong", id)
	}
	return pong.Token, nil
}

// ReadRequest reads a Status.Serverbound.Request.
func (s *Status) ReadRequest(ctx context.Context) error {
	raw, err := s.c.readPacket(ctx)
	if err != nil {
		return err
	}
	id, v, err := packet.Decode(protocol.StatusServerbound, raw)
	if err != nil {
		return err
	}
	if _, ok := v.(*protocol.Request); !ok {
		return schemaMismatch("Request", id)
	}
	return nil
}

// WriteResponse sends a Status.Clientbound.ServerListResp carrying data
// (a JSON document the caller has already formatted).
func (s *Status) WriteResponse(ctx context.Context, data string) error {
	body, err := packet.Encode(0, &protocol.ServerListResp{Data: data})
	if err != nil {
		return err
	}
	return s.c.writePacket(ctx, body)
}

// ReadPing reads a Status.Serverbound.Ping and returns its token.
func (s *Status) ReadPing(ctx context.Context) (uint64, error) {
	raw, err := s.c.readPacket(ctx)
	if err != nil {
		return 0, err
	}
	id, v, err := packet.Decode(protocol.StatusServerbound, raw)
	if err != nil {
		return 0, err
	}
	ping, ok := v.(*protocol.Ping)
	if !ok {
		return 0, schemaMismatch("Ping", id)
	}
	return ping.Token, nil
}

// WritePong sends a Status.Clientbound.Pong echoing token.
func (s *Status) WritePong(ctx context.Context, token uint64) error {
	body, err := packet.Encode(1, &protocol.Pong{Token: token})
	if err != nil {
		return err
	}
	return s.c.writePacket(ctx, body)
}

func schemaMismatch(want string, gotID int32) error {
	return protocolErrorf("expected %s, got packet id %d", want, gotID)
}
