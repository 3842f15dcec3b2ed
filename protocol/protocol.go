// Package protocol defines the concrete Handshake and Status packet types
// and the schema tables that bind them to wire discriminants. It is the
// only package that knows what a ServerListPing or a Pong actually looks
// like; session drives these types through packet.Encode/Decode without
// caring about their field layout.
package protocol

import "mcstatus/packet"

// NextState names the phase a Handshake.ServerListPing asks to move into.
type NextState int32

const (
	NextStateHandshake NextState = 0
	NextStateStatus    NextState = 1
)

// ServerListPing is Handshake.Serverbound packet id 0, the only packet
// ever sent in the Handshake phase.
type ServerListPing struct {
	Version   int32 `mc:"varint"`
	Host      string
	Port      uint16
	NextState int32 `mc:"varint"`
}

// HandshakeServerbound carries only ServerListPing; additional Handshake
// variants could be added here without breaking existing callers, since
// the schema is keyed by discriminant.
var HandshakeServerbound = packet.NewSchema("handshake serverbound", map[int32]packet.Factory{
	0: func() any { return &ServerListPing{} },
})

// Request is Status.Serverbound packet id 0: a server-list status query
// with no payload.
type Request struct{}

// Ping is Status.Serverbound packet id 1: an opaque 64-bit token the
// server is expected to echo back in a Pong.
type Ping struct {
	Token uint64
}

var StatusServerbound = packet.NewSchema("status serverbound", map[int32]packet.Factory{
	0: func() any { return &Request{} },
	1: func() any { return &Ping{} },
})

// ServerListResp is Status.Clientbound packet id 0: a JSON document whose
// content this module never inspects.
type ServerListResp struct {
	Data string
}

// Pong is Status.Clientbound packet id 1: the echoed Ping token.
type Pong struct {
	Token uint64
}

var StatusClientbound = packet.NewSchema("status clientbound", map[int32]packet.Factory{
	0: func() any { return &ServerListResp{} },
	1: func() any { return &Pong{} },
})
