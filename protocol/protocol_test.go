package protocol

import (
	"bytes"
	"testing"

	"mcstatus/packet"
)

func TestServerListPingEncoding(t *testing.T) {
	ping := ServerListPing{Version: 498, Host: "localhost", Port: 25567, NextState: int32(NextStateStatus)}
	body, err := packet.Encode(0, &ping)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{
		0x00,                   // packet id
		0xf2, 0x03,              // varint(498)
		0x09, 'l', 'o', 'c', 'a', 'l', 'h', 'o', 's', 't', // string "localhost"
		0x63, 0xdf, // port 25567 big-endian
		0x01, // varint(1) next_state
	}
	if !bytes.Equal(body, want) {
		t.Fatalf("ServerListPing encoding = % x, want % x", body, want)
	}

	id, v, err := packet.Decode(HandshakeServerbound, body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if id != 0 {
		t.Fatalf("id = %d, want 0", id)
	}
	got := v.(*ServerListPing)
	if *got != ping {
		t.Fatalf("decoded %+v, want %+v", got, ping)
	}
}

func TestStatusRequestRoundTrip(t *testing.T) {
	body, err := packet.Encode(0, &Request{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(body, []byte{0x00}) {
		t.Fatalf("Request body = % x, want 00", body)
	}

	respBody, err := packet.Encode(0, &ServerListResp{Data: "{}"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x00, 0x02, '{', '}'}
	if !bytes.Equal(respBody, want) {
		t.Fatalf("ServerListResp body = % x, want % x", respBody, want)
	}

	id, v, err := packet.Decode(StatusClientbound, respBody)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if id != 0 || v.(*ServerListResp).Data != "{}" {
		t.Fatalf("decoded id=%d v=%+v, want id=0 Data={}", id, v)
	}
}

func TestPingPong(t *testing.T) {
	token := uint64(0x0123456789abcdef)
	body, err := packet.Encode(1, &Ping{Token: token})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x01, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	if !bytes.Equal(body, want) {
		t.Fatalf("Ping body = % x, want % x", body, want)
	}

	id, v, err := packet.Decode(StatusServerbound, body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if id != 1 || v.(*Ping).Token != token {
		t.Fatalf("decoded id=%d v=%+v, want id=1 Token=%x", id, v, token)
	}

	pongBody, err := packet.Encode(1, &Pong{Token: token})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, pv, err := packet.Decode(StatusClientbound, pongBody)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if pv.(*Pong).Token != token {
		t.Fatalf("Pong token = %x, want %x", pv.(*Pong).Token, token)
	}
}

func TestHandshakeDecodeKeepsUnknownNextState(t *testing.T) {
	body, _ := packet.Encode(0, &ServerListPing{Version: 1, Host: "h", Port: 1, NextState: 5})
	_, v, err := packet.Decode(HandshakeServerbound, body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	// Decode itself does not reject out-of-range next_state values — that
	// validation belongs to session.Handshake.Accept, which turns it into
	// a ProtocolError. Here we only confirm the raw value survives decode.
	if v.(*ServerListPing).NextState != 5 {
		t.Fatalf("NextState = %d, want 5", v.(*ServerListPing).NextState)
	}
}
