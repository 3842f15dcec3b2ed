package mcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"mcstatus/session"
)

func TestServeAnswersStatus(t *testing.T) {
	srv := New()
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve("tcp", "127.0.0.1:0", func() string { return `{"description":"test"}` })
	}()

	var addr net.Addr
	for i := 0; i < 100 && addr == nil; i++ {
		addr = srv.Addr()
		if addr == nil {
			time.Sleep(5 * time.Millisecond)
		}
	}
	if addr == nil {
		t.Fatal("server never started listening")
	}

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	status, err := session.New(conn).Request(ctx, "localhost", 25565, 498)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if err := status.Request(ctx); err != nil {
		t.Fatalf("Status.Request: %v", err)
	}
	data, err := status.ReadResponse(ctx)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if data != `{"description":"test"}` {
		t.Fatalf("ReadResponse = %q", data)
	}

	token := uint64(42)
	if err := status.Ping(ctx, token); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	pong, err := status.ReadPong(ctx)
	if err != nil {
		t.Fatalf("ReadPong: %v", err)
	}
	if pong != token {
		t.Fatalf("ReadPong = %d, want %d", pong, token)
	}

	if err := srv.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Serve: %v", err)
	}
}
