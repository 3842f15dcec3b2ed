package transport

import (
	"net"
	"testing"
)

type fakeConn struct {
	net.Conn
	closed bool
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestConnPoolReusesConnection(t *testing.T) {
	made := 0
	pool := NewConnPool("x", 2, func() (net.Conn, error) {
		made++
		return &fakeConn{}, nil
	})

	c1, err := pool.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	pool.Put(c1)

	c2, err := pool.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c2 != c1 {
		t.Fatal("expected Get to return the recycled connection")
	}
	if made != 1 {
		t.Fatalf("factory called %d times, want 1", made)
	}
}

func TestConnPoolMarkUnusableDiscardsOnPut(t *testing.T) {
	made := 0
	pool := NewConnPool("x", 2, func() (net.Conn, error) {
		made++
		return &fakeConn{}, nil
	})

	c1, err := pool.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	underlying := c1.Conn.(*fakeConn)
	c1.MarkUnusable()
	pool.Put(c1)

	if !underlying.closed {
		t.Fatal("expected underlying connection to be closed after Put on an unusable conn")
	}

	if _, err := pool.Get(); err != nil {
		t.Fatalf("Get after discard: %v", err)
	}
	if made != 2 {
		t.Fatalf("factory called %d times, want 2", made)
	}
}

func TestConnPoolExhausted(t *testing.T) {
	pool := NewConnPool("x", 1, func() (net.Conn, error) {
		return &fakeConn{}, nil
	})

	if _, err := pool.Get(); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := pool.createNew(); err == nil {
		t.Fatal("createNew: want error when at capacity")
	}
}
