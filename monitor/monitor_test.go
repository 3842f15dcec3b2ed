package monitor

import (
	"context"
	"net"
	"testing"
	"time"

	"mcstatus/loadbalance"
	"mcstatus/mcserver"
	"mcstatus/registry"
)

func startTestServer(t *testing.T, motd string) (addr string, shutdown func()) {
	t.Helper()
	srv := mcserver.New()
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve("tcp", "127.0.0.1:0", func() string { return motd })
	}()
	var a net.Addr
	for i := 0; i < 100 && a == nil; i++ {
		a = srv.Addr()
		if a == nil {
			time.Sleep(5 * time.Millisecond)
		}
	}
	if a == nil {
		t.Fatal("test server never started listening")
	}
	return a.String(), func() {
		srv.Shutdown(time.Second)
		<-done
	}
}

func TestMonitorCheckReportsResult(t *testing.T) {
	addr, shutdown := startTestServer(t, `{"players":{"online":3}}`)
	defer shutdown()

	reg := registry.NewMockRegistry()
	reg.Register("realm-a", registry.ServiceInstance{Addr: addr}, 60)

	m := New(reg, &loadbalance.RoundRobinBalancer{}, 2, 498)
	report, err := m.Check(context.Background(), "realm-a")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Motd != `{"players":{"online":3}}` {
		t.Fatalf("Motd = %q", report.Motd)
	}
	if report.Addr != addr {
		t.Fatalf("Addr = %q, want %q", report.Addr, addr)
	}
}

func TestMonitorCheckNoInstances(t *testing.T) {
	reg := registry.NewMockRegistry()
	m := New(reg, &loadbalance.RoundRobinBalancer{}, 2, 498)
	_, err := m.Check(context.Background(), "missing")
	if err == nil {
		t.Fatal("Check: want error for unregistered name")
	}
}

func TestMonitorWithInterceptorChain(t *testing.T) {
	addr, shutdown := startTestServer(t, `{}`)
	defer shutdown()

	reg := registry.NewMockRegistry()
	reg.Register("realm-b", registry.ServiceInstance{Addr: addr}, 60)

	m := New(reg, &loadbalance.RoundRobinBalancer{}, 1, 498,
		LoggingInterceptor(),
		TimeoutInterceptor(time.Second),
		RetryInterceptor(2, time.Millisecond),
	)
	report, err := m.Check(context.Background(), "realm-b")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Motd != `{}` {
		t.Fatalf("Motd = %q", report.Motd)
	}
}

func TestMonitorCheckAllConcurrent(t *testing.T) {
	addrA, shutdownA := startTestServer(t, `{"name":"a"}`)
	defer shutdownA()
	addrB, shutdownB := startTestServer(t, `{"name":"b"}`)
	defer shutdownB()

	reg := registry.NewMockRegistry()
	reg.Register("a", registry.ServiceInstance{Addr: addrA}, 60)
	reg.Register("b", registry.ServiceInstance{Addr: addrB}, 60)

	m := New(reg, &loadbalance.RoundRobinBalancer{}, 1, 498)
	results := m.CheckAll(context.Background(), []string{"a", "b"}, 2)
	if results["a"].Motd != `{"name":"a"}` || results["b"].Motd != `{"name":"b"}` {
		t.Fatalf("results = %+v", results)
	}
}

func TestRateLimitInterceptorRejects(t *testing.T) {
	calls := 0
	base := func(ctx context.Context, addr string) (Report, error) {
		calls++
		return Report{Addr: addr}, nil
	}
	limited := RateLimitInterceptor(1, 1)(base)
	ctx := context.Background()
	if _, err := limited(ctx, "x"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := limited(ctx, "x"); err == nil {
		t.Fatal("second call: want rate limit error, got nil")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
