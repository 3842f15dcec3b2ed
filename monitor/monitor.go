package monitor

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"mcstatus/loadbalance"
	"mcstatus/registry"
	"mcstatus/session"
	"mcstatus/transport"
)

// Report is the result of one sweep visit to one server address.
type Report struct {
	Addr    string
	Motd    string
	Latency time.Duration
	Err     error
}

// Monitor discovers instances of a logical server name, picks one via a
// loadbalance.Balancer, and drives a Handshake+Status round trip over a
// pooled TCP connection for that address. Connections are pooled
// per-address with a borrow/return transport.ConnPool, since each sweep
// is one full round trip rather than a multiplexed stream of concurrent
// calls.
type Monitor struct {
	registry registry.Registry
	balancer loadbalance.Balancer
	version  int32
	poolSize int

	mu    sync.Mutex
	pools map[string]*transport.ConnPool

	probe ProbeFunc
}

// New builds a Monitor. interceptors are applied outermost-first, via
// Chain, around the base probe that actually drives a session.
func New(reg registry.Registry, bal loadbalance.Balancer, poolSize int, version int32, interceptors ...Interceptor) *Monitor {
	m := &Monitor{
		registry: reg,
		balancer: bal,
		version:  version,
		poolSize: poolSize,
		pools:    make(map[string]*transport.ConnPool),
	}
	m.probe = Chain(interceptors...)(m.baseProbe)
	return m
}

func (m *Monitor) getPool(addr string) *transport.ConnPool {
	m.mu.Lock()
	defer m.mu.Unlock()
	pool, ok := m.pools[addr]
	if !ok {
		pool = transport.NewConnPool(addr, m.poolSize, func() (net.Conn, error) {
			return net.Dial("tcp", addr)
		})
		m.pools[addr] = pool
	}
	return pool
}

// baseProbe borrows a pooled connection for addr, drives one
// Handshake->Status->Request round trip, and returns the parsed MOTD.
func (m *Monitor) baseProbe(ctx context.Context, addr string) (Report, error) {
	pool := m.getPool(addr)
	conn, err := pool.Get()
	if err != nil {
		return Report{Addr: addr, Err: err}, err
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		conn.MarkUnusable()
		pool.Put(conn)
		return Report{Addr: addr, Err: err}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		conn.MarkUnusable()
		pool.Put(conn)
		return Report{Addr: addr, Err: err}, err
	}

	start := time.Now()
	status, err := session.New(conn).Request(ctx, host, uint16(port), m.version)
	if err != nil {
		conn.MarkUnusable()
		pool.Put(conn)
		return Report{Addr: addr, Err: err}, err
	}
	if err := status.Request(ctx); err != nil {
		conn.MarkUnusable()
		pool.Put(conn)
		return Report{Addr: addr, Err: err}, err
	}
	motd, err := status.ReadResponse(ctx)
	if err != nil {
		conn.MarkUnusable()
		pool.Put(conn)
		return Report{Addr: addr, Err: err}, err
	}
	latency := time.Since(start)
	pool.Put(conn)
	return Report{Addr: addr, Motd: motd, Latency: latency}, nil
}

// Check discovers instances registered under logicalName, picks one, and
// runs one sweep against it through the interceptor chain.
func (m *Monitor) Check(ctx context.Context, logicalName string) (Report, error) {
	instances, err := m.registry.Discover(logicalName)
	if err != nil {
		return Report{}, err
	}
	if len(instances) == 0 {
		return Report{}, errNoInstances
	}
	instance, err := m.balancer.Pick(instances)
	if err != nil {
		return Report{}, err
	}
	return m.probe(ctx, instance.Addr)
}

// CheckAll runs Check concurrently for every name in logicalNames,
// bounded by a semaphore so a large fleet doesn't open unlimited
// goroutines at once. This is monitoring-tool concurrency — a sweep of
// one session is still strictly sequential packet-by-packet.
func (m *Monitor) CheckAll(ctx context.Context, logicalNames []string, concurrency int) map[string]Report {
	results := make(map[string]Report, len(logicalNames))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for _, name := range logicalNames {
		name := name
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			report, err := m.Check(ctx, name)
			if err != nil && report.Err == nil {
				report.Err = err
			}
			mu.Lock()
			results[name] = report
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}
