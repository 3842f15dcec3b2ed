// Package registry defines the service discovery interface and data types
// used to track a fleet of monitored Minecraft server endpoints under one
// logical name (e.g. a realm with several shards).
//
// This is the monitoring tool's own bookkeeping, not a wire-protocol
// concern — the Handshake/Status protocol itself does no discovery.
// Instead of the monitor hardcoding host:port pairs, servers register
// themselves in a central registry (etcd), and the monitor queries the
// registry to find which instances are currently up.
package registry

// ServiceInstance represents a single monitored Minecraft server endpoint.
type ServiceInstance struct {
	Addr    string // Network address, e.g., "127.0.0.1:25565"
	Weight  int    // Weight for load balancing (higher = more sweeps)
	Version string // Reported protocol version, for canary-style filtering
}

// Registry is the interface for service registration and discovery.
// Implementations include EtcdRegistry (production) and MockRegistry (testing).
type Registry interface {
	// Register adds a service instance to the registry with a TTL lease.
	// The instance will be automatically removed if KeepAlive stops (e.g., server crashes).
	Register(serviceName string, instance ServiceInstance, ttl int64) error

	// Deregister removes a service instance from the registry.
	Deregister(serviceName string, addr string) error

	// Discover returns all currently registered instances for a service.
	// The monitor calls this to get the instance list for load balancing.
	Discover(serviceName string) ([]ServiceInstance, error)

	// Watch returns a channel that emits updated instance lists whenever
	// the service's instances change (new instances, removals, etc.).
	// This enables real-time service discovery without polling.
	Watch(serviceName string) <-chan []ServiceInstance
}
