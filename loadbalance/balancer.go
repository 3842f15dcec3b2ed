// Package loadbalance provides load balancing strategies for distributing
// status sweeps across multiple monitored server instances.
//
// Three strategies are implemented:
//   - RoundRobin:      equal-capacity shards
//   - WeightedRandom:  heterogeneous shards (e.g. a beefier primary realm)
//   - ConsistentHash:  sweeps that should keep visiting the same shard
package loadbalance

import "mcstatus/registry"

// Balancer is the interface for load balancing strategies.
// The monitor calls Pick() before each sweep to select a target instance.
type Balancer interface {
	// Pick selects one instance from the available list.
	// Called on every sweep — must be goroutine-safe.
	Pick(instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
