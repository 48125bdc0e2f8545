// Package loadbalance picks the backend endpoint a new channel connects to.
//
// Three strategies are implemented:
//   - RoundRobin:      spreads new sessions evenly
//   - WeightedRandom:  favours larger backends
//   - ConsistentHash:  pins a workspace to one backend, so its index stays warm
package loadbalance

import (
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/registry"
)

var ErrNoEndpoints = errors.Base("no endpoints available")

// Balancer selects one endpoint. Implementations are goroutine-safe.
type Balancer interface {
	Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error)
	Name() string
}

// ByName returns the strategy called name. key is the affinity key used by
// the consistent hash strategy and ignored by the others.
func ByName(name, key string) (Balancer, error) {
	switch name {
	case "", "round-robin", "roundrobin":
		return &RoundRobinBalancer{}, nil
	case "weighted-random", "weighted":
		return &WeightedRandomBalancer{}, nil
	case "consistent-hash", "affinity":
		return NewAffinityBalancer(key), nil
	}
	return nil, errors.Errorf("unknown balancer %q", name)
}

// ForWorkspace keeps the endpoints that serve workspace, plus those not bound
// to any. If none match, all endpoints are returned.
func ForWorkspace(endpoints []registry.Endpoint, workspace string) []registry.Endpoint {
	if workspace == "" {
		return endpoints
	}
	out := make([]registry.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if ep.Workspace == "" || ep.Workspace == workspace {
			out = append(out, ep)
		}
	}
	if len(out) == 0 {
		return endpoints
	}
	return out
}
