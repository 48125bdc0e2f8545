// Package registry discovers language backend endpoints. A backend that
// listens on a socket registers itself under a name; clients discover the
// live endpoints and pick one with a loadbalance strategy.
package registry

import (
	"context"
	"time"
)

// Endpoint is one reachable backend.
type Endpoint struct {
	Addr      string `json:"addr"`
	Network   string `json:"network,omitempty"`
	Weight    int    `json:"weight,omitempty"`
	Version   string `json:"version,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

// NetworkOrDefault returns Network, or "tcp" when empty.
func (e Endpoint) NetworkOrDefault() string {
	if e.Network == "" {
		return "tcp"
	}
	return e.Network
}

type Registry interface {
	Register(ctx context.Context, backend string, ep Endpoint, ttl time.Duration) error
	Deregister(ctx context.Context, backend, addr string) error
	Discover(ctx context.Context, backend string) ([]Endpoint, error)
	// Watch emits the full endpoint list after every change until ctx ends.
	Watch(ctx context.Context, backend string) <-chan []Endpoint
}
