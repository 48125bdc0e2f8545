package registry

import (
	"context"
	"sort"
	"sync"
	"time"
)

// StaticRegistry keeps endpoints in memory. It backs configurations that list
// their endpoints directly. TTLs are ignored.
type StaticRegistry struct {
	mu       sync.Mutex
	backends map[string]map[string]Endpoint
	watchers map[string][]chan []Endpoint
}

func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		backends: make(map[string]map[string]Endpoint),
		watchers: make(map[string][]chan []Endpoint),
	}
}

func (r *StaticRegistry) Register(_ context.Context, backend string, ep Endpoint, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	eps, ok := r.backends[backend]
	if !ok {
		eps = make(map[string]Endpoint)
		r.backends[backend] = eps
	}
	eps[ep.Addr] = ep
	r.notifyLocked(backend)
	return nil
}

func (r *StaticRegistry) Deregister(_ context.Context, backend, addr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.backends[backend], addr)
	r.notifyLocked(backend)
	return nil
}

// Discover returns the endpoints sorted by address.
func (r *StaticRegistry) Discover(_ context.Context, backend string) ([]Endpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked(backend), nil
}

func (r *StaticRegistry) Watch(ctx context.Context, backend string) <-chan []Endpoint {
	ch := make(chan []Endpoint, 1)
	r.mu.Lock()
	r.watchers[backend] = append(r.watchers[backend], ch)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		ws := r.watchers[backend]
		for i, w := range ws {
			if w == ch {
				r.watchers[backend] = append(ws[:i], ws[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch
}

func (r *StaticRegistry) listLocked(backend string) []Endpoint {
	out := make([]Endpoint, 0, len(r.backends[backend]))
	for _, ep := range r.backends[backend] {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// notifyLocked replaces any unread update with the latest list.
func (r *StaticRegistry) notifyLocked(backend string) {
	for _, ch := range r.watchers[backend] {
		list := r.listLocked(backend)
		select {
		case <-ch:
		default:
		}
		ch <- list
	}
}
