package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"
	"strings"
	"sync"

	"java-lsp-rpc/registry"
)

const defaultReplicas = 100

// ConsistentHashBalancer maps keys onto a hash ring of endpoints. Each
// endpoint owns defaultReplicas virtual nodes hashed from "{addr}#{i}"; a key
// belongs to the first node clockwise from its own hash.
type ConsistentHashBalancer struct {
	mu       sync.RWMutex
	replicas int
	ring     []uint32
	nodes    map[uint32]registry.Endpoint
}

func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: defaultReplicas,
		nodes:    make(map[uint32]registry.Endpoint),
	}
}

func (b *ConsistentHashBalancer) Add(ep registry.Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addLocked(ep)
	b.sortLocked()
}

// Reset replaces the ring with endpoints.
func (b *ConsistentHashBalancer) Reset(endpoints []registry.Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ring = b.ring[:0]
	b.nodes = make(map[uint32]registry.Endpoint, len(endpoints)*b.replicas)
	for _, ep := range endpoints {
		b.addLocked(ep)
	}
	b.sortLocked()
}

func (b *ConsistentHashBalancer) addLocked(ep registry.Endpoint) {
	for i := 0; i < b.replicas; i++ {
		hash := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%s#%d", ep.Addr, i)))
		if _, taken := b.nodes[hash]; !taken {
			b.ring = append(b.ring, hash)
		}
		b.nodes[hash] = ep
	}
}

func (b *ConsistentHashBalancer) sortLocked() {
	sort.Slice(b.ring, func(i, j int) bool { return b.ring[i] < b.ring[j] })
}

// Pick returns the endpoint owning key.
func (b *ConsistentHashBalancer) Pick(key string) (*registry.Endpoint, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.ring) == 0 {
		return nil, ErrNoEndpoints
	}

	hash := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(b.ring), func(i int) bool {
		return b.ring[i] >= hash
	})
	if idx == len(b.ring) {
		idx = 0
	}
	ep := b.nodes[b.ring[idx]]
	return &ep, nil
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}

// AffinityBalancer adapts the hash ring to Balancer with a fixed key,
// typically the workspace root. The ring is rebuilt when the endpoint set
// changes.
type AffinityBalancer struct {
	key  string
	ring *ConsistentHashBalancer

	mu      sync.Mutex
	members string
}

func NewAffinityBalancer(key string) *AffinityBalancer {
	return &AffinityBalancer{key: key, ring: NewConsistentHashBalancer()}
}

func (b *AffinityBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	addrs := make([]string, len(endpoints))
	for i, ep := range endpoints {
		addrs[i] = ep.Addr
	}
	sort.Strings(addrs)
	members := strings.Join(addrs, ",")

	b.mu.Lock()
	if members != b.members {
		b.ring.Reset(endpoints)
		b.members = members
	}
	b.mu.Unlock()
	return b.ring.Pick(b.key)
}

func (b *AffinityBalancer) Name() string {
	return "ConsistentHash"
}
