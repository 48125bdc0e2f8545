package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const DefaultPrefix = "/java-lsp"

// EtcdRegistry stores endpoints in etcd.
//
//	Key:   {prefix}/{backend}/{addr}
//	Value: JSON-encoded Endpoint
//
// Entries are attached to a lease renewed by KeepAlive, so a backend that
// dies disappears once its TTL expires.
type EtcdRegistry struct {
	client *clientv3.Client
	prefix string
	logger zerolog.Logger

	mu     sync.Mutex
	leases map[string]clientv3.LeaseID
}

type EtcdConfig struct {
	Endpoints   []string
	Prefix      string
	DialTimeout time.Duration
	Logger      zerolog.Logger
}

func NewEtcdRegistry(cfg EtcdConfig) (*EtcdRegistry, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, errors.Errorf("connecting to etcd: %w", err)
	}
	return &EtcdRegistry{
		client: c,
		prefix: strings.TrimSuffix(cfg.Prefix, "/"),
		logger: cfg.Logger.With().Str("component", "registry").Logger(),
		leases: make(map[string]clientv3.LeaseID),
	}, nil
}

func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}

func (r *EtcdRegistry) key(backend, addr string) string {
	return r.prefix + "/" + backend + "/" + addr
}

// Register puts ep under a lease with the given TTL and keeps the lease alive
// until Deregister or until ctx ends.
func (r *EtcdRegistry) Register(ctx context.Context, backend string, ep Endpoint, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	lease, err := r.client.Grant(ctx, seconds)
	if err != nil {
		return errors.Errorf("granting lease: %w", err)
	}

	val, err := json.Marshal(ep)
	if err != nil {
		return errors.WithStack(err)
	}

	key := r.key(backend, ep.Addr)
	if _, err := r.client.Put(ctx, key, string(val), clientv3.WithLease(lease.ID)); err != nil {
		return errors.Errorf("registering %s: %w", key, err)
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return errors.Errorf("keeping lease alive: %w", err)
	}

	r.mu.Lock()
	r.leases[key] = lease.ID
	r.mu.Unlock()

	go func() {
		for range ch {
		}
		r.logger.Debug().Str("key", key).Msg("lease keepalive stopped")
	}()
	r.logger.Debug().Str("key", key).Int64("ttl", seconds).Msg("endpoint registered")
	return nil
}

// Deregister deletes the entry and revokes its lease.
func (r *EtcdRegistry) Deregister(ctx context.Context, backend, addr string) error {
	key := r.key(backend, addr)
	if _, err := r.client.Delete(ctx, key); err != nil {
		return errors.Errorf("deregistering %s: %w", key, err)
	}

	r.mu.Lock()
	id, ok := r.leases[key]
	delete(r.leases, key)
	r.mu.Unlock()
	if ok {
		if _, err := r.client.Revoke(ctx, id); err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("revoking lease")
		}
	}
	return nil
}

func (r *EtcdRegistry) Discover(ctx context.Context, backend string) ([]Endpoint, error) {
	prefix := r.key(backend, "")
	resp, err := r.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", prefix, err)
	}

	endpoints := make([]Endpoint, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var ep Endpoint
		if err := json.Unmarshal(kv.Value, &ep); err != nil {
			r.logger.Warn().Err(err).Str("key", string(kv.Key)).Msg("skipping malformed endpoint")
			continue
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// Watch re-reads the full list on every change under the backend prefix.
func (r *EtcdRegistry) Watch(ctx context.Context, backend string) <-chan []Endpoint {
	ch := make(chan []Endpoint, 1)
	prefix := r.key(backend, "")

	go func() {
		defer close(ch)
		for range r.client.Watch(ctx, prefix, clientv3.WithPrefix()) {
			endpoints, err := r.Discover(ctx, backend)
			if err != nil {
				r.logger.Warn().Err(err).Str("backend", backend).Msg("refreshing endpoints")
				continue
			}
			select {
			case ch <- endpoints:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
