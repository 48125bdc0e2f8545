package client

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"java-lsp-rpc/config"
	"java-lsp-rpc/java"
	"java-lsp-rpc/registry"
	"java-lsp-rpc/server"
)

// Full chain: etcd registry, balancer, dial, channel, middleware, peer.
func TestConnectThroughEtcd(t *testing.T) {
	endpoints := os.Getenv("ETCD_ENDPOINTS")
	if endpoints == "" {
		t.Skip("ETCD_ENDPOINTS not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reg, err := registry.NewEtcdRegistry(registry.EtcdConfig{
		Endpoints: strings.Split(endpoints, ","),
		Prefix:    "/java-lsp-client-test",
	})
	require.NoError(t, err)
	defer reg.Close()

	var addrs []string
	for i := 0; i < 2; i++ {
		status := i + 1
		addr := listen(t, func(peer *server.Server) {
			peer.Handle("java/buildWorkspace", func(ctx context.Context, params json.RawMessage) (any, error) {
				return status, nil
			})
		})
		require.NoError(t, reg.Register(ctx, "jdtls", registry.Endpoint{Addr: addr, Weight: 10}, 10*time.Second))
		addrs = append(addrs, addr)
	}
	defer func() {
		for _, addr := range addrs {
			reg.Deregister(context.Background(), "jdtls", addr)
		}
	}()

	quoted := make([]string, 0, 2)
	for _, ep := range strings.Split(endpoints, ",") {
		quoted = append(quoted, fmt.Sprintf("%q", ep))
	}
	cfg, err := config.Parse([]byte(fmt.Sprintf(`
[backend.discovery]
kind = "etcd"
endpoints = [%s]
prefix = "/java-lsp-client-test"
balancer = "round-robin"
`, strings.Join(quoted, ", "))))
	require.NoError(t, err)

	seen := map[java.CompileWorkspaceStatus]bool{}
	for i := 0; i < 4; i++ {
		c, err := Connect(ctx, cfg)
		require.NoError(t, err)
		status, err := Call(ctx, c, java.CompileWorkspaceRequest, true)
		c.Close()
		require.NoError(t, err)
		seen[status] = true
	}
	assert.NotEmpty(t, seen)
}
