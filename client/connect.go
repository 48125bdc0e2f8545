package client

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/config"
	"java-lsp-rpc/loadbalance"
	"java-lsp-rpc/middleware"
	"java-lsp-rpc/protocol"
	"java-lsp-rpc/registry"
	"java-lsp-rpc/transport"
)

const retryBaseDelay = 100 * time.Millisecond

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Connect opens the backend described by cfg and returns a client over it.
// The backend is spawned as a child process, dialed at a fixed address, or
// discovered through a registry and picked by the configured balancer.
//
// Middlewares derived from cfg run outside any passed with WithMiddleware.
func Connect(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	o := buildOptions(opts)
	logger := o.logger

	framer, err := protocol.NewFramer(cfg.Channel.Framing, cfg.Channel.MaxFrameSize)
	if err != nil {
		return nil, err
	}

	stream, err := openStream(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	chOpts := append([]transport.Option{
		transport.WithFramer(framer),
		transport.WithLogger(logger),
		transport.WithCancelNotify(cfg.Channel.NotifyCancel()),
	}, o.channelOpts...)
	ch := transport.New(stream, chOpts...)

	o.middlewares = append(Middlewares(cfg, logger), o.middlewares...)
	return newClient(ch, o), nil
}

// Middlewares builds the outbound chain cfg asks for: logging, then rate
// limiting, then the default timeout, then retries.
func Middlewares(cfg *config.Config, logger zerolog.Logger) []middleware.Middleware {
	mws := []middleware.Middleware{middleware.LoggingMiddleware(logger)}
	if cfg.Limits.RatePerSecond > 0 {
		mws = append(mws, middleware.RateWaitMiddleware(cfg.Limits.RatePerSecond, cfg.Limits.Burst))
	}
	if cfg.Channel.RequestTimeout > 0 {
		mws = append(mws, middleware.TimeOutMiddleware(cfg.Channel.RequestTimeout))
	}
	if cfg.Limits.Retries > 0 {
		mws = append(mws, middleware.RetryMiddleware(cfg.Limits.Retries, retryBaseDelay))
	}
	return mws
}

func openStream(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (io.ReadWriteCloser, error) {
	b := cfg.Backend
	switch {
	case b.Command != "":
		// The process outlives ctx; the channel kills it on Close.
		p, err := transport.Spawn(context.WithoutCancel(ctx), logger, b.Command, b.Args...)
		if err != nil {
			return nil, errors.Errorf("starting %s: %w", b.Command, err)
		}
		return p, nil
	case b.Address != "":
		return transport.Dial(ctx, b.Network, b.Address)
	case b.Discovery.Kind != "":
		ep, err := Discover(ctx, b.Discovery, logger)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("addr", ep.Addr).Str("service", b.Discovery.Service).Msg("backend discovered")
		return transport.Dial(ctx, ep.NetworkOrDefault(), ep.Addr)
	}
	return nil, errors.New("no backend configured")
}

// OpenRegistry returns the registry d describes. The closer releases the
// etcd connection, if any.
func OpenRegistry(ctx context.Context, d config.Discovery, logger zerolog.Logger) (registry.Registry, io.Closer, error) {
	switch d.Kind {
	case "etcd":
		reg, err := registry.NewEtcdRegistry(registry.EtcdConfig{
			Endpoints: d.Endpoints,
			Prefix:    d.Prefix,
			Logger:    logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return reg, reg, nil
	case "static":
		reg := registry.NewStaticRegistry()
		for _, addr := range d.Endpoints {
			ep := registry.Endpoint{Addr: addr, Workspace: d.Workspace}
			if err := reg.Register(ctx, d.Service, ep, 0); err != nil {
				return nil, nil, err
			}
		}
		return reg, nopCloser{}, nil
	}
	return nil, nil, errors.Errorf("unknown discovery kind %q", d.Kind)
}

// Discover looks up d.Service and picks one endpoint.
func Discover(ctx context.Context, d config.Discovery, logger zerolog.Logger) (*registry.Endpoint, error) {
	reg, closer, err := OpenRegistry(ctx, d, logger)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	balancer, err := loadbalance.ByName(d.Balancer, d.Workspace)
	if err != nil {
		return nil, err
	}
	endpoints, err := reg.Discover(ctx, d.Service)
	if err != nil {
		return nil, err
	}
	ep, err := balancer.Pick(loadbalance.ForWorkspace(endpoints, d.Workspace))
	if err != nil {
		return nil, errors.WithDetails(err, "service", d.Service)
	}
	return ep, nil
}
