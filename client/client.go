// Package client is the typed facade over a transport.Channel. Calls go out
// through a middleware chain; payloads are encoded and decoded with the Go
// types a catalog descriptor carries.
package client

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/catalog"
	"java-lsp-rpc/dispatch"
	"java-lsp-rpc/message"
	"java-lsp-rpc/middleware"
	"java-lsp-rpc/transport"
)

// ErrDirection is returned when a method is used on the wrong side, such as
// sending a server to client notification.
var ErrDirection = errors.Base("method used in the wrong direction")

type Client struct {
	ch      *transport.Channel
	catalog *catalog.Catalog
	invoke  middleware.HandlerFunc
	logger  zerolog.Logger
	strict  bool
}

type options struct {
	catalog     *catalog.Catalog
	middlewares []middleware.Middleware
	logger      zerolog.Logger
	strict      bool
	channelOpts []transport.Option
}

type Option func(*options)

// WithCatalog checks untyped calls against c. Without it every method is
// accepted.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithStrictCatalog rejects untyped calls to methods the catalog lacks.
func WithStrictCatalog() Option {
	return func(o *options) { o.strict = true }
}

// WithMiddleware appends to the outbound chain. The first middleware added
// runs outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, mws...) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithChannelOptions is used by Connect when it builds the channel.
func WithChannelOptions(opts ...transport.Option) Option {
	return func(o *options) { o.channelOpts = append(o.channelOpts, opts...) }
}

func New(ch *transport.Channel, opts ...Option) *Client {
	o := buildOptions(opts)
	return newClient(ch, o)
}

func buildOptions(opts []Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.catalog == nil {
		o.catalog = catalog.MustNew()
	}
	return o
}

func newClient(ch *transport.Channel, o *options) *Client {
	c := &Client{
		ch:      ch,
		catalog: o.catalog,
		logger:  o.logger,
		strict:  o.strict,
	}
	c.invoke = middleware.Chain(o.middlewares...)(c.send)
	return c
}

// send is the end of the middleware chain.
func (c *Client) send(ctx context.Context, req *message.Message) (json.RawMessage, error) {
	call, err := c.ch.SendRequest(ctx, req.Method, req.Params)
	if err != nil {
		return nil, err
	}
	return call.Wait(ctx)
}

func (c *Client) Channel() *transport.Channel { return c.ch }

func (c *Client) Catalog() *catalog.Catalog { return c.catalog }

// Close shuts the channel down, which also closes the stream Connect opened.
func (c *Client) Close() error {
	return c.ch.Close()
}

// Invoke sends a request with already encoded params through the middleware
// chain and returns the raw result.
func (c *Client) Invoke(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	if err := c.check(method, catalog.KindRequest, catalog.ClientToServer); err != nil {
		return nil, err
	}
	return c.invoke(ctx, &message.Message{Method: method, Params: params})
}

// Notify sends a notification with already encoded params.
func (c *Client) Notify(ctx context.Context, method string, params json.RawMessage) error {
	if err := c.check(method, catalog.KindNotification, catalog.ClientToServer); err != nil {
		return err
	}
	return c.ch.Notify(ctx, method, params)
}

// OnNotification subscribes to a server notification with raw params.
func (c *Client) OnNotification(method string, fn dispatch.NotificationHandler) (*dispatch.Registration, error) {
	if err := c.check(method, catalog.KindNotification, catalog.ServerToClient); err != nil {
		return nil, err
	}
	return c.ch.OnNotification(method, fn), nil
}

func (c *Client) check(method string, kind catalog.Kind, dir catalog.Direction) error {
	d, ok := c.catalog.Lookup(method)
	if !ok {
		if c.strict {
			return errors.WithDetails(catalog.ErrUnknownMethod, "method", method)
		}
		return nil
	}
	return checkDescriptor(d, kind, dir)
}

func checkDescriptor(d catalog.Descriptor, kind catalog.Kind, dir catalog.Direction) error {
	if d.Kind != kind || d.Direction != dir {
		return errors.WithDetails(ErrDirection,
			"method", d.Name,
			"kind", d.Kind.String(),
			"direction", d.Direction.String(),
		)
	}
	return nil
}
