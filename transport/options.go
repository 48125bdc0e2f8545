package transport

import (
	"github.com/rs/zerolog"

	"java-lsp-rpc/codec"
	"java-lsp-rpc/dispatch"
	"java-lsp-rpc/protocol"
)

// Option configures a Channel at construction.
type Option func(*Channel)

// WithFramer selects the stream framing. The default is LSP header framing.
func WithFramer(f protocol.Framer) Option {
	return func(c *Channel) { c.framer = f }
}

func WithCodec(cdc codec.Codec) Option {
	return func(c *Channel) { c.codec = cdc }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Channel) { c.logger = l.With().Str("component", "channel").Logger() }
}

// WithHandlers shares an existing handler registry with the channel.
func WithHandlers(reg *dispatch.Registry) Option {
	return func(c *Channel) { c.handlers = reg }
}

// WithDiagnostics receives every anomaly the channel recovers from. The
// callback runs on channel goroutines and must not block.
func WithDiagnostics(fn func(Diagnostic)) Option {
	return func(c *Channel) { c.onDiagnostic = fn }
}

// WithCancelNotify controls whether abandoning a call also sends
// $/cancelRequest to the peer. It is on by default.
func WithCancelNotify(enabled bool) Option {
	return func(c *Channel) { c.cancelNotify = enabled }
}
