// Package middleware wraps outbound calls. A chain is built once per client and
// every request issued through the client passes through it.
package middleware

import (
	"context"

	"github.com/goccy/go-json"

	"java-lsp-rpc/message"
)

// HandlerFunc performs one call. req carries the method and encoded params;
// the channel assigns the id when the request is written.
type HandlerFunc func(ctx context.Context, req *message.Message) (json.RawMessage, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines middlewares so the first one listed runs outermost:
// Chain(A, B, C)(h) is A(B(C(h))).
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
