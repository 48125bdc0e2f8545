package middleware

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"gitlab.com/tozd/go/errors"

	"java-lsp-rpc/message"
)

// TimeOutMiddleware gives calls without a deadline a default one. A call whose
// caller already set a deadline keeps it.
func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Message) (json.RawMessage, error) {
			if _, ok := ctx.Deadline(); ok || timeout <= 0 {
				return next(ctx, req)
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			type outcome struct {
				result json.RawMessage
				err    error
			}
			done := make(chan outcome, 1)
			go func() {
				result, err := next(ctx, req)
				done <- outcome{result, err}
			}()

			select {
			case o := <-done:
				return o.result, o.err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return nil, errors.WithDetails(message.ErrTimeout, "method", req.Method, "timeout", timeout.String())
				}
				return nil, errors.WithDetails(message.ErrCancelled, "method", req.Method)
			}
		}
	}
}
