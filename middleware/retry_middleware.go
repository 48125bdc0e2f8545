package middleware

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"java-lsp-rpc/message"
)

// Retryable reports whether a failed call may be sent again. Only errors the
// backend defines as transient qualify: the document changed underneath the
// request, or the server cancelled it itself.
func Retryable(err error) bool {
	return message.IsRemoteCode(err, message.ContentModifiedCode) ||
		message.IsRemoteCode(err, message.ServerCancelledCode)
}

// RetryMiddleware resends retryable failures up to maxRetries times with
// exponential backoff starting at baseDelay.
func RetryMiddleware(maxRetries int, baseDelay time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Message) (json.RawMessage, error) {
			result, err := next(ctx, req)
			for i := 0; i < maxRetries; i++ {
				if err == nil || !Retryable(err) {
					return result, err
				}
				zerolog.Ctx(ctx).Debug().Str("method", req.Method).Int("attempt", i+1).Err(err).Msg("retrying call")

				timer := time.NewTimer(baseDelay * time.Duration(1<<i))
				select {
				case <-ctx.Done():
					timer.Stop()
					return result, err
				case <-timer.C:
				}
				result, err = next(ctx, req)
			}
			return result, err
		}
	}
}
