package middleware

import (
	"context"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"java-lsp-rpc/message"
)

// RateLimitMiddleware rejects calls beyond a token bucket of r calls per
// second with the given burst. Rejected calls fail locally with RequestFailed
// and never reach the backend.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Message) (json.RawMessage, error) {
			if !limiter.Allow() {
				return nil, message.NewResponseError(message.RequestFailedCode, "rate limit exceeded for %s", req.Method)
			}
			return next(ctx, req)
		}
	}
}

// RateWaitMiddleware queues calls beyond the token bucket instead of
// rejecting them, until ctx ends.
func RateWaitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Message) (json.RawMessage, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, message.NewResponseError(message.RequestFailedCode, "rate limit wait for %s: %v", req.Method, err)
			}
			return next(ctx, req)
		}
	}
}
