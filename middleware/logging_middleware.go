package middleware

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"java-lsp-rpc/message"
)

// LoggingMiddleware logs every call with its duration. Failures are logged at
// warn level, successes at debug.
func LoggingMiddleware(logger zerolog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Message) (json.RawMessage, error) {
			start := time.Now()
			result, err := next(ctx, req)
			duration := time.Since(start)
			if err != nil {
				logger.Warn().Str("method", req.Method).Dur("duration", duration).Err(err).Msg("call failed")
				return result, err
			}
			logger.Debug().Str("method", req.Method).Dur("duration", duration).Int("result_bytes", len(result)).Msg("call finished")
			return result, nil
		}
	}
}
