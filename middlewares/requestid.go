// Package middlewares provides request middleware in the pipeline's
// RequestHandler shape: request IDs, panic recovery, and request
// logging.
package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	guildboard "github.com/guildboard/guildboard"
	"github.com/guildboard/guildboard/pkg/logger"
)

type requestIDKey struct{}

// RequestIDHeader is the header carrying the request ID on responses
// and, when the client supplies one, on requests.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request an ID, reusing the client-supplied
// header value when present. The ID lands in the request context and on
// the response header.
func RequestID() guildboard.Middleware {
	return func(next guildboard.RequestHandler) guildboard.RequestHandler {
		return func(r *guildboard.Request) (guildboard.Response, error) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			r.Request = r.Request.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

			resp, err := next(r)
			if resp != nil {
				resp.Header().Set(RequestIDHeader, id)
			}
			return resp, err
		}
	}
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDLogExtractor feeds the request ID into every log record.
// Pass it to the logger factory.
func RequestIDLogExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id := RequestIDFromContext(ctx)
		if id == "" {
			return slog.Attr{}, false
		}
		return slog.String("request_id", id), true
	}
}
