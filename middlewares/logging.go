package middlewares

import (
	"log/slog"
	"time"

	guildboard "github.com/guildboard/guildboard"
)

// RequestLogger logs one line per request with method, path, status,
// and duration. Errors escaping the chain log at error level with a
// zero status, since the outer host decides the final code.
func RequestLogger(log *slog.Logger) guildboard.Middleware {
	return func(next guildboard.RequestHandler) guildboard.RequestHandler {
		return func(r *guildboard.Request) (guildboard.Response, error) {
			start := time.Now()
			resp, err := next(r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration", time.Since(start)),
			}
			switch {
			case err != nil:
				attrs = append(attrs, slog.String("error", err.Error()))
				log.ErrorContext(r.Context(), "request failed", attrs...)
			default:
				attrs = append(attrs, slog.Int("status", resp.StatusCode()))
				log.InfoContext(r.Context(), "request", attrs...)
			}

			return resp, err
		}
	}
}
