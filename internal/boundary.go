package internal

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
)

// Boundary converts errors escaping the pipeline into responses.
// User-registered handlers are consulted first, in registration order,
// then the defaults, then a catch-all 500. First matching type wins.
type Boundary struct {
	user     []boundaryEntry
	defaults []boundaryEntry
	logger   *slog.Logger
}

type boundaryEntry struct {
	match func(r *Request, err error) (Response, bool)
}

func newBoundary(logger *slog.Logger) *Boundary {
	b := &Boundary{logger: logger}
	b.registerDefaults()
	return b
}

// HandleError registers a handler for error type E, matched with
// errors.As so wrapped errors dispatch too. A handler for a type the
// defaults already cover shadows the default.
func HandleError[E error](b *Boundary, fn func(r *Request, err E) Response) {
	b.user = append(b.user, entryFor(fn))
}

func entryFor[E error](fn func(r *Request, err E) Response) boundaryEntry {
	return boundaryEntry{
		match: func(r *Request, err error) (Response, bool) {
			var target E
			if errors.As(err, &target) {
				return fn(r, target), true
			}
			return nil, false
		},
	}
}

// wantsHTML reports whether the client is a browser-style consumer.
// Browsers lead their Accept header with text/html; API clients ask for
// application/json or anything.
func wantsHTML(r *Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// errorResponse renders an error body as JSON, or as a minimal HTML
// page for browser-style requests. Both variants carry the same status
// code and message.
func errorResponse(r *Request, status int, body map[string]any) Response {
	if wantsHTML(r) {
		msg, _ := body["error"].(string)
		return HTML(status, errorPage(status, msg))
	}
	return JSON(status, body)
}

func errorPage(status int, message string) string {
	title := fmt.Sprintf("%d %s", status, http.StatusText(status))
	return fmt.Sprintf(
		"<!DOCTYPE html>\n<html>\n<head><title>%s</title></head>\n<body>\n<h1>%s</h1>\n<p>%s</p>\n</body>\n</html>\n",
		title, title, html.EscapeString(message),
	)
}

func (b *Boundary) registerDefaults() {
	b.defaults = append(b.defaults,
		entryFor(func(r *Request, err *RequestValidationError) Response {
			body := map[string]any{"error": err.Error(), "part": string(err.Part)}
			if err.Name != "" {
				body["name"] = err.Name
			}
			return errorResponse(r, http.StatusBadRequest, body)
		}),
		entryFor(func(r *Request, err *HTTPError) Response {
			if err.Code >= http.StatusInternalServerError {
				b.logger.ErrorContext(r.Context(), "request failed",
					slog.Int("status", err.Code),
					slog.String("error", err.Error()),
				)
			}
			return errorResponse(r, err.Code, map[string]any{"error": err.Message})
		}),
		entryFor(func(r *Request, err *PanicError) Response {
			b.logger.ErrorContext(r.Context(), "panic recovered",
				slog.Any("value", err.Value),
				slog.String("stack", string(err.Stack)),
			)
			return errorResponse(r, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
		}),
		// Catch-all. dispatch relies on this matching any error.
		boundaryEntry{
			match: func(r *Request, err error) (Response, bool) {
				b.logger.ErrorContext(r.Context(), "unhandled error", slog.String("error", err.Error()))
				return errorResponse(r, http.StatusInternalServerError, map[string]any{"error": "internal server error"}), true
			},
		},
	)
}

// dispatch finds a response for the error. The catch-all guarantees a
// match.
func (b *Boundary) dispatch(r *Request, err error) Response {
	for _, entry := range b.user {
		if resp, ok := entry.match(r, err); ok {
			return resp
		}
	}
	for _, entry := range b.defaults {
		if resp, ok := entry.match(r, err); ok {
			return resp
		}
	}
	// Unreachable while the catch-all is registered.
	return JSON(http.StatusInternalServerError, map[string]any{"error": "internal server error"})
}

// Middleware returns the boundary as a pipeline middleware. It sits
// inside the session storage middleware so substituted error responses
// still receive the session cookie.
func (b *Boundary) Middleware() Middleware {
	return func(next RequestHandler) RequestHandler {
		return func(r *Request) (Response, error) {
			resp, err := next(r)
			if err != nil {
				return b.dispatch(r, err), nil
			}
			return resp, nil
		}
	}
}
