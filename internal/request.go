package internal

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Request wraps the incoming HTTP request together with the owning App
// and the per-request session slot. Extractors receive it; handlers only
// see it when they ask for *Request explicitly.
type Request struct {
	*http.Request

	app     *App
	session *Session
}

func newRequest(r *http.Request, app *App) *Request {
	return &Request{Request: r, app: app}
}

// App returns the application serving this request.
func (r *Request) App() *App {
	return r.app
}

// PathParam returns the named path capture, or "" when absent.
func (r *Request) PathParam(name string) string {
	return chi.URLParam(r.Request, name)
}

// Query returns the first query value for the given key.
func (r *Request) Query(name string) string {
	return r.URL.Query().Get(name)
}

// Session returns the session bound to this request, or nil when the
// session storage middleware is not installed.
func (r *Request) Session() *Session {
	return r.session
}

// SetSession replaces the session on the request. The session storage
// middleware serializes whatever session is bound when the response
// leaves, so a handler swapping sessions mid-request takes effect on
// the outgoing cookie.
func (r *Request) SetSession(s *Session) {
	r.session = s
}

// RequestHandler is the erased request-to-response function the router
// dispatches. Bound routes, the error boundary, and the session storage
// middleware all share this shape.
type RequestHandler func(r *Request) (Response, error)

// Middleware wraps a RequestHandler with a cross-cutting concern.
type Middleware func(next RequestHandler) RequestHandler

// RequestFrom recovers the *Request from a context. Available inside
// extractors that only receive a context.
func RequestFrom(ctx context.Context) (*Request, bool) {
	r, ok := ctx.Value(requestCtxKey{}).(*Request)
	return r, ok
}

type requestCtxKey struct{}
