package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
)

// App owns the router, the extractor registry, the error boundary, and
// the optional session storage. Configuration and route registration
// happen at startup; registration failures accumulate and Run refuses
// to start while any exist.
type App struct {
	router      chi.Router
	registry    *Registry
	resolver    *resolver
	boundary    *Boundary
	storage     *SessionStorage
	logger      *slog.Logger
	middlewares []Middleware
	handlers    []Handler
	routes      []*Route
	errs        []error
}

// New creates an application. Extractors for *Request and *App are
// registered out of the box; *Session and Authorized join them when
// session storage is configured, along with the /auth/login and
// /auth/callback routes.
func New(opts ...Option) *App {
	a := &App{
		router:   chi.NewRouter(),
		registry: newRegistry(),
		logger:   slog.New(slog.DiscardHandler),
	}
	a.resolver = &resolver{registry: a.registry, providers: make(map[reflect.Type]reflect.Value)}

	for _, opt := range opts {
		opt(a)
	}

	a.boundary = newBoundary(a.logger)

	a.registerBuiltins()

	if a.storage != nil {
		a.storage.setLogger(a.logger)
		auth := &authHandlers{storage: a.storage}
		a.GET("/auth/login", auth.login)
		a.GET("/auth/callback", auth.callback)
	}

	for _, h := range a.handlers {
		h.Routes(a)
	}

	return a
}

func (a *App) registerBuiltins() {
	must := func(err error) {
		if err != nil {
			a.errs = append(a.errs, err)
		}
	}

	must(a.registry.Register(reflect.TypeOf((*Request)(nil)), func(r *Request) (any, error) {
		return r, nil
	}))
	must(a.registry.Register(reflect.TypeOf((*App)(nil)), func(r *Request) (any, error) {
		return r.app, nil
	}))

	if a.storage != nil {
		must(a.registry.Register(reflect.TypeOf((*Session)(nil)), extractSession))
		must(a.registry.Register(reflect.TypeOf(Authorized{}), extractAuthorized))
	}
}

// RegisterExtractor binds an extractor to a type. Duplicate types and
// post-freeze registrations fail.
func (a *App) RegisterExtractor(t reflect.Type, fn ExtractorFunc) error {
	return a.registry.Register(t, fn)
}

// RegisterProvider registers a dependency provider, keyed by its return
// type. Provider arguments are themselves resolved as dependencies when
// a route using the type is bound, which is where cycles are caught.
func (a *App) RegisterProvider(fn any) error {
	out, v, err := checkProvider(fn)
	if err != nil {
		return err
	}
	if _, exists := a.resolver.providers[out]; exists {
		return fmt.Errorf("provider already registered for %s", out)
	}
	a.resolver.providers[out] = v
	return nil
}

// Boundary exposes the error boundary for handler registration.
func (a *App) Boundary() *Boundary {
	return a.boundary
}

// Logger returns the app's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Handle binds a handler to a method and pattern. Binding failures are
// recorded; Err and Run surface them.
func (a *App) Handle(method, pattern string, handler any) {
	rt, err := a.resolver.buildRoute(method, pattern, handler)
	if err != nil {
		a.errs = append(a.errs, err)
		return
	}
	a.routes = append(a.routes, rt)
	a.router.MethodFunc(method, pattern, a.serve(rt))
}

func (a *App) GET(pattern string, handler any)    { a.Handle(http.MethodGet, pattern, handler) }
func (a *App) POST(pattern string, handler any)   { a.Handle(http.MethodPost, pattern, handler) }
func (a *App) PUT(pattern string, handler any)    { a.Handle(http.MethodPut, pattern, handler) }
func (a *App) PATCH(pattern string, handler any)  { a.Handle(http.MethodPatch, pattern, handler) }
func (a *App) DELETE(pattern string, handler any) { a.Handle(http.MethodDelete, pattern, handler) }

// Any binds a handler for every method on the pattern.
func (a *App) Any(pattern string, handler any) {
	rt, err := a.resolver.buildRoute("*", pattern, handler)
	if err != nil {
		a.errs = append(a.errs, err)
		return
	}
	a.routes = append(a.routes, rt)
	a.router.HandleFunc(pattern, a.serve(rt))
}

// Routes returns the bound routes for introspection.
func (a *App) Routes() []*Route {
	return a.routes
}

// Err returns every accumulated registration error. A non-nil result
// means the route table is inconsistent and the app must not serve.
func (a *App) Err() error {
	return errors.Join(a.errs...)
}

// Freeze locks the extractor registry. Run calls it before serving.
func (a *App) Freeze() {
	a.registry.Freeze()
}

// Router returns the app as an http.Handler.
func (a *App) Router() http.Handler {
	return a.router
}

// serve composes the per-route chain. Order, outermost first: custom
// middlewares, session storage, error boundary, route pipeline. The
// storage sits outside the boundary so error responses get cookies; the
// adapter below is the outer host that turns errors escaping the whole
// chain (for example a malformed cookie rejected during load) into
// responses via the same boundary.
func (a *App) serve(rt *Route) http.HandlerFunc {
	h := rt.Serve
	h = a.boundary.Middleware()(h)
	if a.storage != nil {
		h = a.storage.Middleware()(h)
	}
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}

	return func(w http.ResponseWriter, req *http.Request) {
		r := newRequest(req, a)
		r.Request = req.WithContext(context.WithValue(req.Context(), requestCtxKey{}, r))

		resp, err := h(r)
		if err == nil && resp == nil {
			// The pipeline can produce this when a (Response, error)
			// handler returns two nils. Dispatch it as an error so the
			// contract violation surfaces as a 500, not a panic.
			err = fmt.Errorf("handler for %s %s returned nil response and nil error", rt.Method, rt.Pattern)
		}
		if err != nil {
			resp = a.boundary.dispatch(r, err)
		}
		if err := resp.WriteTo(w); err != nil {
			a.logger.ErrorContext(r.Context(), "response write failed", slog.String("error", err.Error()))
		}
	}
}
