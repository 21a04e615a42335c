// Package guildboard is the web layer of the guildboard dashboard: a
// dependency-injected routing core with an OAuth2 session lifecycle.
// Handlers declare what they need as typed parameters; the framework
// binds every parameter at route registration and refuses to start if a
// handler cannot be satisfied.
package guildboard

import (
	"reflect"

	"github.com/guildboard/guildboard/internal"
)

// Core types.
type (
	App            = internal.App
	Request        = internal.Request
	Response       = internal.Response
	RequestHandler = internal.RequestHandler
	Middleware     = internal.Middleware
	Router         = internal.Router
	Handler        = internal.Handler
	Route          = internal.Route
	Extractable    = internal.Extractable

	Session        = internal.Session
	Authorized     = internal.Authorized
	SessionStorage = internal.SessionStorage

	Option               = internal.Option
	RunOption            = internal.RunOption
	SessionStorageOption = internal.SessionStorageOption

	HTTPError              = internal.HTTPError
	HTTPErrorOption        = internal.HTTPErrorOption
	InvalidHandlerError    = internal.InvalidHandlerError
	RequestValidationError = internal.RequestValidationError
	ExtractorError         = internal.ExtractorError
	PanicError             = internal.PanicError
	HandlerErrorReason     = internal.HandlerErrorReason
	RequestPart            = internal.RequestPart
)

// Construction and options.
var (
	New               = internal.New
	NewSessionStorage = internal.NewSessionStorage

	WithLogger         = internal.WithLogger
	WithMiddleware     = internal.WithMiddleware
	WithSessionStorage = internal.WithSessionStorage
	WithHandlers       = internal.WithHandlers
	WithAccountCache   = internal.WithAccountCache

	ServerTimeouts  = internal.ServerTimeouts
	ShutdownTimeout = internal.ShutdownTimeout
	BaseContext     = internal.BaseContext
	StartupHook     = internal.StartupHook
	ShutdownHook    = internal.ShutdownHook
)

// Responses.
var (
	JSON      = internal.JSON
	Text      = internal.Text
	HTML      = internal.HTML
	Redirect  = internal.Redirect
	NoContent = internal.NoContent
)

// Errors.
var (
	NewHTTPError    = internal.NewHTTPError
	WithError       = internal.WithError
	ErrBadRequest   = internal.ErrBadRequest
	ErrUnauthorized = internal.ErrUnauthorized
	ErrForbidden    = internal.ErrForbidden
	ErrNotFound     = internal.ErrNotFound
	ErrInternal     = internal.ErrInternal

	RequestFrom = internal.RequestFrom
)

// CookieName is the fixed session cookie name.
const CookieName = internal.CookieName

// Registration error reasons.
const (
	ReasonNotAFunction     = internal.ReasonNotAFunction
	ReasonBadReturnShape   = internal.ReasonBadReturnShape
	ReasonMissingType      = internal.ReasonMissingType
	ReasonVariadic         = internal.ReasonVariadic
	ReasonInvalidDep       = internal.ReasonInvalidDep
	ReasonDependencyCycle  = internal.ReasonDependencyCycle
	ReasonUnboundPathParam = internal.ReasonUnboundPathParam
)

// Request parts for validation errors.
const (
	PartPathParams  = internal.PartPathParams
	PartQueryParams = internal.PartQueryParams
	PartBody        = internal.PartBody
	PartCookies     = internal.PartCookies
)

// RegisterExtractor binds a typed extractor for T on the app's registry.
// Registering a type twice, or registering after the app starts serving,
// returns an error.
func RegisterExtractor[T any](a *App, fn func(r *Request) (T, error)) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return a.RegisterExtractor(t, func(r *Request) (any, error) {
		return fn(r)
	})
}

// Provide registers a dependency provider function. The provider's
// return type becomes resolvable as a handler or provider parameter;
// its own parameters are resolved recursively when a route using it is
// bound, with cycles rejected at registration.
func Provide(a *App, fn any) error {
	return a.RegisterProvider(fn)
}

// OnError registers an error boundary handler for error type E. It runs
// before the built-in handlers, so concrete application errors can map
// to their own responses.
func OnError[E error](a *App, fn func(r *Request, err E) Response) {
	internal.HandleError(a.Boundary(), fn)
}
