package internal

import "log/slog"

// Option configures an App during New.
type Option func(*App)

// WithLogger sets the application logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *App) {
		if log != nil {
			a.logger = log
		}
	}
}

// WithMiddleware appends request middlewares. They run outermost, in
// the given order, around the session storage and error boundary.
func WithMiddleware(mws ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mws...)
	}
}

// WithSessionStorage installs the session layer: the storage middleware
// wraps every route, the *Session and Authorized extractors become
// available, and the auth routes are mounted.
func WithSessionStorage(ss *SessionStorage) Option {
	return func(a *App) {
		a.storage = ss
	}
}

// WithHandlers registers route handlers. Their Routes methods run after
// the built-in extractors and auth routes are in place.
func WithHandlers(handlers ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, handlers...)
	}
}
