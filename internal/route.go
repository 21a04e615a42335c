package internal

import (
	"fmt"
	"reflect"
	"strings"
)

// Route is a bound handler: method, chi-style pattern, and the resolved
// pipeline. The original handler is kept for introspection and direct
// invocation in tests.
type Route struct {
	Method  string
	Pattern string
	Handler any

	pipeline *pipeline
}

// parsePathParams extracts the capture names from a pattern. Captures
// use {name} or {name:regex}; the regex part constrains matching and is
// passed through to the router untouched.
func parsePathParams(pattern string) (map[string]bool, error) {
	names := make(map[string]bool)
	rest := pattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return names, nil
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return nil, fmt.Errorf("pattern %q has an unclosed parameter", pattern)
		}
		name := rest[open+1 : open+closing]
		if colon := strings.IndexByte(name, ':'); colon >= 0 {
			name = name[:colon]
		}
		if name == "" {
			return nil, fmt.Errorf("pattern %q has an unnamed parameter", pattern)
		}
		if names[name] {
			return nil, fmt.Errorf("pattern %q declares {%s} twice", pattern, name)
		}
		names[name] = true
		rest = rest[open+closing+1:]
	}
}

// buildRoute resolves the handler against the pattern's captures.
// Failures are registration failures; nothing is deferred to request
// time.
func (rs *resolver) buildRoute(method, pattern string, handler any) (*Route, error) {
	names, err := parsePathParams(pattern)
	if err != nil {
		return nil, err
	}

	pl, err := rs.resolve(handler, names)
	if err != nil {
		return nil, err
	}

	return &Route{
		Method:   method,
		Pattern:  pattern,
		Handler:  handler,
		pipeline: pl,
	}, nil
}

// Serve runs the route's pipeline for one request.
func (rt *Route) Serve(r *Request) (Response, error) {
	return rt.pipeline.invoke(r)
}

// Call invokes the original handler with already-resolved arguments,
// bypassing the extraction pipeline. Results map to (Response, error)
// exactly as they do when serving; error-only handlers yield NoContent.
// A nil argument supplies the zero value for that parameter.
func (rt *Route) Call(args ...any) (Response, error) {
	t := rt.pipeline.handler.Type()
	if len(args) != t.NumIn() {
		return nil, fmt.Errorf("handler %s has %d parameters, got %d arguments", handlerName(rt.Handler), t.NumIn(), len(args))
	}

	vals := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			vals[i] = reflect.Zero(t.In(i))
			continue
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(t.In(i)) {
			return nil, fmt.Errorf("handler %s argument %d: %s is not assignable to %s",
				handlerName(rt.Handler), i, v.Type(), t.In(i))
		}
		vals[i] = v
	}

	return rt.pipeline.call(vals)
}
