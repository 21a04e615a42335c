package internal

import (
	"context"
	"encoding"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
)

// Extractable is implemented by types that know how to populate
// themselves from a request. The resolver instantiates the type and
// calls ExtractFrom on a pointer to it.
type Extractable interface {
	ExtractFrom(r *Request) error
}

var (
	contextType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
	responseType    = reflect.TypeOf((*Response)(nil)).Elem()
	extractableType = reflect.TypeOf((*Extractable)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// paramResolver produces one handler argument from a request.
type paramResolver func(r *Request) (reflect.Value, error)

// pipeline is a handler bound to its precomputed argument resolvers.
// Built once at registration; no mutable state is shared between
// invocations except through the request itself.
type pipeline struct {
	handler      reflect.Value
	resolvers    []paramResolver
	returnsValue bool
}

// resolver builds pipelines. It reads the registry and provider table
// owned by the App; both are startup-phase structures.
type resolver struct {
	registry  *Registry
	providers map[reflect.Type]reflect.Value
}

func handlerName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() == reflect.Func {
		if f := runtime.FuncForPC(v.Pointer()); f != nil {
			return f.Name()
		}
	}
	return fmt.Sprintf("%T", fn)
}

// resolve inspects the handler signature and builds its pipeline.
// pathNames is the set of captures declared by the route pattern; every
// name must be consumed by a path-tagged struct field or registration
// fails. All failures here are fatal at startup, never at request time.
func (rs *resolver) resolve(handler any, pathNames map[string]bool) (*pipeline, error) {
	name := handlerName(handler)
	v := reflect.ValueOf(handler)
	t := v.Type()

	if t.Kind() != reflect.Func {
		return nil, &InvalidHandlerError{Handler: name, Reason: ReasonNotAFunction, Detail: fmt.Sprintf("got %s", t)}
	}
	if t.IsVariadic() {
		return nil, &InvalidHandlerError{Handler: name, Reason: ReasonVariadic}
	}

	returnsValue, err := checkResults(name, t)
	if err != nil {
		return nil, err
	}

	pending := make(map[string]bool, len(pathNames))
	for p := range pathNames {
		pending[p] = true
	}

	resolvers := make([]paramResolver, 0, t.NumIn())
	for i := range t.NumIn() {
		pr, err := rs.resolveParam(name, t.In(i), pending, nil)
		if err != nil {
			return nil, err
		}
		resolvers = append(resolvers, pr)
	}

	if len(pending) > 0 {
		for p := range pending {
			return nil, &InvalidHandlerError{
				Handler: name,
				Reason:  ReasonUnboundPathParam,
				Detail:  fmt.Sprintf("pattern declares {%s} but no handler parameter binds it", p),
			}
		}
	}

	return &pipeline{handler: v, resolvers: resolvers, returnsValue: returnsValue}, nil
}

func checkResults(name string, t reflect.Type) (returnsValue bool, err error) {
	switch t.NumOut() {
	case 1:
		if t.Out(0) != errorType {
			return false, &InvalidHandlerError{Handler: name, Reason: ReasonBadReturnShape, Detail: "single result must be error"}
		}
		return false, nil
	case 2:
		if !t.Out(0).Implements(responseType) {
			return false, &InvalidHandlerError{Handler: name, Reason: ReasonBadReturnShape, Detail: fmt.Sprintf("first result %s does not implement Response", t.Out(0))}
		}
		if t.Out(1) != errorType {
			return false, &InvalidHandlerError{Handler: name, Reason: ReasonBadReturnShape, Detail: "second result must be error"}
		}
		return true, nil
	default:
		return false, &InvalidHandlerError{Handler: name, Reason: ReasonBadReturnShape, Detail: "handlers return error or (Response, error)"}
	}
}

// resolveParam decides how one parameter type is produced. The stack
// holds dependency identities currently being resolved; a type showing
// up twice means the provider graph loops and registration fails with
// the chain spelled out.
func (rs *resolver) resolveParam(handler string, t reflect.Type, pending map[string]bool, stack []reflect.Type) (paramResolver, error) {
	// context.Context is always the request context.
	if t == contextType {
		return func(r *Request) (reflect.Value, error) {
			return reflect.ValueOf(r.Context()), nil
		}, nil
	}

	// A struct with path-tagged fields binds route captures. Only
	// handler-level parameters see the pattern's names; provider
	// arguments resolve without them.
	if isPathStruct(t) {
		return rs.resolvePathStruct(handler, t, pending, stack)
	}

	// Self-extracting types.
	if reflect.PointerTo(t).Implements(extractableType) && t.Kind() != reflect.Pointer {
		return func(r *Request) (reflect.Value, error) {
			v := reflect.New(t)
			if err := v.Interface().(Extractable).ExtractFrom(r); err != nil {
				return reflect.Value{}, wrapExtraction(t, err)
			}
			return v.Elem(), nil
		}, nil
	}
	if t.Kind() == reflect.Pointer && t.Implements(extractableType) {
		return func(r *Request) (reflect.Value, error) {
			v := reflect.New(t.Elem())
			if err := v.Interface().(Extractable).ExtractFrom(r); err != nil {
				return reflect.Value{}, wrapExtraction(t, err)
			}
			return v, nil
		}, nil
	}

	// Registered extractors.
	if fn, ok := rs.registry.Lookup(t); ok {
		return func(r *Request) (reflect.Value, error) {
			out, err := fn(r)
			if err != nil {
				return reflect.Value{}, wrapExtraction(t, err)
			}
			v := reflect.ValueOf(out)
			if !v.IsValid() || !v.Type().AssignableTo(t) {
				return reflect.Value{}, &ExtractorError{Type: t.String(), Err: fmt.Errorf("produced %T", out)}
			}
			return v, nil
		}, nil
	}

	// Providers build dependency values from their own dependencies.
	if provider, ok := rs.providers[t]; ok {
		return rs.resolveProvider(handler, t, provider, stack)
	}

	// An untyped parameter gives the resolver nothing to work with.
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return nil, &InvalidHandlerError{Handler: handler, Reason: ReasonMissingType, Detail: "parameter typed as any"}
	}

	return nil, &InvalidHandlerError{
		Handler: handler,
		Reason:  ReasonInvalidDep,
		Detail:  fmt.Sprintf("%s is not extractable, registered, or provided", t),
	}
}

// resolveProvider binds a dependency produced by a registered provider
// function, recursively resolving the provider's own parameters.
func (rs *resolver) resolveProvider(handler string, t reflect.Type, provider reflect.Value, stack []reflect.Type) (paramResolver, error) {
	for i, seen := range stack {
		if seen == t {
			chain := make([]string, 0, len(stack)-i+1)
			for _, s := range stack[i:] {
				chain = append(chain, s.String())
			}
			chain = append(chain, t.String())
			return nil, &InvalidHandlerError{Handler: handler, Reason: ReasonDependencyCycle, Chain: chain}
		}
	}
	stack = append(stack, t)

	pt := provider.Type()
	subResolvers := make([]paramResolver, 0, pt.NumIn())
	for i := range pt.NumIn() {
		pr, err := rs.resolveParam(handler, pt.In(i), nil, stack)
		if err != nil {
			return nil, err
		}
		subResolvers = append(subResolvers, pr)
	}

	returnsErr := pt.NumOut() == 2

	return func(r *Request) (reflect.Value, error) {
		args := make([]reflect.Value, len(subResolvers))
		for i, sub := range subResolvers {
			v, err := sub(r)
			if err != nil {
				return reflect.Value{}, err
			}
			args[i] = v
		}
		out := provider.Call(args)
		if returnsErr && !out[1].IsNil() {
			return reflect.Value{}, wrapExtraction(t, out[1].Interface().(error))
		}
		return out[0], nil
	}, nil
}

// checkProvider validates a provider function shape at registration.
func checkProvider(fn any) (reflect.Type, reflect.Value, error) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, reflect.Value{}, fmt.Errorf("provider must be a function, got %s", t)
	}
	if t.IsVariadic() {
		return nil, reflect.Value{}, fmt.Errorf("provider %s must not be variadic", handlerName(fn))
	}
	switch t.NumOut() {
	case 1:
		if t.Out(0) == errorType {
			return nil, reflect.Value{}, fmt.Errorf("provider %s must return a value", handlerName(fn))
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, reflect.Value{}, fmt.Errorf("provider %s second result must be error", handlerName(fn))
		}
	default:
		return nil, reflect.Value{}, fmt.Errorf("provider %s must return a value or (value, error)", handlerName(fn))
	}
	return t.Out(0), v, nil
}

func isPathStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := range t.NumField() {
		if _, ok := t.Field(i).Tag.Lookup("path"); ok {
			return true
		}
	}
	return false
}

// resolvePathStruct binds path-tagged fields to route captures. Untagged
// exported fields resolve as ordinary dependencies, so a handler can
// group its path parameters with, say, the session in one struct.
func (rs *resolver) resolvePathStruct(handler string, t reflect.Type, pending map[string]bool, stack []reflect.Type) (paramResolver, error) {
	wantPtr := t.Kind() == reflect.Pointer
	st := t
	if wantPtr {
		st = t.Elem()
	}

	type fieldBinder struct {
		index int
		name  string
		set   func(field reflect.Value, raw string) error
		sub   paramResolver
	}

	binders := make([]fieldBinder, 0, st.NumField())
	for i := range st.NumField() {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}

		name, tagged := field.Tag.Lookup("path")
		if !tagged {
			sub, err := rs.resolveParam(handler, field.Type, nil, stack)
			if err != nil {
				return nil, err
			}
			binders = append(binders, fieldBinder{index: i, sub: sub})
			continue
		}

		if pending == nil || !pending[name] {
			return nil, &InvalidHandlerError{
				Handler: handler,
				Reason:  ReasonInvalidDep,
				Detail:  fmt.Sprintf("field %s binds path parameter %q not declared by the route pattern", field.Name, name),
			}
		}
		delete(pending, name)

		set, err := fieldSetter(field.Type)
		if err != nil {
			return nil, &InvalidHandlerError{Handler: handler, Reason: ReasonInvalidDep, Detail: err.Error()}
		}
		binders = append(binders, fieldBinder{index: i, name: name, set: set})
	}

	return func(r *Request) (reflect.Value, error) {
		v := reflect.New(st)
		for _, b := range binders {
			field := v.Elem().Field(b.index)
			if b.sub != nil {
				sub, err := b.sub(r)
				if err != nil {
					return reflect.Value{}, err
				}
				field.Set(sub)
				continue
			}
			raw := r.PathParam(b.name)
			if err := b.set(field, raw); err != nil {
				return reflect.Value{}, &RequestValidationError{Part: PartPathParams, Name: b.name, Err: err}
			}
		}
		if wantPtr {
			return v, nil
		}
		return v.Elem(), nil
	}, nil
}

// fieldSetter returns a parse-and-assign function for a path field type.
func fieldSetter(t reflect.Type) (func(field reflect.Value, raw string) error, error) {
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return func(field reflect.Value, raw string) error {
			return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
		}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return func(field reflect.Value, raw string) error {
			field.SetString(raw)
			return nil
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(field reflect.Value, raw string) error {
			n, err := strconv.ParseInt(raw, 10, t.Bits())
			if err != nil {
				return err
			}
			field.SetInt(n)
			return nil
		}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(field reflect.Value, raw string) error {
			n, err := strconv.ParseUint(raw, 10, t.Bits())
			if err != nil {
				return err
			}
			field.SetUint(n)
			return nil
		}, nil
	case reflect.Bool:
		return func(field reflect.Value, raw string) error {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return err
			}
			field.SetBool(b)
			return nil
		}, nil
	default:
		return nil, fmt.Errorf("path parameter field type %s is not supported", t)
	}
}

func wrapExtraction(t reflect.Type, err error) error {
	return &ExtractorError{Type: t.String(), Err: err}
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

// invoke runs the pipeline for one request. Resolvers run in parameter
// declaration order; none may depend on another's side effects.
func (p *pipeline) invoke(r *Request) (Response, error) {
	args := make([]reflect.Value, len(p.resolvers))
	for i, resolve := range p.resolvers {
		v, err := resolve(r)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	return p.call(args)
}

// call invokes the handler with fully resolved arguments and maps its
// results to the (Response, error) shape.
func (p *pipeline) call(args []reflect.Value) (Response, error) {
	out := p.handler.Call(args)

	if p.returnsValue {
		var resp Response
		if v := out[0]; !isNilValue(v) {
			resp = v.Interface().(Response)
		}
		var err error
		if !out[1].IsNil() {
			err = out[1].Interface().(error)
		}
		return resp, err
	}

	if !out[0].IsNil() {
		return nil, out[0].Interface().(error)
	}
	return NoContent(), nil
}
