package internal

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrDuplicateExtractor is returned when a type is registered twice.
	ErrDuplicateExtractor = errors.New("extractor already registered")

	// ErrRegistryFrozen is returned for registrations after Freeze.
	ErrRegistryFrozen = errors.New("extractor registry is frozen")
)

// ExtractorFunc produces a value of the registered type from a request.
type ExtractorFunc func(r *Request) (any, error)

// Registry maps types to extractors. It is owned by the App, populated
// during startup, and frozen before the server begins handling traffic;
// lookups after that point need no locking.
type Registry struct {
	entries map[reflect.Type]ExtractorFunc
	order   []reflect.Type
	frozen  bool
}

func newRegistry() *Registry {
	return &Registry{entries: make(map[reflect.Type]ExtractorFunc)}
}

// Register binds an extractor to a type. Registering the same type twice
// or registering after Freeze is an error.
func (reg *Registry) Register(t reflect.Type, fn ExtractorFunc) error {
	if reg.frozen {
		return fmt.Errorf("%w: %s", ErrRegistryFrozen, t)
	}
	if _, exists := reg.entries[t]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateExtractor, t)
	}
	reg.entries[t] = fn
	reg.order = append(reg.order, t)
	return nil
}

// Lookup finds the extractor for a type. An exact match wins; otherwise
// registered interface types are checked in registration order and the
// first one the type implements is used.
func (reg *Registry) Lookup(t reflect.Type) (ExtractorFunc, bool) {
	if fn, ok := reg.entries[t]; ok {
		return fn, true
	}
	for _, key := range reg.order {
		if key.Kind() == reflect.Interface && t.Implements(key) {
			return reg.entries[key], true
		}
	}
	return nil, false
}

// Freeze makes the registry read-only.
func (reg *Registry) Freeze() {
	reg.frozen = true
}
