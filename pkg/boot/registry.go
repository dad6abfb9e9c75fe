package boot

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Registry is an append-only, type-keyed store of initialized controllers.
// The sequencer is the only writer, during population; once the completion
// signal resolves the registry never changes again. It is safe for concurrent
// use, and readers that did not await the signal may observe a partially
// populated store.
type Registry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]Controller
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[reflect.Type]Controller),
	}
}

// Register inserts a controller keyed by its concrete type. It fails with a
// DuplicateError if the type is already present. There is no update or remove.
func (r *Registry) Register(c Controller) error {
	key := TypeOf(c)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[key]; ok {
		return &DuplicateError{Type: key}
	}

	r.entries[key] = c

	return nil
}

// Lookup returns the controller registered under the given type key. It fails
// with ErrNotFound if the key was never registered.
func (r *Registry) Lookup(t reflect.Type) (Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.entries[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, t)
	}

	return c, nil
}

// Types returns the keys of all registered controllers sorted by type name.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]reflect.Type, 0, len(r.entries))
	for t := range r.entries {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})

	return types
}

// Len returns the number of registered controllers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Get returns the controller registered for the concrete type T. It fails
// with ErrNotFound if T was never registered, or ErrTypeMismatch if the
// stored instance cannot be viewed as T. Callers must await the completion
// signal first; before it resolves, ErrNotFound may be a transient race
// rather than a final answer.
func Get[T Controller](r *Registry) (T, error) {
	var zero T

	key := reflect.TypeFor[T]()

	r.mu.RLock()
	c, ok := r.entries[key]
	r.mu.RUnlock()

	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	v, ok := c.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrTypeMismatch, key, c)
	}

	return v, nil
}
