package boot

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Origin identifies how a controller instance entered the boot sequence.
type Origin string

const (
	// OriginConstructed marks instances built from a manifest factory.
	OriginConstructed Origin = "constructed"
	// OriginHost marks live instances adopted from a host Source.
	OriginHost Origin = "host"
)

// Candidate pairs a discovered controller with its origin.
type Candidate struct {
	Controller Controller
	Origin     Origin
}

// Source enumerates live controller instances managed outside the manifest,
// such as objects already attached to the host's own object graph. Instances
// are adopted verbatim, without construction. Implementations are supplied by
// the host integration layer; the engine never creates them.
type Source interface {
	Controllers(ctx context.Context) ([]Controller, error)
}

// StaticSource is a Source backed by a fixed slice.
type StaticSource []Controller

// Controllers returns the backing slice.
func (s StaticSource) Controllers(context.Context) ([]Controller, error) {
	return s, nil
}

// Manifest is the explicit registration table that replaces a reflective scan
// of loaded types: the set of constructible controllers is exactly the set of
// registered factories, minus the excluded types. The zero value is ready to
// use. It is safe for concurrent use, though hosts normally populate it once
// before the run.
type Manifest struct {
	mu       sync.Mutex
	entries  []manifestEntry
	excluded map[reflect.Type]struct{}
}

type manifestEntry struct {
	typ     reflect.Type
	factory Factory
}

// Provide registers build as the factory for the concrete controller type T.
// Registration order is the boot order for constructed controllers: stable
// within a process run and across runs for a fixed table.
func Provide[T Controller](m *Manifest, build func() (T, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, manifestEntry{
		typ: reflect.TypeFor[T](),
		factory: func() (Controller, error) {
			return build()
		},
	})
}

// Exclude skips the given concrete types during construction. Matching is by
// exact type; Go concrete types have no subtype relation. Exclusion governs
// the factory table only: instances adopted from a Source are never filtered,
// which lets a host hand over a pre-built instance of a type it excluded from
// construction.
func (m *Manifest) Exclude(types ...reflect.Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.excluded == nil {
		m.excluded = make(map[reflect.Type]struct{}, len(types))
	}

	for _, t := range types {
		m.excluded[t] = struct{}{}
	}
}

// Discover produces the ordered candidate list for one boot run: controllers
// constructed from the manifest first, then live instances adopted from each
// source, preserving each list's internal order. A factory error, a nil
// construction result, or a source failure is fatal and aborts discovery.
func Discover(ctx context.Context, m *Manifest, sources ...Source) ([]Candidate, error) {
	m.mu.Lock()
	entries := make([]manifestEntry, len(m.entries))
	copy(entries, m.entries)
	excluded := make(map[reflect.Type]struct{}, len(m.excluded))
	for t := range m.excluded {
		excluded[t] = struct{}{}
	}
	m.mu.Unlock()

	candidates := make([]Candidate, 0, len(entries))

	for pos, ent := range entries {
		if _, skip := excluded[ent.typ]; skip {
			continue
		}

		c, err := ent.factory()
		if err != nil {
			return nil, &ConstructionError{Type: ent.typ, Pos: pos, Err: err}
		}

		if isNil(c) {
			return nil, &ConstructionError{Type: ent.typ, Pos: pos, Err: errors.New("factory returned nil controller")}
		}

		candidates = append(candidates, Candidate{Controller: c, Origin: OriginConstructed})
	}

	for _, src := range sources {
		live, err := src.Controllers(ctx)
		if err != nil {
			return nil, fmt.Errorf("boot: discover host controllers: %w", err)
		}

		for _, c := range live {
			if isNil(c) {
				return nil, errors.New("boot: discover host controllers: nil controller")
			}

			candidates = append(candidates, Candidate{Controller: c, Origin: OriginHost})
		}
	}

	return candidates, nil
}

// isNil reports whether c is nil or a typed nil pointer. A typed nil would
// register under its concrete type and fail on first use, so it is rejected
// at discovery time instead.
func isNil(c Controller) bool {
	if c == nil {
		return true
	}

	rv := reflect.ValueOf(c)

	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
