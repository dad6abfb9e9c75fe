package boot

import (
	"context"
	"reflect"
)

// Controller is the capability a type must implement to take part in the boot
// sequence. Identity is the concrete type: exactly one instance per concrete
// type may exist in the final Registry.
type Controller interface {
	// Initialize prepares the controller for use. The sequencer calls it at
	// most once per process run and never overlaps two controllers'
	// initialization.
	Initialize(ctx context.Context) error

	// Initialized reports whether initialization has completed. The flag's
	// semantics are owned by the implementation; the sequencer reads it to
	// avoid re-initializing instances that arrive already live from a host
	// source.
	Initialized() bool
}

// Factory constructs a fresh controller instance. A non-nil error, or a nil
// controller, aborts the boot sequence.
type Factory func() (Controller, error)

// TypeOf returns the registry key for a controller instance: the reflect.Type
// of its concrete value.
func TypeOf(c Controller) reflect.Type {
	return reflect.TypeOf(c)
}

// TypeFor returns the registry key for the concrete controller type T.
func TypeFor[T Controller]() reflect.Type {
	return reflect.TypeFor[T]()
}
