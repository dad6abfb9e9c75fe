package boot

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNotFound is returned by registry lookups for a type that was never
// registered. Seeing it before the completion signal resolves is a caller
// side race, not a startup failure.
var ErrNotFound = errors.New("boot: controller not found")

// ErrTypeMismatch is returned by registry lookups when the stored instance
// cannot be viewed as the requested type.
var ErrTypeMismatch = errors.New("boot: controller type mismatch")

// ErrDuplicate is wrapped by DuplicateError when a second instance of an
// already-registered concrete type reaches the registry.
var ErrDuplicate = errors.New("boot: duplicate controller registration")

// ConstructionError reports a manifest factory that failed, or produced a nil
// controller, before initialization could begin. Type is the factory's
// declared product, Pos its position in manifest registration order. Fatal.
type ConstructionError struct {
	Type reflect.Type
	Pos  int
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("boot: construct %s (factory %d): %v", e.Type, e.Pos, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// DuplicateError reports a second controller whose concrete type is already
// registered. Fatal.
type DuplicateError struct {
	Type reflect.Type
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("boot: duplicate controller registration for %s", e.Type)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// InitError reports a controller whose Initialize call returned an error or
// panicked. Fatal: the sequencer aborts the remaining sequence, while
// controllers registered earlier stay valid.
type InitError struct {
	Type reflect.Type
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("boot: initialize %s: %v", e.Type, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
