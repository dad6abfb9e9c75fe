package boot

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Initializer performs a single controller initialization step. Controller
// satisfies it, so middleware chains can wrap controllers directly.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// InitializerFunc adapts a plain function to the Initializer interface.
type InitializerFunc func(ctx context.Context) error

// Initialize calls the underlying function.
func (f InitializerFunc) Initialize(ctx context.Context) error {
	return f(ctx)
}

// Middleware wraps an Initializer, returning a new Initializer with added
// behaviour. The sequencer applies its configured middleware around every
// controller's initialize step. There is deliberately no timeout middleware:
// a boot run has no timeout budget per controller or overall.
type Middleware func(next Initializer) Initializer

// --- Recovery middleware ---

// Recovery returns a Middleware that catches panics and converts them to
// errors, so one misbehaving controller faults the boot instead of crashing
// the process.
func Recovery() Middleware {
	return func(next Initializer) Initializer {
		return InitializerFunc(func(ctx context.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("controller panicked: %v", r)
				}
			}()

			return next.Initialize(ctx)
		})
	}
}

// --- Logger middleware ---

// Logger returns a Middleware that logs initialization start, duration, and
// error for the named controller.
func Logger(log *slog.Logger, name string) Middleware {
	return func(next Initializer) Initializer {
		return InitializerFunc(func(ctx context.Context) error {
			log.InfoContext(ctx, "controller initializing", "controller", name)

			start := time.Now()

			err := next.Initialize(ctx)

			duration := time.Since(start)

			if err != nil {
				log.ErrorContext(ctx, "controller failed",
					"controller", name,
					"duration", duration,
					"error", err,
				)
			} else {
				log.InfoContext(ctx, "controller ready",
					"controller", name,
					"duration", duration,
				)
			}

			return err
		})
	}
}
