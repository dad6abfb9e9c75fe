package boot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- test helpers ---

func stubInitializer(err error) Initializer {
	return InitializerFunc(func(_ context.Context) error {
		return err
	})
}

func panicInitializer() Initializer {
	return InitializerFunc(func(_ context.Context) error {
		panic("wires crossed")
	})
}

// --- Recovery tests ---

func TestRecovery(t *testing.T) {
	wrapped := Recovery()(stubInitializer(nil))
	err := wrapped.Initialize(context.Background())

	require.NoError(t, err)
}

func TestRecoveryCatchesPanic(t *testing.T) {
	wrapped := Recovery()(panicInitializer())
	err := wrapped.Initialize(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "controller panicked")
	assert.Contains(t, err.Error(), "wires crossed")
}

// --- Logger tests ---

func TestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	wrapped := Logger(log, "cache")(stubInitializer(nil))
	err := wrapped.Initialize(context.Background())

	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "controller initializing")
	assert.Contains(t, output, "controller ready")
	assert.Contains(t, output, "cache")
}

func TestLoggerMiddlewareWithError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	wrapped := Logger(log, "db")(stubInitializer(errors.New("boom")))
	err := wrapped.Initialize(context.Background())

	require.Error(t, err)
	output := buf.String()
	assert.Contains(t, output, "controller failed")
	assert.Contains(t, output, "boom")
}

// --- Middleware composition test ---

func TestMiddlewareComposition(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Initializer) Initializer {
			return InitializerFunc(func(ctx context.Context) error {
				order = append(order, name+":before")
				err := next.Initialize(ctx)
				order = append(order, name+":after")
				return err
			})
		}
	}

	// Apply A(B(inner))
	wrapped := mw("A")(mw("B")(stubInitializer(nil)))
	err := wrapped.Initialize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"A:before", "B:before", "B:after", "A:after"}, order)
}
