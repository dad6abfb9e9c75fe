// Package env provides the environment controller. It loads optional .env
// files and snapshots the process environment once, early in the boot order,
// so later controllers and application code read configuration from a stable
// view instead of racing live environment mutations.
package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Controller loads .env files into the process environment during
// initialization and keeps a sorted snapshot of the result.
type Controller struct {
	files []string

	mu          sync.RWMutex
	snapshot    map[string]string
	initialized bool
}

// New creates a Controller that loads the given .env files in order. Missing
// files are skipped; malformed files fail initialization.
func New(files ...string) *Controller {
	return &Controller{files: files}
}

// Initialize loads the configured files, then snapshots the process
// environment.
func (c *Controller) Initialize(context.Context) error {
	for _, path := range c.files {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}

			return fmt.Errorf("env: load %s: %w", path, err)
		}
	}

	snapshot := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		snapshot[k] = v
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.initialized = true
	c.mu.Unlock()

	return nil
}

// Initialized reports whether the snapshot has been taken.
func (c *Controller) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.initialized
}

// Lookup returns the snapshotted value for key and whether it was present.
func (c *Controller) Lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.snapshot[key]

	return v, ok
}

// Get returns the snapshotted value for key, or the empty string.
func (c *Controller) Get(key string) string {
	v, _ := c.Lookup(key)
	return v
}

// Keys returns all snapshotted keys, sorted.
func (c *Controller) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.snapshot))
	for k := range c.snapshot {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
