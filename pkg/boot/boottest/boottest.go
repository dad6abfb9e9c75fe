// Package boottest provides scriptable controller doubles for exercising
// boot sequences in tests.
package boottest

import (
	"context"
	"sync"
)

// Recorder keeps an ordered log of initialization marks so tests can assert
// the exact boot order. It is safe under concurrent Mark calls.
type Recorder struct {
	mu    sync.Mutex
	marks []string
}

// Mark appends a name to the log.
func (r *Recorder) Mark(name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.marks = append(r.marks, name)
	r.mu.Unlock()
}

// Marks returns a snapshot copy of the recorded names in mark order.
func (r *Recorder) Marks() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := make([]string, len(r.marks))
	copy(cp, r.marks)

	return cp
}

// Reset clears the recorder.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.marks = nil
	r.mu.Unlock()
}

// Controller is a scriptable controller double. Registry keys are concrete
// types, so each distinct fake embeds it in its own named struct:
//
//	type dbController struct{ boottest.Controller }
//
// Initialize records Name on the Recorder (when set), then panics with
// PanicValue (when set), then returns Err (when set); otherwise it marks the
// controller initialized.
type Controller struct {
	Name       string
	Rec        *Recorder
	Err        error
	PanicValue any

	mu          sync.Mutex
	calls       int
	initialized bool
}

// Initialize runs the scripted behaviour.
func (c *Controller) Initialize(context.Context) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if c.Rec != nil {
		c.Rec.Mark(c.Name)
	}

	if c.PanicValue != nil {
		panic(c.PanicValue)
	}

	if c.Err != nil {
		return c.Err
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	return nil
}

// Initialized reports whether a scripted Initialize succeeded, or whether
// SetInitialized forced the flag.
func (c *Controller) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.initialized
}

// SetInitialized forces the initialized flag, for doubles standing in for
// host instances initialized before the run.
func (c *Controller) SetInitialized(v bool) {
	c.mu.Lock()
	c.initialized = v
	c.mu.Unlock()
}

// Calls returns how many times Initialize was invoked.
func (c *Controller) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls
}
