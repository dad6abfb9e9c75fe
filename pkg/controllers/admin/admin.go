// Package admin provides the admin controller: a small HTTP server exposing
// liveness and readiness probes, controller status, the boot report, a
// websocket stream of boot progress events, and optionally the metrics
// scrape endpoint. Readiness is gated on the boot completion signal, so load
// balancers only route traffic once every controller came up.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/germanamz/overture/pkg/boot"
)

// DefaultAddr is the listen address used when Options.Addr is empty.
const DefaultAddr = ":9190"

// Options configures the admin controller. Registry, Signal, and Events are
// the composition root's boot objects; the probes and streams read them but
// never mutate them.
type Options struct {
	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string

	// Registry backs the controller status listing.
	Registry *boot.Registry

	// Signal gates the readiness probe.
	Signal *boot.Signal

	// Events feeds the websocket stream. Nil disables /api/events.
	Events *boot.EventBus

	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler

	// Logger receives server lifecycle logs. Defaults to a discard logger.
	Logger *slog.Logger
}

// Controller runs the admin HTTP server.
type Controller struct {
	opts Options
	log  *slog.Logger

	mu          sync.RWMutex
	initialized bool
	srv         *http.Server
	ln          net.Listener
	report      *boot.Report
}

// New creates an admin Controller. The server starts when the boot sequence
// reaches Initialize.
func New(opts Options) *Controller {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Controller{opts: opts, log: log}
}

// Initialize binds the listener and starts serving in the background. The
// bind happens synchronously so a taken port faults the boot run instead of
// surfacing later as a dead admin surface.
func (c *Controller) Initialize(ctx context.Context) error {
	ln, err := net.Listen("tcp", c.opts.Addr)
	if err != nil {
		return fmt.Errorf("admin: listen %s: %w", c.opts.Addr, err)
	}

	srv := &http.Server{
		Handler:           c.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			c.log.Error("admin server stopped", "error", serveErr)
		}
	}()

	c.mu.Lock()
	c.ln = ln
	c.srv = srv
	c.initialized = true
	c.mu.Unlock()

	c.log.InfoContext(ctx, "admin server listening", "addr", ln.Addr().String())

	return nil
}

// Initialized reports whether the server is up.
func (c *Controller) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.initialized
}

// Addr returns the bound listen address, or the configured one before
// initialization. Useful when listening on ":0".
func (c *Controller) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ln != nil {
		return c.ln.Addr().String()
	}

	return c.opts.Addr
}

// SetReport stores the finished boot report for /api/report and the
// controller status listing. The host calls it once the run returns.
func (c *Controller) SetReport(report boot.Report) {
	c.mu.Lock()
	c.report = &report
	c.mu.Unlock()
}

// Close stops the server. Safe to call before initialization.
func (c *Controller) Close() error {
	c.mu.Lock()
	srv := c.srv
	c.srv = nil
	c.mu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Close()
}

// bootReport returns the stored report, if any.
func (c *Controller) bootReport() (boot.Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.report == nil {
		return boot.Report{}, false
	}

	return *c.report, true
}
