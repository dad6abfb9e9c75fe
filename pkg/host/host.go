// Package host assembles the standard controller set around a boot sequencer:
// environment loading, telemetry, and the admin endpoint, plus whatever
// controllers the application registers. It is the composition root a program
// embeds in main.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/germanamz/overture/pkg/boot"
	"github.com/germanamz/overture/pkg/controllers/admin"
	"github.com/germanamz/overture/pkg/controllers/env"
	"github.com/germanamz/overture/pkg/controllers/telemetry"
)

// Options configures a Host beyond its file configuration.
type Options struct {
	Logger      *slog.Logger   // Overrides the config-built logger.
	Level       *slog.LevelVar // Level behind a custom Logger; required for WatchLevel to keep applying config changes.
	Controllers []Registration // Application controllers, booted after the built-ins in slice order.
	Sources     []boot.Source  // Live instances adopted after the registration table.
}

// Registration names a controller factory so the config disabled list can
// refer to it. Build one with Controller.
type Registration struct {
	name    string
	typ     reflect.Type
	provide func(m *boot.Manifest)
}

// Controller builds a Registration for concrete controller type T.
func Controller[T boot.Controller](name string, build func() (T, error)) Registration {
	return Registration{
		name: name,
		typ:  boot.TypeFor[T](),
		provide: func(m *boot.Manifest) {
			boot.Provide(m, build)
		},
	}
}

// Host wires the built-in controllers and the application's controllers into
// a single boot sequence.
type Host struct {
	cfg   Config
	log   *slog.Logger
	level *slog.LevelVar

	manifest *boot.Manifest
	registry *boot.Registry
	signal   *boot.Signal
	events   *boot.EventBus
	seq      *boot.Sequencer

	admin *admin.Controller
	tel   *telemetry.Controller
}

// New validates the config and assembles a Host. The built-ins boot first,
// in a fixed order: env (so later controllers see the loaded environment),
// then telemetry, then admin. Application controllers follow in registration
// order, then live instances from sources. Nothing initializes until Run.
func New(cfg Config, opts Options) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, level, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	if opts.Logger != nil {
		log = opts.Logger
		level = opts.Level
	}

	h := &Host{
		cfg:      cfg,
		log:      log,
		level:    level,
		manifest: &boot.Manifest{},
		registry: boot.NewRegistry(),
		signal:   &boot.Signal{},
		events:   boot.NewEventBus(),
	}

	disabled := make(map[string]struct{}, len(cfg.Disabled))
	for _, name := range cfg.Disabled {
		disabled[name] = struct{}{}
	}

	known := make(map[string]reflect.Type)

	// Built-ins are constructed here and handed out by their factories, so
	// the admin controller can be wired to the telemetry handler before
	// either one boots. Disabling works through the exclusion set: the
	// manifest keeps its fixed shape and Discover skips the excluded types.
	envCtrl := env.New(cfg.EnvFiles...)
	boot.Provide(h.manifest, func() (*env.Controller, error) { return envCtrl, nil })
	known["env"] = boot.TypeFor[*env.Controller]()

	h.tel = telemetry.New(cfg.Telemetry.Namespace)
	boot.Provide(h.manifest, func() (*telemetry.Controller, error) { return h.tel, nil })
	known["telemetry"] = boot.TypeFor[*telemetry.Controller]()

	var metrics http.Handler
	if _, off := disabled["telemetry"]; !off {
		metrics = h.tel.Handler()
	}

	h.admin = admin.New(admin.Options{
		Addr:     cfg.Admin.Addr,
		Registry: h.registry,
		Signal:   h.signal,
		Events:   h.events,
		Metrics:  metrics,
		Logger:   h.log,
	})
	boot.Provide(h.manifest, func() (*admin.Controller, error) { return h.admin, nil })
	known["admin"] = boot.TypeFor[*admin.Controller]()

	for _, reg := range opts.Controllers {
		if reg.provide == nil {
			return nil, fmt.Errorf("host: controller %q has no factory", reg.name)
		}
		if _, dup := known[reg.name]; dup {
			return nil, fmt.Errorf("host: controller name %q already taken", reg.name)
		}
		reg.provide(h.manifest)
		known[reg.name] = reg.typ
	}

	for _, name := range cfg.Disabled {
		typ, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("host: config: unknown disabled controller %q", name)
		}
		h.manifest.Exclude(typ)
	}

	h.seq = boot.New(boot.Config{
		Manifest:   h.manifest,
		Sources:    opts.Sources,
		Registry:   h.registry,
		Signal:     h.signal,
		Events:     h.events,
		Middleware: []boot.Middleware{boot.Recovery()},
		Logger:     h.log,
	})

	return h, nil
}

// Run boots every controller in order and reports the outcome. It runs the
// sequence at most once; later calls return the first run's report. After the
// run the report is pushed into telemetry and the admin endpoint so both
// reflect the final state, whether the run succeeded or faulted.
func (h *Host) Run(ctx context.Context) (boot.Report, error) {
	report, err := h.seq.Run(ctx)

	if h.tel.Initialized() {
		h.tel.ObserveBoot(report)
	}
	if h.admin.Initialized() {
		h.admin.SetReport(report)
	}

	return report, err
}

// Close shuts down the host's long-lived controllers. It returns the first
// error encountered.
func (h *Host) Close() error {
	var firstErr error

	if h.admin.Initialized() {
		if err := h.admin.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Logger returns the host logger.
func (h *Host) Logger() *slog.Logger { return h.log }

// Registry returns the controller registry.
func (h *Host) Registry() *boot.Registry { return h.registry }

// Signal returns the readiness signal.
func (h *Host) Signal() *boot.Signal { return h.signal }

// Events returns the boot event bus.
func (h *Host) Events() *boot.EventBus { return h.events }

// WatchLevel starts a config-file watcher that applies log level changes at
// runtime. Controllers are never reloaded; only the logger level moves. With
// a custom logger the watcher drives Options.Level; without one there is
// nothing to adjust and WatchLevel returns an error.
func (h *Host) WatchLevel() (*LevelWatcher, error) {
	if h.cfg.Path == "" {
		return nil, fmt.Errorf("host: watch config: no config file loaded")
	}
	if h.level == nil {
		return nil, fmt.Errorf("host: watch config: custom logger has no level var, set Options.Level")
	}

	return WatchLevel(h.cfg.Path, h.level, h.log)
}
