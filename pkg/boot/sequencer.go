package boot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config configures a Sequencer.
type Config struct {
	// Manifest supplies the factories for constructed controllers. Nil means
	// no constructed controllers.
	Manifest *Manifest

	// Sources supply live host-managed instances, adopted after the
	// constructed controllers.
	Sources []Source

	// Registry receives initialized controllers. Created internally if nil.
	Registry *Registry

	// Signal resolves when the run completes or faults. Created internally
	// if nil.
	Signal *Signal

	// Events receives boot progress events. Created internally if nil.
	Events *EventBus

	// Middleware is applied around every controller's initialize step, first
	// entry outermost.
	Middleware []Middleware

	// Logger, when set, wraps each step in the Logger middleware, outside
	// the configured middleware so it observes the step's final outcome.
	Logger *slog.Logger
}

// Sequencer drives one boot run: discover candidates, initialize them
// strictly one at a time in discovery order, register the survivors, resolve
// the completion signal. Run is once-guarded; the sequencer holds its outcome
// for the life of the process.
type Sequencer struct {
	cfg Config

	once   sync.Once
	report Report
	err    error
}

// New creates a Sequencer. Nil Registry, Signal, or Events are replaced with
// fresh instances, reachable through the accessors.
func New(cfg Config) *Sequencer {
	if cfg.Manifest == nil {
		cfg.Manifest = &Manifest{}
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Signal == nil {
		cfg.Signal = &Signal{}
	}
	if cfg.Events == nil {
		cfg.Events = NewEventBus()
	}

	return &Sequencer{cfg: cfg}
}

// Registry returns the registry this sequencer populates.
func (s *Sequencer) Registry() *Registry { return s.cfg.Registry }

// Signal returns the completion signal this sequencer resolves.
func (s *Sequencer) Signal() *Signal { return s.cfg.Signal }

// Events returns the progress event bus.
func (s *Sequencer) Events() *EventBus { return s.cfg.Events }

// Run executes the boot sequence. Only the first call does any work;
// subsequent calls, from any goroutine, wait for it and return the stored
// report and outcome. The sequence itself is never cancelled between
// controllers: ctx is handed to each controller's Initialize, and a
// controller failing with the context's error faults the run like any other
// failure.
func (s *Sequencer) Run(ctx context.Context) (Report, error) {
	s.once.Do(func() {
		s.report, s.err = s.run(ctx)
	})

	return s.report, s.err
}

func (s *Sequencer) run(ctx context.Context) (Report, error) {
	report := Report{
		RunID:   uuid.New().String(),
		Started: time.Now(),
	}

	candidates, err := Discover(ctx, s.cfg.Manifest, s.cfg.Sources...)
	if err != nil {
		report.Duration = time.Since(report.Started)
		s.cfg.Events.Publish(Event{Kind: EventRunFinished, RunID: report.RunID, Err: err, Timestamp: time.Now()})
		s.cfg.Signal.Resolve(err)

		return report, err
	}

	total := len(candidates)
	report.Results = make([]Result, 0, total)

	s.cfg.Events.Publish(Event{Kind: EventRunStarted, RunID: report.RunID, Total: total, Timestamp: time.Now()})

	var fault error

	for i, cand := range candidates {
		name := TypeOf(cand.Controller).String()

		if fault != nil {
			report.Results = append(report.Results, Result{Controller: name, Origin: cand.Origin, Status: StatusSkipped})
			continue
		}

		s.cfg.Events.Publish(Event{
			Kind:       EventControllerStarted,
			RunID:      report.RunID,
			Controller: name,
			Origin:     cand.Origin,
			Index:      i + 1,
			Total:      total,
			Timestamp:  time.Now(),
		})

		res := s.step(ctx, cand, name)
		report.Results = append(report.Results, res)

		kind := EventControllerReady
		if res.Err != nil {
			fault = res.Err
			kind = EventControllerFailed
		}

		s.cfg.Events.Publish(Event{
			Kind:       kind,
			RunID:      report.RunID,
			Controller: name,
			Origin:     cand.Origin,
			Index:      i + 1,
			Total:      total,
			Err:        res.Err,
			Timestamp:  time.Now(),
		})
	}

	report.Duration = time.Since(report.Started)

	s.cfg.Events.Publish(Event{Kind: EventRunFinished, RunID: report.RunID, Err: fault, Timestamp: time.Now()})
	s.cfg.Signal.Resolve(fault)

	return report, fault
}

// step initializes and registers one controller. A host instance that
// arrives already initialized is adopted without a second Initialize call;
// the exactly-once lifecycle belongs to whoever initialized it.
func (s *Sequencer) step(ctx context.Context, cand Candidate, name string) Result {
	res := Result{Controller: name, Origin: cand.Origin}

	start := time.Now()

	adopted := cand.Origin == OriginHost && cand.Controller.Initialized()

	if !adopted {
		if err := s.initialize(ctx, cand.Controller, name); err != nil {
			res.Duration = time.Since(start)
			res.Status = StatusFailed
			res.Err = &InitError{Type: TypeOf(cand.Controller), Err: err}

			return res
		}
	}

	if err := s.cfg.Registry.Register(cand.Controller); err != nil {
		res.Duration = time.Since(start)
		res.Status = StatusFailed
		res.Err = err

		return res
	}

	res.Duration = time.Since(start)
	res.Status = StatusReady

	return res
}

// initialize runs one controller's Initialize through the middleware chain.
func (s *Sequencer) initialize(ctx context.Context, c Controller, name string) error {
	var step Initializer = c

	// Apply middleware in reverse order so the first middleware is outermost.
	for i := len(s.cfg.Middleware) - 1; i >= 0; i-- {
		step = s.cfg.Middleware[i](step)
	}

	if s.cfg.Logger != nil {
		step = Logger(s.cfg.Logger, name)(step)
	}

	return step.Initialize(ctx)
}
