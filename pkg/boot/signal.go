package boot

import (
	"context"
	"sync"
)

// Listener is a handle to a callback subscribed to a Signal.
type Listener struct {
	fn func(error)
}

// Signal is the one-time completion notification for a boot run: a multicast
// broadcast to subscribed callbacks plus a one-shot token that late consumers
// can still await. The zero value is ready to use. It resolves exactly once;
// further Resolve calls are no-ops.
type Signal struct {
	mu        sync.Mutex
	once      sync.Once
	done      chan struct{}
	listeners []*Listener
	outcome   error
	resolved  bool
}

// init ensures internal structures are allocated.
func (s *Signal) init() {
	s.once.Do(func() {
		s.done = make(chan struct{})
	})
}

// Subscribe registers fn to be called once when the signal resolves.
// Callbacks fire in subscription order, on the resolving goroutine, and must
// not block. Subscribing after resolution never replays the outcome; late
// consumers should use Done, Await, or Outcome instead.
func (s *Signal) Subscribe(fn func(error)) *Listener {
	s.init()

	l := &Listener{fn: fn}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolved {
		return l
	}

	s.listeners = append(s.listeners, l)

	return l
}

// Unsubscribe removes a listener. Removing one that already fired, or was
// never subscribed, is a no-op.
func (s *Signal) Unsubscribe(l *Listener) {
	s.init()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cur := range s.listeners {
		if cur == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Resolve records the outcome (nil for success, the fault otherwise), fires
// all current listeners in subscription order, then closes the token channel.
// Only the first call has any effect.
func (s *Signal) Resolve(outcome error) {
	s.init()

	s.mu.Lock()
	if s.resolved {
		s.mu.Unlock()
		return
	}
	s.resolved = true
	s.outcome = outcome
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	// The token must resolve even if a listener panics.
	defer close(s.done)

	for _, l := range listeners {
		l.fn(outcome)
	}
}

// Done returns a channel that is closed when the signal resolves.
func (s *Signal) Done() <-chan struct{} {
	s.init()
	return s.done
}

// Await blocks until the signal resolves or ctx ends. Once resolved it
// returns the stored outcome immediately, no matter how late the call is.
func (s *Signal) Await(ctx context.Context) error {
	s.init()

	select {
	case <-s.done:
		outcome, _ := s.Outcome()
		return outcome
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outcome returns the stored outcome and whether the signal has resolved.
// The outcome is nil for a successful run.
func (s *Signal) Outcome() (error, bool) {
	s.init()
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.outcome, s.resolved
}
