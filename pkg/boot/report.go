package boot

import "time"

// Status describes the outcome of one controller's boot step.
type Status string

const (
	// StatusReady means the controller initialized and was registered.
	StatusReady Status = "ready"
	// StatusFailed means construction, initialization, or registration failed.
	StatusFailed Status = "failed"
	// StatusSkipped means an earlier fault aborted the run before this
	// controller was reached.
	StatusSkipped Status = "skipped"
)

// Result records the outcome of a single controller's boot step.
type Result struct {
	Controller string // concrete type name
	Origin     Origin
	Status     Status
	Duration   time.Duration
	Err        error
}

// Report summarizes one boot run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Results  []Result
}

// Failed returns the result of the controller that faulted the run, or nil
// if every controller came up.
func (r Report) Failed() *Result {
	for i := range r.Results {
		if r.Results[i].Status == StatusFailed {
			return &r.Results[i]
		}
	}

	return nil
}

// Ready returns how many controllers reached StatusReady.
func (r Report) Ready() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusReady {
			n++
		}
	}

	return n
}
