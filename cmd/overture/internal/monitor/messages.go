package monitor

import (
	"github.com/germanamz/overture/pkg/boot"
)

// eventMsg delivers a boot event from the bridge goroutine.
type eventMsg struct {
	event boot.Event
}

// runDoneMsg is returned by the tea.Cmd that drives the boot run. Its report
// is authoritative: rows are reconciled against it so skipped controllers and
// exact durations show up even if an event was dropped.
type runDoneMsg struct {
	report boot.Report
	err    error
}
