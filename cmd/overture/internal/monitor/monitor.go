// Package monitor renders boot progress as a terminal UI: one row per
// controller, a spinner on the one currently initializing, and a summary once
// the run finishes.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/overture/cmd/overture/internal/styles"
	"github.com/germanamz/overture/pkg/boot"
	"github.com/mattn/go-runewidth"
)

type rowStatus int

const (
	rowRunning rowStatus = iota
	rowReady
	rowFailed
	rowSkipped
)

type row struct {
	name      string
	origin    boot.Origin
	status    rowStatus
	startedAt time.Time
	duration  time.Duration
	err       error
}

// Model is the root bubbletea model for the boot monitor. It never blocks:
// events arrive as messages from the bridge goroutine, which is owned and
// stopped by the caller, not by the model.
type Model struct {
	ctx     context.Context
	run     func(context.Context) (boot.Report, error)
	spin    spinner.Model
	rows    []row
	index   map[string]int
	total   int
	done    bool
	runErr  error
	elapsed time.Duration
	width   int
}

// New creates a monitor for a single boot run. Init starts the run, so the
// event bridge must already be subscribed when the program starts.
func New(ctx context.Context, run func(context.Context) (boot.Report, error)) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	return Model{
		ctx:   ctx,
		run:   run,
		spin:  s,
		index: make(map[string]int),
	}
}

// Err returns the boot run's error, if any, once the program has finished.
func (m Model) Err() error { return m.runErr }

func (m Model) Init() tea.Cmd {
	if m.run == nil {
		return m.spin.Tick
	}

	run := m.run
	ctx := m.ctx

	return tea.Batch(m.spin.Tick, func() tea.Msg {
		report, err := run(ctx)
		return runDoneMsg{report: report, err: err}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.applyEvent(msg.event)
		return m, nil

	case runDoneMsg:
		return m.handleRunDone(msg)

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(styles.TitleStyle.Render("overture boot"))
	sb.WriteString("\n\n")

	for _, r := range m.rows {
		sb.WriteString(m.renderRow(r))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderSummary())
	sb.WriteString("\n")

	return sb.String()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyEvent(ev boot.Event) {
	// The report has already been reconciled; late events are stale.
	if m.done {
		return
	}

	switch ev.Kind {
	case boot.EventRunStarted:
		m.total = ev.Total

	case boot.EventControllerStarted:
		m.index[ev.Controller] = len(m.rows)
		m.rows = append(m.rows, row{
			name:      ev.Controller,
			origin:    ev.Origin,
			status:    rowRunning,
			startedAt: ev.Timestamp,
		})

	case boot.EventControllerReady:
		if i, ok := m.index[ev.Controller]; ok {
			m.rows[i].status = rowReady
			m.rows[i].duration = ev.Timestamp.Sub(m.rows[i].startedAt)
		}

	case boot.EventControllerFailed:
		if i, ok := m.index[ev.Controller]; ok {
			m.rows[i].status = rowFailed
			m.rows[i].err = ev.Err
		}

	case boot.EventRunFinished:
		// The authoritative summary arrives with runDoneMsg.
	}
}

func (m *Model) handleRunDone(msg runDoneMsg) (tea.Model, tea.Cmd) {
	m.done = true
	m.runErr = msg.err
	m.reconcile(msg.report)

	return m, nil
}

// reconcile replaces the event-derived rows with the final report, which also
// carries the controllers that were skipped after a failure.
func (m *Model) reconcile(report boot.Report) {
	m.elapsed = report.Duration
	m.total = len(report.Results)

	rows := make([]row, 0, len(report.Results))
	for _, res := range report.Results {
		r := row{name: res.Controller, origin: res.Origin, duration: res.Duration, err: res.Err}

		switch res.Status {
		case boot.StatusReady:
			r.status = rowReady
		case boot.StatusFailed:
			r.status = rowFailed
		case boot.StatusSkipped:
			r.status = rowSkipped
		}

		rows = append(rows, r)
	}

	m.rows = rows
}

func (m Model) renderRow(r row) string {
	name := strings.TrimPrefix(r.name, "*")
	if m.width > 0 {
		name = runewidth.Truncate(name, max(m.width-24, 16), "…")
	}

	origin := ""
	if r.origin == boot.OriginHost {
		origin = " " + styles.OriginStyle.Render("(host)")
	}

	switch r.status {
	case rowReady:
		return fmt.Sprintf("  %s %-32s%s %s", styles.ReadyStyle.Render("✓"), name, origin, styles.DimStyle.Render(fmtDuration(r.duration)))
	case rowFailed:
		return fmt.Sprintf("  %s %-32s%s %s", styles.ErrorStyle.Render("✗"), name, origin, styles.ErrorStyle.Render(errText(r.err)))
	case rowSkipped:
		return fmt.Sprintf("  %s %-32s%s %s", styles.SkippedStyle.Render("−"), name, origin, styles.SkippedStyle.Render("skipped"))
	default:
		return fmt.Sprintf("  %s %-32s%s", m.spin.View(), name, origin)
	}
}

func (m Model) renderSummary() string {
	if !m.done {
		if m.total > 0 {
			return styles.DimStyle.Render(fmt.Sprintf("  %d/%d ready", m.readyCount(), m.total))
		}

		return styles.DimStyle.Render("  starting…")
	}

	if m.runErr != nil {
		return styles.ErrorStyle.Render(fmt.Sprintf("  boot failed: %v", m.runErr)) +
			"\n" + styles.DimStyle.Render("  press q to quit")
	}

	return styles.ReadyStyle.Render(fmt.Sprintf("  boot complete, %d controllers ready in %s", m.readyCount(), fmtDuration(m.elapsed))) +
		"\n" + styles.DimStyle.Render("  press q to quit")
}

func (m Model) readyCount() int {
	n := 0
	for _, r := range m.rows {
		if r.status == rowReady {
			n++
		}
	}

	return n
}

func errText(err error) string {
	if err == nil {
		return "failed"
	}

	return err.Error()
}

// fmtDuration renders sub-second durations in milliseconds and longer ones in
// seconds.
func fmtDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	return fmt.Sprintf("%.1fs", d.Seconds())
}
