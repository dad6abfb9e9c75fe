package monitor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/overture/pkg/boot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorTracksEvents(t *testing.T) {
	m := New(context.Background(), nil)

	started := time.Now()
	m.applyEvent(boot.Event{Kind: boot.EventRunStarted, Total: 2, Timestamp: started})
	m.applyEvent(boot.Event{Kind: boot.EventControllerStarted, Controller: "*env.Controller", Origin: boot.OriginConstructed, Index: 1, Total: 2, Timestamp: started})

	require.Len(t, m.rows, 1)
	assert.Equal(t, rowRunning, m.rows[0].status)

	m.applyEvent(boot.Event{Kind: boot.EventControllerReady, Controller: "*env.Controller", Timestamp: started.Add(5 * time.Millisecond)})

	assert.Equal(t, rowReady, m.rows[0].status)
	assert.Equal(t, 5*time.Millisecond, m.rows[0].duration)

	view := m.View()
	assert.Contains(t, view, "env.Controller")
	assert.Contains(t, view, "1/2 ready")
}

func TestMonitorFailedRow(t *testing.T) {
	m := New(context.Background(), nil)

	m.applyEvent(boot.Event{Kind: boot.EventRunStarted, Total: 1})
	m.applyEvent(boot.Event{Kind: boot.EventControllerStarted, Controller: "*db.Controller"})
	m.applyEvent(boot.Event{Kind: boot.EventControllerFailed, Controller: "*db.Controller", Err: errors.New("connection refused")})

	require.Len(t, m.rows, 1)
	assert.Equal(t, rowFailed, m.rows[0].status)
	assert.Contains(t, m.View(), "connection refused")
}

func TestMonitorReconcileAddsSkipped(t *testing.T) {
	m := New(context.Background(), nil)

	report := boot.Report{
		Duration: 40 * time.Millisecond,
		Results: []boot.Result{
			{Controller: "*env.Controller", Status: boot.StatusReady, Duration: 3 * time.Millisecond},
			{Controller: "*db.Controller", Status: boot.StatusFailed, Err: errors.New("boom")},
			{Controller: "*api.Controller", Status: boot.StatusSkipped},
		},
	}

	model, _ := m.handleRunDone(runDoneMsg{report: report, err: errors.New("boom")})
	final, ok := model.(*Model)
	require.True(t, ok)

	require.Len(t, final.rows, 3)
	assert.Equal(t, rowReady, final.rows[0].status)
	assert.Equal(t, rowFailed, final.rows[1].status)
	assert.Equal(t, rowSkipped, final.rows[2].status)
	assert.True(t, final.done)
	assert.EqualError(t, final.Err(), "boom")

	view := final.View()
	assert.Contains(t, view, "skipped")
	assert.Contains(t, view, "boot failed")
	assert.Contains(t, view, "press q to quit")
}

func TestMonitorIgnoresEventsAfterDone(t *testing.T) {
	m := New(context.Background(), nil)

	model, _ := m.handleRunDone(runDoneMsg{report: boot.Report{}})
	final, ok := model.(*Model)
	require.True(t, ok)

	final.applyEvent(boot.Event{Kind: boot.EventControllerStarted, Controller: "*late.Controller"})
	assert.Empty(t, final.rows)
}

func TestMonitorSuccessSummary(t *testing.T) {
	m := New(context.Background(), nil)

	report := boot.Report{
		Duration: 18 * time.Millisecond,
		Results: []boot.Result{
			{Controller: "*env.Controller", Status: boot.StatusReady},
			{Controller: "*admin.Controller", Status: boot.StatusReady},
		},
	}

	model, _ := m.handleRunDone(runDoneMsg{report: report})
	final, ok := model.(*Model)
	require.True(t, ok)

	assert.NoError(t, final.Err())
	assert.Contains(t, final.View(), "boot complete, 2 controllers ready in 18ms")
}

func TestMonitorQuitKey(t *testing.T) {
	m := New(context.Background(), nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

// Runs a real program with the live bridge: the run's event burst and its
// runDoneMsg contend for the program's message channel while the bridge is
// still draining, and the update loop must stay live through all of it.
func TestMonitorProgramQuitsAfterRun(t *testing.T) {
	bus := boot.NewEventBus()

	ran := make(chan struct{})
	run := func(context.Context) (boot.Report, error) {
		now := time.Now()
		results := make([]boot.Result, 0, 30)

		bus.Publish(boot.Event{Kind: boot.EventRunStarted, Total: 30, Timestamp: now})
		for i := 0; i < 30; i++ {
			name := fmt.Sprintf("*app.Controller%02d", i)
			bus.Publish(boot.Event{Kind: boot.EventControllerStarted, Controller: name, Index: i + 1, Total: 30, Timestamp: now})
			bus.Publish(boot.Event{Kind: boot.EventControllerReady, Controller: name, Timestamp: now})
			results = append(results, boot.Result{Controller: name, Status: boot.StatusReady})
		}
		bus.Publish(boot.Event{Kind: boot.EventRunFinished, Timestamp: now})
		close(ran)

		return boot.Report{Duration: 12 * time.Millisecond, Results: results}, nil
	}

	p := tea.NewProgram(New(context.Background(), run), tea.WithInput(nil), tea.WithoutRenderer())
	stop := StartBridge(context.Background(), p, bus)
	defer stop()

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	<-ran
	p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		p.Kill()
		t.Fatal("monitor never exited after the run finished")
	}
}

// Quit lands while the bridge is parked mid-send; the key must still get
// through and stop the program.
func TestMonitorProgramQuitDuringBoot(t *testing.T) {
	bus := boot.NewEventBus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := func(ctx context.Context) (boot.Report, error) {
		bus.Publish(boot.Event{Kind: boot.EventRunStarted, Total: 1, Timestamp: time.Now()})
		for {
			select {
			case <-ctx.Done():
				return boot.Report{}, ctx.Err()
			default:
				bus.Publish(boot.Event{Kind: boot.EventControllerStarted, Controller: "*stuck.Controller", Index: 1, Total: 1, Timestamp: time.Now()})
			}
		}
	}

	p := tea.NewProgram(New(ctx, run), tea.WithInput(nil), tea.WithoutRenderer())
	stop := StartBridge(ctx, p, bus)
	defer stop()

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		p.Kill()
		t.Fatal("quit never interrupted a boot still in progress")
	}
}

func TestFmtDuration(t *testing.T) {
	assert.Equal(t, "7ms", fmtDuration(7*time.Millisecond))
	assert.Equal(t, "2.5s", fmtDuration(2500*time.Millisecond))
}
