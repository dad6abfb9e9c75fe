package monitor

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/overture/pkg/boot"
)

// StartBridge launches the event watcher goroutine. It only calls p.Send()
// and never touches model state directly. The subscription is registered
// before StartBridge returns, so a boot run started afterwards cannot publish
// past it.
//
// The returned stop function cancels the bridge context and waits for the
// goroutine to exit. Call it only after p.Run has returned: a send to a live
// program parks until the update loop reads it, so a wait from inside Update
// deadlocks.
func StartBridge(ctx context.Context, p *tea.Program, events *boot.EventBus) (stop func()) {
	bridgeCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	sub := events.Subscribe(64)

	wg.Go(func() {
		defer events.Unsubscribe(sub)
		for {
			select {
			case <-bridgeCtx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				p.Send(eventMsg{event: ev})
			}
		}
	})

	return func() {
		cancel()
		wg.Wait()
	}
}
