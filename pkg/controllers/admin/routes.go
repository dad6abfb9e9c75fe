package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/germanamz/overture/pkg/boot"
	"github.com/go-chi/chi/v5"
)

// router builds the admin HTTP surface.
func (c *Controller) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", c.handleHealth)
	r.Get("/readyz", c.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/controllers", c.handleControllers)
		r.Get("/report", c.handleReport)
		r.Get("/events", c.handleEvents)
	})

	if c.opts.Metrics != nil {
		r.Handle("/metrics", c.opts.Metrics)
	}

	return r
}

func (c *Controller) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports 503 until the completion signal resolves, 200 after a
// successful run, and 500 after a fault.
func (c *Controller) handleReady(w http.ResponseWriter, _ *http.Request) {
	if c.opts.Signal == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unknown"})
		return
	}

	outcome, resolved := c.opts.Signal.Outcome()

	switch {
	case !resolved:
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
	case outcome != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "failed",
			"error":  outcome.Error(),
		})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// controllerStatus is the wire shape of one controller in the listing.
type controllerStatus struct {
	Type       string  `json:"type"`
	Registered bool    `json:"registered"`
	Status     string  `json:"status,omitempty"`
	Origin     string  `json:"origin,omitempty"`
	DurationMS float64 `json:"duration_ms,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func (c *Controller) handleControllers(w http.ResponseWriter, _ *http.Request) {
	registered := make(map[string]bool)
	if c.opts.Registry != nil {
		for _, t := range c.opts.Registry.Types() {
			registered[t.String()] = true
		}
	}

	var out []controllerStatus

	if report, ok := c.bootReport(); ok {
		// The report carries boot order and outcomes; merge in live
		// registration state.
		for _, res := range report.Results {
			cs := controllerStatus{
				Type:       res.Controller,
				Registered: registered[res.Controller],
				Status:     string(res.Status),
				Origin:     string(res.Origin),
				DurationMS: float64(res.Duration) / float64(time.Millisecond),
			}
			if res.Err != nil {
				cs.Error = res.Err.Error()
			}
			out = append(out, cs)
		}
	} else {
		if c.opts.Registry != nil {
			for _, t := range c.opts.Registry.Types() {
				out = append(out, controllerStatus{Type: t.String(), Registered: true})
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"controllers": out})
}

// reportPayload is the wire shape of the boot report.
type reportPayload struct {
	RunID      string             `json:"run_id"`
	Started    time.Time          `json:"started"`
	DurationMS float64            `json:"duration_ms"`
	Results    []controllerStatus `json:"results"`
}

func (c *Controller) handleReport(w http.ResponseWriter, _ *http.Request) {
	report, ok := c.bootReport()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "boot report not available yet"})
		return
	}

	payload := reportPayload{
		RunID:      report.RunID,
		Started:    report.Started,
		DurationMS: float64(report.Duration) / float64(time.Millisecond),
		Results:    make([]controllerStatus, 0, len(report.Results)),
	}

	for _, res := range report.Results {
		cs := controllerStatus{
			Type:       res.Controller,
			Status:     string(res.Status),
			Origin:     string(res.Origin),
			DurationMS: float64(res.Duration) / float64(time.Millisecond),
			Registered: res.Status == boot.StatusReady,
		}
		if res.Err != nil {
			cs.Error = res.Err.Error()
		}
		payload.Results = append(payload.Results, cs)
	}

	writeJSON(w, http.StatusOK, payload)
}

// eventPayload is the wire shape of one boot progress event.
type eventPayload struct {
	Kind       string    `json:"kind"`
	RunID      string    `json:"run_id"`
	Controller string    `json:"controller,omitempty"`
	Origin     string    `json:"origin,omitempty"`
	Index      int       `json:"index,omitempty"`
	Total      int       `json:"total,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// handleEvents streams boot progress events over a websocket. Subscribers
// joining after an event was published never see it replayed.
func (c *Controller) handleEvents(w http.ResponseWriter, r *http.Request) {
	if c.opts.Events == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event stream not configured"})
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		// Accept already wrote the handshake error.
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	sub := c.opts.Events.Subscribe(64)
	defer c.opts.Events.Unsubscribe(sub)

	// CloseRead cancels the context when the client goes away.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case e := <-sub.C:
			if err := wsjson.Write(ctx, conn, toEventPayload(e)); err != nil {
				return
			}
		}
	}
}

func toEventPayload(e boot.Event) eventPayload {
	p := eventPayload{
		Kind:       string(e.Kind),
		RunID:      e.RunID,
		Controller: e.Controller,
		Origin:     string(e.Origin),
		Index:      e.Index,
		Total:      e.Total,
		Timestamp:  e.Timestamp,
	}
	if e.Err != nil {
		p.Error = e.Err.Error()
	}

	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
