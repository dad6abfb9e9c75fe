// Package telemetry provides the telemetry controller: an owned Prometheus
// registry carrying process collectors plus boot metrics, exposed through an
// HTTP handler the admin controller mounts at /metrics. The registry is an
// explicit object, never the library's ambient default.
package telemetry

import (
	"context"
	"net/http"
	"sync"

	"github.com/germanamz/overture/pkg/boot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controller owns the process's Prometheus registry and the boot metrics.
// The registry exists from construction so handlers can be mounted before
// initialization; collectors and gauges are registered by Initialize.
type Controller struct {
	namespace string
	registry  *prometheus.Registry

	mu          sync.RWMutex
	initialized bool

	registered   prometheus.Gauge
	bootDuration prometheus.Gauge
	initDuration *prometheus.GaugeVec
	up           *prometheus.GaugeVec
}

// New creates a Controller whose metrics live under the given namespace.
// An empty namespace defaults to "overture".
func New(namespace string) *Controller {
	if namespace == "" {
		namespace = "overture"
	}

	return &Controller{
		namespace: namespace,
		registry:  prometheus.NewRegistry(),
	}
}

// Initialize registers the Go and process collectors plus the boot gauges.
// The sequencer's exactly-once contract guards the MustRegister calls.
func (c *Controller) Initialize(context.Context) error {
	registered := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Subsystem: "boot",
		Name:      "controllers_registered",
		Help:      "Controllers registered by the boot sequence.",
	})
	bootDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Subsystem: "boot",
		Name:      "duration_seconds",
		Help:      "Total boot run duration in seconds.",
	})
	initDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Subsystem: "boot",
		Name:      "controller_init_duration_seconds",
		Help:      "Per-controller initialization duration in seconds.",
	}, []string{"controller"})
	up := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Subsystem: "boot",
		Name:      "controller_up",
		Help:      "1 when the controller initialized and registered, 0 otherwise.",
	}, []string{"controller"})

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		registered,
		bootDuration,
		initDuration,
		up,
	)

	c.mu.Lock()
	c.registered = registered
	c.bootDuration = bootDuration
	c.initDuration = initDuration
	c.up = up
	c.initialized = true
	c.mu.Unlock()

	return nil
}

// Initialized reports whether the registry has been built.
func (c *Controller) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.initialized
}

// Registry returns the owned Prometheus registry so application code can
// register its own collectors.
func (c *Controller) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the /metrics scrape handler for the owned registry.
func (c *Controller) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveBoot records a finished boot run. Calling it before initialization
// is a no-op.
func (c *Controller) ObserveBoot(report boot.Report) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.initialized {
		return
	}

	c.registered.Set(float64(report.Ready()))
	c.bootDuration.Set(report.Duration.Seconds())

	for _, res := range report.Results {
		if res.Status == boot.StatusSkipped {
			continue
		}

		c.initDuration.WithLabelValues(res.Controller).Set(res.Duration.Seconds())

		v := 0.0
		if res.Status == boot.StatusReady {
			v = 1
		}
		c.up.WithLabelValues(res.Controller).Set(v)
	}
}
