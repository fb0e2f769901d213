// Package metrics exposes capture device scan metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tyncan"

// Scan results used as the "result" label.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder records capture device scans on its own registry.
type Recorder struct {
	registry *prometheus.Registry
	devices  prometheus.Gauge
	scans    *prometheus.CounterVec
	duration prometheus.Histogram
	handler  http.Handler
}

// NewRecorder creates a Recorder with Go runtime and process collectors registered.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "capture_devices",
			Help:      "Number of hardware capture devices found by the last successful scan.",
		}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_scans_total",
			Help:      "Capture device scans by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capture_scan_duration_seconds",
			Help:      "Time spent listing capture devices.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	registry.MustRegister(
		r.devices,
		r.scans,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return r
}

// ObserveScan records one scan. The device gauge only moves on success so a
// transient failure does not report zero devices.
func (r *Recorder) ObserveScan(devices int, duration time.Duration, err error) {
	r.duration.Observe(duration.Seconds())
	if err != nil {
		r.scans.WithLabelValues(ResultError).Inc()
		return
	}
	r.scans.WithLabelValues(ResultOK).Inc()
	r.devices.Set(float64(devices))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return r.handler
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
