// Package metrics exposes the switchd Prometheus collectors and the
// HTTP instrumentation middleware.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the switchd-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	lifecycleOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "switchd",
			Subsystem: "lifecycle",
			Name:      "ops_total",
			Help:      "Total number of lifecycle operations dispatched.",
		},
		[]string{"op", "outcome"},
	)

	lifecycleOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "switchd",
			Subsystem: "lifecycle",
			Name:      "op_duration_seconds",
			Help:      "Duration of lifecycle operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"op"},
	)

	warmInitCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "switchd",
			Subsystem: "warm_init",
			Name:      "cycles_total",
			Help:      "Warm-init cycles reaching a terminal state.",
		},
		[]string{"mode", "outcome"},
	)

	warmInitOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "switchd",
			Subsystem: "warm_init",
			Name:      "open_cycles",
			Help:      "Warm-init cycles currently open across all devices.",
		},
	)

	devicesAdded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "switchd",
			Subsystem: "devices",
			Name:      "added",
			Help:      "Devices currently present in the inventory.",
		},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "switchd",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "switchd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "switchd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		lifecycleOps,
		lifecycleOpDuration,
		warmInitCycles,
		warmInitOpen,
		devicesAdded,
		httpInFlight,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordLifecycleOp records one dispatched lifecycle operation.
func RecordLifecycleOp(op, outcome string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	lifecycleOps.WithLabelValues(op, outcome).Inc()
	lifecycleOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordWarmInitCycle records a warm-init cycle reaching a terminal
// state: "completed" or "aborted".
func RecordWarmInitCycle(mode, outcome string) {
	warmInitCycles.WithLabelValues(mode, outcome).Inc()
}

// SetOpenWarmInitCycles sets the open-cycle gauge.
func SetOpenWarmInitCycles(n int) {
	warmInitOpen.Set(float64(n))
}

// SetDevicesAdded sets the inventory gauge.
func SetDevicesAdded(n int) {
	devicesAdded.Set(float64(n))
}

// InstrumentHandler wraps the handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses device ids out of API paths so the path
// label stays low-cardinality: /v1/devices/3/warm-init becomes
// /v1/devices/:device/warm-init.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "v1" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/v1"
	}
	if parts[1] != "devices" || len(parts) == 2 {
		return "/v1/" + parts[1]
	}
	if len(parts) == 3 {
		return "/v1/devices/:device"
	}
	return "/v1/devices/:device/" + strings.Join(parts[3:], "/")
}
