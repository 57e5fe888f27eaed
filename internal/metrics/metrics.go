// Package metrics collects Prometheus metrics for the API client and the
// recurring-charge worker.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector registers and records the toolkit's metrics.
type Collector struct {
	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	chargesPosted prometheus.Counter
	workerCycles  prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vaad_api_requests_total",
			Help: "API requests by method and HTTP status.",
		}, []string{"method", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vaad_api_request_duration_seconds",
			Help:    "API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		chargesPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vaad_worker_charges_posted_total",
			Help: "Recurring charges materialized by the worker.",
		}),
		workerCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vaad_worker_cycles_total",
			Help: "Completed worker cycles.",
		}),
	}
	reg.MustRegister(c.apiRequests, c.apiLatency, c.chargesPosted, c.workerCycles)
	return c
}

// RecordAPIRequest records one completed HTTP exchange. A transport-level
// failure with no response is recorded with status 0.
func (c *Collector) RecordAPIRequest(method string, status int, duration time.Duration) {
	c.apiRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.apiLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordChargesPosted records charges materialized in one worker cycle.
func (c *Collector) RecordChargesPosted(count int) {
	c.chargesPosted.Add(float64(count))
}

// RecordWorkerCycle records one completed worker cycle.
func (c *Collector) RecordWorkerCycle() {
	c.workerCycles.Inc()
}
