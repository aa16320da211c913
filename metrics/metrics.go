// Package metrics provides Prometheus metrics for the court queue server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Rotation metrics
var (
	// OperationsCounter counts gateway operations by name and outcome
	OperationsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtqueue_operations_total",
		Help: "Total number of session operations",
	}, []string{"op", "outcome"})

	// ErrorsCounter counts failed operations by error kind
	ErrorsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtqueue_errors_total",
		Help: "Total number of failed session operations by error kind",
	}, []string{"op", "kind"})

	// AreasGauge tracks the number of areas known to the store
	AreasGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "courtqueue_areas",
		Help: "Number of areas with a stored session",
	})

	// ResetsCounter counts periodic store resets
	ResetsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtqueue_resets_total",
		Help: "Total number of store resets",
	}, []string{"outcome"})
)

// HTTP metrics
var (
	// RequestDuration tracks API latency by route template
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "courtqueue_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	// RateLimitedCounter counts requests rejected by the rate limiter
	RateLimitedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courtqueue_http_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
)

// RecordOperation counts one gateway operation. kind is empty on success.
func RecordOperation(op, kind string) {
	if kind == "" {
		OperationsCounter.WithLabelValues(op, OutcomeOK).Inc()
		return
	}
	OperationsCounter.WithLabelValues(op, OutcomeError).Inc()
	ErrorsCounter.WithLabelValues(op, kind).Inc()
}

// RecordReset counts one reset attempt
func RecordReset(err error) {
	if err != nil {
		ResetsCounter.WithLabelValues(OutcomeError).Inc()
		return
	}
	ResetsCounter.WithLabelValues(OutcomeOK).Inc()
	AreasGauge.Set(0)
}

// ObserveRequest records one HTTP request
func ObserveRequest(route, method, status string, elapsed time.Duration) {
	RequestDuration.WithLabelValues(route, method, status).Observe(elapsed.Seconds())
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
