package logger

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "ohlcv"

var (
	// RequestDuration is labeled by method, mux route template and status
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// ErrorsTotal counts failures by component ("api", "cli", "pipeline") and kind
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"component", "kind"},
	)
)

// ObserveRequest records one served HTTP request
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	RequestDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
	RequestTotal.WithLabelValues(method, route, code).Inc()
}

// CountError records one failure
func CountError(component, kind string) {
	ErrorsTotal.WithLabelValues(component, kind).Inc()
}
