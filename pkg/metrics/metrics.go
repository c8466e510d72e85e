// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MessagesTotal tracks messages persisted, by sender role.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages sent",
		},
		[]string{"role"},
	)

	// MessagesMarkedRead tracks read-state transitions applied locally.
	MessagesMarkedRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_marked_read_total",
			Help: "Total messages marked as read",
		},
	)

	// NotificationsTotal tracks outbound notifications by kind and outcome.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Outbound notifications by outcome",
		},
		[]string{"kind", "status"},
	)

	// ConversationsBuilt tracks the size of aggregated conversation lists.
	ConversationsBuilt = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversations_built",
			Help:    "Conversations produced per aggregation pass",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	// StoreOpDuration tracks document store operation duration.
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_op_duration_seconds",
			Help:    "Document store operation duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"op"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordNotification records one notification outcome. kind is the
// notification variant, status one of sent, failed, skipped.
func RecordNotification(kind, status string) {
	NotificationsTotal.WithLabelValues(kind, status).Inc()
}

// ObserveStoreOp records the duration of a store operation started at start.
func ObserveStoreOp(op string, start time.Time) {
	StoreOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
