// Package metrics provides Prometheus metrics for the portal.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts applied workflow operations.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "workflow_transitions_total",
			Help:      "Workflow operations applied, by operation and resulting status",
		},
		[]string{"operation", "from", "to"},
	)

	// RejectionsTotal counts workflow operations refused with a typed error.
	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "workflow_rejections_total",
			Help:      "Workflow operations rejected, by operation and error kind",
		},
		[]string{"operation", "kind"},
	)

	// NotificationsTotal counts notification dispatch attempts.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "notifications_total",
			Help:      "Notification dispatch attempts, by event type and status",
		},
		[]string{"event_type", "status"},
	)

	// ViewIncrementFailures counts best-effort view increments that failed.
	ViewIncrementFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "view_increment_failures_total",
			Help:      "View counter increments that failed",
		},
	)

	// RequestDuration measures HTTP request handling time.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "portal",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordTransition(operation, from, to string) {
	TransitionsTotal.WithLabelValues(operation, from, to).Inc()
}

func RecordRejection(operation, kind string) {
	RejectionsTotal.WithLabelValues(operation, kind).Inc()
}

func RecordNotification(eventType, status string) {
	NotificationsTotal.WithLabelValues(eventType, status).Inc()
}
