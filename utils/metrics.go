package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AvailabilityLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorly_availability_lookups_total",
			Help: "Availability lookups by kind and result.",
		},
		[]string{"kind", "result"},
	)

	PaymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorly_payment_transitions_total",
			Help: "Payment session state transitions.",
		},
		[]string{"from", "to"},
	)

	PaymentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorly_payment_failures_total",
			Help: "Failed payment attempts by error kind.",
		},
		[]string{"kind"},
	)

	BookingDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorly_booking_decisions_total",
			Help: "Approval decisions recorded on bookings.",
		},
		[]string{"decision"},
	)

	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorly_tasks_processed_total",
			Help: "Background tasks handled by the worker.",
		},
		[]string{"type", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorly_http_requests_total",
			Help: "HTTP requests served.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutorly_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordTask counts one processed task.
func RecordTask(taskType string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	TasksProcessed.WithLabelValues(taskType, status).Inc()
}
