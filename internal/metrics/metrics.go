package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeSucceeded  = "succeeded"
	OutcomeNotAgreed  = "not_agreed"
	OutcomeIncomplete = "incomplete"
	OutcomeFailed     = "persistence_failed"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_submissions_total",
			Help: "Submission attempts by outcome",
		},
		[]string{"outcome"},
	)

	ApplicationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_applications_created_total",
			Help: "Stored applications by payment option and discount",
		},
		[]string{"payment_option", "discounted"},
	)

	InsertDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "registration_insert_duration_seconds",
			Help:    "Time spent writing an application to the document store",
			Buckets: prometheus.DefBuckets,
		},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_notifications_failed_total",
			Help: "Notification deliveries that failed per channel",
		},
		[]string{"channel"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_uploads_total",
			Help: "Supporting document uploads by result",
		},
		[]string{"result"},
	)
)
