package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	campaignTransitionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campaigns",
			Name:      "transitions_total",
			Help:      "Total number of campaign status transitions.",
		},
		[]string{"operation", "outcome"}, // e.g. operation="pause", outcome="success"
	)

	schedulerRunsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campaigns",
			Name:      "scheduler_runs_total",
			Help:      "Total number of scheduler runs.",
		},
	)

	schedulerStartedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campaigns",
			Name:      "scheduler_campaigns_started_total",
			Help:      "Total number of campaigns promoted to sending by the scheduler.",
		},
	)

	schedulerErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campaigns",
			Name:      "scheduler_errors_total",
			Help:      "Total number of per-campaign errors during scheduler runs.",
		},
	)

	retriedDeliveriesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campaigns",
			Name:      "retried_deliveries_total",
			Help:      "Total number of failed delivery attempts requeued for retry.",
		},
	)

	schedulerRunDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "campaigns",
			Name:      "scheduler_run_duration_seconds",
			Help:      "Duration of scheduler runs.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
