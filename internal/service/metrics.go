package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	approvalTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_transitions_total",
			Help: "Approval state transitions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	outboxDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_dispatch_total",
			Help: "Outbox task dispatch attempts by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	emailTriggerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "email_trigger_duration_seconds",
			Help:    "Latency of the downstream campaign email trigger",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)
