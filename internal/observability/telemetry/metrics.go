package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	IntentsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_intents_created_total",
		Help: "Total payment intents created",
	})

	IntentsDeduplicatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_intents_deduplicated_total",
		Help: "Create-intent calls answered from an idempotency key match",
	})

	ConfirmationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_confirmations_total",
		Help: "Confirmation outcomes by status",
	}, []string{"status"})

	ConfirmationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_confirmation_latency_seconds",
		Help:    "Latency of processor confirmation lookups",
		Buckets: prometheus.DefBuckets,
	})

	// Infrastructure metrics
	ProcessorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_processor_requests_total",
		Help: "Requests to the payment processor",
	}, []string{"operation", "result"})
)
