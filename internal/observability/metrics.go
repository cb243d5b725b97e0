package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayRequests counts model exchanges by provider and outcome
	// (ok, call_error, malformed).
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reflect",
		Name:      "gateway_requests_total",
		Help:      "Model exchanges by provider and outcome.",
	}, []string{"provider", "outcome"})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reflect",
		Name:      "gateway_request_seconds",
		Help:      "Latency of model calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"provider"})

	JournalEntries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "reflect",
		Name:      "journal_entries_total",
		Help:      "Journal entries appended.",
	})

	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "reflect",
		Name:      "persist_failures_total",
		Help:      "Snapshot writes that failed.",
	})

	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reflect",
		Name:      "http_request_seconds",
		Help:      "HTTP request latency by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
