// Package metrics exposes process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CompletionRequests counts outbound completion calls by provider and outcome.
	CompletionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gaslightgpt",
		Name:      "completion_requests_total",
		Help:      "Completion calls issued to upstream providers.",
	}, []string{"provider", "status"})

	// CompletionDuration tracks upstream completion latency.
	CompletionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gaslightgpt",
		Name:      "completion_request_duration_seconds",
		Help:      "Latency of upstream completion calls.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"provider"})

	// StoreWriteFailures counts conversation persistence failures.
	StoreWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gaslightgpt",
		Name:      "store_write_failures_total",
		Help:      "Conversation store writes that reported failure.",
	})
)
