package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tutor"

var (
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_requests_total",
		Help:      "Chat requests by entry point and outcome.",
	}, []string{"entry", "outcome"})

	RetrievedChunks = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "retrieved_chunks",
		Help:      "Chunks returned per retrieval.",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
	})

	CompletionSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "completion_duration_seconds",
		Help:      "Completion provider latency including retries.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
	}, []string{"provider"})

	DurableFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conversation_durable_fallbacks_total",
		Help:      "Conversation store operations served by the in-process cache after the durable store failed.",
	}, []string{"op"})

	AdmissionRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admission_rejections_total",
		Help:      "Requests rejected by the per-origin sliding window.",
	})
)
