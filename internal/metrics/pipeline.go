package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation pipeline metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Generative model calls by input kind and outcome",
		},
		[]string{"kind", "status"}, // kind: text / image
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_request_duration_seconds",
			Help:      "Generative model call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"kind"},
	)

	MediaDeliveryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_delivery_total",
			Help:      "Image delivery attempts to the generative model",
		},
		[]string{"path", "status"}, // path: url / inline
	)

	IntentOutcomeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_outcome_total",
			Help:      "Intent extraction outcomes",
		},
		[]string{"outcome"}, // ok / empty / malformed / unsupported_category / error
	)

	TermSearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "term_search_total",
			Help:      "Per-term search outcomes inside one aggregation",
		},
		[]string{"category", "status"}, // status: ok / embed_error / search_error
	)

	RecommendedItems = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommended_items",
			Help:      "Distinct items returned per aggregation",
			Buckets:   []float64{0, 1, 3, 6, 10, 15, 20, 30},
		},
		[]string{"category"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers generation, delivery and aggregation metrics.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		GenerationRequestsTotal,
		GenerationRequestDuration,
		MediaDeliveryTotal,
		IntentOutcomeTotal,
		TermSearchTotal,
		RecommendedItems,
	)
	pipelineMetricsRegistered = true
}
