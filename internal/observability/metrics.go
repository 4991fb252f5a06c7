package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts remote API calls by operation and outcome.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doggodiary_api_requests_total",
		Help: "Total number of remote API requests by operation and status",
	}, []string{"operation", "status"})

	// APIRequestLatency records remote API call latency by operation.
	APIRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "doggodiary_api_request_latency_seconds",
		Help:    "Remote API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// TempUploadFailures counts failed temporary uploads by kind.
	TempUploadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doggodiary_temp_upload_failures_total",
		Help: "Total number of failed temporary uploads by kind",
	}, []string{"kind"})

	// SessionTransitions counts session state transitions by target state.
	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doggodiary_session_transitions_total",
		Help: "Total number of session state transitions by target state",
	}, []string{"to"})

	// PreviewsReleased counts preview files released.
	PreviewsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doggodiary_previews_released_total",
		Help: "Total number of preview handles released",
	})
)

// APIMetrics records request metrics for the remote API client.
type APIMetrics struct{}

// NewAPIMetrics returns a new APIMetrics instance.
func NewAPIMetrics() *APIMetrics {
	return &APIMetrics{}
}

// ObserveRequest records the outcome and latency of one API call.
func (*APIMetrics) ObserveRequest(operation, status string, start time.Time) {
	APIRequestsTotal.WithLabelValues(operation, status).Inc()
	APIRequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// TrackRequest returns a function that records the request when called
// (e.g. defer).
func (m *APIMetrics) TrackRequest(operation string, status *string) func() {
	start := time.Now()
	return func() {
		s := "ok"
		if status != nil {
			s = *status
		}
		m.ObserveRequest(operation, s, start)
	}
}

// RecordSessionTransition increments the transition counter for the
// target state.
func RecordSessionTransition(to string) {
	SessionTransitions.WithLabelValues(to).Inc()
}
