package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics records request-level metadata for the HTTP surface.
type APIMetrics struct {
	requestDuration *prometheus.HistogramVec
	authFailures    *prometheus.CounterVec
	docsProcessed   *prometheus.CounterVec
}

// NewAPIMetrics registers the API metrics on the provided registerer.
func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	if reg == nil {
		return &APIMetrics{}
	}
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
	authFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_failures_total",
		Help: "Rejected requests by the authorization pipeline.",
	}, []string{"reason"})
	docsProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_processed_total",
		Help: "Documents accepted by the upload pipeline.",
	}, []string{"outcome"})
	reg.MustRegister(requestDuration, authFailures, docsProcessed)
	return &APIMetrics{
		requestDuration: requestDuration,
		authFailures:    authFailures,
		docsProcessed:   docsProcessed,
	}
}

// ObserveRequest records the duration of a finished request.
func (m *APIMetrics) ObserveRequest(method, status string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(normalizeLabel(method), normalizeLabel(status)).Observe(duration.Seconds())
}

// IncAuthFailure increments the auth rejection counter for the given reason.
func (m *APIMetrics) IncAuthFailure(reason string) {
	if m == nil || m.authFailures == nil {
		return
	}
	m.authFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncDocumentProcessed increments the processed-documents counter.
func (m *APIMetrics) IncDocumentProcessed(outcome string) {
	if m == nil || m.docsProcessed == nil {
		return
	}
	m.docsProcessed.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return strings.ReplaceAll(trimmed, " ", "_")
}
