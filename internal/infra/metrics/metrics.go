// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Chat requests by endpoint and outcome (ok/error/cancelled).",
		},
		[]string{"endpoint", "outcome"},
	)

	chatStreamChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_stream_chunks_total",
			Help: "Streamed response chunks received per endpoint.",
		},
		[]string{"endpoint"},
	)

	chatStreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_stream_duration_seconds",
			Help:    "Wall time from request start to end-of-stream.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 30, 60},
		},
		[]string{"endpoint", "outcome"},
	)

	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Document uploads by status (ok/error).",
		},
		[]string{"status"},
	)

	cleanupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_total",
			Help: "Session cleanup calls by status (ok/error).",
		},
		[]string{"status"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			chatRequestsTotal, chatStreamChunks, chatStreamDuration,
			uploadsTotal, cleanupTotal,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -------- Stream helpers --------

// ObserveStream records one finished streaming request.
func ObserveStream(endpoint, outcome string, chunks int, seconds float64) {
	chatRequestsTotal.WithLabelValues(norm(endpoint), norm(outcome)).Inc()
	chatStreamChunks.WithLabelValues(norm(endpoint)).Add(float64(chunks))
	chatStreamDuration.WithLabelValues(norm(endpoint), norm(outcome)).Observe(seconds)
}

// -------- Upload / cleanup helpers --------

func IncUpload(status string)  { uploadsTotal.WithLabelValues(norm(status)).Inc() }
func IncCleanup(status string) { cleanupTotal.WithLabelValues(norm(status)).Inc() }
