// Package metrics holds the Prometheus collectors of the gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline outcome labels.
const (
	OutcomeSuccess               = "success"
	OutcomeUnauthorized          = "unauthorized"
	OutcomeProbeFailed           = "probe_failed"
	OutcomeInvalidDuration       = "invalid_duration"
	OutcomeInsufficientFunds     = "insufficient_funds"
	OutcomeDownstreamTimeout     = "downstream_timeout"
	OutcomeDownstreamUnavailable = "downstream_unavailable"
	OutcomeInternal              = "internal"
)

// Metrics contains all collectors. Each instance owns its registry, so tests
// can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	PipelineOutcomes *prometheus.CounterVec
	AudioSeconds     prometheus.Histogram
	CreditsCharged   prometheus.Counter
	CleanupFailures  prometheus.Counter

	// Transcription metrics
	TranscriptionDuration prometheus.Histogram

	// Auth metrics
	TokenRotations *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicegate_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		PipelineOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_pipeline_requests_total",
			Help: "Processed recordings by outcome",
		}, []string{"outcome"}),
		AudioSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicegate_audio_duration_seconds",
			Help:    "Measured duration of submitted recordings",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		CreditsCharged: f.NewCounter(prometheus.CounterOpts{
			Name: "voicegate_credits_charged_total",
			Help: "Credits debited from user balances",
		}),
		CleanupFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "voicegate_upload_cleanup_failures_total",
			Help: "Staged uploads that could not be deleted",
		}),

		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicegate_transcription_duration_seconds",
			Help:    "Time spent waiting for the transcription engine",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),

		TokenRotations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicegate_refresh_rotations_total",
			Help: "Refresh token rotation attempts by result",
		}, []string{"result"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the exposition format for this instance.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
