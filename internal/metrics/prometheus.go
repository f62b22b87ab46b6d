package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the transcription service
type Metrics struct {
	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  *prometheus.CounterVec
	TranscriptionRuntime   prometheus.Histogram
	SampleDuration         prometheus.Histogram

	// Transformation metrics
	SubstitutionsApplied prometheus.Counter

	// Debug audio persistence metrics
	DebugSaves      prometheus.Counter
	DebugSaveErrors prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		TranscriptionRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rfw_transcription_requests_total",
			Help: "Total number of transcription requests received",
		}),
		TranscriptionSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rfw_transcription_successes_total",
			Help: "Total number of successful transcriptions",
		}),
		TranscriptionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rfw_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}, []string{"kind"}),
		TranscriptionRuntime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rfw_transcription_runtime_seconds",
			Help:    "Model invocation wall-clock time",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		SampleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rfw_sample_duration_seconds",
			Help:    "Duration of uploaded audio samples",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~2 minutes
		}),
		SubstitutionsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rfw_substitutions_applied_total",
			Help: "Total number of transformation substitutions that matched",
		}),
		DebugSaves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rfw_debug_audio_saves_total",
			Help: "Total number of debug audio files persisted",
		}),
		DebugSaveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rfw_debug_audio_save_errors_total",
			Help: "Total number of failed debug audio writes",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rfw_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rfw_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rfw_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordTranscriptionRequest increments the transcription requests counter
func (m *Metrics) RecordTranscriptionRequest() {
	m.TranscriptionRequests.Inc()
}

// RecordTranscriptionSuccess records a successful transcription
func (m *Metrics) RecordTranscriptionSuccess(runtimeSeconds, sampleSeconds float64) {
	m.TranscriptionSuccesses.Inc()
	m.TranscriptionRuntime.Observe(runtimeSeconds)
	m.SampleDuration.Observe(sampleSeconds)
}

// RecordTranscriptionFailure records a failed transcription by failure kind
func (m *Metrics) RecordTranscriptionFailure(kind string) {
	m.TranscriptionFailures.WithLabelValues(kind).Inc()
}

// RecordSubstitutions adds the number of substitution rules that matched
func (m *Metrics) RecordSubstitutions(count int) {
	if count > 0 {
		m.SubstitutionsApplied.Add(float64(count))
	}
}

// RecordDebugSave records the outcome of one debug audio write
func (m *Metrics) RecordDebugSave(err error) {
	if err != nil {
		m.DebugSaveErrors.Inc()
		return
	}
	m.DebugSaves.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
