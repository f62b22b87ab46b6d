package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joshuaboniface/remote-faster-whisper/internal/audio"
	"github.com/joshuaboniface/remote-faster-whisper/internal/config"
	"github.com/joshuaboniface/remote-faster-whisper/internal/engine"
	"github.com/joshuaboniface/remote-faster-whisper/internal/metrics"
	"github.com/joshuaboniface/remote-faster-whisper/internal/transcript"
	"github.com/joshuaboniface/remote-faster-whisper/internal/transform"
)

// maxUploadBytes caps the multipart form held in memory before spilling to
// temporary files.
const maxUploadBytes = 64 << 20

// HTTPServer provides the transcription HTTP API
type HTTPServer struct {
	server   *http.Server
	logger   *slog.Logger
	config   *config.Config
	engine   engine.Engine
	pipeline *transform.Pipeline
	metrics  *metrics.Metrics
	opts     engine.Options

	// Server state
	startTime time.Time
	debugWG   sync.WaitGroup
}

// errorResponse is the JSON body for all non-200 API responses
type errorResponse struct {
	Message string `json:"message"`
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg *config.Config, logger *slog.Logger,
	eng engine.Engine, pipeline *transform.Pipeline, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:   logger,
		config:   cfg,
		engine:   eng,
		pipeline: pipeline,
		metrics:  m,
		opts: engine.Options{
			BeamSize:  cfg.Whisper.BeamSize,
			Language:  cfg.Whisper.Language,
			Translate: cfg.Whisper.Translate,
		},
		startTime: time.Now(),
	}

	// Create HTTP server with routes
	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Daemon.Listen, cfg.Daemon.Port),
		Handler:     mux,
		ReadTimeout: 5 * time.Minute,
		// Inference for long samples can exceed any sane fixed write timeout,
		// so responses are not deadline-bound here.
		IdleTimeout: 60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	base := strings.TrimRight(h.config.Daemon.BaseURL, "/")

	// Synchronous transcription endpoint
	transcribePath := base + "/transcribe"
	mux.HandleFunc(transcribePath, h.withMetrics(transcribePath, h.handleTranscribe))

	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.Handler())
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Create a response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		// Call the original handler
		handler(ww, r)

		// Record metrics
		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		// Record error if status code indicates an error
		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
		slog.String("base_url", h.config.Daemon.BaseURL),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server and waits for in-flight debug
// audio writes to drain
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	err := h.server.Shutdown(ctx)
	h.debugWG.Wait()

	return err
}

// handleTranscribe implements the POST {base_url}/transcribe endpoint. The
// full request lifecycle is synchronous: decode, transcribe, transform,
// respond.
func (h *HTTPServer) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"})
		return
	}

	requestID := uuid.New().String()
	logger := h.logger.With(slog.String("request_id", requestID))

	h.metrics.RecordTranscriptionRequest()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("Failed to parse multipart form", slog.String("error", err.Error()))
		h.metrics.RecordTranscriptionFailure("bad_form")
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "Request must be multipart/form-data",
		})
		return
	}

	file, header, err := r.FormFile(h.config.Daemon.FileField)
	if err != nil {
		logger.Warn("Missing audio file field",
			slog.String("field", h.config.Daemon.FileField),
		)
		h.metrics.RecordTranscriptionFailure("missing_file")
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: fmt.Sprintf("Missing file field %q in multipart form", h.config.Daemon.FileField),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read uploaded file", slog.String("error", err.Error()))
		h.metrics.RecordTranscriptionFailure("read_error")
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "Failed to read uploaded file",
		})
		return
	}

	logger.Debug("Received audio upload",
		slog.String("filename", header.Filename),
		slog.Int("bytes", len(data)),
	)

	canonical, err := audio.Canonicalize(data)
	if err != nil {
		logger.Warn("Failed to decode uploaded audio", slog.String("error", err.Error()))
		h.metrics.RecordTranscriptionFailure("invalid_audio")
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "Uploaded file is not decodable WAV audio",
		})
		return
	}

	// Only decodable uploads are persisted.
	if h.config.Daemon.DebugAudio.Enabled {
		h.saveDebugAudio(requestID, data)
	}

	segments, meta, err := h.engine.Transcribe(r.Context(), canonical, h.opts)
	if err != nil {
		logger.Error("Transcription failed", slog.String("error", err.Error()))
		h.metrics.RecordTranscriptionFailure("engine")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Message: "Transcription failed",
		})
		return
	}

	text := transcript.Assemble(segments)
	transformed, diagnostics := h.pipeline.Apply(text)

	for _, d := range diagnostics {
		logger.Debug("Applied substitution",
			slog.String("pattern", d.Pattern),
			slog.String("replacement", d.Replacement),
			slog.String("before", d.Before),
			slog.String("after", d.After),
		)
	}
	h.metrics.RecordSubstitutions(len(diagnostics))
	h.metrics.RecordTranscriptionSuccess(meta.Runtime, meta.Duration)

	logger.Info("Transcription complete",
		slog.String("language", meta.Language),
		slog.Float64("language_probability", meta.LanguageProbability),
		slog.Float64("sample_duration", meta.Duration),
		slog.Float64("runtime", meta.Runtime),
		slog.Int("segments", len(segments)),
		slog.Int("substitutions", len(diagnostics)),
	)

	writeJSON(w, http.StatusOK, transcript.Result{
		Text:                transformed,
		Language:            meta.Language,
		LanguageProbability: meta.LanguageProbability,
		SampleDuration:      meta.Duration,
		Runtime:             meta.Runtime,
	})
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"})
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":   "remote-faster-whisper",
			"engine": h.config.Engine.Type,
			"model":  h.config.Whisper.Model,
		},
	}

	writeJSON(w, http.StatusOK, health)
}

// saveDebugAudio persists the raw upload asynchronously. Failures are logged
// and counted but never affect the request outcome.
func (h *HTTPServer) saveDebugAudio(requestID string, data []byte) {
	h.debugWG.Add(1)

	go func() {
		defer h.debugWG.Done()

		// One timestamp-named subdirectory per request, holding the raw upload.
		dir := filepath.Join(h.config.Daemon.DebugAudio.Path,
			fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405Z"), requestID))
		path := filepath.Join(dir, "input.wav")

		err := writeDebugFile(dir, path, data)
		h.metrics.RecordDebugSave(err)
		if err != nil {
			h.logger.Warn("Failed to save debug audio",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return
		}

		h.logger.Debug("Saved debug audio", slog.String("path", path))
	}()
}

func writeDebugFile(dir, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
