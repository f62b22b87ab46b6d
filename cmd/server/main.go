package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshuaboniface/remote-faster-whisper/internal/config"
	"github.com/joshuaboniface/remote-faster-whisper/internal/engine"
	"github.com/joshuaboniface/remote-faster-whisper/internal/metrics"
	"github.com/joshuaboniface/remote-faster-whisper/internal/server"
	"github.com/joshuaboniface/remote-faster-whisper/internal/transform"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "remote-faster-whisper"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary
	logger.Info("Configuration loaded",
		slog.String("listen", cfg.Daemon.Listen),
		slog.Int("port", cfg.Daemon.Port),
		slog.String("base_url", cfg.Daemon.BaseURL),
		slog.String("engine", cfg.Engine.Type),
		slog.String("model", cfg.Whisper.Model),
		slog.String("compute_type", cfg.Whisper.ComputeType),
		slog.Int("beam_size", cfg.Whisper.BeamSize),
		slog.String("language", cfg.Whisper.Language),
		slog.Int("transform_rules", len(cfg.Transform.Rules)),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize the recognition engine. A model that cannot be loaded is
	// fatal to startup, never a per-request failure.
	var inner engine.Engine
	switch cfg.Engine.Type {
	case "remote":
		remote, err := engine.NewRemote(engine.RemoteConfig{
			Endpoint:  cfg.Engine.Remote.Endpoint,
			FileField: cfg.Engine.Remote.FileField,
			Timeout:   cfg.Engine.Remote.GetRemoteTimeout(),
		})
		if err != nil {
			logger.Error("Failed to create remote engine", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Remote engine initialized",
			slog.String("endpoint", cfg.Engine.Remote.Endpoint),
		)
		inner = remote

	default:
		whisper, err := engine.NewWhisper(ctx, engine.WhisperConfig{
			Model:       cfg.Whisper.Model,
			Device:      cfg.Whisper.Device,
			DeviceIndex: cfg.Whisper.DeviceIndex,
			ComputeType: cfg.Whisper.ComputeType,
			CacheDir:    cfg.Whisper.ModelCacheDir,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize whisper engine", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer whisper.Close()
		inner = whisper
	}

	// At most one model invocation runs at a time; concurrent requests queue.
	eng := engine.NewSerialized(inner)

	// Compile the transformation pipeline once at startup
	pipeline := transform.NewPipeline(cfg.Transform.Rules)

	// Initialize and start the HTTP API server
	httpServer := server.NewHTTPServer(cfg, logger, eng, pipeline, appMetrics)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("address", fmt.Sprintf("%s:%d", cfg.Daemon.Listen, cfg.Daemon.Port)),
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// An in-flight transcription is allowed to finish; the timeout covers the
	// longest plausible single inference.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
