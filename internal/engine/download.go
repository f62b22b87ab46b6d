package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// weightsBaseURL is where ggml model weights are fetched from when the cache
// directory does not already hold them.
const weightsBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// EnsureModel returns the path to the configured model weights inside the
// cache directory, downloading them first if they are not present. The cache
// directory is created on first use and reused thereafter.
func EnsureModel(ctx context.Context, cfg WhisperConfig, logger *slog.Logger) (string, error) {
	filename := weightFilename(cfg.Model, cfg.ComputeType)
	destPath := filepath.Join(cfg.CacheDir, filename)

	if _, err := os.Stat(destPath); err == nil {
		logger.Debug("Model weights found in cache", slog.String("path", destPath))
		return destPath, nil
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory %s: %w", cfg.CacheDir, err)
	}

	url := fmt.Sprintf("%s/%s", weightsBaseURL, filename)
	logger.Info("Downloading model weights",
		slog.String("model", cfg.Model),
		slog.String("url", url),
		slog.String("dest", destPath),
	)

	start := time.Now()
	if err := downloadFile(ctx, url, destPath); err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}

	logger.Info("Model weights downloaded",
		slog.String("path", destPath),
		slog.Duration("elapsed", time.Since(start)),
	)

	return destPath, nil
}

// weightFilename maps a model name and compute type to the ggml weight file
// naming scheme ("ggml-base.bin", "ggml-base-q5_1.bin", ...). Full-precision
// compute types select the unquantized file.
func weightFilename(model, computeType string) string {
	switch computeType {
	case "", "auto", "default", "f16", "float16", "f32", "float32":
		return fmt.Sprintf("ggml-%s.bin", model)
	default:
		return fmt.Sprintf("ggml-%s-%s.bin", model, computeType)
	}
}

// downloadFile fetches url into destPath via a temporary file so a partial
// download never masquerades as valid weights.
func downloadFile(ctx context.Context, url, destPath string) error {
	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to create request: %w", err)
	}

	// No client timeout: weight files are large and download once.
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Remove(tmpPath)
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
