// This file contains the native Engine implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/joshuaboniface/remote-faster-whisper/internal/audio"
	"github.com/joshuaboniface/remote-faster-whisper/internal/transcript"
)

// Compile-time assertion that Whisper satisfies Engine.
var _ Engine = (*Whisper)(nil)

// WhisperConfig selects the model weights loaded at startup.
type WhisperConfig struct {
	// Model is the whisper model name (e.g. "base", "small", "medium").
	Model string
	// Device is the compute device target ("auto", "cpu", "gpu"). whisper.cpp
	// selects its backend at build time; the value is validated and logged.
	Device string
	// DeviceIndex selects the device when multiple are present.
	DeviceIndex int
	// ComputeType is the numeric precision / quantization of the weights
	// (e.g. "f16", "q5_1", "q8_0"). It selects the ggml weight file variant.
	ComputeType string
	// CacheDir is the directory model weights are downloaded into and loaded
	// from. Created on first use.
	CacheDir string
}

// Whisper is the native model adapter. The model is loaded exactly once at
// construction; a load failure is fatal to process startup, never per
// request. Transcribe must be serialized by the caller (see Serialized).
type Whisper struct {
	model  whisperlib.Model
	logger *slog.Logger
}

// NewWhisper ensures the configured model weights are present in the cache
// directory (downloading them if absent) and loads the model. This takes
// seconds and happens once per process.
func NewWhisper(ctx context.Context, cfg WhisperConfig, logger *slog.Logger) (*Whisper, error) {
	modelPath, err := EnsureModel(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model weights: %w", err)
	}

	logger.Info("Loading whisper model",
		slog.String("model", cfg.Model),
		slog.String("path", modelPath),
		slog.String("device", cfg.Device),
		slog.Int("device_index", cfg.DeviceIndex),
		slog.String("compute_type", cfg.ComputeType),
	)

	start := time.Now()
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %q: %w", modelPath, err)
	}

	logger.Info("Whisper model loaded",
		slog.Duration("load_time", time.Since(start)),
	)

	return &Whisper{model: model, logger: logger}, nil
}

// Close releases the loaded model.
func (w *Whisper) Close() error {
	if w.model != nil {
		return w.model.Close()
	}
	return nil
}

// Transcribe runs one inference over the canonical waveform. The reported
// runtime covers only this invocation, not upload parsing or decoding.
func (w *Whisper) Transcribe(_ context.Context, a audio.CanonicalAudio, opts Options) ([]transcript.Segment, transcript.Metadata, error) {
	start := time.Now()

	wctx, err := w.model.NewContext()
	if err != nil {
		return nil, transcript.Metadata{}, fmt.Errorf("%w: create context: %v", ErrTranscription, err)
	}

	lang := opts.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		w.logger.Warn("Failed to set language, using model default",
			slog.String("language", lang),
			slog.String("error", err.Error()),
		)
	}

	wctx.SetTranslate(opts.Translate)
	if opts.BeamSize > 0 {
		wctx.SetBeamSize(opts.BeamSize)
	}

	if err := wctx.Process(a.Samples, nil, nil, nil); err != nil {
		return nil, transcript.Metadata{}, fmt.Errorf("%w: process audio: %v", ErrTranscription, err)
	}

	var segments []transcript.Segment
	var probSum float64
	var tokenCount int

	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, transcript.Metadata{}, fmt.Errorf("%w: read segment: %v", ErrTranscription, err)
		}

		segments = append(segments, transcript.Segment{
			Text:  seg.Text,
			Start: seg.Start,
			End:   seg.End,
		})

		for _, tok := range seg.Tokens {
			probSum += float64(tok.P)
			tokenCount++
		}
	}

	meta := transcript.Metadata{
		Duration: a.Duration(),
		Runtime:  time.Since(start).Seconds(),
	}

	if opts.Language != "" {
		// Language was pinned by configuration, not detected.
		meta.Language = opts.Language
		meta.LanguageProbability = 1.0
	} else {
		meta.Language = wctx.DetectedLanguage()
		if meta.Language == "" {
			meta.Language = wctx.Language()
		}
		// The bindings expose no language-detection score; the mean decoded
		// token probability serves as the confidence value.
		if tokenCount > 0 {
			meta.LanguageProbability = probSum / float64(tokenCount)
		}
	}

	return segments, meta, nil
}
