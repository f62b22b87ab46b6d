package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joshuaboniface/remote-faster-whisper/internal/audio"
	"github.com/joshuaboniface/remote-faster-whisper/internal/transcript"
)

func testAudio() audio.CanonicalAudio {
	return audio.CanonicalAudio{Samples: make([]float32, 8000), SampleRate: 16000}
}

func TestRemoteTranscribe(t *testing.T) {
	var receivedField string
	var receivedBytes int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("Failed to parse multipart form: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		for field, headers := range r.MultipartForm.File {
			receivedField = field
			f, err := headers[0].Open()
			if err != nil {
				t.Errorf("Failed to open upload: %v", err)
				return
			}
			defer f.Close()
			buf := make([]byte, 1<<20)
			n, _ := f.Read(buf)
			receivedBytes = n
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(transcript.Result{
			Text:                "bonjour le monde",
			Language:            "fr",
			LanguageProbability: 0.97,
			SampleDuration:      0.5,
			Runtime:             1.25,
		})
	}))
	defer srv.Close()

	remote, err := NewRemote(RemoteConfig{Endpoint: srv.URL + "/api/v0/transcribe"})
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}

	segments, meta, err := remote.Transcribe(context.Background(), testAudio(), Options{BeamSize: 5})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if receivedField != "file" {
		t.Errorf("Expected default file field %q, got %q", "file", receivedField)
	}
	if receivedBytes <= 44 {
		t.Errorf("Expected a WAV payload larger than its header, got %d bytes", receivedBytes)
	}

	if len(segments) != 1 || segments[0].Text != "bonjour le monde" {
		t.Errorf("Unexpected segments: %+v", segments)
	}
	if meta.Language != "fr" || meta.LanguageProbability != 0.97 {
		t.Errorf("Unexpected metadata: %+v", meta)
	}
	if meta.Duration != 0.5 || meta.Runtime != 1.25 {
		t.Errorf("Unexpected timing metadata: %+v", meta)
	}
}

func TestRemoteTranscribeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "model exploded"})
	}))
	defer srv.Close()

	remote, err := NewRemote(RemoteConfig{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}

	_, _, err = remote.Transcribe(context.Background(), testAudio(), Options{})
	if err == nil {
		t.Fatal("Expected error for HTTP 500 response")
	}
	if !errors.Is(err, ErrTranscription) {
		t.Errorf("Expected ErrTranscription, got %v", err)
	}
}

func TestNewRemoteRequiresEndpoint(t *testing.T) {
	if _, err := NewRemote(RemoteConfig{}); err == nil {
		t.Error("Expected error for empty endpoint")
	}
}

func TestWeightFilename(t *testing.T) {
	tests := []struct {
		model       string
		computeType string
		expected    string
	}{
		{model: "base", computeType: "", expected: "ggml-base.bin"},
		{model: "base", computeType: "f16", expected: "ggml-base.bin"},
		{model: "small", computeType: "auto", expected: "ggml-small.bin"},
		{model: "base", computeType: "q5_1", expected: "ggml-base-q5_1.bin"},
		{model: "medium", computeType: "q8_0", expected: "ggml-medium-q8_0.bin"},
	}

	for _, tt := range tests {
		got := weightFilename(tt.model, tt.computeType)
		if got != tt.expected {
			t.Errorf("weightFilename(%q, %q) = %q, expected %q", tt.model, tt.computeType, got, tt.expected)
		}
	}
}
