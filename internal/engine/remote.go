package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/joshuaboniface/remote-faster-whisper/internal/audio"
	"github.com/joshuaboniface/remote-faster-whisper/internal/transcript"
)

// Compile-time assertion that Remote satisfies Engine.
var _ Engine = (*Remote)(nil)

// RemoteConfig points the engine at another transcription instance.
type RemoteConfig struct {
	// Endpoint is the full transcribe URL, e.g.
	// "http://10.0.0.5:9876/api/v0/transcribe".
	Endpoint string
	// FileField is the multipart field name the remote instance expects.
	// Defaults to "file".
	FileField string
	// Timeout bounds each forwarded request. Zero means no timeout, matching
	// the run-to-completion model of the native engine.
	Timeout time.Duration
}

// Remote forwards canonical audio to another instance's transcribe endpoint
// as a 16-bit WAV multipart upload and adapts the JSON reply into segments
// and metadata. The remote side applies its own transformation rules; the
// text comes back as a single segment.
type Remote struct {
	endpoint   string
	fileField  string
	httpClient *http.Client
}

// NewRemote creates a remote engine. endpoint must be non-empty.
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("remote endpoint must not be empty")
	}

	fileField := cfg.FileField
	if fileField == "" {
		fileField = "file"
	}

	return &Remote{
		endpoint:   cfg.Endpoint,
		fileField:  fileField,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Transcribe uploads the waveform and returns the remote result. The runtime
// in the returned metadata is the remote model runtime, not the round-trip
// time.
func (r *Remote) Transcribe(ctx context.Context, a audio.CanonicalAudio, opts Options) ([]transcript.Segment, transcript.Metadata, error) {
	wav, err := audio.EncodeWAV(a)
	if err != nil {
		return nil, transcript.Metadata{}, fmt.Errorf("%w: encode wav: %v", ErrTranscription, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile(r.fileField, "audio.wav")
	if err != nil {
		return nil, transcript.Metadata{}, fmt.Errorf("%w: create form file: %v", ErrTranscription, err)
	}
	if _, err := fw.Write(wav); err != nil {
		return nil, transcript.Metadata{}, fmt.Errorf("%w: write wav data: %v", ErrTranscription, err)
	}
	if err := mw.Close(); err != nil {
		return nil, transcript.Metadata{}, fmt.Errorf("%w: close multipart writer: %v", ErrTranscription, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return nil, transcript.Metadata{}, fmt.Errorf("%w: create request: %v", ErrTranscription, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, transcript.Metadata{}, fmt.Errorf("%w: http request: %v", ErrTranscription, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transcript.Metadata{}, fmt.Errorf("%w: read response body: %v", ErrTranscription, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errPayload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &errPayload) == nil && errPayload.Message != "" {
			return nil, transcript.Metadata{}, fmt.Errorf("%w: remote returned HTTP %d: %s",
				ErrTranscription, resp.StatusCode, errPayload.Message)
		}
		return nil, transcript.Metadata{}, fmt.Errorf("%w: remote returned HTTP %d", ErrTranscription, resp.StatusCode)
	}

	var result transcript.Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, transcript.Metadata{}, fmt.Errorf("%w: parse response JSON: %v", ErrTranscription, err)
	}

	segments := []transcript.Segment{{Text: result.Text}}
	meta := transcript.Metadata{
		Language:            result.Language,
		LanguageProbability: result.LanguageProbability,
		Duration:            result.SampleDuration,
		Runtime:             result.Runtime,
	}

	return segments, meta, nil
}
