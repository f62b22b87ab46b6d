package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/joshuaboniface/remote-faster-whisper/internal/audio"
	"github.com/joshuaboniface/remote-faster-whisper/internal/transcript"
)

// ErrTranscription indicates that a model invocation failed. It is a
// per-request error: the process stays alive and keeps serving.
var ErrTranscription = errors.New("transcription failed")

// Options is the process-wide recognition configuration snapshot, loaded once
// at startup and shared read-only by all requests.
type Options struct {
	// BeamSize is the decoder beam width. Must be positive.
	BeamSize int
	// Language is the ISO language hint. Empty means auto-detect; an empty
	// string is never forwarded to the model as a literal language code.
	Language string
	// Translate selects the translate task instead of transcribe.
	Translate bool
}

// Engine is the transcribe capability: canonical audio in, ordered segments
// and recognition metadata out.
type Engine interface {
	Transcribe(ctx context.Context, a audio.CanonicalAudio, opts Options) ([]transcript.Segment, transcript.Metadata, error)
}

// Serialized wraps an Engine with a mutual-exclusion gate so at most one
// Transcribe call runs at a time. Concurrent requests queue and execute in
// turn; correctness wins over throughput because the model resource may not
// serve two invocations at once.
type Serialized struct {
	inner Engine
	mu    sync.Mutex
}

// NewSerialized wraps inner in the exclusive transcribe gate.
func NewSerialized(inner Engine) *Serialized {
	return &Serialized{inner: inner}
}

// Transcribe acquires the gate and delegates to the wrapped engine. There is
// no cancellation once the inner call starts; a waiting caller holds until
// the in-flight invocation completes.
func (s *Serialized) Transcribe(ctx context.Context, a audio.CanonicalAudio, opts Options) ([]transcript.Segment, transcript.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.Transcribe(ctx, a, opts)
}
