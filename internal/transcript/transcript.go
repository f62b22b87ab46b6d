package transcript

import (
	"strings"
	"time"
)

// Segment is one contiguous span of recognized text emitted by the model.
// Segments arrive in emission order; that order must be preserved.
type Segment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Metadata describes a single recognition run.
type Metadata struct {
	// Language is the ISO language code the model detected or was given.
	Language string
	// LanguageProbability is the detection confidence in [0.0, 1.0].
	LanguageProbability float64
	// Duration is the length of the input audio in seconds.
	Duration float64
	// Runtime is the model invocation wall-clock time in seconds.
	Runtime float64
}

// Result is the final response payload for a successful transcription.
type Result struct {
	Text                string  `json:"text"`
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	SampleDuration      float64 `json:"sample_duration"`
	Runtime             float64 `json:"runtime"`
}

// Assemble joins segment texts with a single space separator and trims
// leading/trailing whitespace. An empty segment list yields an empty string.
func Assemble(segments []Segment) string {
	if len(segments) == 0 {
		return ""
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, seg.Text)
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}
