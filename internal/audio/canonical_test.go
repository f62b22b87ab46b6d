package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// encodeWAV wraps interleaved 16-bit PCM samples in a RIFF/WAV container for
// use as test input.
func encodeWAV(t *testing.T, samples []int16, sampleRate, channels int) []byte {
	t.Helper()

	dataSize := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	write := func(v interface{}) {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("failed to write WAV field: %v", err)
		}
	}

	buf.WriteString("RIFF")
	write(uint32(36 + dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	write(uint32(16))
	write(uint16(1)) // PCM
	write(uint16(channels))
	write(uint32(sampleRate))
	write(uint32(sampleRate * channels * 2))
	write(uint16(channels * 2))
	write(uint16(16))
	buf.WriteString("data")
	write(uint32(dataSize))
	write(samples)

	return buf.Bytes()
}

// sineWave generates a mono sine wave of the given frequency and duration.
func sineWave(sampleRate int, freq, seconds float64) []int16 {
	n := int(float64(sampleRate) * seconds)
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		ts := float64(i) / float64(sampleRate)
		samples[i] = int16(16383.0 * math.Sin(2*math.Pi*freq*ts))
	}
	return samples
}

func TestCanonicalizeMono16k(t *testing.T) {
	samples := sineWave(16000, 440.0, 0.25)
	data := encodeWAV(t, samples, 16000, 1)

	audio, err := Canonicalize(data)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}

	if audio.SampleRate != SampleRate {
		t.Errorf("Expected sample rate %d, got %d", SampleRate, audio.SampleRate)
	}

	if len(audio.Samples) != len(samples) {
		t.Errorf("Expected %d samples, got %d", len(samples), len(audio.Samples))
	}

	if d := audio.Duration(); math.Abs(d-0.25) > 0.001 {
		t.Errorf("Expected duration 0.25s, got %.4f", d)
	}

	// Spot-check normalization on a known sample.
	expected := float32(samples[100]) / 32768.0
	if math.Abs(float64(audio.Samples[100]-expected)) > 1e-6 {
		t.Errorf("Sample 100: expected %f, got %f", expected, audio.Samples[100])
	}
}

func TestCanonicalizeResamples(t *testing.T) {
	tests := []struct {
		name       string
		sourceRate int
	}{
		{name: "downsample from 44.1kHz", sourceRate: 44100},
		{name: "downsample from 48kHz", sourceRate: 48000},
		{name: "upsample from 8kHz", sourceRate: 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := sineWave(tt.sourceRate, 440.0, 0.5)
			data := encodeWAV(t, samples, tt.sourceRate, 1)

			audio, err := Canonicalize(data)
			if err != nil {
				t.Fatalf("Canonicalize failed: %v", err)
			}

			if audio.SampleRate != SampleRate {
				t.Errorf("Expected sample rate %d, got %d", SampleRate, audio.SampleRate)
			}

			// Duration must survive resampling within a millisecond.
			if d := audio.Duration(); math.Abs(d-0.5) > 0.001 {
				t.Errorf("Expected duration 0.5s, got %.4f", d)
			}
		})
	}
}

func TestCanonicalizeDownmixesStereo(t *testing.T) {
	// Interleave two identical channels; the mono mix must match either one.
	mono := sineWave(16000, 220.0, 0.1)
	stereo := make([]int16, 0, len(mono)*2)
	for _, s := range mono {
		stereo = append(stereo, s, s)
	}
	data := encodeWAV(t, stereo, 16000, 2)

	audio, err := Canonicalize(data)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}

	if len(audio.Samples) != len(mono) {
		t.Fatalf("Expected %d mono samples, got %d", len(mono), len(audio.Samples))
	}

	for i := range mono {
		expected := float32(mono[i]) / 32768.0
		if math.Abs(float64(audio.Samples[i]-expected)) > 1e-5 {
			t.Fatalf("Sample %d: expected %f, got %f", i, expected, audio.Samples[i])
		}
	}
}

func TestCanonicalizeInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty upload", data: nil},
		{name: "garbage bytes", data: []byte("this is not audio at all")},
		{name: "truncated header", data: []byte("RIFF\x00\x00\x00\x00WAVE")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonicalize(tt.data)
			if err == nil {
				t.Fatal("Expected error for invalid input")
			}
			if !errors.Is(err, ErrInvalidAudio) {
				t.Errorf("Expected ErrInvalidAudio, got %v", err)
			}
		})
	}
}
