package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-audio/wav"
)

// SampleRate is the canonical sample rate expected by the recognition engine.
const SampleRate = 16000

// wavFormatPCM is the WAV audio format tag for integer PCM data.
const wavFormatPCM = 1

// ErrInvalidAudio indicates that an upload could not be decoded as audio.
// Callers should treat it as a client error, not a service failure.
var ErrInvalidAudio = errors.New("invalid audio data")

// CanonicalAudio is an immutable decoded waveform: mono float32 samples at
// SampleRate Hz. It is produced once per request and consumed exactly once.
type CanonicalAudio struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the waveform length in seconds.
func (c CanonicalAudio) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Canonicalize decodes a WAV byte stream into a CanonicalAudio value.
// Any PCM bit depth (8/16/24/32), sample rate, and channel count is accepted;
// multi-channel audio is down-mixed by averaging and the result is resampled
// to SampleRate. All decode failures wrap ErrInvalidAudio.
func Canonicalize(data []byte) (CanonicalAudio, error) {
	if len(data) == 0 {
		return CanonicalAudio{}, fmt.Errorf("%w: empty upload", ErrInvalidAudio)
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return CanonicalAudio{}, fmt.Errorf("%w: not a valid WAV file", ErrInvalidAudio)
	}

	if decoder.WavAudioFormat != wavFormatPCM {
		return CanonicalAudio{}, fmt.Errorf("%w: unsupported WAV audio format %d (only PCM is supported)",
			ErrInvalidAudio, decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return CanonicalAudio{}, fmt.Errorf("%w: failed to decode PCM stream: %v", ErrInvalidAudio, err)
	}

	if buf == nil || len(buf.Data) == 0 {
		return CanonicalAudio{}, fmt.Errorf("%w: no audio samples found", ErrInvalidAudio)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}

	sourceRate := buf.Format.SampleRate
	if sourceRate <= 0 {
		return CanonicalAudio{}, fmt.Errorf("%w: invalid sample rate %d", ErrInvalidAudio, sourceRate)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}

	mono, err := toFloat32Mono(buf.Data, channels, bitDepth)
	if err != nil {
		return CanonicalAudio{}, err
	}

	return CanonicalAudio{
		Samples:    resample(mono, sourceRate, SampleRate),
		SampleRate: SampleRate,
	}, nil
}

// toFloat32Mono normalizes interleaved integer PCM samples to [-1.0, 1.0]
// float32 and down-mixes all channels by averaging each frame.
func toFloat32Mono(data []int, channels, bitDepth int) ([]float32, error) {
	var scale float64
	var offset float64

	switch bitDepth {
	case 8:
		// 8-bit WAV samples are unsigned, centered on 128.
		scale = 128.0
		offset = -128.0
	case 16:
		scale = 32768.0
	case 24:
		scale = 8388608.0
	case 32:
		scale = 2147483648.0
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidAudio, bitDepth)
	}

	frames := len(data) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += (float64(data[i*channels+ch]) + offset) / scale
		}
		mono[i] = float32(sum / float64(channels))
	}

	return mono, nil
}

// resample converts a mono waveform from one sample rate to another using
// linear interpolation. When the rates match the input is returned unchanged.
func resample(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}

	outLen := int(float64(len(samples)) * float64(toRate) / float64(fromRate))
	if outLen == 0 {
		return nil
	}

	out := make([]float32, outLen)
	ratio := float64(fromRate) / float64(toRate)

	for i := 0; i < outLen; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		if srcIdx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}

		s0 := float64(samples[srcIdx])
		s1 := float64(samples[srcIdx+1])
		out[i] = float32(s0 + frac*(s1-s0))
	}

	return out
}
