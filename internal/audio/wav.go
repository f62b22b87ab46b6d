package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// EncodeWAV wraps a canonical waveform in a RIFF/WAV container as 16-bit
// mono PCM. Samples outside [-1.0, 1.0] are clipped.
func EncodeWAV(audio CanonicalAudio) ([]byte, error) {
	if len(audio.Samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}

	if audio.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", audio.SampleRate)
	}

	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	dataSize := uint32(len(audio.Samples) * 2)

	pcm := make([]int16, len(audio.Samples))
	for i, s := range audio.Samples {
		switch {
		case s >= 1.0:
			pcm[i] = 32767
		case s <= -1.0:
			pcm[i] = -32768
		default:
			pcm[i] = int16(s * 32768.0)
		}
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(audio.SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(audio.SampleRate*numChannels*bitsPerSample/8))
	binary.Write(buf, binary.LittleEndian, uint16(numChannels*bitsPerSample/8))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	if err := binary.Write(buf, binary.LittleEndian, pcm); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	return buf.Bytes(), nil
}
