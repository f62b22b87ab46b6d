// Package audio decodes uploaded audio into the canonical waveform the
// recognition engine expects: mono float32 samples at 16 kHz, normalized to
// [-1.0, 1.0], independent of the input container's rate, channel count, and
// bit depth.
package audio
