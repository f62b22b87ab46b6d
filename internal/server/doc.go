// Package server provides the HTTP API for the transcription service: the
// synchronous transcribe endpoint plus health and Prometheus metrics
// endpoints. Each upload is decoded to canonical audio, transcribed, run
// through the transformation pipeline, and answered in the same request.
package server
