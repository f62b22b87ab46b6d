// Package engine owns the speech-recognition model and exposes it as a
// single serialized transcribe capability. The native engine drives the
// whisper.cpp bindings against a locally cached model; the remote engine
// forwards audio to another instance's HTTP API. Both are wrapped in a
// mutual-exclusion gate because the underlying model resource is not
// reentrant.
package engine
