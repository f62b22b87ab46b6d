// Package transcript defines the recognition result types shared between the
// engine and the HTTP layer, and assembles model-emitted segments into a
// single transcript string.
package transcript
