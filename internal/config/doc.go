// Package config provides configuration loading and validation for the
// transcription service. Configuration is YAML with explicit typed sections;
// unknown keys and malformed values are rejected at startup rather than
// silently defaulted at use-site.
package config
