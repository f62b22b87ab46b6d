package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joshuaboniface/remote-faster-whisper/internal/transform"
)

// Config represents the complete service configuration
type Config struct {
	Daemon    DaemonConfig    `yaml:"daemon"`
	Engine    EngineConfig    `yaml:"engine"`
	Whisper   WhisperConfig   `yaml:"whisper"`
	Transform TransformConfig `yaml:"transform"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DaemonConfig contains the HTTP listener configuration
type DaemonConfig struct {
	Listen     string           `yaml:"listen"`
	Port       int              `yaml:"port"`
	BaseURL    string           `yaml:"base_url"`
	FileField  string           `yaml:"file_field"`
	DebugAudio DebugAudioConfig `yaml:"debug_audio"`
}

// DebugAudioConfig controls best-effort persistence of uploaded audio
type DebugAudioConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EngineConfig selects which recognition engine serves requests
type EngineConfig struct {
	Type   string       `yaml:"type"` // "native" or "remote"
	Remote RemoteConfig `yaml:"remote"`
}

// RemoteConfig contains remote engine configuration
type RemoteConfig struct {
	Endpoint  string `yaml:"endpoint"`
	FileField string `yaml:"file_field"`
	Timeout   int    `yaml:"timeout"` // seconds, 0 = no timeout
}

// WhisperConfig contains model selection and recognition parameters
type WhisperConfig struct {
	Model         string `yaml:"model"`
	Device        string `yaml:"device"`
	DeviceIndex   int    `yaml:"device_index"`
	ComputeType   string `yaml:"compute_type"`
	BeamSize      int    `yaml:"beam_size"`
	Translate     bool   `yaml:"translate"`
	Language      string `yaml:"language"`
	ModelCacheDir string `yaml:"model_cache_dir"`
}

// TransformConfig carries the ordered transformation rule list
type TransformConfig struct {
	Rules []transform.Rule `yaml:"rules"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads, defaults, and validates the configuration file. Unknown keys
// are an error so typos surface at startup instead of silently defaulting.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyDefaults fills in the documented defaults for unset fields
func (c *Config) applyDefaults() {
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = "127.0.0.1"
	}
	if c.Daemon.Port == 0 {
		c.Daemon.Port = 9876
	}
	if c.Daemon.BaseURL == "" {
		c.Daemon.BaseURL = "/api/v0"
	}
	if c.Daemon.FileField == "" {
		c.Daemon.FileField = "file"
	}

	if c.Engine.Type == "" {
		c.Engine.Type = "native"
	}
	if c.Engine.Remote.FileField == "" {
		c.Engine.Remote.FileField = "file"
	}

	if c.Whisper.Model == "" {
		c.Whisper.Model = "base"
	}
	if c.Whisper.Device == "" {
		c.Whisper.Device = "auto"
	}
	if c.Whisper.ComputeType == "" {
		c.Whisper.ComputeType = "f16"
	}
	if c.Whisper.BeamSize == 0 {
		c.Whisper.BeamSize = 5
	}
	if c.Whisper.ModelCacheDir == "" {
		c.Whisper.ModelCacheDir = "/tmp/whisper-cache"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Daemon.Validate(); err != nil {
		return fmt.Errorf("daemon config: %w", err)
	}

	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	if err := c.Whisper.Validate(); err != nil {
		return fmt.Errorf("whisper config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates daemon configuration
func (d *DaemonConfig) Validate() error {
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", d.Port)
	}

	if d.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	if !strings.HasPrefix(d.BaseURL, "/") {
		return fmt.Errorf("base_url must start with '/', got %q", d.BaseURL)
	}

	if d.FileField == "" {
		return fmt.Errorf("file_field cannot be empty")
	}

	if d.DebugAudio.Enabled && d.DebugAudio.Path == "" {
		return fmt.Errorf("debug_audio path cannot be empty when debug_audio is enabled")
	}

	return nil
}

// Validate validates engine configuration
func (e *EngineConfig) Validate() error {
	switch e.Type {
	case "native":
	case "remote":
		if e.Remote.Endpoint == "" {
			return fmt.Errorf("remote endpoint cannot be empty when engine type is 'remote'")
		}
		if e.Remote.Timeout < 0 {
			return fmt.Errorf("remote timeout cannot be negative, got %d", e.Remote.Timeout)
		}
	default:
		return fmt.Errorf("type must be 'native' or 'remote', got %q", e.Type)
	}

	return nil
}

// Validate validates whisper configuration
func (w *WhisperConfig) Validate() error {
	if w.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	validDevices := map[string]bool{"auto": true, "cpu": true, "gpu": true, "cuda": true}
	if !validDevices[w.Device] {
		return fmt.Errorf("device must be one of [auto, cpu, gpu, cuda], got %q", w.Device)
	}

	if w.DeviceIndex < 0 {
		return fmt.Errorf("device_index cannot be negative, got %d", w.DeviceIndex)
	}

	validCompute := map[string]bool{
		"auto": true, "f16": true, "f32": true,
		"q4_0": true, "q4_1": true, "q5_0": true, "q5_1": true, "q8_0": true,
	}
	if !validCompute[w.ComputeType] {
		return fmt.Errorf("compute_type must be one of [auto, f16, f32, q4_0, q4_1, q5_0, q5_1, q8_0], got %q", w.ComputeType)
	}

	if w.BeamSize < 1 {
		return fmt.Errorf("beam_size must be at least 1, got %d", w.BeamSize)
	}

	if w.ModelCacheDir == "" {
		return fmt.Errorf("model_cache_dir cannot be empty")
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got %q", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got %q", l.Format)
	}

	return nil
}

// GetRemoteTimeout returns the remote engine timeout as a time.Duration
func (r *RemoteConfig) GetRemoteTimeout() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}
