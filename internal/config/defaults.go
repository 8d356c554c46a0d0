package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied by ApplyDefaults when the corresponding field is unset.
const (
	DefaultAddr                   = ":5000"
	DefaultModelsDir              = "models"
	DefaultDevice                 = "auto"
	DefaultMaxUploadMB            = 32
	DefaultMaxQueueDepth          = 32
	DefaultMaxWaitSeconds         = 30
	DefaultShutdownTimeoutSeconds = 5
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "json"
)

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = DefaultMaxUploadMB
	}
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = DefaultMaxQueueDepth
	}
	if c.MaxWaitSeconds <= 0 {
		c.MaxWaitSeconds = DefaultMaxWaitSeconds
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = DefaultShutdownTimeoutSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
}

// Validate rejects values ApplyDefaults cannot repair.
func (c Config) Validate() error {
	switch c.Device {
	case "auto", "cpu", "cuda":
	default:
		return fmt.Errorf("device must be auto, cpu, or cuda, got %q", c.Device)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads must be >= 0, got %d", c.Threads)
	}
	if c.AnalyzeTimeoutSeconds < 0 {
		return fmt.Errorf("analyze_timeout_seconds must be >= 0, got %d", c.AnalyzeTimeoutSeconds)
	}
	return nil
}

// MaxUploadBytes is the multipart size cap in bytes.
func (c Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// MaxWait is the admission wait as a duration.
func (c Config) MaxWait() time.Duration { return time.Duration(c.MaxWaitSeconds) * time.Second }

// ShutdownTimeout is the graceful shutdown budget as a duration.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
