package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	// Asset file names inside ModelsDir (or absolute paths).
	ImageEncoder string `json:"image_encoder" yaml:"image_encoder" toml:"image_encoder"`
	TextFeatures string `json:"text_features" yaml:"text_features" toml:"text_features"`
	HeadWeights  string `json:"head_weights" yaml:"head_weights" toml:"head_weights"`
	// Seed for the untrained head when no weights are on disk. 0 picks one at startup.
	HeadSeed uint64 `json:"head_seed" yaml:"head_seed" toml:"head_seed"`

	ORTLibrary string `json:"ort_library" yaml:"ort_library" toml:"ort_library"`
	Device     string `json:"device" yaml:"device" toml:"device"`
	Threads    int    `json:"threads" yaml:"threads" toml:"threads"`

	MaxUploadMB            int `json:"max_upload_mb" yaml:"max_upload_mb" toml:"max_upload_mb"`
	MaxQueueDepth          int `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitSeconds         int `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds"`
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
	// Per-request bound on /analyze including queue wait; 0 disables.
	AnalyzeTimeoutSeconds int `json:"analyze_timeout_seconds" yaml:"analyze_timeout_seconds" toml:"analyze_timeout_seconds"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	Swagger     bool     `json:"swagger" yaml:"swagger" toml:"swagger"`

	// Report text per class index; empty uses the built-in table.
	Reports []string `json:"reports" yaml:"reports" toml:"reports"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
