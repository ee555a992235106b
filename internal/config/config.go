package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catbattle/internal/kv"
	"catbattle/internal/storage"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage   StorageConfig   `yaml:"storage" json:"storage" envPrefix:"STORAGE_"`
	HTTP      HTTPConfig      `yaml:"http" json:"http" envPrefix:"HTTP_"`
	Log       LogConfig       `yaml:"log" json:"log" envPrefix:"LOG_"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry" envPrefix:"TELEMETRY_"`
	Metrics   bool            `yaml:"metrics" json:"metrics" env:"METRICS"`
}

type StorageConfig struct {
	Backend    string `yaml:"backend" json:"backend" env:"BACKEND"`
	DataDir    string `yaml:"data_dir" json:"data_dir" env:"DATA_DIR"`
	Key        string `yaml:"key" json:"key" env:"KEY"`
	QuotaBytes int    `yaml:"quota_bytes" json:"quota_bytes" env:"QUOTA_BYTES"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr" env:"ADDR"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" env:"LEVEL"`
	Format string `yaml:"format" json:"format" env:"FORMAT"`
}

type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" env:"ENABLED"`
	Limit   int  `yaml:"limit" json:"limit" env:"LIMIT"`
}

func (s *StorageConfig) ApplyDefaults() {
	if s.Backend == "" {
		s.Backend = kv.BackendFile
	}
	if s.DataDir == "" {
		s.DataDir = "data"
	}
	if s.Key == "" {
		s.Key = storage.DefaultKey
	}
}

func (h *HTTPConfig) ApplyDefaults() {
	if h.Addr == "" {
		h.Addr = ":42069"
	}
}

func (l *LogConfig) ApplyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func (t *TelemetryConfig) ApplyDefaults() {
	if t.Limit == 0 {
		t.Limit = 1000
	}
}

func (c *Config) ApplyDefaults() {
	c.Storage.ApplyDefaults()
	c.HTTP.ApplyDefaults()
	c.Log.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Default is the configuration used when no file or environment is given.
func Default() *Config {
	c := &Config{Telemetry: TelemetryConfig{Enabled: true}}
	c.ApplyDefaults()
	return c
}

// Load reads the YAML file at path, then applies environment overrides and
// defaults. A missing file is not an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	r := Config{Telemetry: TelemetryConfig{Enabled: true}}

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &r); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&r); err != nil {
		return nil, err
	}
	r.ApplyDefaults()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case kv.BackendMemory, kv.BackendFile, kv.BackendSQLite:
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}
	if c.Storage.QuotaBytes < 0 {
		return fmt.Errorf("storage.quota_bytes must be >= 0")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// KVOptions maps the storage section onto a kv backend.
func (c *Config) KVOptions() kv.Options {
	return kv.Options{
		Backend:    strings.ToLower(c.Storage.Backend),
		Dir:        filepath.Join(c.Storage.DataDir, "kv"),
		Path:       filepath.Join(c.Storage.DataDir, "progress.db"),
		QuotaBytes: c.Storage.QuotaBytes,
	}
}
