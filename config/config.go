// Package config loads service configuration from a YAML or JSON file with
// environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/danthegoodman1/dfgrid/utils"
	"gopkg.in/yaml.v3"
)

const (
	ExportDisk = "disk"
	ExportS3   = "s3"
)

type (
	Config struct {
		HTTP     HTTPConfig     `json:"http" yaml:"http"`
		Pager    PagerConfig    `json:"pager" yaml:"pager"`
		Sessions SessionsConfig `json:"sessions" yaml:"sessions"`
		Registry RegistryConfig `json:"registry" yaml:"registry"`
		Export   ExportConfig   `json:"export" yaml:"export"`
		SQL      SQLConfig      `json:"sql" yaml:"sql"`

		// ShutdownSleepSec delays shutdown so load balancers can drain
		ShutdownSleepSec int `json:"shutdown_sleep_sec" yaml:"shutdown_sleep_sec"`
	}

	HTTPConfig struct {
		Port string `json:"port" yaml:"port"`
	}

	PagerConfig struct {
		DefaultPageSize int `json:"default_page_size" yaml:"default_page_size"`
		// MaxPageSize caps pageSize query params, 0 for no cap
		MaxPageSize int `json:"max_page_size" yaml:"max_page_size"`
	}

	SessionsConfig struct {
		IdleTTL       time.Duration `json:"idle_ttl" yaml:"idle_ttl"`
		SweepInterval time.Duration `json:"sweep_interval" yaml:"sweep_interval"`
	}

	RegistryConfig struct {
		// MaxAge is how long an untouched entry survives a sweep, 0 keeps entries until
		// their session ends
		MaxAge time.Duration `json:"max_age" yaml:"max_age"`
	}

	ExportConfig struct {
		Type string   `json:"type" yaml:"type"`
		Path string   `json:"path" yaml:"path"`
		S3   S3Config `json:"s3" yaml:"s3"`
	}

	S3Config struct {
		Bucket   string `json:"bucket" yaml:"bucket"`
		Region   string `json:"region" yaml:"region"`
		Endpoint string `json:"endpoint" yaml:"endpoint"`
	}

	SQLConfig struct {
		DSN string `json:"dsn" yaml:"dsn"`
		// QueryTimeout bounds each attempt of a source query
		QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout"`
	}
)

func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port: "8080",
		},
		Pager: PagerConfig{
			DefaultPageSize: 25,
			MaxPageSize:     1000,
		},
		Sessions: SessionsConfig{
			IdleTTL:       time.Hour,
			SweepInterval: time.Minute,
		},
		Registry: RegistryConfig{
			MaxAge: 0,
		},
		Export: ExportConfig{
			Type: ExportDisk,
			Path: "./data/exports",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		SQL: SQLConfig{
			QueryTimeout: 30 * time.Second,
		},
		ShutdownSleepSec: 0,
	}
}

func (c *Config) Validate() error {
	if c.HTTP.Port == "" {
		return fmt.Errorf("http.port is required")
	}
	if c.Pager.DefaultPageSize <= 0 {
		return fmt.Errorf("pager.default_page_size must be positive, got %d", c.Pager.DefaultPageSize)
	}
	if c.Pager.MaxPageSize < 0 {
		return fmt.Errorf("pager.max_page_size must not be negative, got %d", c.Pager.MaxPageSize)
	}
	if c.Pager.MaxPageSize > 0 && c.Pager.DefaultPageSize > c.Pager.MaxPageSize {
		return fmt.Errorf("pager.default_page_size %d exceeds pager.max_page_size %d", c.Pager.DefaultPageSize, c.Pager.MaxPageSize)
	}
	if c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("sessions.sweep_interval must be positive, got %s", c.Sessions.SweepInterval)
	}
	if c.Registry.MaxAge < 0 {
		return fmt.Errorf("registry.max_age must not be negative, got %s", c.Registry.MaxAge)
	}
	switch c.Export.Type {
	case ExportDisk:
		if c.Export.Path == "" {
			return fmt.Errorf("export.path is required when export type is disk")
		}
	case ExportS3:
		if c.Export.S3.Bucket == "" {
			return fmt.Errorf("export.s3.bucket is required when export type is s3")
		}
	default:
		return fmt.Errorf("invalid export type: %s (must be disk or s3)", c.Export.Type)
	}
	if c.ShutdownSleepSec < 0 {
		return fmt.Errorf("shutdown_sleep_sec must not be negative, got %d", c.ShutdownSleepSec)
	}
	return nil
}

// LoadFromFile reads a .yaml, .yml or .json file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}
	return cfg, nil
}

// LoadFromEnv overrides cfg with any of the supported environment variables that
// are set.
func LoadFromEnv(cfg *Config) error {
	cfg.HTTP.Port = utils.GetEnvOrDefault("HTTP_PORT", cfg.HTTP.Port)
	cfg.SQL.DSN = utils.GetEnvOrDefault("CRDB_DSN", cfg.SQL.DSN)
	cfg.Export.Type = utils.GetEnvOrDefault("EXPORT_TYPE", cfg.Export.Type)
	cfg.Export.Path = utils.GetEnvOrDefault("EXPORT_PATH", cfg.Export.Path)
	cfg.Export.S3.Bucket = utils.GetEnvOrDefault("S3_BUCKET_NAME", cfg.Export.S3.Bucket)
	cfg.Export.S3.Endpoint = utils.GetEnvOrDefault("S3_ENDPOINT", cfg.Export.S3.Endpoint)
	cfg.Export.S3.Region = utils.GetEnvOrDefault("AWS_DEFAULT_REGION", cfg.Export.S3.Region)

	ints := []struct {
		env string
		dst *int
	}{
		{"DEFAULT_PAGE_SIZE", &cfg.Pager.DefaultPageSize},
		{"MAX_PAGE_SIZE", &cfg.Pager.MaxPageSize},
		{"SHUTDOWN_SLEEP_SEC", &cfg.ShutdownSleepSec},
	}
	for _, v := range ints {
		s := os.Getenv(v.env)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("error parsing %s: %w", v.env, err)
		}
		*v.dst = n
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"SESSION_IDLE_TTL", &cfg.Sessions.IdleTTL},
		{"SESSION_SWEEP_INTERVAL", &cfg.Sessions.SweepInterval},
		{"REGISTRY_MAX_AGE", &cfg.Registry.MaxAge},
		{"SQL_QUERY_TIMEOUT", &cfg.SQL.QueryTimeout},
	}
	for _, v := range durations {
		s := os.Getenv(v.env)
		if s == "" {
			continue
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("error parsing %s: %w", v.env, err)
		}
		*v.dst = d
	}
	return nil
}

// Load builds the effective configuration: defaults, then the file at path when
// path is not empty, then the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		cfg, err = LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
