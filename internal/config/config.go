package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Source  Source  `mapstructure:"source"`
	Storage Storage `mapstructure:"storage"`
	MCP     MCP     `mapstructure:"mcp"`
}

// Source holds configuration of the remote texts API.
type Source struct {
	BaseURL   string        `mapstructure:"base_url"`
	Corpus    string        `mapstructure:"corpus"`
	Count     int           `mapstructure:"count"`
	Delay     time.Duration `mapstructure:"delay"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// Storage selects where artifacts are kept: a local directory or an
// S3/MinIO bucket.
type Storage struct {
	Backend         string `mapstructure:"backend"`
	Dir             string `mapstructure:"dir"`
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Storage backends.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Source: Source{
			BaseURL:   "https://www.sefaria.org/api/texts/",
			Corpus:    "Sefer_HaChinukh",
			Count:     613,
			Delay:     1 * time.Second, // be polite to the public API
			Timeout:   30 * time.Second,
			UserAgent: "taryag/1.0",
		},
		Storage: Storage{
			Backend:         BackendFS,
			Dir:             "./data",
			Endpoint:        "localhost:9002",
			Bucket:          "taryag",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UseSSL:          false,
		},
		MCP: MCP{
			Name:    "taryag",
			Version: "1.0.0",
		},
	}
}

// Validate checks the settings every command depends on.
func (c Config) Validate() error {
	if c.Source.Count <= 0 {
		return fmt.Errorf("source.count must be positive, got %d", c.Source.Count)
	}
	if c.Source.Delay < 0 {
		return fmt.Errorf("source.delay must not be negative, got %s", c.Source.Delay)
	}

	switch c.Storage.Backend {
	case BackendFS:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the %s backend", BackendFS)
		}
	case BackendS3:
		if c.Storage.Endpoint == "" || c.Storage.Bucket == "" {
			return fmt.Errorf("storage.endpoint and storage.bucket are required for the %s backend", BackendS3)
		}
	default:
		return fmt.Errorf("unknown storage.backend %q (use %s or %s)", c.Storage.Backend, BackendFS, BackendS3)
	}
	return nil
}
