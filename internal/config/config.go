// Package config loads the pqhash command configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/hupe1980/pqhash/quantization"
)

// Config is the complete command configuration.
type Config struct {
	Storage  StorageConfig  `koanf:"storage"`
	Registry RegistryConfig `koanf:"registry"`
	Search   SearchConfig   `koanf:"search"`
	Model    ModelConfig    `koanf:"model"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// StorageConfig selects the blob store holding images, features, metadata and models.
type StorageConfig struct {
	Backend      string `koanf:"backend"` // local, s3 or minio
	DataDir      string `koanf:"data_dir"`
	Bucket       string `koanf:"bucket"`
	Prefix       string `koanf:"prefix"`
	Region       string `koanf:"region"`
	Profile      string `koanf:"profile"`
	RoleARN      string `koanf:"role_arn"`
	Endpoint     string `koanf:"endpoint"`
	AccessKey    string `koanf:"access_key"`
	SecretKey    string `koanf:"secret_key"`
	UseSSL       bool   `koanf:"use_ssl"`
	UsePathStyle bool   `koanf:"use_path_style"`
}

// RegistryConfig configures the model registry.
type RegistryConfig struct {
	// DynamoDBTable enables the DynamoDB catalog for latest-model resolution.
	DynamoDBTable string `koanf:"dynamodb_table"`
	// DynamoDBEndpoint overrides the DynamoDB endpoint (DynamoDB Local).
	DynamoDBEndpoint string `koanf:"dynamodb_endpoint"`
	Namespace        string `koanf:"namespace"`
	// CacheSize is the number of model artifacts kept in memory.
	CacheSize int `koanf:"cache_size"`
}

// SearchConfig selects the search index and indexing throughput.
type SearchConfig struct {
	Backend   string   `koanf:"backend"` // elastic or memory
	Addresses []string `koanf:"addresses"`
	Username  string   `koanf:"username"`
	Password  string   `koanf:"password"`
	Workers   int      `koanf:"workers"`
	RateLimit float64  `koanf:"rate_limit"`
}

// ModelConfig selects and encodes models.
type ModelConfig struct {
	Name        string `koanf:"name"`
	Compression string `koanf:"compression"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text or json
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics. Empty disables the endpoint.
	Addr string `koanf:"addr"`
}

// SlogLevel returns the configured log level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	return l, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "local":
		if c.Storage.DataDir == "" {
			return errors.New("storage.data_dir required for local backend")
		}
	case "s3", "minio":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket required for %s backend", c.Storage.Backend)
		}
		if c.Storage.Backend == "minio" && c.Storage.Endpoint == "" {
			return errors.New("storage.endpoint required for minio backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %q (must be local, s3 or minio)", c.Storage.Backend)
	}

	switch c.Search.Backend {
	case "elastic":
		if len(c.Search.Addresses) == 0 {
			return errors.New("search.addresses required for elastic backend")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid search backend: %q (must be elastic or memory)", c.Search.Backend)
	}

	if c.Search.Workers < 1 {
		return fmt.Errorf("invalid search workers: %d (must be positive)", c.Search.Workers)
	}
	if c.Search.RateLimit < 0 {
		return fmt.Errorf("invalid search rate limit: %v", c.Search.RateLimit)
	}

	if _, err := quantization.ParseCompression(c.Model.Compression); err != nil {
		return err
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("invalid log format: %q (must be text or json)", c.Log.Format)
	}

	return nil
}
