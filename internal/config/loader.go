package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix starts every environment variable read by Load.
	EnvPrefix = "PQHASH_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load reads configuration from an optional YAML file, then overrides it
// with environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (PQHASH_STORAGE_BACKEND, PQHASH_SEARCH_ADDRESSES, ...)
//  2. YAML config file at path (skipped when path is empty)
//  3. Hardcoded defaults
//
// # Environment Variable Mapping
//
// The prefix is removed and the first underscore separates section from field:
//
//	PQHASH_STORAGE_DATA_DIR -> storage.data_dir
//	PQHASH_MODEL_NAME       -> model.name
//	PQHASH_SEARCH_ADDRESSES -> search.addresses (comma separated)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// listKeys hold comma separated values in the environment.
var listKeys = map[string]bool{
	"search.addresses": true,
}

func envValue(name, value string) (string, any) {
	key := envKey(name)
	if listKeys[key] {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return key, items
	}
	return key, value
}

// envKey maps PQHASH_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))

	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.Backend == "local" && cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}

	if cfg.Registry.Namespace == "" {
		cfg.Registry.Namespace = "default"
	}
	if cfg.Registry.CacheSize == 0 {
		cfg.Registry.CacheSize = 8
	}

	if cfg.Search.Backend == "" {
		cfg.Search.Backend = "elastic"
	}
	if cfg.Search.Backend == "elastic" && len(cfg.Search.Addresses) == 0 {
		cfg.Search.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Search.Workers == 0 {
		cfg.Search.Workers = 1
	}

	if cfg.Model.Compression == "" {
		cfg.Model.Compression = "zstd"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
