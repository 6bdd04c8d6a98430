package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix      = "PLAYEDTOGETHER_"
	configDirName  = "playedtogether"
	configFileName = "config.yaml"
)

// DefaultPath returns the per-user config file location,
// e.g. ~/.config/playedtogether/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

// Load builds a Config by layering, lowest precedence first:
//  1. defaults (New())
//  2. the YAML config file at path, if it exists
//  3. env vars with the PLAYEDTOGETHER_ prefix (PLAYEDTOGETHER_API_KEY, ...)
//  4. the conventional RIOT_API_KEY / RGAPI_KEY variables for the key only
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
			}
		}
	}

	// PLAYEDTOGETHER_WINDOW_SIZE -> window_size
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if cfg.APIKey == "" {
		if key := os.Getenv("RIOT_API_KEY"); key != "" {
			cfg.APIKey = key
		} else if key := os.Getenv("RGAPI_KEY"); key != "" {
			cfg.APIKey = key
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: window_size must be positive", ErrInvalidConfig)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max_attempts must be positive", ErrInvalidConfig)
	}
	if c.RatePerSecond <= 0 || c.RatePerTwoMinutes <= 0 {
		return fmt.Errorf("%w: rate caps must be positive", ErrInvalidConfig)
	}
	return nil
}

// Save writes the persistable settings to a YAML file at path, creating
// parent directories as needed. The API key is written only if present, so
// a throwaway env-provided key is not persisted by accident.
func (c *Config) Save(path string) error {
	fields := map[string]interface{}{
		"region":               c.Region,
		"window_size":          c.WindowSize,
		"horizon_days":         c.HorizonDays,
		"rate_per_second":      c.RatePerSecond,
		"rate_per_two_minutes": c.RatePerTwoMinutes,
		"max_attempts":         c.MaxAttempts,
		"enrich_workers":       c.EnrichWorkers,
	}
	if c.SelfRiotID != "" {
		fields["self_riot_id"] = c.SelfRiotID
	}
	if c.APIKey != "" {
		fields["api_key"] = c.APIKey
	}

	out, err := yaml.Parser().Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveConfig, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveConfig, err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveConfig, err)
	}
	return nil
}
