// Package config loads and persists tool configuration: the API key, the
// default region, an optional stored "self" Riot ID, and the tuning knobs
// for the run. The core packages never read the environment; everything
// flows through a Config built here by the CLI shell.
package config

import (
	"playedtogether/internal/ratelimit"
)

// Config holds every externally tunable setting.
type Config struct {
	// APIKey is the Riot API credential. Not stored in the file unless the
	// user explicitly saves it.
	APIKey string `koanf:"api_key"`

	// Region is the default region selector, e.g. "EUW".
	Region string `koanf:"region"`

	// SelfRiotID optionally stores the user's own identity; with a single
	// positional player argument the shell uses it as player one.
	SelfRiotID string `koanf:"self_riot_id"`

	// WindowSize is how many recent matches to collect per player.
	WindowSize int `koanf:"window_size"`

	// HorizonDays bounds the window in time; zero disables the bound.
	HorizonDays int `koanf:"horizon_days"`

	// RatePerSecond and RatePerTwoMinutes cap outbound requests per
	// routing domain.
	RatePerSecond     int `koanf:"rate_per_second"`
	RatePerTwoMinutes int `koanf:"rate_per_two_minutes"`

	// MaxAttempts is the transport retry ceiling per request.
	MaxAttempts int `koanf:"max_attempts"`

	// EnrichWorkers sizes the match-detail worker pool.
	EnrichWorkers int `koanf:"enrich_workers"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		Region:            "EUW",
		WindowSize:        100,
		HorizonDays:       30,
		RatePerSecond:     ratelimit.DefaultPerSecond,
		RatePerTwoMinutes: ratelimit.DefaultPerTwoMinutes,
		MaxAttempts:       5,
		EnrichWorkers:     5,
	}
}
