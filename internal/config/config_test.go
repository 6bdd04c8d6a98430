package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WindowSize != 100 {
		t.Errorf("Expected default window 100, got %d", cfg.WindowSize)
	}
	if cfg.Region != "EUW" {
		t.Errorf("Expected default region EUW, got %s", cfg.Region)
	}
	if cfg.RatePerSecond != 15 || cfg.RatePerTwoMinutes != 90 {
		t.Errorf("Unexpected rate caps: %d/%d", cfg.RatePerSecond, cfg.RatePerTwoMinutes)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "region: NA\nwindow_size: 25\nself_riot_id: Me#NA1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Region != "NA" || cfg.WindowSize != 25 {
		t.Errorf("File values not applied: %+v", cfg)
	}
	if cfg.SelfRiotID != "Me#NA1" {
		t.Errorf("Expected stored self id, got %q", cfg.SelfRiotID)
	}
	// Untouched fields keep defaults.
	if cfg.MaxAttempts != 5 {
		t.Errorf("Expected default max attempts, got %d", cfg.MaxAttempts)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("region: NA\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("PLAYEDTOGETHER_REGION", "KR")
	t.Setenv("PLAYEDTOGETHER_API_KEY", "RGAPI-env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Region != "KR" {
		t.Errorf("Expected env region KR, got %s", cfg.Region)
	}
	if cfg.APIKey != "RGAPI-env-key" {
		t.Errorf("Expected env api key, got %q", cfg.APIKey)
	}
}

func TestLoad_ConventionalKeyVars(t *testing.T) {
	t.Setenv("RIOT_API_KEY", "RGAPI-riot-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "RGAPI-riot-key" {
		t.Errorf("Expected RIOT_API_KEY fallback, got %q", cfg.APIKey)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("PLAYEDTOGETHER_WINDOW_SIZE", "-1")

	if _, err := Load(""); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := New()
	cfg.Region = "EUNE"
	cfg.SelfRiotID = "Me#EUNE"
	cfg.APIKey = "RGAPI-stored"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Region != "EUNE" || loaded.SelfRiotID != "Me#EUNE" || loaded.APIKey != "RGAPI-stored" {
		t.Errorf("Round trip mismatch: %+v", loaded)
	}
}

func TestSave_OmitsEmptyKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := New()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) == "" {
		t.Fatal("Expected config content")
	}
	for _, forbidden := range []string{"api_key", "self_riot_id"} {
		if strings.Contains(string(data), forbidden) {
			t.Errorf("Expected %s to be omitted when empty", forbidden)
		}
	}
}
