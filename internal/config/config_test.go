package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.BaseURL != "http://localhost:12345" {
		t.Errorf("Server.BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.TimeoutSeconds != 15 {
		t.Errorf("Server.TimeoutSeconds = %d, want 15", cfg.Server.TimeoutSeconds)
	}
	if cfg.Server.Timeout() != 15*time.Second {
		t.Errorf("Timeout() = %v", cfg.Server.Timeout())
	}
	if cfg.TUI.ResizeDebounceMs != 100 {
		t.Errorf("TUI.ResizeDebounceMs = %d, want 100", cfg.TUI.ResizeDebounceMs)
	}
	if cfg.TUI.Theme != "default" {
		t.Errorf("TUI.Theme = %q", cfg.TUI.Theme)
	}
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "server:\n  base_url: https://tasks.example.com\n  timeout_seconds: 3\ntui:\n  theme: mono\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "https://tasks.example.com" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Timeout() != 3*time.Second {
		t.Errorf("Timeout = %v", cfg.Server.Timeout())
	}
	if cfg.TUI.Theme != "mono" {
		t.Errorf("Theme = %q", cfg.TUI.Theme)
	}
	// Unset keys keep their defaults.
	if cfg.TUI.ResizeDebounceMs != 100 {
		t.Errorf("ResizeDebounceMs = %d, want default 100", cfg.TUI.ResizeDebounceMs)
	}
}

func TestMissingConfigFileIsNotAnError(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := Init(""); err != nil {
		t.Fatalf("Init without a config file: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != Default().Server.BaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.Server.BaseURL)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MILEPOST_SERVER_BASE_URL", "http://10.0.0.2:12345")
	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "http://10.0.0.2:12345" {
		t.Errorf("BaseURL = %q, want env override", cfg.Server.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.BaseURL = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty base_url must not validate")
	}
	cfg = Default()
	cfg.Server.TimeoutSeconds = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative timeout must not validate")
	}
}
