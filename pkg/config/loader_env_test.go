package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_UsesConfigPathEnvWhenPathEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "from-env.json")

	seed := DefaultConfig()
	seed.Docs.Port = 29999
	seed.Counters.PromptTimeout = 10 * time.Second

	loader := NewLoader()
	if err := loader.Save(cfgPath, seed); err != nil {
		t.Fatalf("save config: %v", err)
	}

	t.Setenv(ConfigPathEnv, cfgPath)

	l := NewLoader()
	got, err := l.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got.Docs.Port != 29999 {
		t.Fatalf("expected docs port 29999, got %d", got.Docs.Port)
	}
	if got.Counters.PromptTimeout != 10*time.Second {
		t.Fatalf("expected 10s prompt timeout, got %v", got.Counters.PromptTimeout)
	}
	if l.GetConfigPath() != cfgPath {
		t.Fatalf("expected config path %q, got %q", cfgPath, l.GetConfigPath())
	}
}

func TestLoad_AutoCreatesConfigForExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "custom", "config.json")

	got, err := NewLoader().Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
	if got.Store.Backend != "memory" {
		t.Fatalf("expected default memory backend, got %q", got.Store.Backend)
	}
	if err := ValidateConfig(got); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(cfgPath, []byte(`{"discord": {"prefix": "!"}}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("COUNTERBOT_DISCORD_PREFIX", "?")
	t.Setenv("COUNTERBOT_STORE_BACKEND", "redis")

	got, err := NewLoader().Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got.Discord.Prefix != "?" {
		t.Fatalf("expected env prefix, got %q", got.Discord.Prefix)
	}
	if got.Store.Backend != "redis" {
		t.Fatalf("expected env backend, got %q", got.Store.Backend)
	}
}

func TestLoad_ReadsDotEnvBesideConfig(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(cfgPath, []byte(`{}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("COUNTERBOT_DISCORD_TOKEN=from-dotenv\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	// Restored by t.Setenv; unset so godotenv is allowed to fill it in.
	t.Setenv("COUNTERBOT_DISCORD_TOKEN", "")
	os.Unsetenv("COUNTERBOT_DISCORD_TOKEN")

	got, err := NewLoader().Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got.Discord.Token != "from-dotenv" {
		t.Fatalf("expected token from .env, got %q", got.Discord.Token)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(cfgPath, []byte(`{"counters": `), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := NewLoader().Load(cfgPath); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
