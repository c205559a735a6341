package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Server.BaseURL == "" {
		t.Error("expected default base URL to be set")
	}
	if config.Upload.PollInterval != 1500 {
		t.Errorf("expected default poll interval 1500, got %d", config.Upload.PollInterval)
	}
	if config.Upload.MaxAttempts != 300 {
		t.Errorf("expected default max attempts 300, got %d", config.Upload.MaxAttempts)
	}
	if config.Database.Path == "" {
		t.Error("expected default database path to be set")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		content := `
[server]
base_url = "https://books.example.com"
request_timeout = 20

[upload]
poll_interval = 250
max_attempts = 10
workers = 2
rate_limit = 1.5
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Server.BaseURL != "https://books.example.com" {
			t.Errorf("unexpected base URL: %s", config.Server.BaseURL)
		}
		if config.Upload.MaxAttempts != 10 {
			t.Errorf("expected max attempts 10, got %d", config.Upload.MaxAttempts)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid toml", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		if err := os.WriteFile(path, []byte("[[[not toml"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	if err := CreateConfigFile(path); err == nil {
		t.Error("expected error when config file already exists")
	}
}
