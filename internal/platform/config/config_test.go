package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.Token.Cap == 0 {
		t.Fatal("expected nonzero default cap")
	}
}

func TestLoadYamlFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("http_port: \"9090\"\ntoken:\n  symbol: RGT\n  cap: 5000\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TOKEN_SYMBOL", "GLX")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected port from file, got %s", cfg.HTTPPort)
	}
	if cfg.Token.Cap != 5000 {
		t.Fatalf("expected cap from file, got %d", cfg.Token.Cap)
	}
	if cfg.Token.Symbol != "GLX" {
		t.Fatalf("expected env to win over file, got %s", cfg.Token.Symbol)
	}
}

func TestLoadRejectsZeroCap(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TOKEN_CAP", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("token:\n  cap: 0\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero cap")
	}
}
