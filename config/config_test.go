package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
backends:
  - name: hn
    module: hackernews
  - name: berlin
    module: openmeteo
    params:
      units: metric
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Backends) != 2 {
		t.Fatalf("expected 2 backends, got %d", len(cfg.Backends))
	}
	if cfg.Backends[0].Name != "hn" || cfg.Backends[0].Module != "hackernews" {
		t.Errorf("unexpected first backend: %+v", cfg.Backends[0])
	}
	if cfg.Backends[1].Params["units"] != "metric" {
		t.Errorf("expected units param 'metric', got %q", cfg.Backends[1].Params["units"])
	}
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("TEST_SCOUR_KEY", "secret-123")

	path := writeConfig(t, `
backends:
  - name: mail
    module: resendmsg
    params:
      api_key: "${TEST_SCOUR_KEY}"
      from: "${TEST_SCOUR_FROM:-scour@localhost}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params := cfg.Backends[0].Params
	if params["api_key"] != "secret-123" {
		t.Errorf("expected api_key 'secret-123', got %q", params["api_key"])
	}
	if params["from"] != "scour@localhost" {
		t.Errorf("expected default 'scour@localhost', got %q", params["from"])
	}
}

func TestLoadRejectsIncompleteEntries(t *testing.T) {
	path := writeConfig(t, `
backends:
  - name: missing-module
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an entry without a module")
	}
}

func TestBackendLookup(t *testing.T) {
	path := writeConfig(t, `
backends:
  - name: hn
    module: hackernews
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, ok := cfg.Backend("hn")
	if !ok {
		t.Fatal("expected to find backend 'hn'")
	}
	if b.Module != "hackernews" {
		t.Errorf("expected module 'hackernews', got %q", b.Module)
	}

	if _, ok := cfg.Backend("nope"); ok {
		t.Error("expected lookup miss for 'nope'")
	}
}
