package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadBootstrapMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadBootstrap(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadBootstrap: %v", err)
	}
	if cfg.Namespace != "ndi" {
		t.Errorf("Namespace = %q, want ndi", cfg.Namespace)
	}
}

func TestLoadBootstrapOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	doc := "ns: custom\nreconcile_interval: 30s\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadBootstrap(path)
	if err != nil {
		t.Fatalf("LoadBootstrap: %v", err)
	}
	if cfg.Namespace != "custom" {
		t.Errorf("Namespace = %q, want custom", cfg.Namespace)
	}
	if cfg.ReconcileInterval != 30*time.Second {
		t.Errorf("ReconcileInterval = %v, want 30s", cfg.ReconcileInterval)
	}
	// Fields the override file didn't set keep their default.
	if cfg.ChallengeAddr != ":80" {
		t.Errorf("ChallengeAddr = %q, want :80 (unset field should keep default)", cfg.ChallengeAddr)
	}
}

func TestLoadBootstrapEmptyNamespaceRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	if err := os.WriteFile(path, []byte("ns: \"\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadBootstrap(path); err == nil {
		t.Fatal("LoadBootstrap() with empty ns = nil error, want error")
	}
}
