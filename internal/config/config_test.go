package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "docfactory" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.Converter.Timeout != 30*time.Second {
		t.Fatalf("expected default converter timeout, got %v", cfg.Converter.Timeout)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "template_root: /srv/templates\nconverter:\n  retries: 5\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TemplateRoot != "/srv/templates" {
		t.Fatalf("expected template root override, got %q", cfg.TemplateRoot)
	}
	if cfg.Converter.Retries != 5 {
		t.Fatalf("expected retries override, got %d", cfg.Converter.Retries)
	}
	if cfg.DefaultCurrency != "USD" {
		t.Fatalf("expected default currency preserved, got %q", cfg.DefaultCurrency)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
