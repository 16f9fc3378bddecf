package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultSession = "work"
	cfg.Composer.DraftDebounce = 750 * time.Millisecond
	cfg.Hooks.CommandAliases = map[string]string{"/s": "/shrug"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultSession != "work" {
		t.Errorf("DefaultSession = %q, want %q", loaded.DefaultSession, "work")
	}
	if loaded.Composer.DraftDebounce != 750*time.Millisecond {
		t.Errorf("DraftDebounce = %v, want 750ms", loaded.Composer.DraftDebounce)
	}
	if loaded.Hooks.CommandAliases["/s"] != "/shrug" {
		t.Errorf("CommandAliases = %v, want /s -> /shrug", loaded.Hooks.CommandAliases)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("default_session = \"main\"\n[composer]\nnotify_all_threshold = 10\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Composer.NotifyAllThreshold != 10 {
		t.Errorf("NotifyAllThreshold = %d, want 10", cfg.Composer.NotifyAllThreshold)
	}
	if cfg.Composer.DraftDebounce != 500*time.Millisecond {
		t.Errorf("DraftDebounce = %v, want default 500ms", cfg.Composer.DraftDebounce)
	}
	if cfg.Uploads.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d, want default 3", cfg.Uploads.MaxConcurrent)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefaultMissing(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Composer.MaxMessageLength != 16383 {
		t.Errorf("MaxMessageLength = %d, want 16383", cfg.Composer.MaxMessageLength)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[uploads]\nmax_concurrent = 0\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected validation error for max_concurrent = 0")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{DefaultSession: "main"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
