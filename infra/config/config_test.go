package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ParsesEnvAndDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WHISPERNET_BASE_URL", "https://example.social/")
	t.Setenv("WHISPERNET_SEARCH_DEBOUNCE", "450ms")
	t.Setenv("WHISPERNET_FEED_LIMIT", "12")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.BaseURL != "https://example.social" {
		t.Fatalf("base url must be normalized: %q", cfg.BaseURL)
	}
	if cfg.SearchDebounce != 450*time.Millisecond || cfg.FeedLimit != 12 {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("expected default request timeout, got %v", cfg.RequestTimeout)
	}
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	toml := "base_url = \"https://file.example\"\nlog_level = \"debug\"\n"
	if err := os.WriteFile(path, []byte(toml), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	t.Setenv("WHISPERNET_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.BaseURL != "https://file.example" {
		t.Fatalf("file value expected, got %q", cfg.BaseURL)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("env must override file, got %q", cfg.LogLevel)
	}
}

func TestLoad_RejectsRemoteHTTP(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WHISPERNET_BASE_URL", "http://insecure.example")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for non-https remote base url")
	}
}

func TestNormalizeBaseURL_AllowsLoopbackHTTP(t *testing.T) {
	got, err := NormalizeBaseURL("http://127.0.0.1:8080/api/")
	if err != nil {
		t.Fatalf("loopback http should be allowed: %v", err)
	}
	if got != "http://127.0.0.1:8080/api" {
		t.Fatalf("unexpected normalized url %q", got)
	}
	if _, err := NormalizeBaseURL("ftp://x"); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
}

func TestUIState_LoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ui_state.json")

	st, err := LoadUIState(path)
	if err != nil {
		t.Fatalf("missing state should not error: %v", err)
	}
	if st != (UIState{}) {
		t.Fatalf("expected empty state for missing file")
	}

	want := UIState{Incognito: true, FeedSort: "-likes_count"}
	if err := SaveUIState(path, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := LoadUIState(path)
	if err != nil {
		t.Fatalf("load after save failed: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected loaded state got=%#v want=%#v", got, want)
	}

	if err := os.WriteFile(path, []byte("not-json"), 0o600); err != nil {
		t.Fatalf("write corrupt state failed: %v", err)
	}
	if _, err := LoadUIState(path); err == nil {
		t.Fatalf("expected parse error for invalid json")
	}
}
