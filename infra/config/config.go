package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "WHISPERNET_"

// DefaultBaseURL is the hosted WhisperNet backend.
const DefaultBaseURL = "https://vianzotech.onrender.com"

// Config holds application-level configuration.
type Config struct {
	BaseURL        string        `koanf:"base_url"`        // e.g. "https://vianzotech.onrender.com"
	TokenPath      string        `koanf:"token_path"`      // Optional bearer token file
	StatePath      string        `koanf:"state_path"`      // UI preferences (JSON)
	SnapshotPath   string        `koanf:"snapshot_path"`   // Last-known-good datasets (sqlite)
	LogPath        string        `koanf:"log_path"`        // Empty disables logging
	LogLevel       string        `koanf:"log_level"`       // zerolog level name
	SearchDebounce time.Duration `koanf:"search_debounce"` // Quiet window before a search load
	RequestTimeout time.Duration `koanf:"request_timeout"` // Per HTTP attempt
	RateLimit      float64       `koanf:"rate_limit"`      // Requests per second
	RateBurst      int           `koanf:"rate_burst"`
	FeedLimit      int           `koanf:"feed_limit"`
}

// Load layers defaults, an optional TOML file and environment variables.
//
//	WHISPERNET_BASE_URL       : backend URL (default: hosted backend)
//	WHISPERNET_TOKEN_PATH     : token file (default: ~/.config/whispernet/token)
//	WHISPERNET_STATE_PATH     : UI state file (default: ~/.config/whispernet/ui_state.json)
//	WHISPERNET_SNAPSHOT_PATH  : snapshot database (default: ~/.config/whispernet/snapshots.db)
//	WHISPERNET_LOG_PATH       : log file (default: none)
//	WHISPERNET_SEARCH_DEBOUNCE: e.g. "300ms"
//
// If path is empty, ~/.config/whispernet/config.toml is used when present.
func Load(path string) (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "whispernet")

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"base_url":        DefaultBaseURL,
		"token_path":      filepath.Join(dir, "token"),
		"state_path":      filepath.Join(dir, "ui_state.json"),
		"snapshot_path":   filepath.Join(dir, "snapshots.db"),
		"log_path":        "",
		"log_level":       "info",
		"search_debounce": "300ms",
		"request_timeout": "15s",
		"rate_limit":      5.0,
		"rate_burst":      5,
		"feed_limit":      50,
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		if candidate := filepath.Join(dir, "config.toml"); fileExists(candidate) {
			path = candidate
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	base, err := NormalizeBaseURL(c.BaseURL)
	if err != nil {
		return Config{}, err
	}
	c.BaseURL = base
	if c.SearchDebounce <= 0 {
		c.SearchDebounce = 300 * time.Millisecond
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 5
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.FeedLimit <= 0 {
		c.FeedLimit = 50
	}
	return c, nil
}

// NormalizeBaseURL validates the backend URL and trims a trailing slash.
// Plain http is only accepted for loopback hosts.
func NormalizeBaseURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid base_url: must be an absolute URL")
	}
	switch parsed.Scheme {
	case "https":
	case "http":
		if !isLoopback(parsed.Hostname()) {
			return "", fmt.Errorf("invalid base_url: only https is allowed for remote hosts")
		}
	default:
		return "", fmt.Errorf("invalid base_url: unsupported scheme %q", parsed.Scheme)
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
