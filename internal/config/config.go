package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings sockctl reads from its TOML file. An empty Codec
// means bodies are sent and printed as raw bytes.
type Config struct {
	SocketPath   string
	Codec        string
	UserAgent    string
	PollInterval time.Duration
	Log          LogConfig
}

// LogConfig defines logger settings.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	Rotate     bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

const (
	defaultConfigPath   = "~/.config/sockhttp/config.toml"
	defaultSocketPath   = "/run/sockhttp/api.sock"
	defaultPollInterval = 2 * time.Second
)

var knownCodecs = []string{"json", "cbor", "proto"}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		SocketPath:   defaultSocketPath,
		PollInterval: defaultPollInterval,
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

type rawConfig struct {
	SocketPath   string `toml:"socket_path"`
	Codec        string `toml:"codec"`
	UserAgent    string `toml:"user_agent"`
	PollInterval string `toml:"poll_interval"`
	Log          struct {
		Level      string `toml:"level"`
		Format     string `toml:"format"`
		File       string `toml:"file"`
		Rotate     bool   `toml:"rotate"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
		Compress   bool   `toml:"compress"`
	} `toml:"log"`
}

// Load reads the config at path, or the default location when path is
// empty. A missing file yields Default().
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.SocketPath); v != "" {
		expanded, err := expandPath(v)
		if err != nil {
			return Config{}, fmt.Errorf("socket_path: %w", err)
		}
		cfg.SocketPath = expanded
	}
	if v := strings.ToLower(strings.TrimSpace(raw.Codec)); v != "" {
		cfg.Codec = v
	}
	if err := ValidateCodec(cfg.Codec); err != nil {
		return Config{}, err
	}
	cfg.UserAgent = strings.TrimSpace(raw.UserAgent)
	if v := strings.TrimSpace(raw.PollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("poll_interval: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("poll_interval must be positive, got %s", d)
		}
		cfg.PollInterval = d
	}

	if v := strings.TrimSpace(raw.Log.Level); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Log.Format); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Log.File); v != "" {
		cfg.Log.File = mustExpand(v)
	}
	cfg.Log.Rotate = raw.Log.Rotate
	cfg.Log.Compress = raw.Log.Compress
	if raw.Log.MaxSizeMB > 0 {
		cfg.Log.MaxSizeMB = raw.Log.MaxSizeMB
	}
	if raw.Log.MaxBackups > 0 {
		cfg.Log.MaxBackups = raw.Log.MaxBackups
	}
	if raw.Log.MaxAgeDays > 0 {
		cfg.Log.MaxAgeDays = raw.Log.MaxAgeDays
	}

	return cfg, nil
}

// ValidateCodec reports whether name is a payload codec sockctl knows.
// The empty name means raw bytes and is accepted.
func ValidateCodec(name string) error {
	if name == "" || name == "raw" {
		return nil
	}
	for _, known := range knownCodecs {
		if name == known {
			return nil
		}
	}
	return fmt.Errorf("unknown codec %q (want one of %s)", name, strings.Join(knownCodecs, ", "))
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading tilde and returns an absolute path.
func ExpandPath(path string) (string, error) { return expandPath(path) }

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
