// Package config loads collabcanvas settings from defaults and an optional
// TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration written as a string such as "1s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Canvas   Canvas  `toml:"canvas"`
	Network  Network `toml:"network"`
	Storage  Storage `toml:"storage"`
	LogLevel string  `toml:"log_level"`
}

type Canvas struct {
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	HistoryDepth int    `toml:"history_depth"`
	TemplateDir  string `toml:"template_dir"`
	DarkMode     bool   `toml:"dark_mode"`
}

// Network configures the hub and how clients find it. Server names a hub
// to join, as "collabcanvas://ip:port" or "host:port".
type Network struct {
	Port             int      `toml:"port"`
	Server           string   `toml:"server"`
	Discover         bool     `toml:"discover"`
	DiscoverTimeout  Duration `toml:"discover_timeout"`
	ReconnectBackoff Duration `toml:"reconnect_backoff"`
}

type Storage struct {
	Path         string   `toml:"path"`
	AutosaveWait Duration `toml:"autosave_interval"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Canvas: Canvas{
			Width:        1500,
			Height:       800,
			HistoryDepth: 100,
		},
		Network: Network{
			Port:             8888,
			Discover:         true,
			DiscoverTimeout:  Duration{2 * time.Second},
			ReconnectBackoff: Duration{250 * time.Millisecond},
		},
		Storage: Storage{
			Path:         defaultDBPath(),
			AutosaveWait: Duration{time.Second},
		},
		LogLevel: "info",
	}
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "collabcanvas", "board.db")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("no config file, using defaults", "component", "config", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return fmt.Errorf("canvas size %dx%d must be positive", c.Canvas.Width, c.Canvas.Height)
	case c.Canvas.HistoryDepth < 0:
		return fmt.Errorf("history_depth %d must not be negative", c.Canvas.HistoryDepth)
	case c.Network.Port <= 0 || c.Network.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Network.Port)
	case c.Storage.AutosaveWait.Duration <= 0:
		return fmt.Errorf("autosave_interval must be positive")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
