package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultAutoReplyDelay applies when the config leaves auto_reply_delay unset.
const DefaultAutoReplyDelay = 2 * time.Second

// Config represents the global ~/.giftem/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
	// CurrentUser is the username signed in at start-up; empty selects the
	// first sample user.
	CurrentUser    string   `toml:"current_user"`
	AutoReplyDelay Duration `toml:"auto_reply_delay"`
	// Ephemeral disables mirroring the stores to the profile database.
	Ephemeral bool `toml:"ephemeral"`
}

// Duration is a time.Duration written as a Go duration string ("2s", "750ms").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// ReplyDelay returns the configured auto-reply delay or the default.
func (c *Config) ReplyDelay() time.Duration {
	if c == nil || c.AutoReplyDelay.Duration <= 0 {
		return DefaultAutoReplyDelay
	}
	return c.AutoReplyDelay.Duration
}

// Load reads config from the given path. Returns nil config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields an empty config.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
