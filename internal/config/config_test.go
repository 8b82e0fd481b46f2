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

	cfg := &Config{
		DefaultProfile: "work",
		CurrentUser:    "sarahm",
		AutoReplyDelay: Duration{1500 * time.Millisecond},
		Ephemeral:      true,
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.CurrentUser != "sarahm" {
		t.Errorf("CurrentUser = %q, want %q", loaded.CurrentUser, "sarahm")
	}
	if loaded.ReplyDelay() != 1500*time.Millisecond {
		t.Errorf("ReplyDelay() = %v, want 1.5s", loaded.ReplyDelay())
	}
	if !loaded.Ephemeral {
		t.Error("Ephemeral = false, want true")
	}
}

func TestLoadDurationString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("auto_reply_delay = \"250ms\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ReplyDelay() != 250*time.Millisecond {
		t.Errorf("ReplyDelay() = %v, want 250ms", cfg.ReplyDelay())
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("auto_reply_delay = \"soon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid duration")
	}
}

func TestReplyDelayDefault(t *testing.T) {
	var nilCfg *Config
	if nilCfg.ReplyDelay() != DefaultAutoReplyDelay {
		t.Errorf("nil ReplyDelay() = %v", nilCfg.ReplyDelay())
	}
	if (&Config{}).ReplyDelay() != DefaultAutoReplyDelay {
		t.Error("zero config should use the default delay")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}

	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.DefaultProfile != "" {
		t.Errorf("DefaultProfile = %q, want empty", cfg.DefaultProfile)
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{DefaultProfile: "main"}); err != nil {
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
