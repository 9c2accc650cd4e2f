package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", " 123:abc ")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.BotToken != "123:abc" {
		t.Errorf("BotToken = %q, want trimmed token", cfg.Telegram.BotToken)
	}
	if got := cfg.Transfer.GetMaxFileBytes(); got != 1900*1024*1024 {
		t.Errorf("GetMaxFileBytes() = %d, want %d", got, 1900*1024*1024)
	}
	if cfg.Transfer.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d, want 3", cfg.Transfer.MaxConcurrent)
	}
	if cfg.RateLimit.Limit != 3 {
		t.Errorf("RateLimit.Limit = %d, want 3", cfg.RateLimit.Limit)
	}
	if got := cfg.RateLimit.GetWindow(); got != time.Hour {
		t.Errorf("GetWindow() = %v, want %v", got, time.Hour)
	}
	if !cfg.Settings.AutoMirror || cfg.Settings.AutoShort {
		t.Errorf("Settings = %+v, want auto_mirror on and auto_short off", cfg.Settings)
	}
	if cfg.Transfer.TmpDir != "/tmp/terabox_relay" {
		t.Errorf("TmpDir = %q, want /tmp/terabox_relay", cfg.Transfer.TmpDir)
	}
	if cfg.Database.Path != "bot_data.sqlite3" {
		t.Errorf("Database.Path = %q, want bot_data.sqlite3", cfg.Database.Path)
	}
	if cfg.HTTP.BindAddr != "" {
		t.Errorf("HTTP.BindAddr = %q, want disabled", cfg.HTTP.BindAddr)
	}
	if got := cfg.Transfer.GetChunkSize(); got != 1024*1024 {
		t.Errorf("GetChunkSize() = %d, want %d", got, 1024*1024)
	}
	if got := cfg.Transfer.GetDiskReserveBytes(); got != 500*1024*1024 {
		t.Errorf("GetDiskReserveBytes() = %d, want %d", got, 500*1024*1024)
	}
}

func TestLoad_MissingToken(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	if !errors.Is(err, ErrMissingBotToken) {
		t.Errorf("Load() error = %v, want %v", err, ErrMissingBotToken)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `telegram:
  bot_token: "from-file"
  owner_id: 42
transfer:
  max_file_mb: 100
  progress_interval: "5s"
ratelimit:
  limit: 7
settings:
  auto_short: true
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("MAX_FILE_MB", "250")
	t.Setenv("USER_RATE_WINDOW", "600")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.BotToken != "from-file" {
		t.Errorf("BotToken = %q, want from-file", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.OwnerID != 42 {
		t.Errorf("OwnerID = %d, want 42", cfg.Telegram.OwnerID)
	}
	if cfg.Transfer.MaxFileMB != 250 {
		t.Errorf("MaxFileMB = %d, want env value 250", cfg.Transfer.MaxFileMB)
	}
	if got := cfg.Transfer.GetProgressInterval(); got != 5*time.Second {
		t.Errorf("GetProgressInterval() = %v, want %v", got, 5*time.Second)
	}
	if cfg.RateLimit.Limit != 7 {
		t.Errorf("RateLimit.Limit = %d, want 7", cfg.RateLimit.Limit)
	}
	if got := cfg.RateLimit.GetWindow(); got != 10*time.Minute {
		t.Errorf("GetWindow() = %v, want %v", got, 10*time.Minute)
	}
	if !cfg.Settings.AutoShort || !cfg.Settings.AutoMirror {
		t.Errorf("Settings = %+v, want both on", cfg.Settings)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "x")

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil, want error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "valid", env: map[string]string{}},
		{name: "zero max file", env: map[string]string{"MAX_FILE_MB": "0"}, wantErr: true},
		{name: "zero concurrency", env: map[string]string{"MAX_CONCURRENT": "0"}, wantErr: true},
		{name: "zero rate limit", env: map[string]string{"USER_RATE_LIMIT": "0"}, wantErr: true},
		{name: "bad window", env: map[string]string{"USER_RATE_WINDOW": "soon"}, wantErr: true},
		{name: "negative window", env: map[string]string{"USER_RATE_WINDOW": "-1h"}, wantErr: true},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "trace"}, wantErr: true},
		{name: "text format", env: map[string]string{"LOG_FORMAT": "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("BOT_TOKEN", "x")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"3600", time.Hour},
		{"90m", 90 * time.Minute},
		{" 2s ", 2 * time.Second},
	}

	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if err != nil {
			t.Errorf("parseDuration(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
