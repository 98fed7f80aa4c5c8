package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
telegram:
  token: "123:abc"
rate_limit:
  interval_ms: 300
  exclude_updates: [" Callback "]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("RunMode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if got := cfg.RateLimit.ExcludeUpdates[0]; got != UpdateCallback {
		t.Errorf("ExcludeUpdates[0] = %q, want %q", got, UpdateCallback)
	}
}

func TestLoadEnvOverridesToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("telegram:\n  run_mode: polling\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_TOKEN", "42:env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.Token != "42:env" {
		t.Errorf("Token = %q, want env value", cfg.Telegram.Token)
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing token", Config{}},
		{"bad run mode", Config{Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}}},
		{"webhook without url", Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}}},
		{"bad exclusion", Config{
			Telegram:  TelegramConfig{Token: "t"},
			RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline_query"}},
		}},
		{"negative retries", Config{Telegram: TelegramConfig{Token: "t"}, Sender: SenderConfig{MaxRetries: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if err := Normalize(&cfg); err == nil {
				t.Error("Normalize() should fail")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load() should error on missing file")
	}
}
