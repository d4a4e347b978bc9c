package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

var configKeys = []string{
	"DATABASE_PATH", "RECORDINGS_DIR", "TIMEZONE", "ALARM_CHECK_SPEC", "SNOOZE_AFTER",
	"SERVER_PORT", "API_USERNAME", "API_PASSWORD", "TELEGRAM_BOT_TOKEN",
	"OWNER_TELEGRAM_ID", "PARTNER_TELEGRAM_ID", "WEBHOOK_URL", "NOTIFY_RATE",
	"CALDAV_URL", "CALDAV_USERNAME", "CALDAV_PASSWORD", "CALDAV_CALENDAR", "CALDAV_SYNC_SPEC",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DatabasePath != "./data/voicealarm.db" || cfg.RecordingsDir != "./data/recordings" {
		t.Fatalf("unexpected paths %q %q", cfg.DatabasePath, cfg.RecordingsDir)
	}
	if cfg.AlarmSpec != "* * * * *" || cfg.CalDAVSyncSpec != "*/15 * * * *" {
		t.Fatalf("unexpected specs %q %q", cfg.AlarmSpec, cfg.CalDAVSyncSpec)
	}
	if cfg.SnoozeAfter != 5*time.Minute || cfg.NotifyRate != 1 || cfg.ServerPort != "8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Timezone != time.Local {
		t.Fatalf("expected Local timezone, got %v", cfg.Timezone)
	}
	if cfg.TelegramEnabled() || cfg.CalDAVEnabled() {
		t.Fatalf("expected optional integrations disabled")
	}
}

func TestLoad_Telegram(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	if _, err := Load(); err == nil {
		t.Fatalf("expected missing OWNER_TELEGRAM_ID to fail")
	}

	t.Setenv("OWNER_TELEGRAM_ID", "42")
	t.Setenv("PARTNER_TELEGRAM_ID", "43")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.IsAllowedUser(42) || !cfg.IsAllowedUser(43) || cfg.IsAllowedUser(44) {
		t.Fatalf("unexpected allow list")
	}
	if !reflect.DeepEqual(cfg.Recipients(), []int64{42, 43}) {
		t.Fatalf("unexpected recipients %v", cfg.Recipients())
	}

	t.Setenv("PARTNER_TELEGRAM_ID", "partner")
	if _, err := Load(); err == nil {
		t.Fatalf("expected bad PARTNER_TELEGRAM_ID to fail")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"timezone", "TIMEZONE", "Mars/Olympus"},
		{"snooze", "SNOOZE_AFTER", "soon"},
		{"negative snooze", "SNOOZE_AFTER", "-1m"},
		{"rate", "NOTIFY_RATE", "0"},
		{"half credentials", "API_USERNAME", "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%q to fail", tt.key, tt.val)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SERVER_PORT=9999\nRECORDINGS_DIR=/tmp/recs\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("RECORDINGS_DIR", "/already/set")
	os.Unsetenv("SERVER_PORT")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("SERVER_PORT") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerPort != "9999" {
		t.Fatalf("expected port from .env, got %q", cfg.ServerPort)
	}
	if cfg.RecordingsDir != "/already/set" {
		t.Fatalf("expected existing env to win, got %q", cfg.RecordingsDir)
	}
}
