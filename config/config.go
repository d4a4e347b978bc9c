package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabasePath  string
	RecordingsDir string
	Timezone      *time.Location
	AlarmSpec     string
	SnoozeAfter   time.Duration

	ServerPort  string
	APIUsername string
	APIPassword string

	TelegramToken     string
	OwnerTelegramID   int64
	PartnerTelegramID int64
	WebhookURL        string
	NotifyRate        float64

	CalDAVURL      string
	CalDAVUsername string
	CalDAVPassword string
	CalDAVCalendar string
	CalDAVSyncSpec string
}

// LoadDotEnv reads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:   getEnv("DATABASE_PATH", "./data/voicealarm.db"),
		RecordingsDir:  getEnv("RECORDINGS_DIR", "./data/recordings"),
		AlarmSpec:      getEnv("ALARM_CHECK_SPEC", "* * * * *"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		APIUsername:    os.Getenv("API_USERNAME"),
		APIPassword:    os.Getenv("API_PASSWORD"),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		CalDAVURL:      os.Getenv("CALDAV_URL"),
		CalDAVUsername: os.Getenv("CALDAV_USERNAME"),
		CalDAVPassword: os.Getenv("CALDAV_PASSWORD"),
		CalDAVCalendar: os.Getenv("CALDAV_CALENDAR"),
		CalDAVSyncSpec: getEnv("CALDAV_SYNC_SPEC", "*/15 * * * *"),
	}

	tz, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Timezone = tz

	cfg.SnoozeAfter, err = time.ParseDuration(getEnv("SNOOZE_AFTER", "5m"))
	if err != nil || cfg.SnoozeAfter <= 0 {
		return nil, fmt.Errorf("SNOOZE_AFTER must be a positive duration like 5m")
	}

	cfg.NotifyRate, err = strconv.ParseFloat(getEnv("NOTIFY_RATE", "1"), 64)
	if err != nil || cfg.NotifyRate <= 0 {
		return nil, fmt.Errorf("NOTIFY_RATE must be a positive number")
	}

	if cfg.TelegramToken != "" {
		cfg.OwnerTelegramID, err = strconv.ParseInt(os.Getenv("OWNER_TELEGRAM_ID"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("OWNER_TELEGRAM_ID is required and must be a number")
		}
		if p := os.Getenv("PARTNER_TELEGRAM_ID"); p != "" {
			cfg.PartnerTelegramID, err = strconv.ParseInt(p, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("PARTNER_TELEGRAM_ID must be a number")
			}
		}
	}

	if (cfg.APIUsername == "") != (cfg.APIPassword == "") {
		return nil, fmt.Errorf("API_USERNAME and API_PASSWORD must be set together")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// CalDAVEnabled reports whether credentials are set. The calendar path may be
// discovered at startup.
func (c *Config) CalDAVEnabled() bool {
	return c.CalDAVUsername != "" && c.CalDAVPassword != ""
}

func (c *Config) IsAllowedUser(telegramID int64) bool {
	if telegramID == 0 {
		return false
	}
	return telegramID == c.OwnerTelegramID || telegramID == c.PartnerTelegramID
}

// Recipients returns the chat ids that receive alarms.
func (c *Config) Recipients() []int64 {
	ids := []int64{c.OwnerTelegramID}
	if c.PartnerTelegramID != 0 && c.PartnerTelegramID != c.OwnerTelegramID {
		ids = append(ids, c.PartnerTelegramID)
	}
	return ids
}
