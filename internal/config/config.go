// Package config loads runtime settings from the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults
const (
	DefaultDBType                = "sqlite"
	DefaultSQLitePath            = "data/algorecall.db"
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
	DefaultOpenAIModel           = "gpt-3.5-turbo"
)

// Config holds the settings shared by the bot and the CLI
type Config struct {
	BotToken string

	// DBType is "sqlite" or "postgres"
	DBType      string
	DatabaseURL string

	Location *time.Location

	NotificationStartHour int
	NotificationEndHour   int
	EnableScheduler       bool

	AdminUserIDs map[int64]bool

	OpenAIKey   string
	OpenAIModel string
}

// Load reads the environment, seeding it first from the given .env files
// (".env" when none are given). Missing .env files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment
func FromEnv() (*Config, error) {
	cfg := &Config{
		BotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		DBType:       strings.ToLower(getenv("DB_TYPE", DefaultDBType)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getenv("OPENAI_MODEL", DefaultOpenAIModel),
		AdminUserIDs: make(map[int64]bool),
	}

	switch cfg.DBType {
	case "sqlite":
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = DefaultSQLitePath
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set when DB_TYPE=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.DBType)
	}

	loc, err := time.LoadLocation(getenv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.NotificationStartHour, err = hourEnv("NOTIFICATION_START_HOUR", DefaultNotificationStartHour); err != nil {
		return nil, err
	}
	if cfg.NotificationEndHour, err = hourEnv("NOTIFICATION_END_HOUR", DefaultNotificationEndHour); err != nil {
		return nil, err
	}
	if cfg.NotificationStartHour > cfg.NotificationEndHour {
		return nil, fmt.Errorf("NOTIFICATION_START_HOUR (%d) is after NOTIFICATION_END_HOUR (%d)",
			cfg.NotificationStartHour, cfg.NotificationEndHour)
	}

	if v := os.Getenv("ENABLE_SCHEDULER"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ENABLE_SCHEDULER %q: %w", v, err)
		}
		cfg.EnableScheduler = enabled
	} else {
		cfg.EnableScheduler = true
	}

	if ids := os.Getenv("ADMIN_USER_IDS"); ids != "" {
		for _, idStr := range strings.Split(ids, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid admin user ID %q: %w", idStr, err)
			}
			cfg.AdminUserIDs[id] = true
		}
	}

	return cfg, nil
}

// RequireBotToken fails when the Telegram token is missing
func (c *Config) RequireBotToken() error {
	if c.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	return nil
}

// IsAdmin reports whether the Telegram user may run admin commands
func (c *Config) IsAdmin(userID int64) bool {
	return c.AdminUserIDs[userID]
}

// InNotificationWindow reports whether hour lies inside the reminder window (inclusive)
func (c *Config) InNotificationWindow(hour int) bool {
	return hour >= c.NotificationStartHour && hour <= c.NotificationEndHour
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func hourEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%s must be an hour between 0 and 23, got %q", key, v)
	}
	return h, nil
}
