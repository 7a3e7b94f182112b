// Package config handles application configuration from a YAML file and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Storage drivers for the destination record.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config holds the application configuration. It is built once at startup
// and never mutated afterwards.
type Config struct {
	TelegramBotToken string        `koanf:"telegram_bot_token"`
	AdminID          int64         `koanf:"admin_id"`
	SourceChatID     int64         `koanf:"source_chat_id"`
	SourceFeedURL    string        `koanf:"source_feed_url"`
	Keyword          string        `koanf:"keyword"`
	StorageDriver    string        `koanf:"storage_driver"`
	DestinationsPath string        `koanf:"destinations_path"`
	DatabasePath     string        `koanf:"database_path"`
	LogLevel         string        `koanf:"log_level"`
	MinInterval      int           `koanf:"min_interval"`
	FallbackSleep    int           `koanf:"fallback_sleep"`
	JitterMin        time.Duration `koanf:"jitter_min"`
	JitterMax        time.Duration `koanf:"jitter_max"`
	FeedPollInterval time.Duration `koanf:"feed_poll_interval"`
	SweepCron        string        `koanf:"sweep_cron"`
	SendRatePerSec   int           `koanf:"send_rate_per_sec"`
	DialogLimit      int           `koanf:"dialog_limit"`
}

var knownKeys = map[string]bool{
	"telegram_bot_token": true,
	"admin_id":           true,
	"source_chat_id":     true,
	"source_feed_url":    true,
	"keyword":            true,
	"storage_driver":     true,
	"destinations_path":  true,
	"database_path":      true,
	"log_level":          true,
	"min_interval":       true,
	"fallback_sleep":     true,
	"jitter_min":         true,
	"jitter_max":         true,
	"feed_poll_interval": true,
	"sweep_cron":         true,
	"send_rate_per_sec":  true,
	"dialog_limit":       true,
}

// Default returns the configuration used for every key that is not set.
func Default() Config {
	return Config{
		StorageDriver:    DriverJSON,
		DestinationsPath: "./data/db.json",
		DatabasePath:     "./data/bot.db",
		LogLevel:         "info",
		MinInterval:      600,
		FallbackSleep:    600,
		JitterMin:        time.Second,
		JitterMax:        10 * time.Second,
		FeedPollInterval: 5 * time.Minute,
		SendRatePerSec:   20,
		DialogLimit:      20,
	}
}

// Load reads configuration from the optional YAML file named by CONFIG_FILE,
// then from environment variables, which take precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		key = strings.ToLower(key)
		if !knownKeys[key] || value == "" {
			return "", nil
		}
		return key, strings.TrimSpace(value)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.AdminID == 0 {
		return fmt.Errorf("ADMIN_ID is required")
	}
	if strings.TrimSpace(c.Keyword) == "" {
		return fmt.Errorf("KEYWORD is required")
	}
	switch {
	case c.SourceChatID == 0 && c.SourceFeedURL == "":
		return fmt.Errorf("one of SOURCE_CHAT_ID or SOURCE_FEED_URL is required")
	case c.SourceChatID != 0 && c.SourceFeedURL != "":
		return fmt.Errorf("SOURCE_CHAT_ID and SOURCE_FEED_URL are mutually exclusive")
	}
	c.StorageDriver = strings.ToLower(c.StorageDriver)
	if c.StorageDriver != DriverJSON && c.StorageDriver != DriverSQLite {
		return fmt.Errorf("invalid STORAGE_DRIVER %q, use: %s, %s", c.StorageDriver, DriverJSON, DriverSQLite)
	}
	if c.MinInterval <= 0 || c.FallbackSleep <= 0 {
		return fmt.Errorf("MIN_INTERVAL and FALLBACK_SLEEP must be positive")
	}
	if c.JitterMin < 0 || c.JitterMax < c.JitterMin {
		return fmt.Errorf("invalid jitter range %s..%s", c.JitterMin, c.JitterMax)
	}
	if c.SendRatePerSec <= 0 {
		return fmt.Errorf("SEND_RATE_PER_SEC must be positive")
	}
	if c.DialogLimit <= 0 {
		return fmt.Errorf("DIALOG_LIMIT must be positive")
	}
	return nil
}

// IsAdmin checks whether a user ID is the operator.
func (c *Config) IsAdmin(userID int64) bool {
	return userID == c.AdminID
}

// UsesFeedSource reports whether the source is an RSS/Atom feed rather than a Telegram channel.
func (c *Config) UsesFeedSource() bool {
	return c.SourceFeedURL != ""
}
