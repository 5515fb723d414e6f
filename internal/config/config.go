package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	// Core
	BotToken string `env:"BOT_TOKEN,required"`
	OwnerID  int64  `env:"OWNER_ID,required"`

	// Admin
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Storage
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"file"`
	DataFile       string        `env:"DATA_FILE" envDefault:"bot_data.json"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"2s"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"10s"`

	// Shown to users without access
	ContactURL string `env:"CONTACT_URL"`

	// Bot behavior
	DropPendingUpdates bool   `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`

	// Telegram logging
	LogTelegramChatID int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError     int   `env:"LOG_TOPIC_ERROR"`
	LogTopicAccess    int   `env:"LOG_TOPIC_ACCESS"`
	LogTopicAdmin     int   `env:"LOG_TOPIC_ADMIN"`
	LogTopicBroadcast int   `env:"LOG_TOPIC_BROADCAST"`
	LogTopicRegister  int   `env:"LOG_TOPIC_REGISTRATION"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendFile:
		if c.DataFile == "" {
			return fmt.Errorf("parse config: DATA_FILE is empty")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("parse config: DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("parse config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.OwnerID <= 0 {
		return fmt.Errorf("parse config: OWNER_ID must be positive")
	}
	if c.CacheTTL < 0 || c.StorageTimeout <= 0 {
		return fmt.Errorf("parse config: CACHE_TTL must not be negative and STORAGE_TIMEOUT must be positive")
	}
	return nil
}

// IsAdmin reports whether telegramID is the owner or a configured admin.
// Admins promoted at runtime are only known to the store.
func (c *Config) IsAdmin(telegramID int64) bool {
	return telegramID == c.OwnerID || slices.Contains(c.AdminIDs, telegramID)
}

// SeedAdminIDs lists configured admins other than the owner.
func (c *Config) SeedAdminIDs() []int64 {
	ids := make([]int64, 0, len(c.AdminIDs))
	for _, id := range c.AdminIDs {
		if id != c.OwnerID && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// AdminIDsString renders the configured admin ids for logs.
func (c *Config) AdminIDsString() string {
	parts := make([]string, len(c.AdminIDs))
	for i, id := range c.AdminIDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
