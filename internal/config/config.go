package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env"
)

const (
	SessionStoreSQLite = "sqlite"
	SessionStoreMongo  = "mongo"
)

// Config holds the configuration for the application.
type Config struct {
	Port         string `env:"PORT" envDefault:"3000"`
	BaseURL      string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/grocery-planner.db"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	// Sessions
	SessionSecret string `env:"SESSION_SECRET,required"`
	SessionStore  string `env:"SESSION_STORE" envDefault:"sqlite"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"grocery_planner"`

	// Google OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID,required"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET,required"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	// Optional, enables model-based recipe extraction
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`

	// Telegram Config (optional)
	TelegramBotToken     string   `env:"TELEGRAM_BOT_TOKEN"`
	TelegramWebhookURL   string   `env:"TELEGRAM_WEBHOOK_URL"`
	TelegramAllowedUsers []string `env:"TELEGRAM_ALLOWED_USERS" envSeparator:","`
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks rules that span more than one variable.
func (c *Config) Validate() error {
	switch c.SessionStore {
	case SessionStoreSQLite:
	case SessionStoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI environment variable not set (required by SESSION_STORE=mongo)")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.TelegramBotToken != "" && c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}

	if _, err := c.TelegramUsers(); err != nil {
		return err
	}
	return nil
}

// OAuthRedirectURL is the callback Google redirects to after consent.
func (c *Config) OAuthRedirectURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/auth/google/callback"
}

// TelegramEnabled reports whether the Telegram bot should be started.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// TelegramUsers parses TELEGRAM_ALLOWED_USERS entries of the form
// "<telegram id>:<email>".
func (c *Config) TelegramUsers() (map[int64]string, error) {
	users := make(map[int64]string, len(c.TelegramAllowedUsers))
	for _, entry := range c.TelegramAllowedUsers {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, email, ok := strings.Cut(entry, ":")
		if !ok || email == "" {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USERS entry %q: expected id:email", entry)
		}
		tgID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram id in %q: %w", entry, err)
		}
		users[tgID] = strings.ToLower(strings.TrimSpace(email))
	}
	return users, nil
}
