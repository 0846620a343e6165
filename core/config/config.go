package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token    string  `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"TELEGRAM_ADMIN_IDS"`
	RunMode  string  `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Dir     string `yaml:"dir"`
	File    string `yaml:"file"`
	Profile string `yaml:"profile"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// FormConfig tunes the multi-step form engine.
type FormConfig struct {
	// SessionTimeoutSeconds bounds how long an untouched worker session survives.
	SessionTimeoutSeconds int `yaml:"session_timeout_seconds" envconfig:"FORM_SESSION_TIMEOUT_SECONDS"`
	// AdminTimeoutSeconds bounds admin single-field sessions; 0 -> same as worker.
	AdminTimeoutSeconds int `yaml:"admin_timeout_seconds" envconfig:"FORM_ADMIN_TIMEOUT_SECONDS"`
	SweepSeconds        int `yaml:"sweep_seconds" envconfig:"FORM_SWEEP_SECONDS"`
}

// SettingsConfig controls the site-settings cache and its fallbacks.
type SettingsConfig struct {
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" envconfig:"SETTINGS_CACHE_TTL_SECONDS"`
	SupportFallback string `yaml:"support_fallback"`
	CardFallback    string `yaml:"card_fallback"`
}

// CatalogConfig carries listing defaults substituted on skipped steps.
type CatalogConfig struct {
	WebAppURL        string   `yaml:"web_app_url" envconfig:"WEB_APP_URL"`
	DefaultServices  []string `yaml:"default_services"`
	PlaceholderImage string   `yaml:"placeholder_image"`
}

// RateLimitConfig holds settings for per-user rate limiting.
type RateLimitConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
}

// Config aggregates the full bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DBConfig        `yaml:"database"`
	Form      FormConfig      `yaml:"form"`
	Settings  SettingsConfig  `yaml:"settings"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	var errs *multierror.Error

	if cfg.Telegram.Token == "" {
		errs = multierror.Append(errs, fmt.Errorf("telegram.token is required"))
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			errs = multierror.Append(errs, fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'"))
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			errs = multierror.Append(errs, fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'"))
		}
		if cfg.Webhook.Port <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'"))
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			errs = multierror.Append(errs, fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0"))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode))
	}
	cfg.Telegram.RunMode = rm

	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 10
	}

	if cfg.Form.SessionTimeoutSeconds <= 0 {
		cfg.Form.SessionTimeoutSeconds = 300
	}
	if cfg.Form.AdminTimeoutSeconds <= 0 {
		cfg.Form.AdminTimeoutSeconds = cfg.Form.SessionTimeoutSeconds
	}
	if cfg.Form.SweepSeconds <= 0 {
		cfg.Form.SweepSeconds = 60
	}

	if cfg.Settings.CacheTTLSeconds <= 0 {
		cfg.Settings.CacheTTLSeconds = 300
	}
	if cfg.Settings.SupportFallback == "" {
		cfg.Settings.SupportFallback = "@OneNightSupport"
	}
	if cfg.Settings.CardFallback == "" {
		cfg.Settings.CardFallback = "2202 2026 8321 4532"
	}

	if len(cfg.Catalog.DefaultServices) == 0 {
		cfg.Catalog.DefaultServices = []string{"Классика", "Массаж"}
	}
	if cfg.Catalog.PlaceholderImage == "" {
		cfg.Catalog.PlaceholderImage = "https://images.unsplash.com/photo-1534528741775-53994a69daeb?w=400"
	}

	return errs.ErrorOrNil()
}

// IsAdmin reports whether the given Telegram user id is on the admin allow-list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
