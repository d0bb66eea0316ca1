package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ReviewPipeline/internal/domain"
)

const (
	configPathEnv     = "REVIEW_PIPELINE_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	databaseDriverEnv = "DATABASE_DRIVER"
	logLevelEnv       = "LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scraper       ScraperConfig      `yaml:"scraper"`
	Concurrency   ConcurrencyConfig  `yaml:"concurrency"`
	Output        OutputConfig       `yaml:"output"`
	Database      DatabaseConfig     `yaml:"database"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// LoggingConfig selects level and handler format (text, json, console).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScraperConfig tunes page fetching.
type ScraperConfig struct {
	UserAgent         string `yaml:"userAgent"`
	TimeoutSeconds    int    `yaml:"timeoutSeconds"`
	RequestsPerMinute int    `yaml:"requestsPerMinute"`
	ReviewsPerPage    int    `yaml:"reviewsPerPage"`
	TimestampSelector string `yaml:"timestampSelector"`
}

// Timeout is the per-page fetch bound.
func (s ScraperConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ConcurrencyConfig bounds how many sources are processed at once.
type ConcurrencyConfig struct {
	Sources int `yaml:"sources"`
}

// OutputConfig is where CSV reports are written; empty disables CSV output.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// DatabaseConfig describes the SQL sink; an empty DSN disables it.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIBase  string `yaml:"apiBase"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// SourceConfig describes one review page to collect.
type SourceConfig struct {
	Name       string `yaml:"name"`
	Scanner    string `yaml:"scanner"`
	URL        string `yaml:"url"`
	MaxReviews int    `yaml:"maxReviews"`
	Sort       string `yaml:"sort"`
}

// Domain converts the config entry, falling back to popular sort and the URL-derived name.
func (s SourceConfig) Domain() domain.Source {
	sort, _ := domain.ParseSortMode(s.Sort)
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = domain.SourceNameFromURL(s.URL)
	}
	return domain.Source{
		Name:       name,
		Scanner:    s.Scanner,
		URL:        strings.TrimSpace(s.URL),
		MaxReviews: s.MaxReviews,
		Sort:       sort,
	}
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := ReadFile(path)
		if err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// LoadFrom merges the given file over defaults and applies environment overrides.
func LoadFrom(path string) (Config, error) {
	fileCfg, err := ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := mergeConfig(defaultConfig(), fileCfg)
	cfg.applyEnvOverrides()
	return cfg, nil
}

// ReadFile parses a YAML config file without applying defaults.
func ReadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return fileCfg, nil
}

// Validate reports the first source that cannot be collected.
func (c Config) Validate() error {
	for i, src := range c.Sources {
		if strings.TrimSpace(src.URL) == "" {
			return fmt.Errorf("source %d: url is required", i)
		}
		if src.MaxReviews <= 0 {
			return fmt.Errorf("source %s: maxReviews must be positive", src.URL)
		}
		if _, ok := domain.ParseSortMode(src.Sort); !ok {
			return fmt.Errorf("source %s: unknown sort %q (want popular or new)", src.URL, src.Sort)
		}
	}
	switch c.Database.Driver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("database: unsupported driver %q", c.Database.Driver)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}
	if override.Scraper.TimeoutSeconds > 0 {
		base.Scraper.TimeoutSeconds = override.Scraper.TimeoutSeconds
	}
	if override.Scraper.RequestsPerMinute > 0 {
		base.Scraper.RequestsPerMinute = override.Scraper.RequestsPerMinute
	}
	if override.Scraper.ReviewsPerPage > 0 {
		base.Scraper.ReviewsPerPage = override.Scraper.ReviewsPerPage
	}
	if override.Scraper.TimestampSelector != "" {
		base.Scraper.TimestampSelector = override.Scraper.TimestampSelector
	}

	if override.Concurrency.Sources > 0 {
		base.Concurrency.Sources = override.Concurrency.Sources
	}

	if override.Output.Directory != "" {
		base.Output.Directory = override.Output.Directory
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIBase != "" {
		base.Notifications.Telegram.APIBase = override.Notifications.Telegram.APIBase
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Scraper: ScraperConfig{
			TimeoutSeconds:    5,
			RequestsPerMinute: 30,
			ReviewsPerPage:    5,
			TimestampSelector: "p.time-stamp",
		},
		Concurrency: ConcurrencyConfig{Sources: 2},
		Output:      OutputConfig{Directory: "Sentiments"},
		Database:    DatabaseConfig{Driver: "postgres"},
	}
}
