package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ReviewPipeline/internal/domain"
)

const sampleConfig = `
logging:
  level: debug
  format: console
scraper:
  timeoutSeconds: 9
  timestampSelector: span.when
database:
  driver: sqlite
  dsn: file:reviews.db
sources:
  - url: https://www.zomato.com/ncr/cafe-one
    maxReviews: 25
    sort: new
  - name: Second
    url: https://www.zomato.com/ncr/cafe-two
    maxReviews: 10
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromMergesDefaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
	require.Equal(t, 9*time.Second, cfg.Scraper.Timeout())
	require.Equal(t, 5, cfg.Scraper.ReviewsPerPage)
	require.Equal(t, 30, cfg.Scraper.RequestsPerMinute)
	require.Equal(t, "span.when", cfg.Scraper.TimestampSelector)
	require.Equal(t, "Sentiments", cfg.Output.Directory)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Len(t, cfg.Sources, 2)
	require.NoError(t, cfg.Validate())

	first := cfg.Sources[0].Domain()
	require.Equal(t, "cafe_one", first.Name)
	require.Equal(t, domain.SortNew, first.Sort)
	require.Equal(t, 25, first.MaxReviews)

	second := cfg.Sources[1].Domain()
	require.Equal(t, "Second", second.Name)
	require.Equal(t, domain.SortPopular, second.Sort)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, writeConfig(t, sampleConfig))
	t.Setenv(databaseDSNEnv, "postgres://reviews@localhost/reviews")
	t.Setenv(databaseDriverEnv, "postgres")
	t.Setenv(logLevelEnv, "warn")
	t.Setenv(telegramTokenEnv, "token")
	t.Setenv(telegramChatIDEnv, "42")

	cfg := Load()

	require.Equal(t, "postgres://reviews@localhost/reviews", cfg.Database.DSN)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "warn", cfg.Logging.Level)
	require.Equal(t, "token", cfg.Notifications.Telegram.BotToken)
	require.Equal(t, "42", cfg.Notifications.Telegram.ChatID)
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()

	require.Equal(t, defaultConfig().Scraper, cfg.Scraper)
	require.Empty(t, cfg.Sources)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := map[string]Config{
		"missing url":    {Sources: []SourceConfig{{MaxReviews: 5}}},
		"zero max":       {Sources: []SourceConfig{{URL: "https://x", MaxReviews: 0}}},
		"bad sort":       {Sources: []SourceConfig{{URL: "https://x", MaxReviews: 5, Sort: "oldest"}}},
		"unknown driver": {Database: DatabaseConfig{Driver: "mysql"}},
	}
	for name, cfg := range cases {
		require.Error(t, cfg.Validate(), name)
	}
}
