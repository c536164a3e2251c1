package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestFromLookupDefaults(t *testing.T) {
	c, err := fromLookup(env(map[string]string{"TG__BOT_TOKEN": " 123:abc "}))
	require.NoError(t, err)
	assert.Equal(t, "123:abc", c.TelegramToken)
	assert.Equal(t, "db", c.DB.Host)
	assert.Equal(t, "5432", c.DB.Port)
	assert.False(t, c.DB.DegradedStart)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "change-me", c.ExportSecret)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.SheetsEnabled())
	assert.NoError(t, c.RequireToken())
}

func TestFromLookup(t *testing.T) {
	c, err := fromLookup(env(map[string]string{
		"TELEGRAM_BOT_TOKEN":           "legacy",
		"DB__HOST":                     "localhost",
		"DB__USER":                     "bot",
		"DB__PASSWORD":                 "pw",
		"DB__NAME":                     "olympiads",
		"DB__DEGRADED_START":           "yes",
		"REDIS_URL":                    "redis://localhost:6379/0",
		"SESSION_TTL":                  "30m",
		"GOOGLE_SHEETS_SPREADSHEET_ID": "sheet",
		"GOOGLE_SERVICE_ACCOUNT_JSON":  "/etc/sa.json",
		"HTTP_ADDR":                    "",
		"BASE_PUBLIC_URL":              "https://bot.example.org/",
		"LOG_LEVEL":                    "debug",
	}))
	require.NoError(t, err)
	assert.Equal(t, "legacy", c.TelegramToken)
	assert.True(t, c.DB.DegradedStart)
	assert.Equal(t, "host=localhost port=5432 user=bot password=pw dbname=olympiads sslmode=disable TimeZone=UTC", c.DB.DSN())
	assert.Equal(t, 30*time.Minute, c.SessionTTL)
	assert.True(t, c.SheetsEnabled())
	assert.Empty(t, c.HTTPAddr)
	assert.Equal(t, "https://bot.example.org", c.BasePublicURL)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestFromLookupErrors(t *testing.T) {
	_, err := fromLookup(env(map[string]string{"TG__BOT_TOKEN": "x", "SESSION_TTL": "forever"}))
	assert.Error(t, err)
}

// The token is only checked by commands that talk to Telegram.
func TestFromLookupWithoutToken(t *testing.T) {
	c, err := fromLookup(env(map[string]string{"DB__NAME": "olympiads"}))
	require.NoError(t, err)
	assert.Equal(t, "olympiads", c.DB.Name)
	assert.ErrorIs(t, c.RequireToken(), ErrNoToken)
}

func TestLoadOptions(t *testing.T) {
	o, err := LoadOptions("")
	require.NoError(t, err)
	assert.Equal(t, 5, o.PageSize)
	assert.Equal(t, 8, o.Workers)
	assert.Equal(t, 25.0, o.SendRate)
	assert.Equal(t, 10, o.DB.MaxOpenConns)

	path := filepath.Join(t.TempDir(), "bot.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
page-size = 10
send-rate = 5.5

[db]
max-open-conns = 3
slow-threshold = "1s"
`), 0o600))
	o, err = LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 10, o.PageSize)
	assert.Equal(t, 8, o.Workers)
	assert.Equal(t, 5.5, o.SendRate)
	assert.Equal(t, 3, o.DB.MaxOpenConns)
	assert.Equal(t, 1, o.DB.MinIdleConns)
	assert.Equal(t, time.Second, o.DB.SlowThreshold)

	neg := filepath.Join(t.TempDir(), "negative.toml")
	require.NoError(t, os.WriteFile(neg, []byte("page-size = -2\nworkers = -1\nsend-rate = -3\n"), 0o600))
	o, err = LoadOptions(neg)
	require.NoError(t, err)
	assert.Equal(t, 5, o.PageSize)
	assert.Equal(t, 8, o.Workers)
	assert.Equal(t, 25.0, o.SendRate)

	_, err = LoadOptions(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
