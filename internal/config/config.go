// Package config reads secrets and endpoints from the environment and the
// tuning knobs from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"olympiad-bot/internal/storage"
	"olympiad-bot/internal/util"
)

type DB struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string

	// DegradedStart keeps the bot running when the database is unreachable
	// at startup.
	DegradedStart bool
}

func (d DB) DSN() string {
	return storage.PostgresDSN(d.Host, d.Port, d.User, d.Password, d.Name)
}

type Config struct {
	TelegramToken string

	DB DB

	RedisURL   string
	SessionTTL time.Duration

	SpreadsheetID            string
	GoogleServiceAccountJSON string

	HTTPAddr      string
	BasePublicURL string
	ExportSecret  string

	LogLevel string
}

// SheetsEnabled reports whether reports should also go to a spreadsheet.
func (c Config) SheetsEnabled() bool {
	return c.SpreadsheetID != "" && c.GoogleServiceAccountJSON != ""
}

// FromEnv loads .env if present and reads the process environment.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, _ := lookup(key); strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	var c Config
	c.TelegramToken = get("TG__BOT_TOKEN", get("TELEGRAM_BOT_TOKEN", ""))

	c.DB = DB{
		Host:          get("DB__HOST", "db"),
		Port:          get("DB__PORT", "5432"),
		User:          get("DB__USER", ""),
		Password:      get("DB__PASSWORD", ""),
		Name:          get("DB__NAME", ""),
		DegradedStart: util.NormalizeBool(get("DB__DEGRADED_START", "false")),
	}

	c.RedisURL = get("REDIS_URL", "")
	ttl, err := time.ParseDuration(get("SESSION_TTL", "24h"))
	if err != nil {
		return c, fmt.Errorf("SESSION_TTL: %w", err)
	}
	c.SessionTTL = ttl

	c.SpreadsheetID = get("GOOGLE_SHEETS_SPREADSHEET_ID", "")
	c.GoogleServiceAccountJSON = get("GOOGLE_SERVICE_ACCOUNT_JSON", "")

	// An explicitly empty HTTP_ADDR disables the server.
	c.HTTPAddr = ":8080"
	if v, ok := lookup("HTTP_ADDR"); ok {
		c.HTTPAddr = strings.TrimSpace(v)
	}
	c.BasePublicURL = strings.TrimRight(get("BASE_PUBLIC_URL", ""), "/")
	c.ExportSecret = get("EXPORT_SECRET", "change-me")

	c.LogLevel = get("LOG_LEVEL", "info")
	return c, nil
}

var ErrNoToken = errors.New("TG__BOT_TOKEN is empty")

// RequireToken fails when no bot token is configured. Only commands that
// talk to Telegram need one.
func (c Config) RequireToken() error {
	if c.TelegramToken == "" {
		return ErrNoToken
	}
	return nil
}

// Options are the non-secret knobs.
type Options struct {
	PageSize int             `toml:"page-size"`
	Workers  int             `toml:"workers"`
	SendRate float64         `toml:"send-rate"`
	DB       storage.Options `toml:"db"`
}

func (o *Options) FillDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = 5
	}
	if o.Workers <= 0 {
		o.Workers = 8
	}
	if o.SendRate <= 0 {
		o.SendRate = 25
	}
	o.DB.FillDefaults()
}

// LoadOptions reads the options file at path. An empty path gives the
// defaults.
func LoadOptions(path string) (Options, error) {
	var o Options
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return o, fmt.Errorf("read options: %w", err)
		}
		if err := toml.Unmarshal(raw, &o); err != nil {
			return o, fmt.Errorf("unmarshal options: %w", err)
		}
	}
	o.FillDefaults()
	return o, nil
}
