package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config keeps runtime settings for the CLI and the bot.
type Config struct {
	Env      string
	Profile  string
	Timezone string

	Log      LogConfig
	Store    StoreConfig
	Telegram TelegramConfig

	// CatalogPath overrides the embedded term catalog when set.
	CatalogPath string
	// DigestTime is an HH:MM local time for the daily digest. Empty disables it.
	DigestTime string
}

type LogConfig struct {
	Level  string
	Format string
}

type StoreConfig struct {
	Backend       string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

// Load reads configuration from the environment and an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Env:      strings.ToLower(strings.TrimSpace(v.GetString("ENV"))),
		Profile:  strings.TrimSpace(v.GetString("PROFILE")),
		Timezone: strings.TrimSpace(v.GetString("TIMEZONE")),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(strings.TrimSpace(v.GetString("STATE_BACKEND"))),
			DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
			RedisAddr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
		},
		Telegram: TelegramConfig{
			Token: strings.TrimSpace(v.GetString("TELEGRAM_TOKEN")),
		},
		CatalogPath: strings.TrimSpace(v.GetString("CATALOG_PATH")),
		DigestTime:  strings.TrimSpace(v.GetString("DIGEST_TIME")),
	}

	if cfg.Profile == "" {
		cfg.Profile = "default"
	}

	if raw := strings.TrimSpace(v.GetString("TELEGRAM_CHAT_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer: %w", err)
		}
		cfg.Telegram.ChatID = id
	}

	switch cfg.Store.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return cfg, fmt.Errorf("unknown STATE_BACKEND %q", cfg.Store.Backend)
	}

	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Location resolves the configured timezone. Empty means the host's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ValidateBot reports settings the Telegram bot cannot run without.
func (c Config) ValidateBot() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}
	return nil
}

// NotificationsViaTelegram reports whether reminders should go to the owner chat.
func (c Config) NotificationsViaTelegram() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PROFILE", "default")
	v.SetDefault("TIMEZONE", "")

	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("STATE_BACKEND", BackendSQLite)
	v.SetDefault("DATABASE_URL", "deadline_intel.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CATALOG_PATH", "")
	v.SetDefault("DIGEST_TIME", "")
}
