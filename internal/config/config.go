// Package config loads runtime configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Reddit script-app credentials.
	RedditClientID     string `mapstructure:"reddit_client_id"`
	RedditClientSecret string `mapstructure:"reddit_client_secret"`
	RedditUsername     string `mapstructure:"reddit_username"`
	RedditPassword     string `mapstructure:"reddit_password"`
	UserAgent          string `mapstructure:"user_agent"`

	Subreddit string `mapstructure:"subreddit"`
	// Operator receives forwarded inbox messages and alerts.
	Operator string `mapstructure:"operator"`

	OsuAPIKey string `mapstructure:"osu_api_key"`

	DatabaseDSN string `mapstructure:"database_dsn"`
	RedisAddr   string `mapstructure:"redis_addr"` // empty disables the seen-cache

	// Telegram alerting, optional.
	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID int64  `mapstructure:"telegram_chat_id"`

	// AdminAddr serves /healthz and /stats; empty disables the server.
	AdminAddr string `mapstructure:"admin_addr"`

	CheckIntervalMinutes int `mapstructure:"check_interval_minutes"`
	// RetentionDays is the duplicate window; CheckWindowDays bounds the
	// widened sweep that runs every WidenEvery passes.
	RetentionDays   int `mapstructure:"retention_days"`
	CheckWindowDays int `mapstructure:"check_window_days"`
	WidenEvery      int `mapstructure:"widen_every"`

	DefaultToCheating bool `mapstructure:"default_to_cheating"`
}

// Load reads .env (when present) and the environment. Only credentials are
// required; everything else has a default.
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env is fine in production

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("subreddit", "osureport")
	v.SetDefault("user_agent", "linux:osureporter.bot (by /u/tybug2)")
	v.SetDefault("database_dsn", "host=localhost user=osureporter password=osureporter dbname=osureporter port=5432 sslmode=disable")
	v.SetDefault("redis_addr", "")
	v.SetDefault("admin_addr", "")
	v.SetDefault("check_interval_minutes", 15)
	v.SetDefault("retention_days", 30)
	v.SetDefault("check_window_days", 180)
	v.SetDefault("widen_every", 100)
	v.SetDefault("default_to_cheating", true)

	// AutomaticEnv only resolves keys it has seen, so touch the ones without
	// defaults explicitly.
	for _, key := range []string{
		"reddit_client_id", "reddit_client_secret", "reddit_username",
		"reddit_password", "operator", "osu_api_key",
		"telegram_token", "telegram_chat_id",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	for key, val := range map[string]string{
		"REDDIT_CLIENT_ID":     cfg.RedditClientID,
		"REDDIT_CLIENT_SECRET": cfg.RedditClientSecret,
		"REDDIT_USERNAME":      cfg.RedditUsername,
		"REDDIT_PASSWORD":      cfg.RedditPassword,
		"OSU_API_KEY":          cfg.OsuAPIKey,
	} {
		if val == "" {
			return nil, fmt.Errorf("missing required configuration %s", key)
		}
	}
	return &cfg, nil
}
