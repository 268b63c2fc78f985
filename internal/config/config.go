// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AccessSecret signs access tokens (HS256). Required.
	AccessSecret string `mapstructure:"ACCESS_SECRET"`
	// AccessTimeout is the access token lifetime (e.g. "15m").
	AccessTimeout string `mapstructure:"ACCESS_TIMEOUT"`
	// EmailSecret signs email-verification tokens. Must differ from ResetSecret.
	EmailSecret string `mapstructure:"EMAIL_SECRET"`
	// EmailTimeout is the email-verification token lifetime (e.g. "24h").
	EmailTimeout string `mapstructure:"EMAIL_TIMEOUT"`
	// ResetSecret signs password-reset tokens. Must differ from EmailSecret.
	ResetSecret string `mapstructure:"RESET_SECRET"`
	// ResetTimeout is the password-reset token lifetime (e.g. "1h").
	ResetTimeout string `mapstructure:"RESET_TIMEOUT"`
	// BcryptCost is the bcrypt cost factor (4–31); default 10.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// ClientURL is the frontend base URL used to build verification and reset links in mail.
	ClientURL string `mapstructure:"CLIENT_URL"`
	// MailHost is the SMTP server host. Mail is disabled when empty.
	MailHost string `mapstructure:"MAIL_HOST"`
	// MailPort is the SMTP server port (default 587).
	MailPort int `mapstructure:"MAIL_PORT"`
	// MailFrom is the From address for outgoing mail.
	MailFrom string `mapstructure:"MAIL_FROM"`
	// MailUsername is the SMTP auth username.
	MailUsername string `mapstructure:"MAIL_USER_NAME"`
	// MailPassword is the SMTP auth password.
	MailPassword string `mapstructure:"MAIL_USER_PASS"`

	// Events (optional). When Kafka brokers are set, auth flows emit account events to Kafka.
	// EventsKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	EventsKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// EventsKafkaTopic is the Kafka topic for account events (default account-events).
	EventsKafkaTopic string `mapstructure:"EVENTS_KAFKA_TOPIC"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ACCESS_SECRET", "")
	v.SetDefault("ACCESS_TIMEOUT", "15m")
	v.SetDefault("EMAIL_SECRET", "")
	v.SetDefault("EMAIL_TIMEOUT", "24h")
	v.SetDefault("RESET_SECRET", "")
	v.SetDefault("RESET_TIMEOUT", "1h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("CLIENT_URL", "http://localhost:3000")
	v.SetDefault("MAIL_HOST", "")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("MAIL_USER_NAME", "")
	v.SetDefault("MAIL_USER_PASS", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "account-events")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.AccessSecret == "" {
		return nil, errors.New("config: ACCESS_SECRET must be set")
	}
	if cfg.EmailSecret == "" || cfg.ResetSecret == "" {
		return nil, errors.New("config: EMAIL_SECRET and RESET_SECRET must be set")
	}
	if cfg.EmailSecret == cfg.ResetSecret {
		return nil, errors.New("config: EMAIL_SECRET and RESET_SECRET must differ")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AccessTTL parses AccessTimeout as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.AccessTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// EmailTokenTTL parses EmailTimeout as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) EmailTokenTTL() time.Duration {
	d, err := time.ParseDuration(c.EmailTimeout)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// ResetTokenTTL parses ResetTimeout as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) ResetTokenTTL() time.Duration {
	d, err := time.ParseDuration(c.ResetTimeout)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// EventsKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if events are enabled (non-empty list) and to create the producer.
func (c *Config) EventsKafkaBrokersList() []string {
	if c == nil || c.EventsKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.EventsKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
