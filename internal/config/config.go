// Package config loads service settings from a YAML file, KOREAFIT_*
// environment overrides and a handful of unprefixed secrets.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Mail       MailConfig       `mapstructure:"mail"`
	Content    ContentConfig    `mapstructure:"content"`
	Regulatory RegulatoryConfig `mapstructure:"regulatory"`
	Newsletter NewsletterConfig `mapstructure:"newsletter"`

	// Secrets come from plain env vars shared with the hosting platform.
	Secrets Secrets `mapstructure:"-"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	BaseURL string `mapstructure:"base_url"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type AuthConfig struct {
	JWTSecret   string   `mapstructure:"jwt_secret"`
	AdminEmails []string `mapstructure:"admin_emails"`
}

type MailConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	From     string        `mapstructure:"from"`
	FromName string        `mapstructure:"from_name"`
	UseSSL   bool          `mapstructure:"use_ssl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ContentConfig struct {
	Provider    string        `mapstructure:"provider"` // template | openai | gemini
	OpenAIKey   string        `mapstructure:"openai_key"`
	OpenAIModel string        `mapstructure:"openai_model"`
	GeminiKey   string        `mapstructure:"gemini_key"`
	GeminiModel string        `mapstructure:"gemini_model"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type RegulatoryConfig struct {
	FeedURLs    []string      `mapstructure:"feed_urls"`
	FeedTimeout time.Duration `mapstructure:"feed_timeout"`
	Seed        int64         `mapstructure:"seed"` // 0 = seeded from the clock
}

type NewsletterConfig struct {
	MaxIdeas   int `mapstructure:"max_ideas"`
	MaxUpdates int `mapstructure:"max_updates"`
}

type Secrets struct {
	CronSecret   string `env:"CRON_SECRET"`
	ResendAPIKey string `env:"RESEND_API_KEY"`
	TestEmail    string `env:"TEST_EMAIL"`
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	switch strings.ToLower(c.Content.Provider) {
	case "template":
	case "openai":
		if c.Content.OpenAIKey == "" {
			errs = append(errs, errors.New("content.openai_key is required for the openai provider"))
		}
	case "gemini":
		if c.Content.GeminiKey == "" {
			errs = append(errs, errors.New("content.gemini_key is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("content.provider %q is not supported", c.Content.Provider))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	return errors.Join(errs...)
}

// IsAdmin reports whether email is on the admin allow-list.
func (c AuthConfig) IsAdmin(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return false
	}
	for _, a := range c.AdminEmails {
		if strings.ToLower(strings.TrimSpace(a)) == email {
			return true
		}
	}
	return false
}

// EmailEnabled is false when no transactional email key is configured; mail
// is then simulated.
func (c *Config) EmailEnabled() bool {
	return c.Secrets.ResendAPIKey != ""
}
