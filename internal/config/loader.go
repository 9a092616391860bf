package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

const envPrefix = "KOREAFIT"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can override values that
// are absent from the YAML file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "koreafit")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.base_url", "http://localhost:8080")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_emails", []string{})

	v.SetDefault("mail.host", "smtp.resend.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "resend")
	v.SetDefault("mail.from", "newsletter@koreafit.kr")
	v.SetDefault("mail.from_name", "Korea Fit")
	v.SetDefault("mail.use_ssl", false)
	v.SetDefault("mail.timeout", 10*time.Second)

	v.SetDefault("content.provider", "template")
	v.SetDefault("content.openai_key", "")
	v.SetDefault("content.openai_model", "")
	v.SetDefault("content.gemini_key", "")
	v.SetDefault("content.gemini_model", "")
	v.SetDefault("content.timeout", 30*time.Second)

	v.SetDefault("regulatory.feed_urls", []string{})
	v.SetDefault("regulatory.feed_timeout", 10*time.Second)
	v.SetDefault("regulatory.seed", 0)

	v.SetDefault("newsletter.max_ideas", 5)
	v.SetDefault("newsletter.max_updates", 5)
}

// Load reads the YAML file at configPath (skipped when empty), merges
// KOREAFIT_* overrides and the unprefixed secrets, then validates.
func Load(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
		}
	}
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	if err := ParseEnv(&cfg.Secrets); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// ParseEnv loads struct fields tagged with `env` from the environment.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
