// Package config carries the two configuration layers of tradelens:
// runtime settings (API key, paths, pacing) loaded through viper, and the
// immutable dataset definition (tracked commodities, allow-lists, region
// vocabulary) that collectors receive explicitly.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is the runtime configuration of the collector and server
// binaries. Precedence: flags > TRADELENS_* env vars > config file >
// defaults.
type Settings struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	DBPath  string `mapstructure:"db_path"`

	// Months is the trailing collection window, inclusive of the
	// current month.
	Months int `mapstructure:"months"`

	// CallDelay paces every API call; RetryDelay is the linear backoff
	// base between failed attempts.
	CallDelay   time.Duration `mapstructure:"call_delay"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	MaxAttempts int           `mapstructure:"max_attempts"`

	ServerAddr string `mapstructure:"server_addr"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		BaseURL:     "https://apis.data.go.kr/1220000",
		DBPath:      "trade.db",
		Months:      14,
		CallDelay:   300 * time.Millisecond,
		RetryDelay:  2 * time.Second,
		MaxAttempts: 3,
		ServerAddr:  ":8000",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load reads settings from an optional YAML file and the environment.
// An explicit path that does not exist is an error; otherwise missing
// files fall back to defaults + env.
func Load(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TRADELENS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := Defaults()
	v.SetDefault("api_key", defaults.APIKey)
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("months", defaults.Months)
	v.SetDefault("call_delay", defaults.CallDelay)
	v.SetDefault("retry_delay", defaults.RetryDelay)
	v.SetDefault("max_attempts", defaults.MaxAttempts)
	v.SetDefault("server_addr", defaults.ServerAddr)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("tradelens")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate rejects settings the pipeline cannot run with.
func (s Settings) Validate() error {
	if s.Months < 0 {
		return fmt.Errorf("months must not be negative, got %d", s.Months)
	}
	if s.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", s.MaxAttempts)
	}
	if strings.TrimSpace(s.DBPath) == "" {
		return errors.New("db_path is required")
	}
	return nil
}
