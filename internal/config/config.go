// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds client configuration values loaded from file or environment variables.
type Config struct {
	APIBaseURL          string  `mapstructure:"API_BASE_URL"`
	RequestTimeoutSecs  int     `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	SessionFile         string  `mapstructure:"SESSION_FILE"`
	PreviewDir          string  `mapstructure:"PREVIEW_DIR"`
	RateLimitRPS        float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst      int     `mapstructure:"RATE_LIMIT_BURST"`
	LogLevel            string  `mapstructure:"LOG_LEVEL"`
	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	TracingOTLPEndpoint string  `mapstructure:"TRACING_OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
	Env                 string  `mapstructure:"APP_ENV"`
}

// LoadConfig loads client configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(dir, "doggodiary"))
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; environment variables and defaults
	// cover the common case.
	_ = viper.ReadInConfig()

	viper.SetDefault("API_BASE_URL", "http://localhost:8375/api")
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SESSION_FILE", defaultSessionFile())
	viper.SetDefault("PREVIEW_DIR", filepath.Join(os.TempDir(), "doggodiary", "previews"))
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
	viper.SetDefault("APP_ENV", "development")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and usable.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL %q is not an absolute URL", c.APIBaseURL)
	}
	if c.RequestTimeoutSecs <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.SessionFile == "" {
		return errors.New("SESSION_FILE is required")
	}
	if c.RateLimitRPS <= 0 {
		return errors.New("RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_BURST must be positive")
	}
	switch c.TracingExporter {
	case "stdout", "otlp":
	default:
		return fmt.Errorf("TRACING_EXPORTER must be stdout or otlp, got %q", c.TracingExporter)
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "doggodiary", "session.json")
}
