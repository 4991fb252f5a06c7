package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			APIBaseURL:         "http://localhost:8375/api",
			RequestTimeoutSecs: 30,
			SessionFile:        "/tmp/session.json",
			RateLimitRPS:       10,
			RateLimitBurst:     20,
			TracingExporter:    "stdout",
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid", func(c *Config) {}, false},
		{"otlp exporter", func(c *Config) { c.TracingExporter = "otlp" }, false},
		{"missing base URL", func(c *Config) { c.APIBaseURL = "" }, true},
		{"relative base URL", func(c *Config) { c.APIBaseURL = "/api" }, true},
		{"zero timeout", func(c *Config) { c.RequestTimeoutSecs = 0 }, true},
		{"missing session file", func(c *Config) { c.SessionFile = "" }, true},
		{"zero rate limit", func(c *Config) { c.RateLimitRPS = 0 }, true},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }, true},
		{"unknown exporter", func(c *Config) { c.TracingExporter = "jaeger" }, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer viper.Reset()

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8375/api", cfg.APIBaseURL)
	assert.Equal(t, 30, cfg.RequestTimeoutSecs)
	assert.NotEmpty(t, cfg.SessionFile)
	assert.NotEmpty(t, cfg.PreviewDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	defer viper.Reset()
	t.Setenv("API_BASE_URL", "https://diary.example.com/api")
	t.Setenv("RATE_LIMIT_RPS", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://diary.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 3.0, cfg.RateLimitRPS)
}

func TestLoadConfig_RejectsBadEnv(t *testing.T) {
	defer viper.Reset()
	t.Setenv("TRACING_EXPORTER", "jaeger")

	_, err := LoadConfig()
	assert.Error(t, err)
}
