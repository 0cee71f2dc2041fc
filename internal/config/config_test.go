package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.StockAlertThreshold)
	assert.Equal(t, 30, cfg.ExpirationWindowDays)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("x", 40))
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("STOCK_ALERT_THRESHOLD", "25")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 25, cfg.StockAlertThreshold)
	assert.True(t, cfg.LogDevelopment)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("x", 40))
	t.Setenv("JWT_TTL", "tomorrow")
	t.Setenv("EXPIRATION_WINDOW_DAYS", "abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 30, cfg.ExpirationWindowDays)
}

func TestValidate(t *testing.T) {
	base := Config{
		JWTSecret:            strings.Repeat("k", 32),
		DBDriver:             "postgres",
		StockAlertThreshold:  10,
		ExpirationWindowDays: 30,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "not set"},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }, wantErr: "32"},
		{name: "bad driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, wantErr: "DB_DRIVER"},
		{name: "bad threshold", mutate: func(c *Config) { c.StockAlertThreshold = 0 }, wantErr: "STOCK_ALERT_THRESHOLD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
