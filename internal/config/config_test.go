package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 120, cfg.RateLimitRPM)
	assert.Equal(t, 5, cfg.StatsRefreshInterval)
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:5173")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://citycare.example.com")
	t.Setenv("RATE_LIMIT_RPM", "60")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://citycare.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 60, cfg.RateLimitRPM)
}

func TestLoadProductionValidation(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err, "production requires DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://app@db/citycare")
	_, err = Load()
	require.Error(t, err, "production requires a real JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = Load()
	require.Error(t, err, "production requires DIRECTORY_BASE_URL")

	t.Setenv("DIRECTORY_BASE_URL", "https://identity.example.com")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}
