package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("REDIRECT_URL_DEFAULT", "https://example.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "data/db.sqlite3", cfg.DatabasePath)
	assert.Equal(t, "surplus", cfg.DeepLinkScheme)
	assert.Equal(t, 60*time.Second, cfg.DedupWindow)
	assert.Equal(t, 3600*time.Second, cfg.CacheTTL)
	assert.Equal(t, "production", cfg.AppEnv)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DEDUP_WINDOW_SECONDS", "120")
	t.Setenv("CACHE_TTL_SECONDS", "600")
	t.Setenv("DEEP_LINK_SCHEME", "myapp")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.DedupWindow)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "myapp", cfg.DeepLinkScheme)
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("DEDUP_WINDOW_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.DedupWindow)
}

func TestLoadRequiredFields(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("REDIRECT_URL_DEFAULT", "https://example.com")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("API_KEY", "secret")
	t.Setenv("REDIRECT_URL_DEFAULT", "")
	_, err = Load()
	assert.Error(t, err)
}
