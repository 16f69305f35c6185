// config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration for the app.
type Config struct {
	Port     string
	BaseHost string
	APIKey   string

	DatabaseURL  string // libSQL (Turso) URL; empty means local sqlite
	DatabasePath string
	RedisURL     string

	DefaultRedirectURL string // web target for non-mobile visitors
	IOSFallbackURL     string // App Store page
	AndroidFallbackURL string // Play Store page
	DeepLinkScheme     string

	DedupWindow time.Duration
	CacheTTL    time.Duration

	AASAPath string

	AppEnv   string // "development" | "production"
	LogLevel string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         getenv("PORT", "8080"),
		BaseHost:     os.Getenv("BASE_HOST"),
		APIKey:       os.Getenv("API_KEY"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabasePath: getenv("DATABASE_PATH", "data/db.sqlite3"),
		RedisURL:     getenv("REDIS_URL", "redis://localhost:6379"),

		DefaultRedirectURL: os.Getenv("REDIRECT_URL_DEFAULT"),
		IOSFallbackURL:     os.Getenv("FALLBACK_URL_DEFAULT_IOS"),
		AndroidFallbackURL: os.Getenv("FALLBACK_URL_DEFAULT_ANDROID"),
		DeepLinkScheme:     getenv("DEEP_LINK_SCHEME", "surplus"),

		DedupWindow: getenvSeconds("DEDUP_WINDOW_SECONDS", 60),
		CacheTTL:    getenvSeconds("CACHE_TTL_SECONDS", 3600),

		AASAPath: getenv("AASA_PATH", "apple-app-site-association"),

		AppEnv:   getenv("APP_ENV", "production"),
		LogLevel: getenv("LOG_LEVEL", "info"),
	}

	// Required validations
	if cfg.APIKey == "" {
		return nil, errors.New("API_KEY is required")
	}
	if cfg.DefaultRedirectURL == "" {
		return nil, errors.New("REDIRECT_URL_DEFAULT is required")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvSeconds(key string, def int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(def) * time.Second
}
