// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// BackendURL is the base URL of the local proxy backend's management API.
	BackendURL string
	// ManagementKey authenticates management API requests, if the backend requires one.
	ManagementKey string
	// CachePath is the local SQLite quota snapshot mirror.
	CachePath string
	// RefreshInterval is the fallback quota refresh period, used until the
	// backend's settings have been read.
	RefreshInterval time.Duration
	// RequestTimeout bounds individual backend calls.
	RequestTimeout time.Duration
	// SettingsPath is the .env file that was loaded, if any. Watched for changes.
	SettingsPath string
}

// Default values
const (
	defaultBackendURL      = "http://127.0.0.1:8417"
	defaultRefreshInterval = 5 * time.Minute
	defaultRequestTimeout  = 30 * time.Second
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	var settingsPath string
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			settingsPath = path
			break
		}
	}

	cfg := &Config{
		BackendURL:      getEnvString("PROXYDECK_BACKEND_URL", defaultBackendURL),
		ManagementKey:   getEnvString("PROXYDECK_MANAGEMENT_KEY", ""),
		CachePath:       getEnvString("PROXYDECK_CACHE_PATH", getDefaultCachePath()),
		RefreshInterval: getEnvDuration("PROXYDECK_REFRESH_INTERVAL", defaultRefreshInterval),
		RequestTimeout:  getEnvDuration("PROXYDECK_REQUEST_TIMEOUT", defaultRequestTimeout),
		SettingsPath:    settingsPath,
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("PROXYDECK_BACKEND_URL must not be empty")
	}

	if err := ensureDir(filepath.Dir(cfg.CachePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "proxydeck", ".env"),
			filepath.Join(home, ".proxydeck", ".env"),
		)
	}

	return paths
}

// getDefaultCachePath returns the default path for the quota snapshot mirror.
func getDefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "quota_cache.db"
	}
	return filepath.Join(home, ".config", "proxydeck", "quota_cache.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "5m", or plain seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
