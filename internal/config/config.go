// Package config provides configuration management for tubetext.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort            = 8000
	DefaultHost            = "0.0.0.0"
	DefaultLogLevel        = "info"
	DefaultProviderTimeout = 30 * time.Second
	DefaultYouTubeBaseURL  = "https://www.youtube.com"

	// Environment variable names
	EnvPort            = "TUBETEXT_PORT"
	EnvHost            = "TUBETEXT_HOST"
	EnvLogLevel        = "TUBETEXT_LOG_LEVEL"
	EnvCacheDir        = "TUBETEXT_CACHE_DIR"
	EnvDataDir         = "TUBETEXT_DATA_DIR"
	EnvProviderTimeout = "TUBETEXT_PROVIDER_TIMEOUT"
	EnvYouTubeBaseURL  = "TUBETEXT_YOUTUBE_BASE_URL"

	// Database filename
	DBFilename = "catalog.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	Host() string
	Addr() string
	LogLevel() string
	CacheDir() string
	DataDir() string
	DBPath() string
	ProviderTimeout() time.Duration
	YouTubeBaseURL() string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port            int
	host            string
	logLevel        string
	cacheDir        string
	dataDir         string
	providerTimeout time.Duration
	youtubeBaseURL  string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:            DefaultPort,
		host:            DefaultHost,
		logLevel:        DefaultLogLevel,
		cacheDir:        filepath.Join(os.TempDir(), "tubetext-cache"),
		dataDir:         filepath.Join(os.TempDir(), "tubetext"),
		providerTimeout: DefaultProviderTimeout,
		youtubeBaseURL:  DefaultYouTubeBaseURL,
	}

	if p := os.Getenv(EnvPort); p != "" {
		if err := cfg.SetPort(p); err != nil {
			return nil, err
		}
	}

	if h := os.Getenv(EnvHost); h != "" {
		cfg.host = h
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if cd := os.Getenv(EnvCacheDir); cd != "" {
		cfg.cacheDir = cd
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if pt := os.Getenv(EnvProviderTimeout); pt != "" {
		d, err := time.ParseDuration(pt)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvProviderTimeout, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: timeout must be positive", EnvProviderTimeout)
		}
		cfg.providerTimeout = d
	}

	if u := os.Getenv(EnvYouTubeBaseURL); u != "" {
		cfg.youtubeBaseURL = u
	}

	return cfg, nil
}

// SetPort parses and applies a port override, as given by the --port flag.
func (c *EnvConfig) SetPort(p string) error {
	port, err := strconv.Atoi(p)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", p, err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: port must be between 1 and 65535", port)
	}
	c.port = port
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// Host returns the HTTP bind host
func (c *EnvConfig) Host() string {
	return c.host
}

// Addr returns host:port for the HTTP listener
func (c *EnvConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// CacheDir returns the rendered page cache directory
func (c *EnvConfig) CacheDir() string {
	return c.cacheDir
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite catalog file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

func (c *EnvConfig) ProviderTimeout() time.Duration {
	return c.providerTimeout
}

func (c *EnvConfig) YouTubeBaseURL() string {
	return c.youtubeBaseURL
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
