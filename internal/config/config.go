package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the client configuration file.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	APIBaseURL      string `yaml:"apiBaseURL"`
	RequestTimeout  string `yaml:"requestTimeout"`
	LogLevel        string `yaml:"logLevel"`
	SessionBackend  string `yaml:"sessionBackend"` // file | redis
	SessionDir      string `yaml:"sessionDir"`
	SessionTTL      string `yaml:"sessionTTL"`
	RefreshInterval string `yaml:"refreshInterval"`
	RedisAddr       string `yaml:"redisAddr"`
	RedisPassword   string `yaml:"redisPassword"`
	CacheTTL        string `yaml:"cacheTTL"`
	PageSize        int    `yaml:"pageSize"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("LIBRARY_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("LIBRARY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("LIBRARY_SESSION_BACKEND"); v != "" {
		cfg.SessionBackend = strings.TrimSpace(v)
	}
	if v := os.Getenv("LIBRARY_SESSION_DIR"); v != "" {
		cfg.SessionDir = strings.TrimSpace(v)
	}
	if v := os.Getenv("LIBRARY_REQUEST_TIMEOUT"); v != "" {
		cfg.RequestTimeout = strings.TrimSpace(v)
	}
	if v := os.Getenv("LIBRARY_SESSION_TTL"); v != "" {
		cfg.SessionTTL = strings.TrimSpace(v)
	}
	if v := os.Getenv("LIBRARY_REFRESH_INTERVAL"); v != "" {
		cfg.RefreshInterval = strings.TrimSpace(v)
	}
	if v := os.Getenv("LIBRARY_CACHE_TTL"); v != "" {
		cfg.CacheTTL = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("LIBRARY_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.PageSize = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return errors.New("config: apiBaseURL is required (set in config.yaml or LIBRARY_API_BASE_URL)")
	}
	switch cfg.SessionBackend {
	case "", "file":
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis session backend")
		}
	default:
		return fmt.Errorf("config: unknown sessionBackend %q (want file or redis)", cfg.SessionBackend)
	}
	if cfg.PageSize < 0 {
		return errors.New("config: pageSize must be >= 0")
	}
	return nil
}

// ParseDuration parses an optional duration string falling back to def.
func ParseDuration(value string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	if dur <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", value)
	}
	return dur, nil
}
