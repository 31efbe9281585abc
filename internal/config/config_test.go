package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
apiBaseURL: https://script.example.com/macros/s/abc/exec
logLevel: debug
sessionBackend: file
sessionTTL: 30m
cacheTTL: 5m
pageSize: 20
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "https://script.example.com/macros/s/abc/exec" {
		t.Fatalf("apiBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.LogLevel != "debug" || cfg.SessionBackend != "file" || cfg.PageSize != 20 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
apiBaseURL: https://old.example.com/exec
logLevel: info
`)
	t.Setenv("LIBRARY_API_BASE_URL", "https://new.example.com/exec")
	t.Setenv("LIBRARY_LOG_LEVEL", "warn")
	t.Setenv("LIBRARY_PAGE_SIZE", "50")
	t.Setenv("LIBRARY_REQUEST_TIMEOUT", "20s")
	t.Setenv("LIBRARY_SESSION_TTL", "45m")
	t.Setenv("LIBRARY_REFRESH_INTERVAL", "15m")
	t.Setenv("LIBRARY_CACHE_TTL", "10m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "https://new.example.com/exec" {
		t.Fatalf("env must override the file, got %q", cfg.APIBaseURL)
	}
	if cfg.LogLevel != "warn" || cfg.PageSize != 50 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RequestTimeout != "20s" || cfg.SessionTTL != "45m" ||
		cfg.RefreshInterval != "15m" || cfg.CacheTTL != "10m" {
		t.Fatalf("duration fields must be overridable: %+v", cfg)
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `logLevel: info`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "apiBaseURL") {
		t.Fatalf("missing apiBaseURL must fail, got %v", err)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
apiBaseURL: https://script.example.com/exec
sessionBackend: etcd
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "sessionBackend") {
		t.Fatalf("unknown backend must fail, got %v", err)
	}
}

func TestLoadRedisBackendNeedsAddr(t *testing.T) {
	path := writeConfig(t, `
apiBaseURL: https://script.example.com/exec
sessionBackend: redis
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "redisAddr") {
		t.Fatalf("redis backend without addr must fail, got %v", err)
	}

	t.Setenv("REDIS_ADDR", "localhost:6379")
	if _, err := Load(path); err != nil {
		t.Fatalf("REDIS_ADDR must satisfy the backend, got %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	if d, err := ParseDuration("", 5*time.Minute); err != nil || d != 5*time.Minute {
		t.Fatalf("empty value must fall back, got %v %v", d, err)
	}
	if d, err := ParseDuration("90s", 0); err != nil || d != 90*time.Second {
		t.Fatalf("ParseDuration(90s) = %v, %v", d, err)
	}
	if _, err := ParseDuration("soon", 0); err == nil {
		t.Fatal("garbage duration must fail")
	}
	if _, err := ParseDuration("-1m", 0); err == nil {
		t.Fatal("non-positive duration must fail")
	}
}
