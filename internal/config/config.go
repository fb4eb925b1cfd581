// Package config loads gateway configuration from the environment, with an
// optional providers.yaml overlay for per-endpoint tuning.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full set of knobs the gateway reads at startup.
type Config struct {
	Port int

	UpstreamBaseURL        string
	UpstreamContentBaseURL string
	UpstreamPartnerID      string
	UpstreamAPIKey         string

	DatabaseURL string
	RedisAddr   string // empty disables the Redis mirror tier

	MapboxToken string // orthogonal POI feature, out of core scope

	LogLevel string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	RequestDeadline  time.Duration

	GovernorSweepInterval time.Duration
	CacheSweepInterval    time.Duration

	Endpoints map[string]EndpointConfig
}

// EndpointConfig overrides a single upstream endpoint's quota. Loaded from
// providers.yaml; environment variables never touch these (there is no
// per-endpoint env var surface in spec.md's table, and adding one would
// fragment the single source of truth for quotas). FailureThreshold is
// parsed but not applied: circuit breakers always use the fixed trip policy
// in internal/circuit.
type EndpointConfig struct {
	RequestsAllowed  int `yaml:"requests_allowed"`
	WindowSeconds    int `yaml:"window_seconds"`
	FailureThreshold int `yaml:"failure_threshold"`
}

// providersFile is the on-disk shape of providers.yaml.
type providersFile struct {
	Endpoints map[string]EndpointConfig `yaml:"endpoints"`
}

// Load builds a Config from the environment, then overlays providersYAMLPath
// if it exists. A missing overlay file is not an error — the compiled-in
// defaults in internal/upstream already cover every endpoint in spec.md §4.2.
func Load(providersYAMLPath string) (*Config, error) {
	cfg := &Config{
		Port:                   envInt("PORT", 8080),
		UpstreamBaseURL:        os.Getenv("UPSTREAM_BASE_URL"),
		UpstreamContentBaseURL: os.Getenv("UPSTREAM_CONTENT_BASE_URL"),
		UpstreamPartnerID:      os.Getenv("UPSTREAM_PARTNER_ID"),
		UpstreamAPIKey:         os.Getenv("UPSTREAM_API_KEY"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		MapboxToken:            os.Getenv("MAPBOX_TOKEN"),
		LogLevel:               envString("LOG_LEVEL", "info"),
		HTTPReadTimeout:        envSeconds("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:       envSeconds("HTTP_WRITE_TIMEOUT", 10*time.Second),
		RequestDeadline:        envSeconds("REQUEST_DEADLINE_SECONDS", 60*time.Second),
		GovernorSweepInterval:  envSeconds("GOVERNOR_SWEEP_INTERVAL", 5*time.Minute),
		CacheSweepInterval:     envSeconds("CACHE_SWEEP_INTERVAL", 5*time.Minute),
		Endpoints:              map[string]EndpointConfig{},
	}

	if providersYAMLPath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(providersYAMLPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read providers overlay: %w", err)
	}
	var overlay providersFile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse providers overlay: %w", err)
	}
	cfg.Endpoints = overlay.Endpoints
	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(n) * time.Second
}
