package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the mebooks API configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Cache        CacheConfig        `yaml:"cache"`
	VectorSearch VectorSearchConfig `yaml:"vector_search"`
	Insight      InsightConfig      `yaml:"insight"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds the Redis cache backend settings. The cache is an
// optimization: an unreachable backend degrades to cache misses and must
// never prevent startup.
type CacheConfig struct {
	Addr             string `yaml:"addr"`
	Password         string `yaml:"password"`
	DB               int    `yaml:"db"`
	KeyPrefix        string `yaml:"key_prefix"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// VectorSearchConfig holds the external semantic search service settings.
type VectorSearchConfig struct {
	URL               string `yaml:"url"`
	HealthTimeoutSec  int    `yaml:"health_timeout_sec"`
	HealthTTLSec      int    `yaml:"health_ttl_sec"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

// InsightConfig holds settings for the OpenAI-compatible query analyzer.
// An empty API key disables the provider; query analysis then uses the
// built-in heuristic.
type InsightConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Load reads configuration from a YAML file by environment name (local, dev,
// prod). A missing config file is not an error: defaults and environment
// variables apply.
func Load(env string) (Config, error) {
	var cfg Config

	configPath := findConfigPath(env)
	data, err := os.ReadFile(filepath.Clean(configPath))
	switch {
	case err == nil:
		// Substitute env variables of the form ${VAR} / ${VAR:-default}
		data = expandEnvVars(data)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// run on defaults
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values. Deployment overrides
// for the two external endpoints come from REDIS_URL and
// VECTOR_SEARCH_SERVICE_URL when the config file does not set them.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.Addr == "" {
		c.Cache.Addr = envOr("REDIS_URL", "localhost:6379")
	}
	c.Cache.Addr = stripRedisScheme(c.Cache.Addr)
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "mebooks:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 5
	}
	if c.VectorSearch.URL == "" {
		c.VectorSearch.URL = envOr("VECTOR_SEARCH_SERVICE_URL", "http://localhost:8000")
	}
	if c.VectorSearch.HealthTimeoutSec <= 0 {
		c.VectorSearch.HealthTimeoutSec = 5
	}
	if c.VectorSearch.HealthTTLSec <= 0 {
		c.VectorSearch.HealthTTLSec = 60
	}
	if c.VectorSearch.RequestTimeoutSec <= 0 {
		c.VectorSearch.RequestTimeoutSec = 30
	}
	if c.Insight.Model == "" {
		c.Insight.Model = "gpt-4o-mini"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if !strings.HasPrefix(c.VectorSearch.URL, "http://") && !strings.HasPrefix(c.VectorSearch.URL, "https://") {
		return fmt.Errorf("vector_search.url must be an http(s) URL, got %q", c.VectorSearch.URL)
	}
	return nil
}

// stripRedisScheme accepts both "host:port" and "redis://host:port" forms.
func stripRedisScheme(addr string) string {
	addr = strings.TrimPrefix(addr, "redis://")
	return strings.TrimPrefix(addr, "rediss://")
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
