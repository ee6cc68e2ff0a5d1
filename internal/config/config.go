// Package config loads and validates PaperTrail configuration.
// Configuration is read from a YAML file with environment variable
// overrides (PAPERTRAIL_*) taking highest priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the configuration schema version.
const CurrentVersion = 1

// Config represents the complete PaperTrail configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// RateLimitPerMinute is the per-IP request budget. 0 disables limiting.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// ReadTimeout and WriteTimeout bound request handling.
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AuthConfig configures session tokens and password hashing.
type AuthConfig struct {
	// SecretKey signs session tokens. Must be overridden in production
	// via PAPERTRAIL_SECRET_KEY.
	SecretKey string `yaml:"secret_key"`

	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// StorageConfig configures the SQLite corpus store.
type StorageConfig struct {
	// DataDir holds the database, lock file, and logs.
	DataDir string `yaml:"data_dir"`

	// CacheMB is the SQLite page cache size in MB.
	CacheMB int `yaml:"cache_mb"`
}

// SearchConfig configures hybrid search.
//
// RRFConstant is a single shared constant: it is fixed at load time and
// never tuned per-call, so rankings stay comparable across queries.
type SearchConfig struct {
	// RRFConstant is the RRF smoothing parameter k (default: 60).
	RRFConstant int `yaml:"rrf_constant"`

	// DefaultLimit is the result count when the caller does not specify one.
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit is the hard cap on result count.
	MaxLimit int `yaml:"max_limit"`

	// OverfetchFactor scales the per-source candidate fetch: each retrieval
	// path is asked for limit*factor candidates before fusion.
	OverfetchFactor int `yaml:"overfetch_factor"`

	// LexicalFallback permits lexical-only results when the embedder is
	// down. Responses produced this way are flagged as degraded.
	LexicalFallback bool `yaml:"lexical_fallback"`

	// Timeout bounds a single hybrid search end to end.
	Timeout time.Duration `yaml:"timeout"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "ollama" or "static".
	Provider string `yaml:"provider"`

	// Model is the embedding model name (ollama provider).
	Model string `yaml:"model"`

	// Dimensions is the embedding dimension; fixed for the deployment
	// lifetime. 0 means auto-detect from the provider.
	Dimensions int `yaml:"dimensions"`

	// OllamaHost is the Ollama API endpoint.
	OllamaHost string `yaml:"ollama_host"`

	// BatchSize for batch embedding requests.
	BatchSize int `yaml:"batch_size"`

	// Timeout for a single embedding request.
	Timeout time.Duration `yaml:"timeout"`

	// CacheSize is the number of embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               8080,
			RateLimitPerMinute: 60,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       30 * time.Second,
		},
		Auth: AuthConfig{
			SecretKey: "change-me-in-production",
			TokenTTL:  30 * time.Minute,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
			CacheMB: 64,
		},
		Search: SearchConfig{
			RRFConstant:     60,
			DefaultLimit:    50,
			MaxLimit:        100,
			OverfetchFactor: 4,
			LexicalFallback: false,
			Timeout:         5 * time.Second,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "qwen3-embedding:0.6b",
			Dimensions: 0,
			OllamaHost: "http://localhost:11434",
			BatchSize:  32,
			Timeout:    60 * time.Second,
			CacheSize:  1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".papertrail")
	}
	return filepath.Join(home, ".papertrail")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load reads the configuration from path, falling back to defaults for
// unset fields, then applies environment overrides and validates.
// A missing file is not an error: defaults plus env are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through to env overrides.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// applyEnv overrides config fields from PAPERTRAIL_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("PAPERTRAIL_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PAPERTRAIL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("PAPERTRAIL_SECRET_KEY"); v != "" {
		c.Auth.SecretKey = v
	}
	if v := os.Getenv("PAPERTRAIL_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("PAPERTRAIL_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.RRFConstant = n
		}
	}
	if v := os.Getenv("PAPERTRAIL_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("PAPERTRAIL_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("PAPERTRAIL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("max_limit (%d) must be >= default_limit (%d)",
			c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	if c.Search.OverfetchFactor < 1 {
		return fmt.Errorf("overfetch_factor must be >= 1, got %d", c.Search.OverfetchFactor)
	}
	switch c.Embeddings.Provider {
	case "ollama", "static":
	default:
		return fmt.Errorf("unknown embeddings provider: %q", c.Embeddings.Provider)
	}
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("auth secret_key must not be empty")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage data_dir must not be empty")
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Storage.DataDir, "papertrail.db")
}

// LockPath returns the data directory lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Storage.DataDir, "papertrail.lock")
}
