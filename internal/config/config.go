// Package config loads the per-environment YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the lookbook configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Media      MediaConfig      `yaml:"media"`
	Auth       AuthConfig       `yaml:"auth"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json, console (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port              int `yaml:"port"`
	ReadTimeoutSec    int `yaml:"read_timeout_sec"`
	WriteTimeoutSec   int `yaml:"write_timeout_sec"`
	ShutdownSec       int `yaml:"shutdown_timeout_sec"`
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // embedsvc, openai
	URL                 string `yaml:"url"`      // embedsvc endpoint
	Protocol            string `yaml:"protocol"` // embedsvc: json, gradio
	Function            string `yaml:"function"` // gradio function name
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"` // openai-compatible base URL
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	TimeoutSec          int    `yaml:"timeout_sec"`
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`
	CacheTTLHours       int    `yaml:"cache_ttl_hours"` // 0 = keep forever, -1 = disable cache
}

// GenerationConfig holds the generative model settings.
type GenerationConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	JSONMode    bool    `yaml:"json_mode"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// CatalogConfig maps categories to collections and holds index build settings.
type CatalogConfig struct {
	Collections     map[string]string `yaml:"collections"` // category -> collection name
	HNSWM           int               `yaml:"hnsw_m"`
	HNSWEFConstruct int               `yaml:"hnsw_ef_construction"`
}

// PipelineConfig tunes the per-term fan-out.
type PipelineConfig struct {
	CandidatePool  int `yaml:"candidate_pool"`
	Limit          int `yaml:"limit"`
	TermTimeoutSec int `yaml:"term_timeout_sec"`
}

// MediaConfig holds hosted image settings.
type MediaConfig struct {
	PublicBaseURL string `yaml:"public_base_url"`
	TTLMinutes    int    `yaml:"ttl_minutes"`
	MaxImageBytes int64  `yaml:"max_image_bytes"`
}

// IngestConfig tunes the catalog backfill.
type IngestConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"` // 0 = unlimited
}

// TermTimeout returns the per-term deadline.
func (p PipelineConfig) TermTimeout() time.Duration {
	return time.Duration(p.TermTimeoutSec) * time.Second
}

// Timeout returns the generation deadline.
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSec) * time.Second
}

// CacheTTL returns the embedding cache TTL and whether the cache is enabled.
func (e EmbeddingConfig) CacheTTL() (time.Duration, bool) {
	if e.CacheTTLHours < 0 {
		return 0, false
	}
	return time.Duration(e.CacheTTLHours) * time.Hour, true
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
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

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.RequestTimeoutSec <= 0 {
		c.HTTP.RequestTimeoutSec = 80
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "embedsvc"
	}
	if c.Embedding.Protocol == "" {
		c.Embedding.Protocol = "json"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 1024
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 45
	}
	if c.Catalog.HNSWM <= 0 {
		c.Catalog.HNSWM = 16
	}
	if c.Catalog.HNSWEFConstruct <= 0 {
		c.Catalog.HNSWEFConstruct = 200
	}
	if c.Pipeline.CandidatePool <= 0 {
		c.Pipeline.CandidatePool = 100
	}
	if c.Pipeline.Limit <= 0 {
		c.Pipeline.Limit = 6
	}
	if c.Pipeline.TermTimeoutSec <= 0 {
		c.Pipeline.TermTimeoutSec = 10
	}
	if c.Media.TTLMinutes <= 0 {
		c.Media.TTLMinutes = 60
	}
	if c.Media.MaxImageBytes <= 0 {
		c.Media.MaxImageBytes = 10 << 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return errors.New("database.addrs is required")
	}
	switch c.Database.Driver {
	case "redis", "valkey":
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}

	if err := c.Embedding.validate(); err != nil {
		return err
	}
	if c.Generation.Model == "" {
		return errors.New("generation.model is required")
	}
	if len(c.Catalog.Collections) == 0 {
		return errors.New("catalog.collections is required")
	}
	if c.Pipeline.CandidatePool < c.Pipeline.Limit {
		return fmt.Errorf("pipeline.candidate_pool (%d) must be >= pipeline.limit (%d)",
			c.Pipeline.CandidatePool, c.Pipeline.Limit)
	}
	if c.Media.PublicBaseURL == "" {
		return errors.New("media.public_base_url is required")
	}
	if c.Ingest.RatePerSecond < 0 {
		return fmt.Errorf("ingest.rate_per_second must be >= 0, got %v", c.Ingest.RatePerSecond)
	}
	return nil
}

func (e *EmbeddingConfig) validate() error {
	if e.Dimensions <= 0 {
		return errors.New("embedding.dimensions is required")
	}
	switch e.Provider {
	case "embedsvc":
		if e.URL == "" {
			return errors.New("embedding.url is required for provider embedsvc")
		}
		switch e.Protocol {
		case "json", "gradio":
		default:
			return fmt.Errorf("embedding.protocol must be \"json\" or \"gradio\", got %q", e.Protocol)
		}
	case "openai":
		if e.Model == "" {
			return errors.New("embedding.model is required for provider openai")
		}
	default:
		return fmt.Errorf("embedding.provider must be \"embedsvc\" or \"openai\", got %q", e.Provider)
	}
	return nil
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
