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

// Config holds the docdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Search    SearchConfig    `yaml:"search"`
	History   HistoryConfig   `yaml:"history"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds the retrieval engine tunables.
type SearchConfig struct {
	VectorWeight     float64      `yaml:"vector_weight"`
	BoostSteps       []BoostStep  `yaml:"boost_steps"`
	FieldWeights     FieldWeights `yaml:"field_weights"`
	DefaultLimit     int          `yaml:"default_limit"`
	MaxLimit         int          `yaml:"max_limit"`
	HybridThreshold  float64      `yaml:"hybrid_threshold"`
	VectorThreshold  float64      `yaml:"vector_threshold"`
	CacheTTLSec      int          `yaml:"cache_ttl_sec"`
	CacheSize        int          `yaml:"cache_size"`
	EmbedTimeoutSec  int          `yaml:"embed_timeout_sec"`
	RecentSampleSize int          `yaml:"recent_sample_size"`
}

// BoostStep rewards near-exact vector matches during hybrid fusion.
type BoostStep struct {
	Min        float64 `yaml:"min"`
	Multiplier float64 `yaml:"multiplier"`
}

// FieldWeights sets the per-field contribution of the keyword leg.
// All-zero means the engine defaults.
type FieldWeights struct {
	Title         float64 `yaml:"title"`
	Description   float64 `yaml:"description"`
	Summary       float64 `yaml:"summary"`
	KeyPoints     float64 `yaml:"key_points"`
	Tags          float64 `yaml:"tags"`
	SuggestedTags float64 `yaml:"suggested_tags"`
}

// HistoryConfig holds search history stream settings.
type HistoryConfig struct {
	Stream     string `yaml:"stream"`
	MaxLen     int64  `yaml:"max_len"`
	MaxWaitSec int    `yaml:"max_wait_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.History.Stream == "" {
		c.History.Stream = "docdex:search_history"
	}
	if c.History.MaxLen <= 0 {
		c.History.MaxLen = 10000
	}
	if c.History.MaxWaitSec <= 0 {
		c.History.MaxWaitSec = 5
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "docdex:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Search.VectorWeight < 0 || c.Search.VectorWeight > 1 {
		return fmt.Errorf("search.vector_weight must be within [0,1], got %v", c.Search.VectorWeight)
	}
	for i, s := range c.Search.BoostSteps {
		if s.Min < 0 || s.Min > 1 {
			return fmt.Errorf("search.boost_steps[%d].min must be within [0,1], got %v", i, s.Min)
		}
		if s.Multiplier < 1 {
			return fmt.Errorf("search.boost_steps[%d].multiplier must be >= 1, got %v", i, s.Multiplier)
		}
	}
	fw := c.Search.FieldWeights
	for name, w := range map[string]float64{
		"title":          fw.Title,
		"description":    fw.Description,
		"summary":        fw.Summary,
		"key_points":     fw.KeyPoints,
		"tags":           fw.Tags,
		"suggested_tags": fw.SuggestedTags,
	} {
		if w < 0 {
			return fmt.Errorf("search.field_weights.%s must be non-negative, got %v", name, w)
		}
	}
	if c.Search.MaxLimit > 0 && c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d",
			c.Search.DefaultLimit, c.Search.MaxLimit)
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
