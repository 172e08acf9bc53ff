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

// Config holds the docset configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Query    QueryConfig    `yaml:"query"`
	Logging  LoggingConfig  `yaml:"logging"`
	Models   []ModelConfig  `yaml:"models"`
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
	Driver           string   `yaml:"driver"` // redis (default)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	DialTimeout      int      `yaml:"dial_timeout_sec"`
	ClientName       string   `yaml:"client_name"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
	// Reindex rebuilds a model index whose fields no longer match the config.
	Reindex bool `yaml:"reindex"`
}

// QueryConfig bounds the queries the service accepts.
type QueryConfig struct {
	DefaultBatchSize int `yaml:"default_batch_size"`
	MaxLimit         int `yaml:"max_limit"`
}

// ModelConfig declares one document type.
type ModelConfig struct {
	Name         string                 `yaml:"name"`
	Collection   string                 `yaml:"collection"` // defaults to name
	Fields       []FieldConfig          `yaml:"fields"`
	Aliases      map[string]string      `yaml:"aliases"`
	Scopes       map[string]ScopeConfig `yaml:"scopes"`
	DefaultScope *ScopeConfig           `yaml:"default_scope"`
	BatchSize    int                    `yaml:"batch_size"`
}

// FieldConfig declares an indexed field.
type FieldConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // tag, numeric, text
}

// ScopeConfig is a declarative named scope: a selector plus modifiers.
type ScopeConfig struct {
	Where map[string]any `yaml:"where"`
	Sort  []SortConfig   `yaml:"sort"`
	Skip  *int           `yaml:"skip"`
	Limit *int           `yaml:"limit"`
	Only  []string       `yaml:"only"`
}

// SortConfig is one sort key of a scope.
type SortConfig struct {
	Field     string `yaml:"field"`
	Direction string `yaml:"direction"` // asc (default), desc
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (Config, error) {
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
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.DialTimeout <= 0 {
		c.Database.DialTimeout = 5
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "docset:"
	}
	if c.Query.DefaultBatchSize <= 0 {
		c.Query.DefaultBatchSize = 100
	}
	if c.Query.MaxLimit <= 0 {
		c.Query.MaxLimit = 1000
	}
	for i := range c.Models {
		if c.Models[i].Collection == "" {
			c.Models[i].Collection = c.Models[i].Name
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if d := c.Database.Driver; d != "" && d != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}

	seen := make(map[string]struct{}, len(c.Models))
	for _, m := range c.Models {
		if m.Name == "" {
			return fmt.Errorf("models: name is required")
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("models.%s: duplicate model name", m.Name)
		}
		seen[m.Name] = struct{}{}
		if err := m.validate(); err != nil {
			return fmt.Errorf("models.%s: %w", m.Name, err)
		}
	}
	return nil
}

func (m ModelConfig) validate() error {
	if m.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative, got %d", m.BatchSize)
	}
	for _, f := range m.Fields {
		switch f.Type {
		case "tag", "numeric", "text":
		default:
			return fmt.Errorf("fields.%s: type must be tag, numeric or text, got %q", f.Name, f.Type)
		}
	}
	for name, s := range m.Scopes {
		if err := s.validate(); err != nil {
			return fmt.Errorf("scopes.%s: %w", name, err)
		}
	}
	if m.DefaultScope != nil {
		if err := m.DefaultScope.validate(); err != nil {
			return fmt.Errorf("default_scope: %w", err)
		}
	}
	return nil
}

func (s ScopeConfig) validate() error {
	for _, k := range s.Sort {
		if k.Field == "" {
			return fmt.Errorf("sort field is required")
		}
		switch strings.ToLower(k.Direction) {
		case "", "asc", "desc":
		default:
			return fmt.Errorf("sort %s: direction must be asc or desc, got %q", k.Field, k.Direction)
		}
	}
	if s.Skip != nil && *s.Skip < 0 {
		return fmt.Errorf("skip must not be negative")
	}
	if s.Limit != nil && *s.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
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
