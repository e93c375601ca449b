package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Limits    LimitsConfig    `yaml:"limits" envconfig:"LIMITS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DashboardConfig contains presentation defaults for the dashboard pipeline.
// TopN differs between deployments (15 or 20 were both in use); it is a
// configuration constant, not a behavioral fork.
type DashboardConfig struct {
	Title       string `yaml:"title" envconfig:"TITLE"`
	TopN        int    `yaml:"top_n" envconfig:"TOP_N"`
	PreviewRows int    `yaml:"preview_rows" envconfig:"PREVIEW_ROWS"`
}

// LimitsConfig contains request limiting configuration
type LimitsConfig struct {
	MaxUploadBytes int64   `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
}

// Load loads configuration from an optional YAML file merged with
// SALESCOPE-prefixed environment variables. Environment takes precedence.
func Load() (*Config, error) {
	return LoadFromFile(defaultConfigPath())
}

// LoadFromFile loads configuration from the given YAML file path, then applies
// environment overrides. A missing file is not an error; defaults apply.
func LoadFromFile(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("SALESCOPE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func defaultConfigPath() string {
	if p := os.Getenv("SALESCOPE_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

// applyDefaults fills whatever neither the YAML file nor the environment set.
// Defaults live here, not in struct tags: an envconfig default tag fires on
// every unset env var and would overwrite file-loaded values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/salescope.log"
	}
	if c.Dashboard.Title == "" {
		c.Dashboard.Title = "E-commerce EDA Dashboard"
	}
	if c.Dashboard.TopN == 0 {
		c.Dashboard.TopN = 15
	}
	if c.Dashboard.PreviewRows == 0 {
		c.Dashboard.PreviewRows = 5
	}
	if c.Limits.MaxUploadBytes == 0 {
		c.Limits.MaxUploadBytes = 32 << 20
	}
	if c.Limits.RateLimitRPS == 0 {
		c.Limits.RateLimitRPS = 50
	}
	if c.Limits.RateLimitBurst == 0 {
		c.Limits.RateLimitBurst = 25
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	if c.Dashboard.TopN < 1 {
		return fmt.Errorf("dashboard top_n must be positive, got %d", c.Dashboard.TopN)
	}
	if c.Dashboard.PreviewRows < 1 {
		return fmt.Errorf("dashboard preview_rows must be positive, got %d", c.Dashboard.PreviewRows)
	}
	if c.Limits.MaxUploadBytes < 1 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.Limits.MaxUploadBytes)
	}
	return nil
}
