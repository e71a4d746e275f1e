package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.baseguide/baseguide.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Airtable AirtableConfig `yaml:"airtable"`
	Gemini   GeminiConfig   `yaml:"gemini,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
	Logging  LogConfig      `yaml:"logging,omitempty"`
}

// AirtableConfig defines the Airtable Metadata API connection.
type AirtableConfig struct {
	AccessToken           string  `yaml:"access_token"`
	BaseID                string  `yaml:"base_id"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds,omitempty"` // default 30
	MaxRetryAttempts      int     `yaml:"max_retry_attempts,omitempty"`      // default 3
	InitialBackoffSeconds float64 `yaml:"initial_backoff_seconds,omitempty"` // default 1
}

// GeminiConfig defines the narrative generation backend. The API key is
// optional: without it, reports carry no generated guidance.
type GeminiConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model,omitempty"` // default gemini-2.5-pro
}

// OutputConfig defines where schemas and reports are written.
type OutputConfig struct {
	SchemaDir string `yaml:"schema_dir,omitempty"` // default ~/.baseguide/schemas/
	ReportDir string `yaml:"report_dir,omitempty"` // default reports/
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level         string `yaml:"level,omitempty"`          // debug, info, warn, error
	Directory     string `yaml:"directory,omitempty"`      // default ~/.baseguide/logs/
	RetentionDays int    `yaml:"retention_days,omitempty"` // default 30
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyDefaults() {
	if c.Airtable.RequestTimeoutSeconds == 0 {
		c.Airtable.RequestTimeoutSeconds = 30
	}
	if c.Airtable.MaxRetryAttempts == 0 {
		c.Airtable.MaxRetryAttempts = 3
	}
	if c.Airtable.InitialBackoffSeconds == 0 {
		c.Airtable.InitialBackoffSeconds = 1
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-pro"
	}
	if c.Output.SchemaDir == "" {
		c.Output.SchemaDir = ExpandHome("~/.baseguide/schemas/")
	}
	if c.Output.ReportDir == "" {
		c.Output.ReportDir = "reports"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.baseguide/logs/")
	}
	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = 30
	}
}

// RequestTimeout converts the configured timeout to a duration.
func (c *AirtableConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// InitialBackoff converts the configured backoff to a duration.
func (c *AirtableConfig) InitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoffSeconds * float64(time.Second))
}

var secretPattern = regexp.MustCompile(`\$\{(ENV|VAULT|AWS_SM):([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	var err error
	c.Airtable.AccessToken, err = ResolveValue(c.Airtable.AccessToken)
	if err != nil {
		return fmt.Errorf("airtable access token: %w", err)
	}
	c.Gemini.APIKey, err = ResolveValue(c.Gemini.APIKey)
	if err != nil {
		return fmt.Errorf("gemini api key: %w", err)
	}
	return nil
}

// ResolveValue resolves secret references in a string value.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	provider := matches[1]
	ref := matches[2]

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager(ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
