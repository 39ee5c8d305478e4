package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	APIKey       string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL      string  `mapstructure:"base_url" yaml:"base_url"`
	DefaultModel string  `mapstructure:"default_model" yaml:"default_model"`
	MaxTokens    int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature" yaml:"temperature"`
	SessionsDir  string  `mapstructure:"sessions_dir" yaml:"sessions_dir"`

	// Dataset ingestion limits
	MaxRows    int `mapstructure:"max_rows" yaml:"max_rows"`
	SampleRows int `mapstructure:"sample_rows" yaml:"sample_rows"`

	// Chart output
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`
	ChartFormat string `mapstructure:"chart_format" yaml:"chart_format"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Extra models to add to the built-in catalog, keyed by model name.
	// Useful with --base-url pointing at a local OpenAI-compatible runtime.
	Models map[string]ModelEntry `mapstructure:"models" yaml:"models,omitempty"`
}

// ModelEntry describes a user-supplied model for the catalog.
type ModelEntry struct {
	ContextTokens int    `mapstructure:"context_tokens" yaml:"context_tokens"`
	Notes         string `mapstructure:"notes" yaml:"notes,omitempty"`
}

// Dir returns the plotloom config directory (~/.plotloom), creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".plotloom")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir config dir: %w", err)
	}
	return dir, nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.plotloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PLOTLOOM")
	v.AutomaticEnv()
	// Keys without a default are invisible to AutomaticEnv; bind them so
	// PLOTLOOM_API_KEY and PLOTLOOM_SESSIONS_DIR reach Unmarshal.
	_ = v.BindEnv("api_key")
	_ = v.BindEnv("sessions_dir")

	// Defaults mirror the hosted Groq setup the tool targets.
	v.SetDefault("base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("default_model", "llama3-70b-8192")
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("temperature", 0.3)
	v.SetDefault("max_rows", 100000)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("chart_width", 1024)
	v.SetDefault("chart_height", 576)
	v.SetDefault("chart_format", "png")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".plotloom")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve sessions_dir default: ~/.plotloom/sessions
	if c.SessionsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		c.SessionsDir = filepath.Join(home, ".plotloom", "sessions")
	}
	// GROQ_API_KEY is honored for parity with the hosted provider's own docs.
	if c.APIKey == "" {
		if k := os.Getenv("GROQ_API_KEY"); k != "" {
			c.APIKey = k
		}
	}
	return &c, nil
}
