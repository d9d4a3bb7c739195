// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "planner.toml"

// DefaultModel is used when neither the file nor the environment names one.
const DefaultModel = "gemini-2.5-flash"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config represents the planner configuration.
type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Dispatch   DispatchConfig   `toml:"dispatch"`
	Activities ActivitiesConfig `toml:"activities"`
	Server     ServerConfig     `toml:"server"`
	NATS       NATSConfig       `toml:"nats"`
}

// LLMConfig contains LLM provider settings.
type LLMConfig struct {
	Provider     string `toml:"provider"`
	Model        string `toml:"model"`
	APIKeyEnv    string `toml:"api_key_env"`
	MaxTokens    int    `toml:"max_tokens"`
	BaseURL      string `toml:"base_url"`      // Custom API endpoint (OpenRouter, LiteLLM, Ollama)
	Thinking     string `toml:"thinking"`      // Thinking level: auto|off|low|medium|high
	MaxRetries   int    `toml:"max_retries"`   // Max retry attempts
	RetryBackoff string `toml:"retry_backoff"` // Max backoff duration, e.g. "60s"
}

// DispatchConfig bounds each conversation turn.
type DispatchConfig struct {
	MaxDocumentChars int `toml:"max_document_chars"`
	MaxHistory       int `toml:"max_history"`
	MaxIterations    int `toml:"max_iterations"` // 0 = unbounded
	ToolTimeout      int `toml:"tool_timeout"`   // seconds
	TurnTimeout      int `toml:"turn_timeout"`   // seconds
}

// ActivitiesConfig configures the OpenTripMap lookup.
type ActivitiesConfig struct {
	APIKeyEnv         string  `toml:"api_key_env"`
	BaseURL           string  `toml:"base_url"`
	Radius            int     `toml:"radius"` // meters
	DetailLimit       int     `toml:"detail_limit"`
	GeocodeTimeout    int     `toml:"geocode_timeout"` // seconds
	SearchTimeout     int     `toml:"search_timeout"`  // seconds
	DetailTimeout     int     `toml:"detail_timeout"`  // seconds
	CacheSize         int     `toml:"cache_size"`
	CacheTTL          string  `toml:"cache_ttl"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ServerConfig contains HTTP transport settings.
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
	RateLimit   float64  `toml:"rate_limit"` // requests per second per client, 0 = off
	RateBurst   int      `toml:"rate_burst"`
}

// NATSConfig contains NATS transport settings. An empty URL disables it.
type NATSConfig struct {
	URL     string `toml:"url"`
	Subject string `toml:"subject"`
	Queue   string `toml:"queue"`
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:        DefaultModel,
			MaxTokens:    4096,
			MaxRetries:   5,
			RetryBackoff: "60s",
		},
		Dispatch: DispatchConfig{
			MaxDocumentChars: 8000,
			MaxHistory:       6,
			MaxIterations:    10,
			ToolTimeout:      30,
			TurnTimeout:      120,
		},
		Activities: ActivitiesConfig{
			APIKeyEnv:         "OPENTRIPMAP_API_KEY",
			BaseURL:           "https://api.opentripmap.com/0.1/en/places",
			Radius:            10000,
			DetailLimit:       6,
			GeocodeTimeout:    8,
			SearchTimeout:     12,
			DetailTimeout:     8,
			CacheSize:         128,
			CacheTTL:          "30m",
			RequestsPerSecond: 5,
		},
		Server: ServerConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"*"},
			RateLimit:   2,
			RateBurst:   5,
		},
		NATS: NATSConfig{
			Subject: "planner.turn",
			Queue:   "planner",
		},
	}
}

// LoadFile loads configuration from a TOML file and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads path, or planner.toml in the current directory when path is
// empty. A missing default file yields the defaults; a missing explicit
// path is an error.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	path = filepath.Join(cwd, DefaultFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := New()
		cfg.ApplyEnv(os.Getenv)
		return cfg, nil
	}
	return LoadFile(path)
}

// ApplyEnv applies environment overrides. GEMINI_MODEL wins over MODEL_NAME,
// and both win over the file.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for _, key := range []string{"GEMINI_MODEL", "MODEL_NAME"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			c.LLM.Model = v
			return
		}
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.LLM.Model == "":
		return fmt.Errorf("%w: llm.model is empty", ErrInvalid)
	case c.Dispatch.MaxDocumentChars < 0:
		return fmt.Errorf("%w: dispatch.max_document_chars must not be negative", ErrInvalid)
	case c.Dispatch.MaxHistory < 0:
		return fmt.Errorf("%w: dispatch.max_history must not be negative", ErrInvalid)
	case c.Dispatch.MaxIterations < 0:
		return fmt.Errorf("%w: dispatch.max_iterations must not be negative", ErrInvalid)
	case c.Server.RateLimit < 0:
		return fmt.Errorf("%w: server.rate_limit must not be negative", ErrInvalid)
	}
	if c.LLM.RetryBackoff != "" {
		if _, err := time.ParseDuration(c.LLM.RetryBackoff); err != nil {
			return fmt.Errorf("%w: llm.retry_backoff: %v", ErrInvalid, err)
		}
	}
	if _, err := c.Activities.TTL(); err != nil {
		return err
	}
	return nil
}

// TTL parses cache_ttl. An empty value means the adapter default.
func (a ActivitiesConfig) TTL() (time.Duration, error) {
	if a.CacheTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("%w: activities.cache_ttl: %v", ErrInvalid, err)
	}
	return d, nil
}

// Seconds converts a whole-second setting to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// GetAPIKey returns the API key from the configured environment variable.
// If api_key_env is not set, uses the default env var for provider, which
// falls back to the configured provider when empty.
func (c LLMConfig) GetAPIKey(provider string, getenv func(string) string) string {
	if provider == "" {
		provider = c.Provider
	}
	envVar := c.APIKeyEnv
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(provider)
	}
	if envVar == "" {
		return ""
	}
	return getenv(envVar)
}

// DefaultAPIKeyEnv returns the default environment variable name for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google", "gemini":
		return "GOOGLE_API_KEY"
	case "mistral":
		return "MISTRAL_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	default:
		return ""
	}
}
