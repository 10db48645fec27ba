package llm

import (
	"fmt"
	"os"
	"time"
)

// Config selects and configures the provider.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "openrouter", "mock".
	Provider string `yaml:"provider" validate:"omitempty,oneof=anthropic openai gemini openrouter mock"`

	Anthropic  ProviderConfig `yaml:"anthropic"`
	OpenAI     ProviderConfig `yaml:"openai"`
	Gemini     ProviderConfig `yaml:"gemini"`
	OpenRouter ProviderConfig `yaml:"openrouter"`
	Retry      RetryConfig    `yaml:"retry"`

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration `yaml:"timeout"`
}

// ProviderConfig holds the credentials and model for one provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns a Config with default models and retry settings.
// No provider is selected until a key is found.
func DefaultConfig() Config {
	return Config{
		Anthropic:  ProviderConfig{Model: "claude-haiku"},
		OpenAI:     ProviderConfig{Model: "gpt-4o-mini"},
		Gemini:     ProviderConfig{Model: "gemini-flash"},
		OpenRouter: ProviderConfig{Model: "google/gemini-2.0-flash-exp", BaseURL: defaultOpenRouterBaseURL},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ApplyEnv overlays LINGOQUIZ_* variables, then falls back to the vendors'
// standard key variables when no provider has been chosen.
func (c *Config) ApplyEnv() {
	setIf := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIf(&c.Provider, "LINGOQUIZ_LLM_PROVIDER")
	setIf(&c.Anthropic.APIKey, "LINGOQUIZ_ANTHROPIC_API_KEY")
	setIf(&c.Anthropic.Model, "LINGOQUIZ_ANTHROPIC_MODEL")
	setIf(&c.OpenAI.APIKey, "LINGOQUIZ_OPENAI_API_KEY")
	setIf(&c.OpenAI.Model, "LINGOQUIZ_OPENAI_MODEL")
	setIf(&c.OpenAI.BaseURL, "LINGOQUIZ_OPENAI_BASE_URL")
	setIf(&c.Gemini.APIKey, "LINGOQUIZ_GEMINI_API_KEY")
	setIf(&c.Gemini.Model, "LINGOQUIZ_GEMINI_MODEL")
	setIf(&c.OpenRouter.APIKey, "LINGOQUIZ_OPENROUTER_API_KEY")
	setIf(&c.OpenRouter.Model, "LINGOQUIZ_OPENROUTER_MODEL")

	if c.Provider != "" {
		return
	}
	// Vendor variables in priority order.
	for _, d := range []struct {
		env, provider string
		dst           *string
	}{
		{"GEMINI_API_KEY", "gemini", &c.Gemini.APIKey},
		{"OPENAI_API_KEY", "openai", &c.OpenAI.APIKey},
		{"ANTHROPIC_API_KEY", "anthropic", &c.Anthropic.APIKey},
		{"OPENROUTER_API_KEY", "openrouter", &c.OpenRouter.APIKey},
	} {
		if k := os.Getenv(d.env); k != "" {
			c.Provider = d.provider
			*d.dst = k
			return
		}
	}
}

// Enabled reports whether a provider has been selected.
func (c Config) Enabled() bool {
	return c.Provider != ""
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case "", "mock":
		return nil
	case "anthropic":
		key = c.Anthropic.APIKey
	case "openai":
		key = c.OpenAI.APIKey
	case "gemini":
		key = c.Gemini.APIKey
	case "openrouter":
		key = c.OpenRouter.APIKey
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("an API key is required for the %s provider", c.Provider)
	}
	return nil
}
