package llm

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config selects and configures the generation backend.
type Config struct {
	Provider string `yaml:"provider" envconfig:"LLM_PROVIDER"`
	Model    string `yaml:"model" envconfig:"LLM_MODEL"`
	// APIKey is shared by all providers; the provider specific variables below win when set.
	APIKey          string  `yaml:"api_key" envconfig:"LLM_API_KEY"`
	GeminiAPIKey    string  `yaml:"gemini_api_key" envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey    string  `yaml:"openai_api_key" envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key" envconfig:"ANTHROPIC_API_KEY"`
	BaseURL         string  `yaml:"base_url" envconfig:"LLM_BASE_URL"`
	TimeoutSeconds  int     `yaml:"timeout_seconds" envconfig:"LLM_TIMEOUT_SECONDS"`
	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float64 `yaml:"temperature"`
}

// Normalize applies defaults and checks that the selected provider has a key.
func (c *Config) Normalize() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2]")
	}
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		if c.Key() == "" {
			return fmt.Errorf("llm: api key is required for provider %q", c.Provider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("invalid llm.provider %q; allowed: gemini, openai, anthropic, mock", c.Provider)
	}
	return nil
}

// Key returns the API key for the selected provider.
func (c Config) Key() string {
	var specific string
	switch c.Provider {
	case ProviderGemini:
		specific = c.GeminiAPIKey
	case ProviderOpenAI:
		specific = c.OpenAIAPIKey
	case ProviderAnthropic:
		specific = c.AnthropicAPIKey
	}
	if strings.TrimSpace(specific) != "" {
		return strings.TrimSpace(specific)
	}
	return strings.TrimSpace(c.APIKey)
}

// Timeout bounds one Generate call.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
