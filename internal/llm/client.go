package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/icodes/icds/internal/constants"
)

// Chat roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface for LLM operations.
type Client interface {
	ChatComplete(ctx context.Context, messages []Message) (string, error)
}

// Provider is the provider identifier shared with the constants package.
type Provider = constants.Provider

const (
	ProviderOllama     = constants.ProviderOllama
	ProviderOpenAI     = constants.ProviderOpenAI
	ProviderAnthropic  = constants.ProviderAnthropic
	ProviderOpenRouter = constants.ProviderOpenRouter
	ProviderGemini     = constants.ProviderGemini
)

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider   Provider
	Model      string
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Option is a functional option for configuring LLM clients.
type Option func(*Config)

// WithModel sets the model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithBaseURL sets the base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithHTTPClient replaces the HTTP client used by the REST providers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// New creates a client for the provider, starting from its defaults.
func New(provider Provider, opts ...Option) (Client, error) {
	cfg := Config{
		Provider: provider,
		Model:    constants.GetDefaultModel(provider),
		BaseURL:  constants.GetDefaultBaseURL(provider),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewClient(cfg)
}

// NewClient creates an LLM client from config.
func NewClient(cfg Config) (Client, error) {
	if cfg.Model == "" {
		cfg.Model = constants.GetDefaultModel(cfg.Provider)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("no model specified for provider %q", cfg.Provider)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.GetDefaultBaseURL(cfg.Provider)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if constants.ProviderNeedsAPIKey(cfg.Provider) && cfg.APIKey == "" {
		info := constants.GetProviderInfo(cfg.Provider)
		return nil, fmt.Errorf("%s API key is required (set %s)", cfg.Provider, info.EnvKey)
	}

	switch cfg.Provider {
	case ProviderOllama:
		return NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.HTTPClient), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.HTTPClient), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.HTTPClient), nil
	case ProviderOpenRouter:
		return NewOpenRouterClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.HTTPClient), nil
	case ProviderGemini:
		return NewGeminiClient(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
