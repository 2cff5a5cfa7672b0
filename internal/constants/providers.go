package constants

import "strings"

// Provider represents an LLM provider type
type Provider string

// LLM Providers
const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOllama     Provider = "ollama"
	ProviderOpenRouter Provider = "openrouter"
	ProviderGemini     Provider = "gemini"
)

// ProviderInfo contains display information about a provider
type ProviderInfo struct {
	Name        Provider
	Description string
	EnvKey      string // Environment variable holding the API key, empty if none is needed
	NeedsAPIKey bool
}

// AllProviders lists supported providers in display order
var AllProviders = []ProviderInfo{
	{
		Name:        ProviderOpenAI,
		Description: "OpenAI chat completions (GPT-3.5, GPT-4o)",
		EnvKey:      "OPENAI_API_KEY",
		NeedsAPIKey: true,
	},
	{
		Name:        ProviderAnthropic,
		Description: "Anthropic messages API (Claude)",
		EnvKey:      "ANTHROPIC_API_KEY",
		NeedsAPIKey: true,
	},
	{
		Name:        ProviderOllama,
		Description: "Ollama (local, free)",
	},
	{
		Name:        ProviderOpenRouter,
		Description: "OpenRouter (unified API, multiple models)",
		EnvKey:      "OPENROUTER_API_KEY",
		NeedsAPIKey: true,
	},
	{
		Name:        ProviderGemini,
		Description: "Google Gemini (Flash, Pro)",
		EnvKey:      "GEMINI_API_KEY",
		NeedsAPIKey: true,
	},
}

// GetProviderInfo returns information about a provider, or nil if it is unknown
func GetProviderInfo(provider Provider) *ProviderInfo {
	for _, p := range AllProviders {
		if strings.EqualFold(string(p.Name), string(provider)) {
			info := p
			return &info
		}
	}
	return nil
}

// ProviderNeedsAPIKey reports whether requests to the provider must carry an API key
func ProviderNeedsAPIKey(provider Provider) bool {
	info := GetProviderInfo(provider)
	return info != nil && info.NeedsAPIKey
}
