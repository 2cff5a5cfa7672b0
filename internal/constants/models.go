package constants

import "strings"

// ModelConfig holds model configuration for a provider
type ModelConfig struct {
	LLMModel string
	BaseURL  string
}

// DefaultModels contains default model configurations for each provider
var DefaultModels = map[Provider]ModelConfig{
	ProviderOpenAI: {
		LLMModel: "gpt-3.5-turbo",
		BaseURL:  "https://api.openai.com/v1",
	},
	ProviderAnthropic: {
		LLMModel: "claude-sonnet-4-5-20250929",
		BaseURL:  "https://api.anthropic.com/v1",
	},
	ProviderOllama: {
		LLMModel: "llama3.1",
		BaseURL:  "http://localhost:11434",
	},
	ProviderOpenRouter: {
		LLMModel: "openrouter/free",
		BaseURL:  "https://openrouter.ai/api/v1",
	},
	ProviderGemini: {
		LLMModel: "gemini-2.5-flash",
	},
}

// DefaultContextWindow is used for models missing from the context window table.
const DefaultContextWindow = 8192

// contextWindows maps model identifiers to their maximum context size in tokens.
var contextWindows = map[string]int{
	"gpt-3.5-turbo":              16385,
	"gpt-4":                      8192,
	"gpt-4-turbo":                128000,
	"gpt-4o":                     128000,
	"gpt-4o-mini":                128000,
	"gpt-4.1":                    1047576,
	"gpt-4.1-mini":               1047576,
	"claude-sonnet-4-5-20250929": 200000,
	"claude-haiku-4-5-20250929":  200000,
	"claude-3-5-sonnet-20241022": 200000,
	"llama3.1":                   128000,
	"llama3.2":                   128000,
	"qwen3":                      40960,
	"gemini-2.5-flash":           1048576,
	"gemini-2.5-pro":             1048576,
}

// ContextWindow returns the maximum context tokens for a model.
// OpenRouter-style "vendor/model" identifiers fall back to the bare model name.
func ContextWindow(model string) int {
	return ContextWindowWith(nil, model)
}

// ContextWindowWith looks the model up in overrides first, then in the built-in table.
func ContextWindowWith(overrides map[string]int, model string) int {
	for _, name := range []string{model, stripVendor(model)} {
		if n, ok := overrides[name]; ok && n > 0 {
			return n
		}
		if n, ok := contextWindows[name]; ok {
			return n
		}
	}
	return DefaultContextWindow
}

func stripVendor(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	return strings.TrimSuffix(model, ":free")
}

// GetDefaultModel returns the default LLM model for a provider
func GetDefaultModel(provider Provider) string {
	if config, ok := DefaultModels[provider]; ok {
		return config.LLMModel
	}
	return ""
}

// GetDefaultBaseURL returns the default base URL for a provider
func GetDefaultBaseURL(provider Provider) string {
	if config, ok := DefaultModels[provider]; ok {
		return config.BaseURL
	}
	return ""
}
