package llm

import (
	"context"
	"net/http"
	"strings"
)

// OpenRouterClient uses OpenRouter's OpenAI-compatible API.
type OpenRouterClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewOpenRouterClient(baseURL, apiKey, model string, hc *http.Client) *OpenRouterClient {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &OpenRouterClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  hc,
	}
}

func (c *OpenRouterClient) ChatComplete(ctx context.Context, messages []Message) (string, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"HTTP-Referer":  "https://github.com/icodes/icds",
		"X-Title":       "icds",
	}
	body, err := postJSON(ctx, c.client, ProviderOpenRouter, c.baseURL+"/chat/completions", headers,
		chatCompletionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", err
	}
	return parseChatCompletion(ProviderOpenRouter, body)
}
