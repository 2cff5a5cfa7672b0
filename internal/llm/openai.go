package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// OpenAIClient talks to the OpenAI chat completions endpoint. Any
// OpenAI-compatible server works when the base URL points at it.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewOpenAIClient(baseURL, apiKey, model string, hc *http.Client) *OpenAIClient {
	if hc == nil {
		hc = &http.Client{}
	}
	return &OpenAIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  hc,
	}
}

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) ChatComplete(ctx context.Context, messages []Message) (string, error) {
	body, err := postJSON(ctx, c.client, ProviderOpenAI, c.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.apiKey},
		chatCompletionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", err
	}
	return parseChatCompletion(ProviderOpenAI, body)
}

// parseChatCompletion extracts the first choice from an OpenAI-format response.
func parseChatCompletion(provider Provider, body []byte) (string, error) {
	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.Error != nil {
		return "", &APIError{Provider: provider, Message: result.Error.Message}
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", provider, ErrEmptyResponse)
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
