package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiClient implements Client on top of the Gemini Go SDK.
type GeminiClient struct {
	baseURL string
	apiKey  string
	model   string

	once    sync.Once
	client  *genai.Client
	initErr error
}

func NewGeminiClient(baseURL, apiKey, model string) *GeminiClient {
	return &GeminiClient{baseURL: baseURL, apiKey: apiKey, model: model}
}

// ensureClient creates the SDK client on first use.
func (c *GeminiClient) ensureClient(ctx context.Context) error {
	c.once.Do(func() {
		cfg := &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  c.apiKey,
		}
		if c.baseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
		}
		client, err := genai.NewClient(ctx, cfg)
		if err != nil {
			c.initErr = fmt.Errorf("failed to create Gemini client: %w", err)
			return
		}
		c.client = client
	})
	return c.initErr
}

func (c *GeminiClient) ChatComplete(ctx context.Context, messages []Message) (string, error) {
	if err := c.ensureClient(ctx); err != nil {
		return "", err
	}

	contents, system := toGeminiContents(messages)
	if len(contents) == 0 {
		return "", fmt.Errorf("no user/assistant messages provided")
	}

	config := &genai.GenerateContentConfig{SystemInstruction: system}
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		var urlErr *url.Error
		var netErr net.Error
		if errors.As(err, &urlErr) || errors.As(err, &netErr) {
			return "", &ConnectionError{Provider: ProviderGemini, Err: err}
		}
		return "", &APIError{Provider: ProviderGemini, Message: err.Error()}
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("%s: %w", ProviderGemini, ErrEmptyResponse)
	}
	return text, nil
}

// toGeminiContents maps chat roles onto Gemini's: system messages become the
// system instruction and assistant turns are sent as "model".
func toGeminiContents(messages []Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var system *genai.Content
	for _, m := range messages {
		role := genai.RoleUser
		switch m.Role {
		case RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.NewPartFromText(m.Content))
			continue
		case RoleAssistant:
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}
	return contents, system
}
