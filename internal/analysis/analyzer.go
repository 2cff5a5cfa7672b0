// Package analysis asks a language model to explain a commit dossier and to
// condense that explanation into a one-line commit message.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/icodes/icds/internal/cache"
	"github.com/icodes/icds/internal/constants"
	"github.com/icodes/icds/internal/llm"
	"github.com/icodes/icds/internal/metrics"
	"github.com/icodes/icds/internal/prompts"
)

// Options configures an Analyzer. Only Client and Model are required.
type Options struct {
	Client   llm.Client
	Provider string
	Model    string
	// ContextWindow overrides the window looked up from the model name.
	ContextWindow int
	Retry         *RetryPolicy
	Cache         cache.Cache
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// Analyzer runs the two-step analysis conversation.
type Analyzer struct {
	client        llm.Client
	provider      string
	model         string
	contextWindow int
	retry         RetryPolicy
	cache         cache.Cache
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func New(opts Options) (*Analyzer, error) {
	if opts.Client == nil {
		return nil, errors.New("analysis: llm client is required")
	}
	a := &Analyzer{
		client:        opts.Client,
		provider:      opts.Provider,
		model:         opts.Model,
		contextWindow: opts.ContextWindow,
		retry:         DefaultRetryPolicy(),
		cache:         opts.Cache,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
	}
	if a.contextWindow <= 0 {
		a.contextWindow = constants.ContextWindow(opts.Model)
	}
	if opts.Retry != nil {
		a.retry = *opts.Retry
	}
	if a.provider == "" {
		a.provider = "unknown"
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a, nil
}

// Model returns the model the analyzer is configured for.
func (a *Analyzer) Model() string { return a.model }

// Analyze returns a detailed analysis of the dossier and a one-line summary
// derived from it. A failure of the first request aborts before the second
// is sent.
func (a *Analyzer) Analyze(ctx context.Context, dossier string) (analysis, summary string, err error) {
	key := cache.Key(a.model, dossier)
	if e, ok := a.cacheGet(ctx, key); ok {
		a.logger.Debug("analysis cache hit", "key", key[:12])
		return e.Analysis, e.Summary, nil
	}

	system := llm.Message{Role: llm.RoleSystem, Content: prompts.CommitReviewerSystemPrompt()}

	analysis, err = a.complete(ctx, []llm.Message{
		system,
		{Role: llm.RoleUser, Content: prompts.BuildCommitAnalysisPrompt(dossier)},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to analyse commit: %w", err)
	}

	summary, err = a.complete(ctx, []llm.Message{
		system,
		{Role: llm.RoleAssistant, Content: analysis},
		{Role: llm.RoleUser, Content: prompts.CommitMessagePrompt()},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to summarise analysis: %w", err)
	}
	summary = firstLine(summary)

	a.cachePut(ctx, key, cache.Entry{Analysis: analysis, Summary: summary})
	return analysis, summary, nil
}

func (a *Analyzer) complete(ctx context.Context, messages []llm.Message) (string, error) {
	messages, err := Truncate(messages, a.contextWindow)
	if err != nil {
		return "", err
	}

	out, err := Do(ctx, a.retry, func() (string, error) {
		return a.client.ChatComplete(ctx, messages)
	}, func(err error) {
		a.metrics.RecordLLMRetry(a.provider)
		a.logger.Warn("retrying model request", "provider", a.provider, "error", err)
	})
	if err != nil {
		a.metrics.RecordLLMRequest(a.provider, metrics.OutcomeError)
		return "", err
	}
	a.metrics.RecordLLMRequest(a.provider, metrics.OutcomeSuccess)
	return out, nil
}

func (a *Analyzer) cacheGet(ctx context.Context, key string) (cache.Entry, bool) {
	if a.cache == nil {
		return cache.Entry{}, false
	}
	e, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("analysis cache read failed", "error", err)
		return cache.Entry{}, false
	}
	return e, ok
}

func (a *Analyzer) cachePut(ctx context.Context, key string, e cache.Entry) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Put(ctx, key, e); err != nil {
		a.logger.Warn("analysis cache write failed", "error", err)
	}
}

// firstLine returns the first non-empty line with surrounding quotes removed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\"'`")
		if line != "" {
			return line
		}
	}
	return ""
}
