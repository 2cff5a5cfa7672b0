package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v5"

	"github.com/icodes/icds/internal/cache"
	"github.com/icodes/icds/internal/llm"
	"github.com/icodes/icds/internal/metrics"
)

type reply struct {
	text string
	err  error
}

// fakeClient returns scripted replies in order and records every request.
type fakeClient struct {
	replies []reply
	calls   [][]llm.Message
}

func (f *fakeClient) ChatComplete(_ context.Context, messages []llm.Message) (string, error) {
	f.calls = append(f.calls, messages)
	if len(f.replies) == 0 {
		return "", errors.New("unexpected call")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.text, r.err
}

type mapCache struct {
	entries map[string]cache.Entry
}

func (m *mapCache) Get(_ context.Context, key string) (cache.Entry, bool, error) {
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *mapCache) Put(_ context.Context, key string, e cache.Entry) error {
	m.entries[key] = e
	return nil
}

func (m *mapCache) Close() error { return nil }

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

func newTestAnalyzer(t *testing.T, client llm.Client, opts Options) *Analyzer {
	t.Helper()
	opts.Client = client
	if opts.Model == "" {
		opts.Model = "gpt-3.5-turbo"
	}
	if opts.Retry == nil {
		p := DefaultRetryPolicy()
		p.NewBackOff = noWait
		opts.Retry = &p
	}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return a
}

func transient() error {
	return &llm.ConnectionError{Provider: llm.ProviderOpenAI, Err: errors.New("connection reset")}
}

func TestAnalyzeTwoStepConversation(t *testing.T) {
	client := &fakeClient{replies: []reply{
		{text: "The commit adds a login form."},
		{text: "\"Add login form\"\n"},
	}}
	a := newTestAnalyzer(t, client, Options{})

	analysis, summary, err := a.Analyze(context.Background(), "Commit hash: abc")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if analysis != "The commit adds a login form." {
		t.Errorf("analysis = %q", analysis)
	}
	if summary != "Add login form" {
		t.Errorf("summary = %q", summary)
	}
	if len(client.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(client.calls))
	}

	first := client.calls[0]
	if len(first) != 2 || first[0].Role != llm.RoleSystem || first[1].Role != llm.RoleUser {
		t.Fatalf("first request roles = %+v", first)
	}
	if !strings.HasSuffix(first[1].Content, "infer the intent behind the changes: Commit hash: abc") {
		t.Errorf("first user message = %q", first[1].Content)
	}

	second := client.calls[1]
	if len(second) != 3 || second[1].Role != llm.RoleAssistant || second[1].Content != analysis {
		t.Fatalf("second request = %+v", second)
	}
	if !strings.Contains(second[2].Content, "single line") {
		t.Errorf("second user message = %q", second[2].Content)
	}
}

func TestAnalyzeRetriesTransientFailures(t *testing.T) {
	m := metrics.New()
	client := &fakeClient{replies: []reply{
		{err: transient()},
		{err: transient()},
		{text: "analysis"},
		{text: "summary"},
	}}
	a := newTestAnalyzer(t, client, Options{Provider: "openai", Metrics: m})

	_, summary, err := a.Analyze(context.Background(), "d")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if summary != "summary" {
		t.Fatalf("summary = %q", summary)
	}
	if len(client.calls) != 4 {
		t.Fatalf("calls = %d, want 4", len(client.calls))
	}
}

func TestAnalyzeGivesUpAfterThreeAttempts(t *testing.T) {
	client := &fakeClient{replies: []reply{
		{err: transient()},
		{err: transient()},
		{err: transient()},
		{text: "never reached"},
	}}
	a := newTestAnalyzer(t, client, Options{})

	_, _, err := a.Analyze(context.Background(), "d")
	var connErr *llm.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("error = %v, want ConnectionError", err)
	}
	if len(client.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(client.calls))
	}
}

func TestAnalyzeDoesNotRetryOtherErrors(t *testing.T) {
	apiErr := &llm.APIError{Provider: llm.ProviderOpenAI, StatusCode: 400, Message: "bad"}
	client := &fakeClient{replies: []reply{{err: apiErr}}}
	a := newTestAnalyzer(t, client, Options{})

	_, _, err := a.Analyze(context.Background(), "d")
	if !errors.As(err, new(*llm.APIError)) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(client.calls))
	}
}

func TestAnalyzeTruncatesLongDossier(t *testing.T) {
	client := &fakeClient{replies: []reply{{text: "a"}, {text: "s"}}}
	a := newTestAnalyzer(t, client, Options{ContextWindow: 200})

	_, _, err := a.Analyze(context.Background(), strings.Repeat("x", 10_000))
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if got := EstimateTokens(client.calls[0]); got > EffectiveLimit(200) {
		t.Fatalf("request tokens = %d, limit %d", got, EffectiveLimit(200))
	}
}

func TestAnalyzeUsesCache(t *testing.T) {
	c := &mapCache{entries: map[string]cache.Entry{}}
	client := &fakeClient{replies: []reply{{text: "a"}, {text: "s"}}}
	a := newTestAnalyzer(t, client, Options{Cache: c})

	for i := 0; i < 2; i++ {
		analysis, summary, err := a.Analyze(context.Background(), "same dossier")
		if err != nil {
			t.Fatalf("Analyze() #%d error: %v", i, err)
		}
		if analysis != "a" || summary != "s" {
			t.Fatalf("Analyze() #%d = %q, %q", i, analysis, summary)
		}
	}
	if len(client.calls) != 2 {
		t.Fatalf("calls = %d, want 2 (second run cached)", len(client.calls))
	}
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(Options{Model: "gpt-4o"}); err == nil {
		t.Fatalf("New() without client should fail")
	}
}
