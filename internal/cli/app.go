package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/icodes/icds/internal/analysis"
	"github.com/icodes/icds/internal/cache"
	"github.com/icodes/icds/internal/db"
	"github.com/icodes/icds/internal/diff"
	"github.com/icodes/icds/internal/dossier"
	"github.com/icodes/icds/internal/git"
	"github.com/icodes/icds/internal/indexer"
	"github.com/icodes/icds/internal/llm"
	"github.com/icodes/icds/internal/metrics"
)

// session holds what a command opened so it can be released in one place.
type session struct {
	store   *db.Store
	cache   cache.Cache
	metrics *metrics.Metrics
	indexer *indexer.Indexer
}

func (s *session) Close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			VerboseLog("failed to close cache: %v", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			VerboseLog("failed to close database: %v", err)
		}
	}
}

func openStore(ctx context.Context) (*db.Store, error) {
	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

// newSession wires the model client, cache and indexer. withStore also opens
// the database, which inspect and suggest do not need.
func newSession(ctx context.Context, withStore bool) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []llm.Option{
		llm.WithModel(cfg.Model),
		llm.WithAPIKey(cfg.APIKey(cfg.Provider)),
		llm.WithHTTPClient(&http.Client{Timeout: 2 * time.Minute}),
	}
	if u := cfg.BaseURL(cfg.Provider); u != "" {
		opts = append(opts, llm.WithBaseURL(u))
	}
	client, err := llm.New(cfg.Provider, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	s := &session{metrics: metrics.New()}
	s.cache, err = cache.Open(ctx, cfg.CacheURL, cfg.CacheTTL)
	if err != nil {
		// Not fatal: analyses are recomputed without a cache.
		slog.Warn("analysis cache unavailable", "url", cfg.CacheURL, "error", err)
		s.cache = nil
	}

	analyzer, err := analysis.New(analysis.Options{
		Client:        client,
		Provider:      string(cfg.Provider),
		Model:         cfg.Model,
		ContextWindow: cfg.ContextWindow(),
		Cache:         s.cache,
		Metrics:       s.metrics,
		Logger:        slog.Default().With("component", "analysis"),
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	ixCfg := indexer.Config{
		Analyzer:  analyzer,
		Describer: dossier.NewDescriber(diff.NewFormatter(cfg.IgnoreFiles)),
		Metrics:   s.metrics,
		Logger:    slog.Default().With("component", "indexer"),
	}
	if withStore {
		s.store, err = openStore(ctx)
		if err != nil {
			s.Close()
			return nil, err
		}
		ixCfg.Store = s.store
	}

	s.indexer, err = indexer.New(ixCfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func openRepo(args []string) (*git.Repository, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	repo, err := git.OpenRepo(path)
	if err != nil {
		return nil, err
	}
	VerboseLog("opened repository at %s", repo.Path())
	return repo, nil
}

func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = suffix
	s.Color("cyan")
	return s
}

// renderMarkdown renders model output for a terminal and leaves it untouched
// when stdout is redirected.
func renderMarkdown(md string) string {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return md
	}
	width := 80
	if w, _, err := term.GetSize(fd); err == nil && w > 20 {
		width = w - 4
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
