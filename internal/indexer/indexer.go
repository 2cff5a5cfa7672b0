// Package indexer drives commits from a repository through description,
// analysis and storage.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/icodes/icds/internal/db"
	"github.com/icodes/icds/internal/diff"
	"github.com/icodes/icds/internal/dossier"
	"github.com/icodes/icds/internal/metrics"
)

// DefaultCount is the number of recent commits visited when none is given.
const DefaultCount = 10

// ErrNothingStaged is returned by SuggestCommitMessage for a clean index.
var ErrNothingStaged = errors.New("no staged changes")

// Source is a repository the indexer can read commits from. *git.Repository
// implements it.
type Source interface {
	Path() string
	RemoteURL() (string, error)
	CurrentBranch() (string, error)
	RecentCommits(ctx context.Context, branch string, n int) ([]dossier.Commit, error)
	Changes(ctx context.Context, hash string) ([]diff.Change, error)
	StagedChanges(ctx context.Context) ([]diff.Change, error)
}

// Analyzer turns a dossier into an analysis and a one-line summary.
type Analyzer interface {
	Analyze(ctx context.Context, dossier string) (analysis, summary string, err error)
}

// Store is the subset of *db.Store the indexer writes through.
type Store interface {
	GetOrCreateRepository(ctx context.Context, remoteURL, localPath string) (*db.Repository, error)
	FindCommit(ctx context.Context, repositoryID, hash string) (*db.Commit, error)
	InsertCommit(ctx context.Context, c *db.Commit) error
}

type EventKind int

const (
	EventStarted EventKind = iota
	EventSkipped
	EventIndexed
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventSkipped:
		return "skipped"
	case EventIndexed:
		return "indexed"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports progress on one commit. Index is 1-based.
type Event struct {
	Kind    EventKind
	Index   int
	Total   int
	Hash    string
	Summary string
	Err     error
}

// Options controls a run.
type Options struct {
	// Branch defaults to the checked-out branch.
	Branch string
	// Count defaults to DefaultCount.
	Count int
	// ContinueOnError records a failed commit and moves on instead of
	// aborting the run.
	ContinueOnError bool
	OnEvent         func(Event)
}

// Failure records a commit that could not be processed.
type Failure struct {
	Hash string
	Err  error
}

// Result summarises a BuildIndex run.
type Result struct {
	Repository *db.Repository
	Branch     string
	Indexed    []string
	Skipped    []string
	Failures   []Failure
}

// Config wires an Indexer. Store is only needed by BuildIndex.
type Config struct {
	Store     Store
	Analyzer  Analyzer
	Describer *dossier.Describer
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

type Indexer struct {
	store     Store
	analyzer  Analyzer
	describer *dossier.Describer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg Config) (*Indexer, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("indexer: analyzer is required")
	}
	ix := &Indexer{
		store:     cfg.Store,
		analyzer:  cfg.Analyzer,
		describer: cfg.Describer,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
	if ix.describer == nil {
		ix.describer = dossier.NewDescriber(nil)
	}
	if ix.logger == nil {
		ix.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if ix.now == nil {
		ix.now = time.Now
	}
	return ix, nil
}

func (o Options) emit(e Event) {
	if o.OnEvent != nil {
		o.OnEvent(e)
	}
}

func (ix *Indexer) recentCommits(ctx context.Context, src Source, opts *Options) ([]dossier.Commit, error) {
	if opts.Branch == "" {
		branch, err := src.CurrentBranch()
		if err != nil {
			return nil, err
		}
		opts.Branch = branch
	}
	if opts.Count <= 0 {
		opts.Count = DefaultCount
	}
	commits, err := src.RecentCommits(ctx, opts.Branch, opts.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits on %s: %w", opts.Branch, err)
	}
	return commits, nil
}

// BuildIndex analyses and stores the newest commits of a branch, oldest
// first. Commits already stored for the repository are skipped. Unless
// ContinueOnError is set, the first failure ends the run; commits stored
// before it stay stored.
func (ix *Indexer) BuildIndex(ctx context.Context, src Source, opts Options) (Result, error) {
	started := ix.now()
	defer func() { ix.metrics.ObserveIndexDuration(ix.now().Sub(started)) }()

	if ix.store == nil {
		return Result{}, errors.New("indexer: store is required to build an index")
	}

	remoteURL, err := src.RemoteURL()
	if err != nil {
		return Result{}, err
	}
	repo, err := ix.store.GetOrCreateRepository(ctx, remoteURL, src.Path())
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve repository: %w", err)
	}

	commits, err := ix.recentCommits(ctx, src, &opts)
	if err != nil {
		return Result{Repository: repo}, err
	}
	res := Result{Repository: repo, Branch: opts.Branch}
	ix.logger.Debug("indexing commits", "repository", repo.Name, "branch", opts.Branch, "count", len(commits))

	for i, c := range commits {
		ev := Event{Index: i + 1, Total: len(commits), Hash: c.Hash}

		existing, err := ix.store.FindCommit(ctx, repo.ID, c.Hash)
		if err != nil {
			return res, fmt.Errorf("failed to check commit %s: %w", shortHash(c.Hash), err)
		}
		if existing != nil {
			ev.Kind, ev.Summary = EventSkipped, existing.Summary
			opts.emit(ev)
			ix.metrics.RecordCommit(metrics.OutcomeSkipped)
			res.Skipped = append(res.Skipped, c.Hash)
			continue
		}

		ev.Kind = EventStarted
		opts.emit(ev)

		record, err := ix.indexCommit(ctx, src, repo, c)
		if err != nil {
			ev.Kind, ev.Err = EventFailed, err
			opts.emit(ev)
			ix.metrics.RecordCommit(metrics.OutcomeFailed)
			ix.logger.Warn("failed to index commit", "hash", c.Hash, "error", err)
			if !opts.ContinueOnError {
				return res, fmt.Errorf("failed to index commit %s: %w", shortHash(c.Hash), err)
			}
			res.Failures = append(res.Failures, Failure{Hash: c.Hash, Err: err})
			continue
		}

		ev.Kind, ev.Summary = EventIndexed, record.Summary
		opts.emit(ev)
		ix.metrics.RecordCommit(metrics.OutcomeIndexed)
		res.Indexed = append(res.Indexed, c.Hash)
	}
	return res, nil
}

func (ix *Indexer) indexCommit(ctx context.Context, src Source, repo *db.Repository, c dossier.Commit) (*db.Commit, error) {
	changes, err := src.Changes(ctx, c.Hash)
	if err != nil {
		return nil, err
	}
	c.Changes = changes

	analysis, summary, err := ix.analyzer.Analyze(ctx, ix.describer.Describe(c))
	if err != nil {
		return nil, err
	}

	record := &db.Commit{
		RepositoryID: repo.ID,
		Hash:         c.Hash,
		CommittedAt:  c.When,
		Author:       c.Author,
		Message:      c.Message,
		Summary:      summary,
		Analysis:     analysis,
		FileStats:    strings.Join(diff.Headers(changes), "\n"),
	}
	if err := ix.store.InsertCommit(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Inspection is the analysis of one commit that was not stored.
type Inspection struct {
	Commit   dossier.Commit
	Analysis string
	Summary  string
	Err      error
}

// Inspect analyses the newest commits of a branch without storing anything.
// With ContinueOnError, failed commits are returned with Err set.
func (ix *Indexer) Inspect(ctx context.Context, src Source, opts Options) ([]Inspection, error) {
	commits, err := ix.recentCommits(ctx, src, &opts)
	if err != nil {
		return nil, err
	}

	out := make([]Inspection, 0, len(commits))
	for i, c := range commits {
		ev := Event{Kind: EventStarted, Index: i + 1, Total: len(commits), Hash: c.Hash}
		opts.emit(ev)

		ins := Inspection{Commit: c}
		c.Changes, err = src.Changes(ctx, c.Hash)
		if err == nil {
			ins.Commit = c
			ins.Analysis, ins.Summary, err = ix.analyzer.Analyze(ctx, ix.describer.Describe(c))
		}
		if err != nil {
			ev.Kind, ev.Err = EventFailed, err
			opts.emit(ev)
			if !opts.ContinueOnError {
				return out, fmt.Errorf("failed to inspect commit %s: %w", shortHash(c.Hash), err)
			}
			ins.Err = err
			out = append(out, ins)
			continue
		}

		ev.Kind, ev.Summary = EventIndexed, ins.Summary
		opts.emit(ev)
		out = append(out, ins)
	}
	return out, nil
}

// Suggestion is a proposed message for the staged changes.
type Suggestion struct {
	Changes  []diff.Change
	Analysis string
	Summary  string
}

// SuggestCommitMessage analyses the staged changes and proposes a one-line
// commit message for them.
func (ix *Indexer) SuggestCommitMessage(ctx context.Context, src Source) (Suggestion, error) {
	changes, err := src.StagedChanges(ctx)
	if err != nil {
		return Suggestion{}, err
	}
	if len(changes) == 0 {
		return Suggestion{}, ErrNothingStaged
	}

	analysis, summary, err := ix.analyzer.Analyze(ctx, ix.describer.DescribeStaged(changes, ix.now()))
	if err != nil {
		return Suggestion{}, err
	}
	return Suggestion{Changes: changes, Analysis: analysis, Summary: summary}, nil
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
