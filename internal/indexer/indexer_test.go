package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/icodes/icds/internal/db"
	"github.com/icodes/icds/internal/diff"
	"github.com/icodes/icds/internal/dossier"
	"github.com/icodes/icds/internal/metrics"
)

type fakeSource struct {
	remote  string
	branch  string
	commits []dossier.Commit // oldest first
	changes map[string][]diff.Change
	staged  []diff.Change
}

func (f *fakeSource) Path() string                   { return "/src/demo" }
func (f *fakeSource) RemoteURL() (string, error)     { return f.remote, nil }
func (f *fakeSource) CurrentBranch() (string, error) { return f.branch, nil }

func (f *fakeSource) RecentCommits(_ context.Context, branch string, n int) ([]dossier.Commit, error) {
	if branch != f.branch {
		return nil, errors.New("unknown branch " + branch)
	}
	if n > len(f.commits) {
		n = len(f.commits)
	}
	return append([]dossier.Commit(nil), f.commits[len(f.commits)-n:]...), nil
}

func (f *fakeSource) Changes(_ context.Context, hash string) ([]diff.Change, error) {
	return f.changes[hash], nil
}

func (f *fakeSource) StagedChanges(context.Context) ([]diff.Change, error) {
	return f.staged, nil
}

// fakeAnalyzer summarises a dossier as "summary of <hash>" and fails for
// hashes listed in failOn.
type fakeAnalyzer struct {
	failOn   map[string]bool
	dossiers []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, d string) (string, string, error) {
	f.dossiers = append(f.dossiers, d)
	hash := "staged"
	if line, ok := strings.CutPrefix(strings.SplitN(d, "\n", 2)[0], "Commit hash: "); ok {
		hash = line
	}
	if f.failOn[hash] {
		return "", "", errors.New("model unavailable")
	}
	return "analysis of " + hash, "summary of " + hash, nil
}

func demoSource() *fakeSource {
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	src := &fakeSource{
		remote:  "https://github.com/acme/demo.git",
		branch:  "main",
		changes: map[string][]diff.Change{},
	}
	for i, h := range []string{"A", "B", "C"} {
		src.commits = append(src.commits, dossier.Commit{
			Hash: h, Author: "Dana", When: base.Add(time.Duration(i) * time.Hour),
			Message: "commit " + h, Summary: "commit " + h, HasParent: i > 0,
		})
	}
	src.changes["B"] = []diff.Change{{Kind: diff.Added, NewPath: "b.go", NewContent: []byte("package b\n")}}
	src.changes["C"] = []diff.Change{
		{Kind: diff.Modified, OldPath: "b.go", NewPath: "b.go", OldContent: []byte("package b\n"), NewContent: []byte("package b\n\nvar x = 1\n")},
		{Kind: diff.Deleted, OldPath: "old.go", OldContent: []byte("package old\n")},
	}
	return src
}

func newTestIndexer(t *testing.T, an Analyzer) (*Indexer, *db.Store) {
	t.Helper()
	store, err := db.Open(context.Background(), "sqlite::memory:")
	if err != nil {
		t.Fatalf("db.Open() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ix, err := New(Config{Store: store, Analyzer: an})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return ix, store
}

func TestBuildIndexNewestCountOldestFirst(t *testing.T) {
	ctx := context.Background()
	ix, store := newTestIndexer(t, &fakeAnalyzer{})
	src := demoSource()

	var events []string
	res, err := ix.BuildIndex(ctx, src, Options{Count: 2, OnEvent: func(e Event) {
		events = append(events, e.Kind.String()+" "+e.Hash)
	}})
	if err != nil {
		t.Fatalf("BuildIndex() error: %v", err)
	}
	if diff := cmp.Diff([]string{"B", "C"}, res.Indexed); diff != "" {
		t.Fatalf("indexed mismatch (-want +got):\n%s", diff)
	}
	if res.Repository.Name != "demo" || res.Branch != "main" {
		t.Fatalf("result = %+v", res)
	}
	wantEvents := []string{"started B", "indexed B", "started C", "indexed C"}
	if diff := cmp.Diff(wantEvents, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}

	stored, err := store.ListCommits(ctx, res.Repository.ID, db.ListOptions{})
	if err != nil {
		t.Fatalf("ListCommits() error: %v", err)
	}
	if len(stored) != 2 || stored[0].Hash != "B" || stored[1].Hash != "C" {
		t.Fatalf("stored = %+v", stored)
	}
	c := stored[1]
	if c.Summary != "summary of C" || c.Analysis != "analysis of C" || c.Author != "Dana" {
		t.Errorf("stored commit C = %+v", c)
	}
	if c.FileStats != "Modified b.go\nDeleted old.go" {
		t.Errorf("FileStats = %q", c.FileStats)
	}

	again, err := ix.BuildIndex(ctx, src, Options{Count: 2})
	if err != nil {
		t.Fatalf("second BuildIndex() error: %v", err)
	}
	if len(again.Indexed) != 0 || len(again.Skipped) != 2 {
		t.Fatalf("second run indexed %v, skipped %v; want none indexed", again.Indexed, again.Skipped)
	}
}

func TestBuildIndexDefaultsToTenCommits(t *testing.T) {
	src := demoSource()
	ix, _ := newTestIndexer(t, &fakeAnalyzer{})

	res, err := ix.BuildIndex(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("BuildIndex() error: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, res.Indexed); diff != "" {
		t.Fatalf("indexed mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIndexAbortsOnFirstFailure(t *testing.T) {
	ctx := context.Background()
	an := &fakeAnalyzer{failOn: map[string]bool{"B": true}}
	ix, store := newTestIndexer(t, an)

	res, err := ix.BuildIndex(ctx, demoSource(), Options{})
	if err == nil || !strings.Contains(err.Error(), "B") {
		t.Fatalf("BuildIndex() error = %v, want failure naming B", err)
	}
	if diff := cmp.Diff([]string{"A"}, res.Indexed); diff != "" {
		t.Fatalf("indexed mismatch (-want +got):\n%s", diff)
	}

	// A stays stored, C was never attempted.
	stored, _ := store.ListCommits(ctx, res.Repository.ID, db.ListOptions{})
	if len(stored) != 1 || stored[0].Hash != "A" {
		t.Fatalf("stored = %+v", stored)
	}
	if len(an.dossiers) != 2 {
		t.Fatalf("analyzer called %d times, want 2", len(an.dossiers))
	}
}

func TestBuildIndexContinueOnError(t *testing.T) {
	an := &fakeAnalyzer{failOn: map[string]bool{"B": true}}
	ix, _ := newTestIndexer(t, an)

	var failed []string
	res, err := ix.BuildIndex(context.Background(), demoSource(), Options{
		ContinueOnError: true,
		OnEvent: func(e Event) {
			if e.Kind == EventFailed {
				failed = append(failed, e.Hash)
			}
		},
	})
	if err != nil {
		t.Fatalf("BuildIndex() error: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "C"}, res.Indexed); diff != "" {
		t.Fatalf("indexed mismatch (-want +got):\n%s", diff)
	}
	if len(res.Failures) != 1 || res.Failures[0].Hash != "B" {
		t.Fatalf("failures = %+v", res.Failures)
	}
	if diff := cmp.Diff([]string{"B"}, failed); diff != "" {
		t.Fatalf("failed events mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIndexRecordsMetrics(t *testing.T) {
	store, err := db.Open(context.Background(), "sqlite::memory:")
	if err != nil {
		t.Fatalf("db.Open() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	m := metrics.New()
	ix, err := New(Config{Store: store, Analyzer: &fakeAnalyzer{}, Metrics: m})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := ix.BuildIndex(context.Background(), demoSource(), Options{}); err != nil {
		t.Fatalf("BuildIndex() error: %v", err)
	}

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	var samples uint64
	for _, mf := range families {
		if mf.GetName() == "icds_index_duration_seconds" {
			for _, metric := range mf.GetMetric() {
				samples += metric.GetHistogram().GetSampleCount()
			}
		}
	}
	if samples != 1 {
		t.Fatalf("index duration samples = %d after one run, want 1", samples)
	}
}

func TestInspectDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	ix, store := newTestIndexer(t, &fakeAnalyzer{})

	got, err := ix.Inspect(ctx, demoSource(), Options{Count: 1})
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if len(got) != 1 || got[0].Commit.Hash != "C" || got[0].Summary != "summary of C" {
		t.Fatalf("Inspect() = %+v", got)
	}
	if len(got[0].Commit.Changes) != 2 {
		t.Errorf("inspection should carry the commit's changes")
	}

	repos, _ := store.ListRepositories(ctx, db.ListOptions{})
	if len(repos) != 0 {
		t.Fatalf("Inspect() created repositories: %+v", repos)
	}
}

func TestSuggestCommitMessage(t *testing.T) {
	an := &fakeAnalyzer{}
	now := time.Date(2024, 3, 3, 3, 3, 3, 0, time.UTC)
	ix, err := New(Config{Analyzer: an, Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	src := demoSource()
	if _, err := ix.SuggestCommitMessage(context.Background(), src); !errors.Is(err, ErrNothingStaged) {
		t.Fatalf("error = %v, want ErrNothingStaged", err)
	}

	src.staged = []diff.Change{{Kind: diff.Added, NewPath: "new.go", NewContent: []byte("package n\n")}}
	s, err := ix.SuggestCommitMessage(context.Background(), src)
	if err != nil {
		t.Fatalf("SuggestCommitMessage() error: %v", err)
	}
	if s.Summary != "summary of staged" {
		t.Fatalf("Summary = %q", s.Summary)
	}
	if !strings.HasPrefix(an.dossiers[0], "Changes as of 2024-03-03T03:03:03Z:") {
		t.Fatalf("dossier = %q", an.dossiers[0])
	}
}
