package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/icodes/icds/internal/db"
)

func newTestService(t *testing.T) (*Service, *db.Store) {
	t.Helper()
	store, err := db.Open(context.Background(), "sqlite::memory:")
	if err != nil {
		t.Fatalf("db.Open() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store), store
}

func seed(t *testing.T, store *db.Store) {
	t.Helper()
	ctx := context.Background()
	demo, err := store.GetOrCreateRepository(ctx, "https://github.com/acme/demo.git", "/src/demo")
	if err != nil {
		t.Fatalf("GetOrCreateRepository() error: %v", err)
	}
	tools, err := store.GetOrCreateRepository(ctx, "git@github.com:acme/tools.git", "/src/tools")
	if err != nil {
		t.Fatalf("GetOrCreateRepository() error: %v", err)
	}

	commits := []db.Commit{
		{RepositoryID: demo.ID, Hash: "d1", CommittedAt: date(1, 10), Author: "Dana", Summary: "Add search endpoint", Analysis: "New HTTP handler", FileStats: "Added api/search.go"},
		{RepositoryID: tools.ID, Hash: "t1", CommittedAt: date(2, 23), Author: "Lee", Summary: "Speed up search index", Analysis: "Batching", FileStats: "Modified index/build.go"},
		{RepositoryID: demo.ID, Hash: "d2", CommittedAt: date(3, 0), Author: "Lee", Summary: "Fix typo", Analysis: "Docs only", FileStats: "Modified README.md"},
	}
	for i := range commits {
		if err := store.InsertCommit(ctx, &commits[i]); err != nil {
			t.Fatalf("InsertCommit() error: %v", err)
		}
	}
}

func date(day, hour int) time.Time {
	return time.Date(2024, 6, day, hour, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func hashes(rs []Result) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Hash)
	}
	return out
}

func TestSearchTextResolvesRepositoryNames(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store)

	got, err := svc.Search(context.Background(), Query{Text: "search"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(got) != 2 || got[0].Hash != "d1" || got[1].Hash != "t1" {
		t.Fatalf("Search() = %v", hashes(got))
	}
	if got[0].RepositoryName != "demo" || got[1].RepositoryName != "tools" {
		t.Fatalf("repository names = %q, %q", got[0].RepositoryName, got[1].RepositoryName)
	}
}

func TestSearchEmptyTextMatchesAll(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store)

	got, err := svc.Search(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Search() = %v, want all 3", hashes(got))
	}
}

func TestSearchFilters(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store)

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"repository", Query{Repository: "demo"}, []string{"d1", "d2"}},
		{"author", Query{Author: "Lee"}, []string{"t1", "d2"}},
		{"file", Query{FilePath: "README.md"}, []string{"d2"}},
		{"inclusive bounds", Query{Start: ptr(date(1, 10)), End: ptr(date(2, 23))}, []string{"d1", "t1"}},
		{"start only", Query{Start: ptr(date(3, 0))}, []string{"d2"}},
		{"and", Query{Repository: "demo", Author: "Lee", Text: "typo"}, []string{"d2"}},
		{"no match", Query{Repository: "tools", Author: "Dana"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(context.Background(), tt.q)
			if err != nil {
				t.Fatalf("Search() error: %v", err)
			}
			h := hashes(got)
			if len(h) != len(tt.want) {
				t.Fatalf("Search() = %v, want %v", h, tt.want)
			}
			for i := range h {
				if h[i] != tt.want[i] {
					t.Fatalf("Search() = %v, want %v", h, tt.want)
				}
			}
		})
	}
}

func TestSearchUnknownRepository(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store)

	got, err := svc.Search(context.Background(), Query{Repository: "missing"})
	if !errors.Is(err, ErrRepositoryNotFound) {
		t.Fatalf("error = %v, want ErrRepositoryNotFound", err)
	}
	if got != nil {
		t.Fatalf("results = %v, want nil", got)
	}
}

func TestSearchRejectsInvertedRange(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Search(context.Background(), Query{Start: ptr(date(5, 0)), End: ptr(date(1, 0))})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("error = %v, want ErrInvalidRange", err)
	}
}
