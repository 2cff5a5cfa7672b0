// Package search answers filtered queries over indexed commits.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/icodes/icds/internal/db"
)

// ErrRepositoryNotFound is returned when a query names a repository that
// has never been indexed.
var ErrRepositoryNotFound = errors.New("repository not found")

// ErrInvalidRange is returned when the start date is after the end date.
var ErrInvalidRange = errors.New("start date is after end date")

// Store is the subset of *db.Store used for searching.
type Store interface {
	FindRepository(ctx context.Context, name string) (*db.Repository, error)
	GetRepository(ctx context.Context, id string) (*db.Repository, error)
	SearchCommits(ctx context.Context, q db.CommitQuery) ([]db.Commit, error)
}

// Query combines filters with AND. Empty fields match everything; an empty
// Text matches every commit.
type Query struct {
	Text       string
	Repository string
	Author     string
	FilePath   string
	Start      *time.Time
	End        *time.Time
	Limit      int
}

// Result is a matching commit with the name of its repository.
type Result struct {
	db.Commit
	RepositoryName string
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Search returns matching commits, oldest first.
func (s *Service) Search(ctx context.Context, q Query) ([]Result, error) {
	if q.Start != nil && q.End != nil && q.Start.After(*q.End) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			q.Start.Format(time.RFC3339), q.End.Format(time.RFC3339))
	}

	cq := db.CommitQuery{
		Author:   strings.TrimSpace(q.Author),
		Text:     q.Text,
		FilePath: strings.TrimSpace(q.FilePath),
		Start:    q.Start,
		End:      q.End,
		Limit:    q.Limit,
	}

	names := map[string]string{}
	if q.Repository != "" {
		repo, err := s.store.FindRepository(ctx, q.Repository)
		if err != nil {
			return nil, err
		}
		if repo == nil {
			return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, q.Repository)
		}
		cq.RepositoryID = repo.ID
		names[repo.ID] = repo.Name
	}

	commits, err := s.store.SearchCommits(ctx, cq)
	if err != nil {
		return nil, fmt.Errorf("failed to search commits: %w", err)
	}

	results := make([]Result, 0, len(commits))
	for _, c := range commits {
		name, ok := names[c.RepositoryID]
		if !ok {
			repo, err := s.store.GetRepository(ctx, c.RepositoryID)
			if err != nil {
				return nil, err
			}
			if repo != nil {
				name = repo.Name
			}
			names[c.RepositoryID] = name
		}
		results = append(results, Result{Commit: c, RepositoryName: name})
	}
	return results, nil
}
