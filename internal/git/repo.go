// Package git adapts go-git to the commit and change records the rest of
// icds works with.
package git

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

type Repository struct {
	repo *git.Repository
	path string
}

func OpenRepo(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", absPath, err)
	}

	if wt, err := repo.Worktree(); err == nil {
		absPath = wt.Filesystem.Root()
	}

	return &Repository{
		repo: repo,
		path: absPath,
	}, nil
}

// Path is the absolute path of the working tree.
func (r *Repository) Path() string {
	return r.path
}

// RemoteURL returns the first URL of the origin remote. Repositories without
// an origin are identified by their local path instead.
func (r *Repository) RemoteURL() (string, error) {
	remote, err := r.repo.Remote("origin")
	if errors.Is(err, git.ErrRemoteNotFound) {
		return r.path, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return r.path, nil
	}
	return urls[0], nil
}

// CurrentBranch returns the short name of the checked-out branch, or "HEAD"
// when the head is detached.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", fmt.Errorf("repository at %s has no commits yet", r.path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "HEAD", nil
	}
	return head.Name().Short(), nil
}
