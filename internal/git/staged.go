package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/icodes/icds/internal/diff"
)

// StagedChanges returns what the next commit would record: the index
// compared with HEAD. In a repository without commits every staged file is
// an addition.
func (r *Repository) StagedChanges(ctx context.Context) ([]diff.Change, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}

	headTree, err := r.headTree()
	if err != nil {
		return nil, err
	}
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	paths := make([]string, 0, len(status))
	for p, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var changes []diff.Change
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := status[p]
		c := diff.Change{OldPath: p, NewPath: p}
		switch s.Staging {
		case git.Added, git.Copied:
			c.Kind, c.OldPath = diff.Added, ""
		case git.Deleted:
			c.Kind, c.NewPath = diff.Deleted, ""
		case git.Modified:
			c.Kind = diff.Modified
		case git.Renamed:
			c.Kind = diff.Renamed
			if s.Extra != "" {
				c.OldPath = s.Extra
			}
		default:
			c.Kind = diff.Other
			changes = append(changes, c)
			continue
		}

		if c.OldPath != "" {
			if c.OldContent, err = treeFileBytes(headTree, c.OldPath); err != nil {
				return nil, err
			}
		}
		if c.NewPath != "" {
			if c.NewContent, err = r.indexFileBytes(idx, c.NewPath); err != nil {
				return nil, err
			}
		}
		changes = append(changes, c)
	}
	return changes, nil
}

func (r *Repository) headTree() (*object.Tree, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD tree: %w", err)
	}
	return tree, nil
}

func treeFileBytes(tree *object.Tree, path string) ([]byte, error) {
	if tree == nil {
		return nil, nil
	}
	f, err := tree.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from HEAD: %w", path, err)
	}
	return fileBytes(f)
}

func (r *Repository) indexFileBytes(idx *index.Index, path string) ([]byte, error) {
	entry, err := idx.Entry(path)
	if errors.Is(err, index.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s in index: %w", path, err)
	}
	blob, err := r.repo.BlobObject(entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load staged blob for %s: %w", path, err)
	}
	rd, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open staged blob for %s: %w", path, err)
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged blob for %s: %w", path, err)
	}
	return data, nil
}
