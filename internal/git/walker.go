package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/icodes/icds/internal/diff"
	"github.com/icodes/icds/internal/dossier"
)

// RecentCommits returns the newest n commits reachable from branch, ordered
// oldest first. Changes are not loaded; see Changes.
func (r *Repository) RecentCommits(ctx context.Context, branch string, n int) ([]dossier.Commit, error) {
	if n <= 0 {
		return nil, nil
	}

	from, err := r.repo.ResolveRevision(plumbing.Revision(branch))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve branch %q: %w", branch, err)
	}

	iter, err := r.repo.Log(&git.LogOptions{
		From:  *from,
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create log iterator: %w", err)
	}
	defer iter.Close()

	var commits []dossier.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, toDossierCommit(c))
		if len(commits) >= n {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("failed to iterate commits: %w", err)
	}

	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	return commits, nil
}

func toDossierCommit(c *object.Commit) dossier.Commit {
	return dossier.Commit{
		Hash:      c.Hash.String(),
		Author:    c.Author.Name,
		When:      c.Author.When,
		Message:   c.Message,
		Summary:   summaryLine(c.Message),
		HasParent: c.NumParents() > 0,
	}
}

func summaryLine(message string) string {
	line, _, _ := strings.Cut(strings.TrimLeft(message, "\n"), "\n")
	return strings.TrimSpace(line)
}

// Changes returns the file changes a commit introduced relative to its first
// parent. Root commits have no changes.
func (r *Repository) Changes(ctx context.Context, hash string) ([]diff.Change, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	if commit.NumParents() == 0 {
		return nil, nil
	}

	parent, err := commit.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent of %s: %w", hash, err)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", parent.Hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", hash, err)
	}

	treeChanges, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s against its parent: %w", hash, err)
	}

	changes := make([]diff.Change, 0, len(treeChanges))
	for _, tc := range treeChanges {
		c, err := toChange(tc)
		if err != nil {
			return nil, fmt.Errorf("commit %s: %w", hash, err)
		}
		changes = append(changes, c)
	}
	return changes, nil
}

func changeKind(from, to string) diff.ChangeKind {
	switch {
	case from == "" && to == "":
		return diff.Other
	case from == "":
		return diff.Added
	case to == "":
		return diff.Deleted
	case from != to:
		return diff.Renamed
	default:
		return diff.Modified
	}
}

func isBlobMode(m filemode.FileMode) bool {
	return m == filemode.Regular || m == filemode.Executable || m == filemode.Deprecated || m == filemode.Symlink
}

func toChange(tc *object.Change) (diff.Change, error) {
	c := diff.Change{
		Kind:    changeKind(tc.From.Name, tc.To.Name),
		OldPath: tc.From.Name,
		NewPath: tc.To.Name,
	}

	// Submodules and other non-blob entries have no content to diff.
	if (tc.From.Name != "" && !isBlobMode(tc.From.TreeEntry.Mode)) ||
		(tc.To.Name != "" && !isBlobMode(tc.To.TreeEntry.Mode)) {
		c.Kind = diff.Other
		return c, nil
	}

	from, to, err := tc.Files()
	if err != nil {
		return c, fmt.Errorf("failed to load blobs for %s: %w", c.Path(), err)
	}
	if c.OldContent, err = fileBytes(from); err != nil {
		return c, err
	}
	if c.NewContent, err = fileBytes(to); err != nil {
		return c, err
	}
	return c, nil
}

func fileBytes(f *object.File) ([]byte, error) {
	if f == nil {
		return nil, nil
	}
	s, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return []byte(s), nil
}
