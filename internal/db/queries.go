package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const commitColumns = `id, repository_id, hash, committed_at, author, message, summary, analysis, file_stats, indexed_at`

func scanCommit(row rowScanner) (*Commit, error) {
	var c Commit
	err := row.Scan(&c.ID, &c.RepositoryID, &c.Hash, &c.CommittedAt, &c.Author,
		&c.Message, &c.Summary, &c.Analysis, &c.FileStats, &c.IndexedAt)
	if err != nil {
		return nil, err
	}
	c.CommittedAt = c.CommittedAt.UTC()
	c.IndexedAt = c.IndexedAt.UTC()
	return &c, nil
}

// FindCommit returns the stored commit with the given hash in a repository,
// or nil if it has not been indexed.
func (s *Store) FindCommit(ctx context.Context, repositoryID, hash string) (*Commit, error) {
	var commit *Commit
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		c, err := scanCommit(tx.QueryRowContext(ctx, s.rebind(`
			SELECT `+commitColumns+` FROM commits
			WHERE repository_id = ? AND hash = ?
		`), repositoryID, hash))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to query commit: %w", err)
		}
		commit = c
		return nil
	})
	return commit, err
}

// InsertCommit stores c. ID and IndexedAt are filled in when empty.
func (s *Store) InsertCommit(ctx context.Context, c *Commit) error {
	if c.RepositoryID == "" || c.Hash == "" {
		return errors.New("commit needs a repository id and a hash")
	}
	if c.ID == "" {
		c.ID = newID()
	}
	if c.IndexedAt.IsZero() {
		c.IndexedAt = time.Now()
	}
	c.IndexedAt = normalizeTime(c.IndexedAt)
	c.CommittedAt = normalizeTime(c.CommittedAt)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO commits (`+commitColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`), c.ID, c.RepositoryID, c.Hash, c.CommittedAt, c.Author,
			c.Message, c.Summary, c.Analysis, c.FileStats, c.IndexedAt)
		if err != nil {
			return fmt.Errorf("failed to insert commit %s: %w", c.Hash, err)
		}
		return nil
	})
}

// ListCommits returns a repository's commits in the order they were indexed.
func (s *Store) ListCommits(ctx context.Context, repositoryID string, opts ListOptions) ([]Commit, error) {
	page, pageArgs := s.pageClause(opts)
	args := append([]any{repositoryID}, pageArgs...)
	return s.queryCommits(ctx, `
		SELECT `+commitColumns+` FROM commits
		WHERE repository_id = ?
		ORDER BY indexed_at, id`+page, args)
}

// SearchCommits returns commits matching every filter set in q, oldest
// commit first. Date bounds are inclusive.
func (s *Store) SearchCommits(ctx context.Context, q CommitQuery) ([]Commit, error) {
	var where []string
	var args []any

	if q.RepositoryID != "" {
		where = append(where, "repository_id = ?")
		args = append(args, q.RepositoryID)
	}
	if q.Author != "" {
		where = append(where, "author = ?")
		args = append(args, q.Author)
	}
	if q.FilePath != "" {
		where = append(where, `file_stats LIKE ? ESCAPE '\'`)
		args = append(args, "%"+EscapeLike(q.FilePath)+"%")
	}
	if q.Start != nil {
		where = append(where, "committed_at >= ?")
		args = append(args, normalizeTime(*q.Start))
	}
	if q.End != nil {
		where = append(where, "committed_at <= ?")
		args = append(args, normalizeTime(*q.End))
	}
	if q.Text != "" {
		pattern := "%" + EscapeLike(strings.ToLower(q.Text)) + "%"
		where = append(where, `(LOWER(summary) LIKE ? ESCAPE '\' OR LOWER(analysis) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + commitColumns + ` FROM commits`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY committed_at, id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}
	return s.queryCommits(ctx, query, args)
}

func (s *Store) queryCommits(ctx context.Context, query string, args []any) ([]Commit, error) {
	var commits []Commit
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.rebind(query), args...)
		if err != nil {
			return fmt.Errorf("failed to query commits: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanCommit(rows)
			if err != nil {
				return fmt.Errorf("failed to scan commit: %w", err)
			}
			commits = append(commits, *c)
		}
		return rows.Err()
	})
	return commits, err
}

// EscapeLike escapes the LIKE wildcards in s using backslash.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
