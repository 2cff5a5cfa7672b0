package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const repositoryColumns = `id, name, path, remote_url, description, created_at`

// RepositoryName derives a repository name from its remote URL: the last
// path segment, after a slash or the colon of an scp-style address, with
// any trailing slash and the final extension removed.
//
//	https://github.com/acme/demo.git -> demo
//	git@github.com:acme/demo.git     -> demo
//	/srv/git/demo/                   -> demo
func RepositoryName(remoteURL string) string {
	s := strings.TrimRight(strings.TrimSpace(remoteURL), `/\`)
	if i := strings.LastIndexAny(s, `/:\`); i >= 0 {
		s = s[i+1:]
	}
	if ext := path.Ext(s); ext != "" && ext != s {
		s = strings.TrimSuffix(s, ext)
	}
	return s
}

func newID() string {
	// v7 ids sort by creation time, which keeps insertion order stable
	// for rows created within the same second.
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepository(row rowScanner) (*Repository, error) {
	var r Repository
	var description sql.NullString
	if err := row.Scan(&r.ID, &r.Name, &r.Path, &r.RemoteURL, &description, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Description = description.String
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func (s *Store) findRepository(ctx context.Context, tx *sql.Tx, column, value string) (*Repository, error) {
	query := s.rebind(`SELECT ` + repositoryColumns + ` FROM repositories WHERE ` + column + ` = ?`)
	r, err := scanRepository(tx.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query repository: %w", err)
	}
	return r, nil
}

// FindRepository returns the repository with the given name, or nil if
// there is none.
func (s *Store) FindRepository(ctx context.Context, name string) (*Repository, error) {
	var repo *Repository
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		repo, err = s.findRepository(ctx, tx, "name", name)
		return err
	})
	return repo, err
}

// GetRepository returns the repository with the given id, or nil if there
// is none.
func (s *Store) GetRepository(ctx context.Context, id string) (*Repository, error) {
	var repo *Repository
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		repo, err = s.findRepository(ctx, tx, "id", id)
		return err
	})
	return repo, err
}

// GetOrCreateRepository returns the repository named after remoteURL,
// creating it with the given local path when it does not exist yet. An
// existing record is returned unchanged.
func (s *Store) GetOrCreateRepository(ctx context.Context, remoteURL, localPath string) (*Repository, error) {
	name := RepositoryName(remoteURL)
	if name == "" {
		return nil, fmt.Errorf("cannot derive a repository name from %q", remoteURL)
	}

	var repo *Repository
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.findRepository(ctx, tx, "name", name)
		if err != nil {
			return err
		}
		if existing != nil {
			repo = existing
			return nil
		}

		r := &Repository{
			ID:        newID(),
			Name:      name,
			Path:      localPath,
			RemoteURL: remoteURL,
			CreatedAt: normalizeTime(time.Now()),
		}
		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO repositories (`+repositoryColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)
		`), r.ID, r.Name, r.Path, r.RemoteURL, nil, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert repository %s: %w", name, err)
		}
		repo = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// ListRepositories returns repositories in the order they were created.
func (s *Store) ListRepositories(ctx context.Context, opts ListOptions) ([]Repository, error) {
	page, pageArgs := s.pageClause(opts)
	var repos []Repository
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.rebind(`
			SELECT `+repositoryColumns+` FROM repositories
			ORDER BY created_at, id`+page), pageArgs...)
		if err != nil {
			return fmt.Errorf("failed to list repositories: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanRepository(rows)
			if err != nil {
				return fmt.Errorf("failed to scan repository: %w", err)
			}
			repos = append(repos, *r)
		}
		return rows.Err()
	})
	return repos, err
}

// pageClause renders LIMIT/OFFSET for opts. SQLite only accepts OFFSET
// after a LIMIT, where -1 means unbounded.
func (s *Store) pageClause(opts ListOptions) (string, []any) {
	switch {
	case opts.Limit > 0 && opts.Offset > 0:
		return " LIMIT ? OFFSET ?", []any{opts.Limit, opts.Offset}
	case opts.Limit > 0:
		return " LIMIT ?", []any{opts.Limit}
	case opts.Offset > 0 && s.dialect == dialectSQLite:
		return " LIMIT -1 OFFSET ?", []any{opts.Offset}
	case opts.Offset > 0:
		return " OFFSET ?", []any{opts.Offset}
	default:
		return "", nil
	}
}
