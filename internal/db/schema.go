package db

import (
	"context"
	"fmt"
)

// Schema holds the DDL shared by every engine. Statements are run one at a
// time since not every driver accepts a multi-statement Exec.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS repositories (
    id VARCHAR PRIMARY KEY,
    name VARCHAR NOT NULL UNIQUE,
    path VARCHAR NOT NULL,
    remote_url VARCHAR NOT NULL,
    description VARCHAR,
    created_at TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS commits (
    id VARCHAR PRIMARY KEY,
    repository_id VARCHAR NOT NULL REFERENCES repositories(id),
    hash VARCHAR NOT NULL,
    committed_at TIMESTAMP NOT NULL,
    author VARCHAR NOT NULL,
    message VARCHAR NOT NULL,
    summary VARCHAR NOT NULL,
    analysis VARCHAR NOT NULL,
    file_stats VARCHAR NOT NULL,
    indexed_at TIMESTAMP NOT NULL,
    UNIQUE(repository_id, hash)
)`,
	`CREATE INDEX IF NOT EXISTS idx_commits_repository ON commits(repository_id)`,
	`CREATE INDEX IF NOT EXISTS idx_commits_author ON commits(author)`,
	`CREATE INDEX IF NOT EXISTS idx_commits_date ON commits(committed_at)`,
}

// Migrate creates any missing tables and indexes. It is safe to run on
// every start.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
