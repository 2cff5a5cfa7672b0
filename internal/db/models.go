package db

import "time"

// Repository is a source repository whose commits have been indexed.
// Records are created once and never modified.
type Repository struct {
	ID          string
	Name        string
	Path        string
	RemoteURL   string
	Description string
	CreatedAt   time.Time
}

// Commit is the stored analysis of one commit.
type Commit struct {
	ID           string
	RepositoryID string
	Hash         string
	CommittedAt  time.Time
	Author       string
	Message      string
	Summary      string
	Analysis     string
	// FileStats is one change header per line, e.g. "Modified main.go".
	FileStats string
	IndexedAt time.Time
}

// ListOptions pages a list query. A Limit of zero or less returns every row.
type ListOptions struct {
	Limit  int
	Offset int
}

// CommitQuery filters stored commits. Zero-valued fields do not filter.
type CommitQuery struct {
	RepositoryID string
	Author       string
	// Text matches summary or analysis, case-insensitively.
	Text     string
	FilePath string
	Start    *time.Time
	End      *time.Time
	Limit    int
}

// normalizeTime stores every timestamp in UTC at second precision.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
