package diff

import "fmt"

// ChangeKind classifies a file-level change between two trees.
type ChangeKind int

const (
	Other ChangeKind = iota
	Added
	Deleted
	Modified
	Renamed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "Added"
	case Deleted:
		return "Deleted"
	case Modified:
		return "Modified"
	case Renamed:
		return "Renamed"
	default:
		return "Other"
	}
}

// Change describes one file's before/after state within a diff.
// A nil content slice means the blob is absent on that side; an empty
// non-nil slice is an empty file.
type Change struct {
	Kind       ChangeKind
	OldPath    string
	NewPath    string
	OldContent []byte
	NewContent []byte
}

// Path returns the path that best identifies the change: the new path,
// or the old one for deletions.
func (c Change) Path() string {
	if c.NewPath != "" {
		return c.NewPath
	}
	return c.OldPath
}

// Header returns the one-line description of the change, e.g.
// "Modified main.go" or "Renamed a.go -> b.go".
func (c Change) Header() string {
	switch c.Kind {
	case Renamed:
		return fmt.Sprintf("%s %s -> %s", c.Kind, c.OldPath, c.NewPath)
	case Deleted:
		return fmt.Sprintf("%s %s", c.Kind, c.OldPath)
	default:
		return fmt.Sprintf("%s %s", c.Kind, c.Path())
	}
}

// Headers returns the header line of every change, in order.
func Headers(changes []Change) []string {
	headers := make([]string, 0, len(changes))
	for _, c := range changes {
		headers = append(headers, c.Header())
	}
	return headers
}
