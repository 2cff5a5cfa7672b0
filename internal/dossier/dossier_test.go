package dossier

import (
	"strings"
	"testing"
	"time"

	"github.com/icodes/icds/internal/diff"
)

var when = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func TestDescribeOmitsMessageWhenSameAsSummary(t *testing.T) {
	d := NewDescriber(nil)
	got := d.Describe(Commit{
		Hash:      "abc123",
		Author:    "Dana",
		When:      when,
		Message:   "Fix typo\n",
		Summary:   "Fix typo",
		HasParent: true,
		Changes: []diff.Change{{
			Kind:       diff.Modified,
			OldPath:    "README.md",
			NewPath:    "README.md",
			OldContent: []byte("teh\n"),
			NewContent: []byte("the\n"),
		}},
	})

	wantPrefix := "Commit hash: abc123\n" +
		"Commit date: 2024-03-01T12:30:00Z\n" +
		"Author: Dana\n" +
		"Summary: Fix typo\n" +
		"Changes:\n\n" +
		"Modified README.md\n"
	if !strings.HasPrefix(got, wantPrefix) {
		t.Fatalf("Describe() =\n%s\nwant prefix\n%s", got, wantPrefix)
	}
	if strings.Contains(got, "Message:") {
		t.Errorf("message line should be omitted")
	}
	if !strings.Contains(got, "+the") {
		t.Errorf("diff body missing:\n%s", got)
	}
}

func TestDescribeIncludesLongerMessage(t *testing.T) {
	d := NewDescriber(nil)
	got := d.Describe(Commit{
		Hash:      "abc123",
		Author:    "Dana",
		When:      when,
		Message:   "Fix typo\n\nAlso reword the intro.",
		Summary:   "Fix typo",
		HasParent: true,
	})
	if !strings.Contains(got, "Message: Fix typo\n\nAlso reword the intro.\n") {
		t.Fatalf("message line missing:\n%s", got)
	}
}

func TestDescribeRootCommit(t *testing.T) {
	d := NewDescriber(nil)
	got := d.Describe(Commit{
		Hash:    "root",
		Author:  "Dana",
		When:    when,
		Message: "Initial commit",
		Summary: "Initial commit",
	})
	if strings.Contains(got, "Changes:") {
		t.Fatalf("root commit should have no changes section:\n%s", got)
	}
}

func TestDescribeUndecodablePlaceholder(t *testing.T) {
	d := NewDescriber(nil)
	got := d.Describe(Commit{
		Hash:      "bin",
		Author:    "Dana",
		When:      when,
		Summary:   "Update logo",
		Message:   "Update logo",
		HasParent: true,
		Changes: []diff.Change{
			{
				Kind:       diff.Modified,
				OldPath:    "logo.png",
				NewPath:    "logo.png",
				OldContent: []byte{0xff, 0x00},
				NewContent: []byte{0xfe, 0x00},
			},
			{Kind: diff.Added, NewPath: "notes.txt", NewContent: []byte("hi\n")},
		},
	})
	want := "Modified logo.png\n(binary or undecodable content omitted)\n\nAdded notes.txt\n"
	if !strings.HasSuffix(got, want) {
		t.Fatalf("Describe() =\n%s\nwant suffix\n%s", got, want)
	}
}

func TestDescribeStaged(t *testing.T) {
	d := NewDescriber(diff.NewFormatter(nil))
	got := d.DescribeStaged([]diff.Change{{Kind: diff.Deleted, OldPath: "old.go"}}, when)
	want := "Changes as of 2024-03-01T12:30:00Z:\n\nDeleted old.go\n"
	if got != want {
		t.Fatalf("DescribeStaged() = %q, want %q", got, want)
	}
}
