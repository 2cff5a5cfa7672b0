// Package dossier renders a commit, or a set of staged changes, into the
// plain-text description that is handed to the language model.
package dossier

import (
	"errors"
	"strings"
	"time"

	"github.com/icodes/icds/internal/diff"
)

const undecodablePlaceholder = "(binary or undecodable content omitted)"

// Commit is the information about one commit needed to describe it.
type Commit struct {
	Hash      string
	Author    string
	When      time.Time // author date
	Message   string
	Summary   string
	HasParent bool
	Changes   []diff.Change
}

// Describer builds dossiers using a diff formatter.
type Describer struct {
	formatter *diff.Formatter
}

// NewDescriber creates a describer. A nil formatter uses the default ignore list.
func NewDescriber(f *diff.Formatter) *Describer {
	if f == nil {
		f = diff.NewFormatter(nil)
	}
	return &Describer{formatter: f}
}

// Describe renders a commit. The message line is included only when the
// full message says more than the summary line. Root commits carry no
// changes section.
func (d *Describer) Describe(c Commit) string {
	var sb strings.Builder
	sb.WriteString("Commit hash: " + c.Hash + "\n")
	sb.WriteString("Commit date: " + c.When.Format(time.RFC3339) + "\n")
	sb.WriteString("Author: " + c.Author + "\n")
	sb.WriteString("Summary: " + c.Summary + "\n")
	if strings.TrimSpace(c.Message) != strings.TrimSpace(c.Summary) {
		sb.WriteString("Message: " + c.Message + "\n")
	}
	if !c.HasParent {
		return sb.String()
	}

	sb.WriteString("Changes:\n\n")
	sb.WriteString(d.blocks(c.Changes))
	return sb.String()
}

// DescribeStaged renders the changes staged for the next commit.
func (d *Describer) DescribeStaged(changes []diff.Change, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("Changes as of " + now.Format(time.RFC3339) + ":\n\n")
	sb.WriteString(d.blocks(changes))
	return sb.String()
}

func (d *Describer) blocks(changes []diff.Change) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		block, err := d.formatter.Format(c)
		switch {
		case errors.Is(err, diff.ErrUndecodable):
			block = c.Header() + "\n" + undecodablePlaceholder + "\n"
		case err != nil:
			block = c.Header() + "\n"
		}
		parts = append(parts, block)
	}
	return strings.Join(parts, "\n")
}
