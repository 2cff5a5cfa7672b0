// Package diff turns file-level change records into unified-diff text blocks.
package diff

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// ErrUndecodable is returned when a blob cannot be rendered as text. The
// header line is still returned alongside it.
var ErrUndecodable = errors.New("content is not valid UTF-8 text")

// DefaultIgnoreList holds generated files whose diffs add size but no signal.
var DefaultIgnoreList = []string{
	"poetry.lock",
	"Pipfile.lock",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"go.sum",
	"Cargo.lock",
	"composer.lock",
	"Gemfile.lock",
}

// Formatter renders changes, skipping diff bodies for ignored file names.
type Formatter struct {
	ignore map[string]struct{}
}

// NewFormatter creates a formatter that ignores the given file names. A nil
// list selects DefaultIgnoreList; an empty non-nil list ignores nothing.
func NewFormatter(ignore []string) *Formatter {
	if ignore == nil {
		ignore = DefaultIgnoreList
	}
	set := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		name = strings.TrimSpace(name)
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return &Formatter{ignore: set}
}

// Ignored reports whether the final path segment of the change is on the
// ignore list. Both sides are checked so renames onto or away from a lock
// file are covered.
func (f *Formatter) Ignored(c Change) bool {
	for _, p := range []string{c.OldPath, c.NewPath} {
		if p == "" {
			continue
		}
		if _, ok := f.ignore[path.Base(p)]; ok {
			return true
		}
	}
	return false
}

// Format returns the header line followed by a unified diff when both blobs
// are present and the file is not ignored. The block always ends in a newline.
func (f *Formatter) Format(c Change) (string, error) {
	var sb strings.Builder
	sb.WriteString(c.Header())
	sb.WriteString("\n")

	if f.Ignored(c) || c.OldContent == nil || c.NewContent == nil {
		return sb.String(), nil
	}

	oldText, err := decode(c.OldContent)
	if err != nil {
		return sb.String(), fmt.Errorf("%s: old content: %w", c.OldPath, err)
	}
	newText, err := decode(c.NewContent)
	if err != nil {
		return sb.String(), fmt.Errorf("%s: new content: %w", c.NewPath, err)
	}

	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: "a/" + c.OldPath,
		ToFile:   "b/" + c.NewPath,
		Context:  3,
	}
	body, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return sb.String(), fmt.Errorf("failed to diff %s: %w", c.Path(), err)
	}
	sb.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func decode(b []byte) (string, error) {
	if bytes.IndexByte(b, 0) >= 0 || !utf8.Valid(b) {
		return "", ErrUndecodable
	}
	return string(b), nil
}
