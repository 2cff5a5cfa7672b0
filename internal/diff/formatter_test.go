package diff

import (
	"errors"
	"strings"
	"testing"
)

func TestHeader(t *testing.T) {
	tests := []struct {
		name   string
		change Change
		want   string
	}{
		{"added", Change{Kind: Added, NewPath: "main.go"}, "Added main.go"},
		{"deleted", Change{Kind: Deleted, OldPath: "old.go"}, "Deleted old.go"},
		{"modified", Change{Kind: Modified, OldPath: "a.go", NewPath: "a.go"}, "Modified a.go"},
		{"renamed", Change{Kind: Renamed, OldPath: "a.go", NewPath: "b.go"}, "Renamed a.go -> b.go"},
		{"other", Change{Kind: Other, OldPath: "vendor/lib", NewPath: "vendor/lib"}, "Other vendor/lib"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.change.Header(); got != tt.want {
				t.Fatalf("Header() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatModified(t *testing.T) {
	f := NewFormatter(nil)
	c := Change{
		Kind:       Modified,
		OldPath:    "greet.txt",
		NewPath:    "greet.txt",
		OldContent: []byte("hello\nworld\n"),
		NewContent: []byte("hello\nthere\n"),
	}

	got, err := f.Format(c)
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	if !strings.HasPrefix(got, "Modified greet.txt\n") {
		t.Fatalf("missing header, got:\n%s", got)
	}
	for _, want := range []string{"--- a/greet.txt", "+++ b/greet.txt", "-world", "+there", " hello"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "\n") {
		t.Errorf("block should end in a newline")
	}
}

func TestFormatIgnoredFile(t *testing.T) {
	f := NewFormatter(nil)
	c := Change{
		Kind:       Modified,
		OldPath:    "web/package-lock.json",
		NewPath:    "web/package-lock.json",
		OldContent: []byte("{}\n"),
		NewContent: []byte("{\"a\":1}\n"),
	}

	got, err := f.Format(c)
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	if got != "Modified web/package-lock.json\n" {
		t.Fatalf("Format() = %q, want header only", got)
	}
}

func TestFormatCustomIgnoreList(t *testing.T) {
	f := NewFormatter([]string{})
	c := Change{
		Kind:       Modified,
		OldPath:    "go.sum",
		NewPath:    "go.sum",
		OldContent: []byte("a\n"),
		NewContent: []byte("b\n"),
	}

	got, err := f.Format(c)
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	if !strings.Contains(got, "+b") {
		t.Fatalf("empty ignore list should diff go.sum, got:\n%s", got)
	}
}

func TestFormatMissingSide(t *testing.T) {
	f := NewFormatter(nil)
	tests := []Change{
		{Kind: Added, NewPath: "new.txt", NewContent: []byte("x\n")},
		{Kind: Deleted, OldPath: "gone.txt", OldContent: []byte("x\n")},
	}
	for _, c := range tests {
		got, err := f.Format(c)
		if err != nil {
			t.Fatalf("Format(%s) error: %v", c.Header(), err)
		}
		if got != c.Header()+"\n" {
			t.Errorf("Format(%s) = %q, want header only", c.Header(), got)
		}
	}
}

func TestFormatRenamed(t *testing.T) {
	f := NewFormatter(nil)
	c := Change{
		Kind:       Renamed,
		OldPath:    "a.txt",
		NewPath:    "b.txt",
		OldContent: []byte("one\ntwo\n"),
		NewContent: []byte("one\ntwo\nthree\n"),
	}

	got, err := f.Format(c)
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	for _, want := range []string{"Renamed a.txt -> b.txt\n", "--- a/a.txt", "+++ b/b.txt", "+three"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatUndecodable(t *testing.T) {
	f := NewFormatter(nil)
	c := Change{
		Kind:       Modified,
		OldPath:    "logo.png",
		NewPath:    "logo.png",
		OldContent: []byte{0x89, 'P', 'N', 'G', 0x00},
		NewContent: []byte{0x89, 'P', 'N', 'G', 0x01},
	}

	got, err := f.Format(c)
	if !errors.Is(err, ErrUndecodable) {
		t.Fatalf("Format() error = %v, want ErrUndecodable", err)
	}
	if got != "Modified logo.png\n" {
		t.Fatalf("Format() = %q, want header only", got)
	}
}

func TestHeaders(t *testing.T) {
	changes := []Change{
		{Kind: Added, NewPath: "a"},
		{Kind: Deleted, OldPath: "b"},
	}
	got := strings.Join(Headers(changes), "\n")
	if got != "Added a\nDeleted b" {
		t.Fatalf("Headers() = %q", got)
	}
}
