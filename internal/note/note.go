// Package note loads and parses markdown notes.
//
// A note's title comes from its frontmatter "title" field, then its first
// level-1 heading, then its file name. Its documentation is the leading part of
// the body shown next to completion items.
package note

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDocumentationLines is how many body lines Documentation returns when unset.
const DefaultDocumentationLines = 20

// ErrNotMarkdown is returned when loading a file that is not a markdown note.
var ErrNotMarkdown = errors.New("not a markdown note")

// File identifies a note on disk.
type File struct {
	// Path is the absolute filesystem path.
	Path string

	// RelativePath is the path relative to the workspace root, with '/' separators.
	RelativePath string
}

// Name returns the file's base name.
func (f File) Name() string {
	return filepath.Base(f.Path)
}

// Note is a parsed markdown note.
type Note struct {
	Path    string
	Title   string
	Tags    []string
	Aliases []string
	Body    string

	// DocumentationLines caps Documentation. Zero means DefaultDocumentationLines.
	DocumentationLines int
}

// Documentation returns the body of the note with blank lines trimmed at both ends,
// limited to DocumentationLines lines. A truncated body ends with an ellipsis line.
func (n *Note) Documentation() string {
	body := strings.TrimSpace(n.Body)
	if body == "" {
		return ""
	}

	limit := n.DocumentationLines
	if limit <= 0 {
		limit = DefaultDocumentationLines
	}

	lines := strings.Split(body, "\n")
	if len(lines) <= limit {
		return body
	}
	return strings.Join(lines[:limit], "\n") + "\n…"
}

// Loader loads notes from disk.
type Loader struct {
	DocumentationLines int
}

// LoadNote reads and parses the note at path.
func (l Loader) LoadNote(ctx context.Context, path string) (*Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := Load(path)
	if err != nil {
		return nil, err
	}
	n.DocumentationLines = l.DocumentationLines
	return n, nil
}

// Load reads and parses the note at path.
func Load(path string) (*Note, error) {
	if !IsMarkdown(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotMarkdown)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}

	return Parse(string(content), path)
}

// IsMarkdown reports whether path names a markdown file.
func IsMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}

// FileStem returns the base name of path without its extension.
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
