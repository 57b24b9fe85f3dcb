// Package workspace discovers the notes in a workspace directory and computes
// the link labels used to refer to them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahazxm/markdown-notes/internal/note"
	"github.com/ahazxm/markdown-notes/internal/paths"
	"github.com/ahazxm/markdown-notes/internal/slugs"
)

// StateDir is the per-workspace directory holding the index.
const StateDir = ".mdnotes"

// ErrNoteNotFound is returned when a reference does not match any note.
var ErrNoteNotFound = errors.New("note not found")

// Convention controls how a note is referred to inside a wiki link.
type Convention string

const (
	// ConventionNoExtension uses the file name without ".md": [[design-doc]].
	ConventionNoExtension Convention = "no-extension"
	// ConventionRawFilename uses the file name as-is: [[design-doc.md]].
	ConventionRawFilename Convention = "raw-filename"
	// ConventionToSpaces turns dashes and underscores into spaces: [[design doc]].
	ConventionToSpaces Convention = "to-spaces"
	// ConventionRelativePath uses the path relative to the current document: [[../specs/design-doc]].
	ConventionRelativePath Convention = "relative-path"
	// ConventionSlug slugifies the file name: [[design-doc]] for "Design Doc.md".
	ConventionSlug Convention = "slug"
)

// DefaultConvention is used when none is configured.
const DefaultConvention = ConventionNoExtension

// Conventions lists every supported convention.
var Conventions = []Convention{
	ConventionNoExtension,
	ConventionRawFilename,
	ConventionToSpaces,
	ConventionRelativePath,
	ConventionSlug,
}

// ParseConvention validates a convention name. The empty string yields DefaultConvention.
func ParseConvention(s string) (Convention, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultConvention, nil
	}
	for _, c := range Conventions {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown link convention %q", s)
}

// Workspace is a directory tree of markdown notes.
type Workspace struct {
	Root       string
	Convention Convention
}

// New returns a workspace rooted at root. An empty convention means DefaultConvention.
func New(root string, convention Convention) *Workspace {
	if convention == "" {
		convention = DefaultConvention
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Workspace{Root: root, Convention: convention}
}

// Rel returns path relative to the workspace root with '/' separators.
func (w *Workspace) Rel(path string) string {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return paths.NormalizeRelPath(rel)
}

// Abs resolves a workspace-relative path.
func (w *Workspace) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(w.Root, filepath.FromSlash(paths.NormalizeRelPath(rel)))
}

// IndexPath returns the location of the workspace's index database.
func (w *Workspace) IndexPath() string {
	return filepath.Join(w.Root, StateDir, "index.db")
}

// NoteFiles lists every note in the workspace in walk order (lexical within each directory).
// Any error while walking the tree is returned.
func (w *Workspace) NoteFiles(ctx context.Context) ([]note.File, error) {
	var files []note.File
	err := w.walkFiles(ctx, func(f note.File, _ os.DirEntry) error {
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// LabelForNote returns the text a wiki link uses to refer to f from the document
// at currentPath. currentPath may be empty when there is no current document.
func (w *Workspace) LabelForNote(f note.File, currentPath string) string {
	stem := note.FileStem(f.Path)

	switch w.Convention {
	case ConventionRawFilename:
		return filepath.Base(f.Path)
	case ConventionToSpaces:
		return strings.Map(func(r rune) rune {
			if r == '-' || r == '_' {
				return ' '
			}
			return r
		}, stem)
	case ConventionRelativePath:
		base := w.Root
		if currentPath != "" {
			base = filepath.Dir(currentPath)
		}
		rel, err := filepath.Rel(base, f.Path)
		if err != nil {
			rel = f.RelativePath
		}
		rel = filepath.ToSlash(rel)
		return strings.TrimSuffix(rel, filepath.Ext(rel))
	case ConventionSlug:
		return slugs.ComponentSlug(stem)
	default:
		return stem
	}
}

// FindNote resolves a reference typed by a user (label, stem, relative path or
// slug) to a note file.
func (w *Workspace) FindNote(ctx context.Context, ref string) (note.File, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return note.File{}, ErrNoteNotFound
	}

	files, err := w.NoteFiles(ctx)
	if err != nil {
		return note.File{}, err
	}

	want := strings.TrimSuffix(paths.NormalizeRelPath(ref), ".md")
	for _, f := range files {
		rel := strings.TrimSuffix(f.RelativePath, ".md")
		if rel == want || w.LabelForNote(f, "") == ref {
			return f, nil
		}
	}
	for _, f := range files {
		if note.FileStem(f.Path) == want || slugs.SameSlug(note.FileStem(f.Path), want) {
			return f, nil
		}
	}

	return note.File{}, fmt.Errorf("%w: %s", ErrNoteNotFound, ref)
}
