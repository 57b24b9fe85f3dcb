package workspace

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahazxm/markdown-notes/internal/note"
	"github.com/ahazxm/markdown-notes/internal/paths"
)

// WalkResult contains the result of loading one note.
type WalkResult struct {
	File      note.File
	Note      *note.Note
	FileMtime int64 // Unix seconds
	Error     error
}

// Walk loads every note in the workspace and calls handler for each one.
// Per-file read and parse failures are passed to handler in WalkResult.Error;
// a non-nil return from handler stops the walk.
func (w *Workspace) Walk(ctx context.Context, handler func(WalkResult) error) error {
	return w.walkFiles(ctx, func(f note.File, d os.DirEntry) error {
		info, err := d.Info()
		if err != nil {
			return handler(WalkResult{File: f, Error: err})
		}

		n, err := note.Load(f.Path)
		if err != nil {
			return handler(WalkResult{File: f, Error: err})
		}

		return handler(WalkResult{
			File:      f,
			Note:      n,
			FileMtime: info.ModTime().Unix(),
		})
	})
}

// SkipDir reports whether a directory is never searched for notes.
func SkipDir(name string) bool {
	return name == StateDir || name == "node_modules" || strings.HasPrefix(name, ".")
}

// walkFiles walks the markdown files under the root. It:
// - skips the state directory and hidden directories
// - only visits .md files
// - ignores files that resolve outside the workspace
// - stops when ctx is cancelled
func (w *Workspace) walkFiles(ctx context.Context, fn func(note.File, os.DirEntry) error) error {
	return filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != w.Root && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !note.IsMarkdown(path) {
			return nil
		}

		if err := paths.ValidateWithinWorkspace(w.Root, path); err != nil {
			if errors.Is(err, paths.ErrPathOutsideWorkspace) {
				return nil
			}
			return err
		}

		return fn(note.File{Path: path, RelativePath: w.Rel(path)}, d)
	})
}
