package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ahazxm/markdown-notes/internal/note"
	"github.com/ahazxm/markdown-notes/internal/workspace"
)

// RebuildOptions controls Rebuild.
type RebuildOptions struct {
	// Full clears the index and reindexes every note instead of only stale ones.
	Full bool
}

// FileError is a note that could not be indexed.
type FileError struct {
	FilePath string `json:"file_path"`
	Message  string `json:"message"`
}

// RebuildResult summarizes a rebuild.
type RebuildResult struct {
	Indexed int         `json:"indexed"`
	Skipped int         `json:"skipped"`
	Removed []string    `json:"removed,omitempty"`
	Errors  []FileError `json:"errors,omitempty"`
}

// Rebuild brings the index up to date with the notes in ws.
//
// Unchanged notes are skipped unless opts.Full is set, notes that fail to parse
// are reported in the result, and notes no longer on disk are removed. A
// file-backed index is locked for the duration; ErrIndexLocked is returned if
// another process holds the lock.
func (d *Database) Rebuild(ctx context.Context, ws *workspace.Workspace, opts RebuildOptions) (*RebuildResult, error) {
	if d.path != "" {
		lock, err := acquireRebuildLock(filepath.Dir(d.path))
		if err != nil {
			return nil, err
		}
		defer lock.Release()
	}

	if opts.Full {
		if err := d.ClearAllData(ctx); err != nil {
			return nil, err
		}
	}

	result := &RebuildResult{}
	err := ws.Walk(ctx, func(r workspace.WalkResult) error {
		if r.Error != nil {
			result.Errors = append(result.Errors, FileError{FilePath: r.File.RelativePath, Message: r.Error.Error()})
			return nil
		}

		if !opts.Full {
			indexed, err := d.GetFileMtime(ctx, r.File.RelativePath)
			if err != nil {
				return err
			}
			if indexed != 0 && r.FileMtime <= indexed {
				result.Skipped++
				return nil
			}
		}

		if err := d.IndexNote(ctx, r.File.RelativePath, r.Note, r.FileMtime); err != nil {
			return fmt.Errorf("index %s: %w", r.File.RelativePath, err)
		}
		result.Indexed++
		return nil
	})
	if err != nil {
		return nil, err
	}

	removed, err := d.RemoveDeletedFiles(ctx, ws.Root)
	if err != nil {
		return nil, err
	}
	result.Removed = removed

	if err := d.Analyze(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// ReindexFile indexes a single note, or removes it from the index if the file is gone.
func (d *Database) ReindexFile(ctx context.Context, ws *workspace.Workspace, path string) error {
	relPath := ws.Rel(path)

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return d.RemoveFile(ctx, relPath)
	}
	if err != nil {
		return err
	}

	n, err := note.Load(path)
	if err != nil {
		return err
	}
	return d.IndexNote(ctx, relPath, n, info.ModTime().Unix())
}

// RemoveDeletedFiles removes indexed notes whose files no longer exist under root.
func (d *Database) RemoveDeletedFiles(ctx context.Context, root string) ([]string, error) {
	indexed, err := d.AllIndexedFilePaths(ctx)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, relPath := range indexed {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(relPath))); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := d.RemoveFile(ctx, relPath); err != nil {
			return removed, err
		}
		removed = append(removed, relPath)
	}
	return removed, nil
}

// IsFileStale reports whether the note at relPath needs reindexing.
func (d *Database) IsFileStale(ctx context.Context, root, relPath string) (bool, error) {
	indexedMtime, err := d.GetFileMtime(ctx, relPath)
	if err != nil {
		return false, err
	}
	if indexedMtime == 0 {
		return true, nil
	}

	stat, err := os.Stat(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}

	return stat.ModTime().Unix() > indexedMtime, nil
}

type rebuildLock struct {
	file *os.File
}

func acquireRebuildLock(dir string) (*rebuildLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	lockFile, err := os.OpenFile(filepath.Join(dir, "index.lock"), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open index lock: %w", err)
	}

	if err := lockFileExclusiveNonBlocking(lockFile); err != nil {
		lockFile.Close()
		if isWouldBlockError(err) {
			return nil, ErrIndexLocked
		}
		return nil, fmt.Errorf("failed to acquire index lock: %w", err)
	}

	return &rebuildLock{file: lockFile}, nil
}

func (l *rebuildLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
