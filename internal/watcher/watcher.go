// Package watcher keeps a workspace index up to date as notes change on disk.
//
// It can be used standalone via `mdnotes watch` or embedded in the LSP server.
package watcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ahazxm/markdown-notes/internal/index"
	"github.com/ahazxm/markdown-notes/internal/note"
	"github.com/ahazxm/markdown-notes/internal/workspace"
)

// Watcher monitors a workspace directory and reindexes notes that change.
type Watcher struct {
	ws *workspace.Workspace
	db *index.Database

	// Configuration
	debounceDelay time.Duration
	debug         bool
	log           io.Writer

	// Internal state
	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex

	// Callbacks
	onReindex func(path string, err error)
}

// Config holds configuration options for the Watcher.
type Config struct {
	Workspace     *workspace.Workspace
	Database      *index.Database
	DebounceDelay time.Duration // Default: 100ms
	Debug         bool
	Log           io.Writer                    // Default: stderr
	OnReindex     func(path string, err error) // Optional callback
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Workspace == nil {
		return nil, fmt.Errorf("workspace is required")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database is required")
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}
	log := cfg.Log
	if log == nil {
		log = os.Stderr
	}

	return &Watcher{
		ws:            cfg.Workspace,
		db:            cfg.Database,
		debounceDelay: debounce,
		debug:         cfg.Debug,
		log:           log,
		pending:       make(map[string]time.Time),
		onReindex:     cfg.OnReindex,
	}, nil
}

// Start begins watching the workspace for file changes.
// It blocks until the context is cancelled and returns only after the last
// scheduled reindex has finished.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addWatchRecursive(w.ws.Root); err != nil {
		return fmt.Errorf("failed to watch workspace: %w", err)
	}

	w.logDebug("watching workspace: %s", w.ws.Root)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.processDebounced(ctx)
	}()
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logDebug("watcher error: %v", err)
		}
	}
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name

	if !note.IsMarkdown(path) {
		// New directories need their own watch.
		if event.Op&fsnotify.Create != 0 && w.fsWatcher != nil {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !w.shouldIgnore(path) {
				if err := w.addWatchRecursive(path); err != nil {
					w.logDebug("failed to watch %s: %v", path, err)
				}
			}
		}
		return
	}

	if w.shouldIgnore(path) {
		return
	}

	w.logDebug("event: %s %s", event.Op, path)

	switch {
	case event.Op&fsnotify.Write != 0, event.Op&fsnotify.Create != 0:
		w.scheduleReindex(path)
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		err := w.db.RemoveFile(ctx, w.ws.Rel(path))
		if w.onReindex != nil {
			w.onReindex(path, err)
		}
		if err != nil {
			w.logDebug("failed to remove %s from index: %v", path, err)
		}
	}
}

// scheduleReindex adds a file to the pending queue. Repeated events for the
// same file push its deadline back.
func (w *Watcher) scheduleReindex(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

// processDebounced processes pending reindex requests after the debounce delay.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// processPending reindexes the files whose debounce delay has passed.
func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, scheduledAt := range w.pending {
		if now.Sub(scheduledAt) >= w.debounceDelay {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		err := w.db.ReindexFile(ctx, w.ws, path)
		if w.onReindex != nil {
			w.onReindex(path, err)
		}
		if err != nil {
			w.logDebug("failed to reindex %s: %v", path, err)
		} else {
			w.logDebug("reindexed: %s", path)
		}
	}
}

// PendingCount returns the number of files waiting out their debounce delay.
func (w *Watcher) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// addWatchRecursive adds a directory and all subdirectories to the watcher.
func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.ws.Root && workspace.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logDebug("failed to watch %s: %v", path, err)
		}
		return nil
	})
}

// shouldIgnore reports whether path lies outside the workspace or under a
// directory the walker skips.
func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.ws.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return true
	}

	parts := strings.Split(rel, string(filepath.Separator))
	for _, part := range parts[:len(parts)-1] {
		if workspace.SkipDir(part) {
			return true
		}
	}
	return false
}

func (w *Watcher) logDebug(format string, args ...any) {
	if w.debug {
		fmt.Fprintf(w.log, "[mdnotes-watcher] "+format+"\n", args...)
	}
}
