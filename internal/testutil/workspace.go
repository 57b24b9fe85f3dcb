// Package testutil provides reusable test utilities for note workspaces.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestWorkspace represents a temporary note workspace for testing.
type TestWorkspace struct {
	Path  string
	t     *testing.T
	files map[string]string
}

// NewTestWorkspace creates a new test workspace builder.
// Call Build() to create the actual directory.
func NewTestWorkspace(t *testing.T) *TestWorkspace {
	t.Helper()
	return &TestWorkspace{
		t:     t,
		files: make(map[string]string),
	}
}

// WithFile adds a file to the workspace.
// The path is relative to the workspace root.
func (w *TestWorkspace) WithFile(path, content string) *TestWorkspace {
	w.files[path] = content
	return w
}

// WithNote adds a markdown note with a level-1 title heading and body.
func (w *TestWorkspace) WithNote(path, title, body string) *TestWorkspace {
	return w.WithFile(path, "# "+title+"\n\n"+body+"\n")
}

// Build creates the workspace directory and all configured files.
func (w *TestWorkspace) Build() *TestWorkspace {
	w.t.Helper()

	w.Path = w.t.TempDir()
	for path, content := range w.files {
		w.WriteFile(path, content)
	}

	return w
}

// WriteFile writes a file into the built workspace, creating directories as needed.
func (w *TestWorkspace) WriteFile(relPath, content string) string {
	w.t.Helper()
	fullPath := filepath.Join(w.Path, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		w.t.Fatalf("failed to create directory for %s: %v", relPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		w.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
	return fullPath
}

// RemoveFile deletes a file from the built workspace.
func (w *TestWorkspace) RemoveFile(relPath string) {
	w.t.Helper()
	if err := os.Remove(filepath.Join(w.Path, relPath)); err != nil {
		w.t.Fatalf("failed to remove %s: %v", relPath, err)
	}
}

// Abs returns the absolute path of a workspace-relative file.
func (w *TestWorkspace) Abs(relPath string) string {
	return filepath.Join(w.Path, filepath.FromSlash(relPath))
}

// AssertFileExists fails the test if the file does not exist.
func (w *TestWorkspace) AssertFileExists(relPath string) {
	w.t.Helper()
	if _, err := os.Stat(w.Abs(relPath)); os.IsNotExist(err) {
		w.t.Errorf("expected file to exist: %s", relPath)
	}
}
