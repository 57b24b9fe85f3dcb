package watcher

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ahazxm/markdown-notes/internal/index"
	"github.com/ahazxm/markdown-notes/internal/testutil"
	"github.com/ahazxm/markdown-notes/internal/workspace"
)

func setup(t *testing.T) (*testutil.TestWorkspace, *Watcher, *index.Database, *[]string) {
	t.Helper()

	tw := testutil.NewTestWorkspace(t).
		WithNote("design-doc.md", "Design Doc", "#proj").
		Build()

	db, err := index.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ws := workspace.New(tw.Path, workspace.ConventionNoExtension)
	if _, err := db.Rebuild(context.Background(), ws, index.RebuildOptions{}); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	var reindexed []string
	w, err := New(Config{
		Workspace:     ws,
		Database:      db,
		DebounceDelay: time.Nanosecond,
		OnReindex: func(path string, err error) {
			if err != nil {
				t.Errorf("reindex %s: %v", path, err)
			}
			reindexed = append(reindexed, ws.Rel(path))
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tw, w, db, &reindexed
}

func distinctTags(t *testing.T, db *index.Database) []string {
	t.Helper()
	tags, err := db.DistinctTags(context.Background())
	if err != nil {
		t.Fatalf("DistinctTags: %v", err)
	}
	return tags
}

func TestNewRequiresWorkspaceAndDatabase(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without workspace")
	}
	if _, err := New(Config{Workspace: workspace.New(t.TempDir(), workspace.ConventionNoExtension)}); err == nil {
		t.Error("expected error without database")
	}
}

func TestWriteEventReindexesAfterDebounce(t *testing.T) {
	ctx := context.Background()
	tw, w, db, reindexed := setup(t)

	path := tw.WriteFile("ideas.md", "# Ideas\n\n#later\n")
	w.handleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Create})
	w.handleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Write})

	if got := w.PendingCount(); got != 1 {
		t.Fatalf("PendingCount = %d, want 1 (events for one file coalesce)", got)
	}

	time.Sleep(time.Millisecond)
	w.processPending(ctx)

	if w.PendingCount() != 0 {
		t.Errorf("pending not drained")
	}
	if !reflect.DeepEqual(*reindexed, []string{"ideas.md"}) {
		t.Errorf("reindexed = %v", *reindexed)
	}
	if got := distinctTags(t, db); !reflect.DeepEqual(got, []string{"later", "proj"}) {
		t.Errorf("tags = %v", got)
	}
}

func TestRemoveEventDropsNote(t *testing.T) {
	ctx := context.Background()
	tw, w, db, reindexed := setup(t)

	path := tw.Abs("design-doc.md")
	w.scheduleReindex(path)
	tw.RemoveFile("design-doc.md")
	w.handleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Remove})

	if w.PendingCount() != 0 {
		t.Errorf("removed file still pending")
	}
	if len(*reindexed) != 1 {
		t.Errorf("reindexed = %v", *reindexed)
	}
	if got := distinctTags(t, db); len(got) != 0 {
		t.Errorf("tags after remove = %v", got)
	}
}

func TestIgnoredEvents(t *testing.T) {
	ctx := context.Background()
	tw, w, _, _ := setup(t)

	for _, rel := range []string{
		"notes.txt",
		".mdnotes/index.md",
		".git/COMMIT.md",
		"node_modules/pkg/readme.md",
	} {
		w.handleEvent(ctx, fsnotify.Event{Name: tw.Abs(rel), Op: fsnotify.Write})
	}
	w.handleEvent(ctx, fsnotify.Event{Name: "/elsewhere/outside.md", Op: fsnotify.Write})

	if got := w.PendingCount(); got != 0 {
		t.Errorf("PendingCount = %d, want 0", got)
	}
}

func TestShouldIgnore(t *testing.T) {
	tw, w, _, _ := setup(t)

	tests := []struct {
		rel  string
		want bool
	}{
		{"a.md", false},
		{"daily/today.md", false},
		{".hidden.md", false},
		{".trash/old.md", true},
		{"sub/.mdnotes/x.md", true},
	}
	for _, tt := range tests {
		if got := w.shouldIgnore(tw.Abs(tt.rel)); got != tt.want {
			t.Errorf("shouldIgnore(%s) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	_, w, _, _ := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
