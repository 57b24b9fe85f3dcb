package index

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ahazxm/markdown-notes/internal/note"
	"github.com/ahazxm/markdown-notes/internal/testutil"
	"github.com/ahazxm/markdown-notes/internal/workspace"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDistinctTagsSortedCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	notes := map[string][]string{
		"a.md": {"work", "Alpha"},
		"b.md": {"beta", "work"},
		"c.md": {"alpha/sub"},
	}
	for path, tags := range notes {
		if err := db.IndexNote(ctx, path, &note.Note{Title: path, Tags: tags}, 1); err != nil {
			t.Fatalf("IndexNote(%s): %v", path, err)
		}
	}

	got, err := db.DistinctTags(ctx)
	if err != nil {
		t.Fatalf("DistinctTags: %v", err)
	}
	want := []string{"Alpha", "alpha/sub", "beta", "work"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DistinctTags = %v, want %v", got, want)
	}

	counts, err := db.TagCounts(ctx)
	if err != nil {
		t.Fatalf("TagCounts: %v", err)
	}
	if len(counts) != 4 || counts[3].Tag != "work" || counts[3].Count != 2 {
		t.Errorf("TagCounts = %+v", counts)
	}
}

func TestDistinctTagsEmptyIndex(t *testing.T) {
	db := openTestDB(t)

	got, err := db.DistinctTags(context.Background())
	if err != nil {
		t.Fatalf("DistinctTags: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("DistinctTags = %v, want none", got)
	}
}

func TestIndexNoteReplacesPreviousData(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.IndexNote(ctx, "a.md", &note.Note{Title: "Old", Tags: []string{"old"}}, 1); err != nil {
		t.Fatal(err)
	}
	if err := db.IndexNote(ctx, "a.md", &note.Note{Title: "New", Tags: []string{"new"}}, 2); err != nil {
		t.Fatal(err)
	}

	tags, err := db.DistinctTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tags, []string{"new"}) {
		t.Errorf("tags = %v, want [new]", tags)
	}

	notes, err := db.NotesWithTag(ctx, "new")
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Title != "New" {
		t.Errorf("NotesWithTag = %+v", notes)
	}

	mtime, err := db.GetFileMtime(ctx, "a.md")
	if err != nil {
		t.Fatal(err)
	}
	if mtime != 2 {
		t.Errorf("mtime = %d, want 2", mtime)
	}
}

func TestRemoveFile(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.IndexNote(ctx, "a.md", &note.Note{Title: "A", Tags: []string{"x"}}, 1); err != nil {
		t.Fatal(err)
	}
	if err := db.RemoveFile(ctx, "a.md"); err != nil {
		t.Fatal(err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.NoteCount != 0 || stats.TagCount != 0 {
		t.Errorf("stats after remove = %+v", stats)
	}
}

func TestRebuild(t *testing.T) {
	ctx := context.Background()
	tw := testutil.NewTestWorkspace(t).
		WithNote("projects/alpha.md", "Alpha", "Working on #proj and #work.").
		WithFile("daily.md", "---\ntitle: Daily\ntags: [journal]\n---\n\nnothing #proj\n").
		WithFile(".hidden/secret.md", "#secret\n").
		Build()
	ws := workspace.New(tw.Path, "")

	db, err := Open(ws.IndexPath())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	result, err := db.Rebuild(ctx, ws, RebuildOptions{})
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if result.Indexed != 2 || result.Skipped != 0 {
		t.Errorf("first rebuild = %+v, want 2 indexed", result)
	}

	tags, err := db.DistinctTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"journal", "proj", "work"}; !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}

	notes, err := db.Notes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 2 || notes[0].FilePath != "daily.md" || notes[0].Title != "Daily" || notes[1].Title != "Alpha" {
		t.Errorf("Notes = %+v", notes)
	}

	t.Run("unchanged notes are skipped", func(t *testing.T) {
		result, err := db.Rebuild(ctx, ws, RebuildOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if result.Indexed != 0 || result.Skipped != 2 {
			t.Errorf("rebuild = %+v, want 2 skipped", result)
		}
	})

	t.Run("full rebuild reindexes everything", func(t *testing.T) {
		result, err := db.Rebuild(ctx, ws, RebuildOptions{Full: true})
		if err != nil {
			t.Fatal(err)
		}
		if result.Indexed != 2 {
			t.Errorf("rebuild = %+v, want 2 indexed", result)
		}
	})

	t.Run("deleted notes are removed", func(t *testing.T) {
		tw.RemoveFile("daily.md")
		result, err := db.Rebuild(ctx, ws, RebuildOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(result.Removed, []string{"daily.md"}) {
			t.Errorf("removed = %v, want [daily.md]", result.Removed)
		}
		tags, err := db.DistinctTags(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"proj", "work"}; !reflect.DeepEqual(tags, want) {
			t.Errorf("tags = %v, want %v", tags, want)
		}
	})
}

func TestReindexFile(t *testing.T) {
	ctx := context.Background()
	tw := testutil.NewTestWorkspace(t).
		WithNote("a.md", "A", "#one").
		Build()
	ws := workspace.New(tw.Path, "")
	db := openTestDB(t)

	if err := db.ReindexFile(ctx, ws, tw.Abs("a.md")); err != nil {
		t.Fatalf("ReindexFile: %v", err)
	}
	tw.WriteFile("a.md", "# A\n\n#two\n")
	if err := db.ReindexFile(ctx, ws, tw.Abs("a.md")); err != nil {
		t.Fatalf("ReindexFile: %v", err)
	}

	tags, err := db.DistinctTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tags, []string{"two"}) {
		t.Errorf("tags = %v, want [two]", tags)
	}

	tw.RemoveFile("a.md")
	if err := db.ReindexFile(ctx, ws, tw.Abs("a.md")); err != nil {
		t.Fatalf("ReindexFile after delete: %v", err)
	}
	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.NoteCount != 0 {
		t.Errorf("NoteCount = %d, want 0", stats.NoteCount)
	}
}

func TestIsFileStale(t *testing.T) {
	ctx := context.Background()
	tw := testutil.NewTestWorkspace(t).WithNote("a.md", "A", "").Build()
	db := openTestDB(t)

	stale, err := db.IsFileStale(ctx, tw.Path, "a.md")
	if err != nil {
		t.Fatal(err)
	}
	if !stale {
		t.Error("unindexed file should be stale")
	}

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(tw.Abs("a.md"), past, past); err != nil {
		t.Fatal(err)
	}
	if err := db.IndexNote(ctx, "a.md", &note.Note{Title: "A"}, past.Unix()); err != nil {
		t.Fatal(err)
	}

	stale, err = db.IsFileStale(ctx, tw.Path, "a.md")
	if err != nil {
		t.Fatal(err)
	}
	if stale {
		t.Error("freshly indexed file should not be stale")
	}

	now := time.Now()
	if err := os.Chtimes(tw.Abs("a.md"), now, now); err != nil {
		t.Fatal(err)
	}
	stale, err = db.IsFileStale(ctx, tw.Path, "a.md")
	if err != nil {
		t.Fatal(err)
	}
	if !stale {
		t.Error("modified file should be stale")
	}
}

func TestRebuildLockExclusive(t *testing.T) {
	dir := t.TempDir()

	lock, err := acquireRebuildLock(dir)
	if err != nil {
		t.Fatalf("acquireRebuildLock: %v", err)
	}
	defer lock.Release()

	if _, err := os.Stat(filepath.Join(dir, "index.lock")); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
}
