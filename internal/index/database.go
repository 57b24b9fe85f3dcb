// Package index handles the SQLite note and tag index.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ahazxm/markdown-notes/internal/note"
)

// Database is the SQLite database handle.
type Database struct {
	db   *sql.DB
	path string // empty for in-memory databases
}

var (
	// ErrIndexLocked indicates another process is rebuilding the index.
	ErrIndexLocked = errors.New("index is locked for rebuild")
)

// CurrentDBVersion is the current database schema version.
const CurrentDBVersion = 1

// Open opens or creates the database file at dbPath.
func Open(dbPath string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	// The watcher and the server write from different connections.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Database{db: db, path: dbPath}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Database, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the database file path, or "" for in-memory databases.
func (d *Database) Path() string {
	return d.path
}

// Analyze runs SQLite's ANALYZE command to update query planner statistics.
func (d *Database) Analyze(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, "ANALYZE")
	return err
}

// initialize creates the database schema.
func (d *Database) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- One row per note file (paths are workspace-relative)
		CREATE TABLE IF NOT EXISTS notes (
			file_path TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			file_mtime INTEGER,         -- File modification time (Unix seconds)
			indexed_at INTEGER          -- When this row was written
		);

		-- Tags per note
		CREATE TABLE IF NOT EXISTS tags (
			tag TEXT NOT NULL,
			file_path TEXT NOT NULL,
			PRIMARY KEY (tag, file_path)
		);

		CREATE INDEX IF NOT EXISTS idx_tags_file ON tags(file_path);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	_, err := d.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", CurrentDBVersion))
	if err != nil {
		return fmt.Errorf("failed to set database version: %w", err)
	}

	return nil
}

// IndexNote replaces the indexed data for the note at relPath.
func (d *Database) IndexNote(ctx context.Context, relPath string, n *note.Note, fileMtime int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteByFilePath(ctx, tx, relPath); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notes (file_path, title, file_mtime, indexed_at) VALUES (?, ?, ?, ?)`,
		relPath, n.Title, fileMtime, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	for _, tag := range n.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO tags (tag, file_path) VALUES (?, ?)`, tag, relPath); err != nil {
			return fmt.Errorf("failed to insert tag %q: %w", tag, err)
		}
	}

	return tx.Commit()
}

// RemoveFile removes all indexed data for a file.
func (d *Database) RemoveFile(ctx context.Context, relPath string) error {
	return deleteByFilePath(ctx, d.db, relPath)
}

// ClearAllData removes every note and tag.
func (d *Database) ClearAllData(ctx context.Context) error {
	for _, table := range filePathTables {
		if _, err := d.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// IndexStats contains index statistics.
type IndexStats struct {
	NoteCount     int `json:"note_count"`
	TagCount      int `json:"tag_count"`
	TagUsageCount int `json:"tag_usage_count"`
}

// Stats returns statistics about the index.
func (d *Database) Stats(ctx context.Context) (*IndexStats, error) {
	var stats IndexStats

	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&stats.NoteCount); err != nil {
		return nil, err
	}
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT tag) FROM tags").Scan(&stats.TagCount); err != nil {
		return nil, err
	}
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tags").Scan(&stats.TagUsageCount); err != nil {
		return nil, err
	}

	return &stats, nil
}
