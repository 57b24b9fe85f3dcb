package index

import (
	"context"
	"database/sql"
	"errors"
)

// DistinctTags returns every tag in the index, sorted case-insensitively.
func (d *Database) DistinctTags(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT DISTINCT tag FROM tags ORDER BY tag COLLATE NOCASE, tag`)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

// TagCount is a tag and the number of notes carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagCounts returns every tag with its note count, sorted like DistinctTags.
func (d *Database) TagCounts(ctx context.Context) ([]TagCount, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT tag, COUNT(*) FROM tags
		GROUP BY tag
		ORDER BY tag COLLATE NOCASE, tag
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// NoteResult is an indexed note.
type NoteResult struct {
	FilePath string `json:"file_path"`
	Title    string `json:"title"`
}

// NotesWithTag returns the notes carrying tag, ordered by path.
func (d *Database) NotesWithTag(ctx context.Context, tag string) ([]NoteResult, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT n.file_path, n.title
		FROM tags t JOIN notes n ON n.file_path = t.file_path
		WHERE t.tag = ?
		ORDER BY n.file_path
	`, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NoteResult
	for rows.Next() {
		var nr NoteResult
		if err := rows.Scan(&nr.FilePath, &nr.Title); err != nil {
			return nil, err
		}
		out = append(out, nr)
	}
	return out, rows.Err()
}

// Notes returns every indexed note, ordered by path.
func (d *Database) Notes(ctx context.Context) ([]NoteResult, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT file_path, title FROM notes ORDER BY file_path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NoteResult
	for rows.Next() {
		var nr NoteResult
		if err := rows.Scan(&nr.FilePath, &nr.Title); err != nil {
			return nil, err
		}
		out = append(out, nr)
	}
	return out, rows.Err()
}

// AllIndexedFilePaths returns every indexed note path.
func (d *Database) AllIndexedFilePaths(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT file_path FROM notes ORDER BY file_path`)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

// GetFileMtime returns the indexed mtime for a file, or 0 if it is not indexed.
func (d *Database) GetFileMtime(ctx context.Context, relPath string) (int64, error) {
	var mtime sql.NullInt64
	err := d.db.QueryRowContext(ctx,
		`SELECT file_mtime FROM notes WHERE file_path = ?`, relPath).Scan(&mtime)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !mtime.Valid {
		return 0, nil
	}
	return mtime.Int64, nil
}
