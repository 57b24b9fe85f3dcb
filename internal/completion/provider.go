// Package completion assembles completion candidates for the reference under the
// cursor and resolves the details of note candidates on demand.
package completion

import (
	"context"
	"fmt"
	"sync"

	"github.com/ahazxm/markdown-notes/internal/note"
	"github.com/ahazxm/markdown-notes/internal/refs"
)

// TagSource lists the distinct tags known in the workspace.
type TagSource interface {
	DistinctTags(ctx context.Context) ([]string, error)
}

// NoteSource lists the note files in the workspace.
type NoteSource interface {
	NoteFiles(ctx context.Context) ([]note.File, error)
}

// Labeler turns a note file into the label inserted for a link to it from currentPath.
type Labeler interface {
	LabelForNote(f note.File, currentPath string) string
}

// NoteLoader loads a note for detail resolution.
type NoteLoader interface {
	LoadNote(ctx context.Context, path string) (*note.Note, error)
}

// Document is the buffer completion runs against.
type Document struct {
	// Path is the filesystem path of the document, used for relative labels.
	Path string
	Text string
}

// Commit characters accepted on link candidates: heading and display-text separators.
var linkCommitCharacters = []string{"#", "|"}

// Candidate is a single completion suggestion.
type Candidate struct {
	Label string
	Kind  refs.Kind

	// Range is the byte range in the document the label replaces.
	Range refs.Span

	// SourcePath is the note file behind a WikiLink candidate.
	SourcePath string

	Detail           string
	Documentation    string
	CommitCharacters []string
}

// Outcome is the result of Resolve.
type Outcome int

const (
	// OutcomeResolved means the candidate was filled in from its note.
	OutcomeResolved Outcome = iota
	// OutcomeNoEntry means no pending note was recorded for the label.
	OutcomeNoEntry
	// OutcomeLoadFailed means the note could not be loaded.
	OutcomeLoadFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeNoEntry:
		return "no-entry"
	case OutcomeLoadFailed:
		return "load-failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Provider produces candidates for one workspace.
//
// Every WikiLink response records label -> note path in a pending table, and
// Resolve consumes an entry at most once. Provider is safe for concurrent use.
type Provider struct {
	tags    TagSource
	notes   NoteSource
	labeler Labeler
	loader  NoteLoader

	// Debugf, if set, receives diagnostic messages such as note load failures.
	Debugf func(format string, args ...any)

	mu      sync.Mutex
	pending map[string]string
}

// NewProvider creates a provider over the given collaborators.
func NewProvider(tags TagSource, notes NoteSource, labeler Labeler, loader NoteLoader) *Provider {
	return &Provider{
		tags:    tags,
		notes:   notes,
		labeler: labeler,
		loader:  loader,
		pending: make(map[string]string),
	}
}

// Complete returns the candidates for the reference at offset in doc.
// Outside a reference it returns no candidates without querying any source.
func (p *Provider) Complete(ctx context.Context, doc Document, offset int) ([]Candidate, error) {
	match := refs.Classify(doc.Text, offset)

	switch match.Kind {
	case refs.None:
		return nil, nil
	case refs.Tag:
		return p.completeTags(ctx, match)
	case refs.WikiLink:
		return p.completeLinks(ctx, doc, match)
	default:
		panic(fmt.Sprintf("completion: unhandled reference kind %v", match.Kind))
	}
}

func (p *Provider) completeTags(ctx context.Context, match refs.Match) ([]Candidate, error) {
	tags, err := p.tags.DistinctTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	out := make([]Candidate, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, Candidate{
			Label: tag,
			Kind:  refs.Tag,
			Range: match.Range,
		})
	}
	return out, nil
}

func (p *Provider) completeLinks(ctx context.Context, doc Document, match refs.Match) ([]Candidate, error) {
	files, err := p.notes.NoteFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	out := make([]Candidate, 0, len(files))
	seen := make(map[string]int, len(files))
	for _, f := range files {
		label := p.labeler.LabelForNote(f, doc.Path)
		if label == "" {
			continue
		}
		// A repeated label keeps its first position but points at the latest note.
		if i, dup := seen[label]; dup {
			out[i].SourcePath = f.Path
			continue
		}
		seen[label] = len(out)
		out = append(out, Candidate{
			Label:            label,
			Kind:             refs.WikiLink,
			Range:            match.Range,
			SourcePath:       f.Path,
			CommitCharacters: append([]string(nil), linkCommitCharacters...),
		})
	}

	if err := p.record(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// record commits the label -> path pairs of a response to the pending table.
// Nothing is recorded once ctx is done.
func (p *Provider) record(ctx context.Context, candidates []Candidate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, c := range candidates {
		p.pending[c.Label] = c.SourcePath
	}
	return nil
}

// take removes and returns the pending path for label.
func (p *Provider) take(label string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	path, ok := p.pending[label]
	if ok {
		delete(p.pending, label)
	}
	return path, ok
}

// Resolve fills in Detail and Documentation of a WikiLink candidate from its note.
//
// The pending entry for the label is consumed whether or not the note loads, so
// each recorded label resolves at most once. On any outcome other than
// OutcomeResolved the candidate is returned unchanged.
func (p *Provider) Resolve(ctx context.Context, c Candidate) (Candidate, Outcome) {
	path, ok := p.take(c.Label)
	if !ok {
		return c, OutcomeNoEntry
	}

	n, err := p.loader.LoadNote(ctx, path)
	if err != nil {
		p.debugf("resolve %q: failed to load %s: %v", c.Label, path, err)
		return c, OutcomeLoadFailed
	}

	c.Detail = n.Title
	c.Documentation = n.Documentation()
	return c, OutcomeResolved
}

// PendingPath returns the path recorded for label, if any.
func (p *Provider) PendingPath(label string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	path, ok := p.pending[label]
	return path, ok
}

// PendingCount returns the number of labels awaiting resolution.
func (p *Provider) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Provider) debugf(format string, args ...any) {
	if p.Debugf != nil {
		p.Debugf(format, args...)
	}
}
