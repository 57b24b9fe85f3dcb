package cli

import (
	"context"
	"errors"

	"github.com/ahazxm/markdown-notes/internal/index"
	"github.com/ahazxm/markdown-notes/internal/note"
	"github.com/ahazxm/markdown-notes/internal/workspace"
)

// openWorkspace returns the resolved workspace with the configured link convention.
func openWorkspace() (*workspace.Workspace, error) {
	conv, err := getConfig().Convention()
	if err != nil {
		return nil, err
	}
	return workspace.New(getWorkspacePath(), conv), nil
}

// openFreshIndex opens the workspace index and brings it up to date.
// If another process holds the rebuild lock the existing index is used and a
// warning is returned.
func openFreshIndex(ctx context.Context, ws *workspace.Workspace) (*index.Database, []Warning, error) {
	db, err := index.Open(ws.IndexPath())
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	result, err := db.Rebuild(ctx, ws, index.RebuildOptions{})
	switch {
	case errors.Is(err, index.ErrIndexLocked):
		warnings = append(warnings, Warning{
			Code:    WarnIndexUpdateFailed,
			Message: "index is being rebuilt by another process; results may be stale",
		})
	case err != nil:
		db.Close()
		return nil, nil, err
	default:
		warnings = append(warnings, skippedWarnings(result)...)
	}

	return db, warnings, nil
}

func skippedWarnings(result *index.RebuildResult) []Warning {
	var warnings []Warning
	for _, fe := range result.Errors {
		warnings = append(warnings, Warning{
			Code:    WarnNoteSkipped,
			Message: fe.Message,
			Ref:     fe.FilePath,
		})
	}
	return warnings
}

// printWarnings writes warnings to stderr in text mode.
func printWarnings(warnings []Warning) {
	for _, w := range warnings {
		if w.Ref != "" {
			warnf("%s: %s", w.Ref, w.Message)
		} else {
			warnf("%s", w.Message)
		}
	}
}

func noteLoader() note.Loader {
	return note.Loader{DocumentationLines: getConfig().DocLines()}
}
