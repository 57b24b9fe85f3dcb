package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahazxm/markdown-notes/internal/index"
	"github.com/ahazxm/markdown-notes/internal/ui"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Update the tag index",
	Long: `Parses the markdown notes in the workspace and updates the SQLite index
in .mdnotes/index.db.

By default only notes changed since the last run are parsed, and deleted
notes are removed. Use --full to rebuild the index from scratch.

Examples:
  mdnotes reindex
  mdnotes reindex --full`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()
		full, _ := cmd.Flags().GetBool("full")

		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		db, err := index.Open(ws.IndexPath())
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		var spinner *ui.Spinner
		if !isJSONOutput() {
			spinner = ui.NewSpinner(fmt.Sprintf("Indexing %s", ws.Root))
			spinner.Start()
		}
		result, err := db.Rebuild(ctx, ws, index.RebuildOptions{Full: full})
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			if errors.Is(err, index.ErrIndexLocked) {
				return handleError(ErrIndexLocked, err, "Another mdnotes process is indexing; try again shortly")
			}
			return handleError(ErrDatabaseError, err, "")
		}

		stats, err := db.Stats(ctx)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		warnings := skippedWarnings(result)
		if isJSONOutput() {
			outputSuccessWithWarnings(map[string]any{
				"indexed": result.Indexed,
				"skipped": result.Skipped,
				"removed": nonNil(result.Removed),
				"stats":   stats,
			}, warnings, &Meta{QueryTimeMs: time.Since(start).Milliseconds()})
			return nil
		}

		printWarnings(warnings)
		fmt.Println(ui.Successf("Indexed %d notes (%d unchanged, %d removed) in %s",
			result.Indexed, result.Skipped, len(result.Removed), time.Since(start).Round(time.Millisecond)))
		fmt.Println(ui.Hint(fmt.Sprintf("%d notes, %d distinct tags in %s",
			stats.NoteCount, stats.TagCount, displayPath(ws.Root, db.Path()))))
		return nil
	},
}

func init() {
	reindexCmd.Flags().Bool("full", false, "Rebuild the whole index")
	rootCmd.AddCommand(reindexCmd)
}
