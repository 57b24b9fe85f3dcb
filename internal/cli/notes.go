package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahazxm/markdown-notes/internal/note"
	"github.com/ahazxm/markdown-notes/internal/ui"
)

var notesFrom string

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List notes with the labels wiki link completion inserts",
	Long: `Lists every note in the workspace together with the label a wiki link
to it would use under the configured link convention.

With --from, labels are computed as seen from that note (this matters for the
relative-path convention).

Examples:
  mdnotes notes
  mdnotes notes --from projects/alpha.md
  mdnotes notes --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		from := ""
		if notesFrom != "" {
			from = notesFrom
			if !filepath.IsAbs(from) {
				from = ws.Abs(from)
			}
		}

		db, warnings, err := openFreshIndex(ctx, ws)
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mdnotes reindex --full' to rebuild the index")
		}
		defer db.Close()

		indexed, err := db.Notes(ctx)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		type noteJSON struct {
			Label string `json:"label"`
			Title string `json:"title"`
			Path  string `json:"path"`
		}
		results := make([]noteJSON, 0, len(indexed))
		for _, n := range indexed {
			f := note.File{Path: ws.Abs(n.FilePath), RelativePath: n.FilePath}
			results = append(results, noteJSON{
				Label: ws.LabelForNote(f, from),
				Title: n.Title,
				Path:  n.FilePath,
			})
		}

		if isJSONOutput() {
			outputSuccessWithWarnings(results, warnings, &Meta{
				Count:       len(results),
				QueryTimeMs: time.Since(start).Milliseconds(),
			})
			return nil
		}

		printWarnings(warnings)
		if len(results) == 0 {
			fmt.Println(ui.Hint("No notes found."))
			return nil
		}

		table := ui.NewTable(3)
		for _, r := range results {
			table.AddRow(ui.AccentBold.Render(r.Label), r.Title, ui.Hint(r.Path))
		}
		fmt.Print(table.String())
		fmt.Println(ui.Hint(ui.Count(len(results), "note", "notes")))
		return nil
	},
}

func init() {
	notesCmd.Flags().StringVar(&notesFrom, "from", "", "Compute labels relative to this note")
	rootCmd.AddCommand(notesCmd)
}
