package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahazxm/markdown-notes/internal/index"
	"github.com/ahazxm/markdown-notes/internal/ui"
)

var tagsCmd = &cobra.Command{
	Use:   "tags [tag]",
	Short: "List tags, or the notes carrying a tag",
	Long: `Without arguments, lists every tag in the workspace with the number of
notes carrying it, in the order tag completion offers them.

With a tag, lists the notes carrying that tag.

Examples:
  mdnotes tags
  mdnotes tags project
  mdnotes tags project --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		db, warnings, err := openFreshIndex(ctx, ws)
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mdnotes reindex --full' to rebuild the index")
		}
		defer db.Close()

		if len(args) == 1 {
			return listNotesWithTag(cmd, db, args[0], warnings, start)
		}

		counts, err := db.TagCounts(ctx)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			if counts == nil {
				counts = []index.TagCount{}
			}
			outputSuccessWithWarnings(counts, warnings, &Meta{
				Count:       len(counts),
				QueryTimeMs: time.Since(start).Milliseconds(),
			})
			return nil
		}

		printWarnings(warnings)
		if len(counts) == 0 {
			fmt.Println(ui.Hint("No tags found."))
			return nil
		}

		table := ui.NewTable(2)
		for _, tc := range counts {
			table.AddRow(ui.Accent.Render("#"+tc.Tag), ui.Hint(strconv.Itoa(tc.Count)))
		}
		fmt.Print(table.String())
		return nil
	},
}

func listNotesWithTag(cmd *cobra.Command, db *index.Database, tag string, warnings []Warning, start time.Time) error {
	tag = normalizeTagArg(tag)

	notes, err := db.NotesWithTag(cmd.Context(), tag)
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}

	if isJSONOutput() {
		if notes == nil {
			notes = []index.NoteResult{}
		}
		outputSuccessWithWarnings(map[string]any{
			"tag":   tag,
			"notes": notes,
		}, warnings, &Meta{
			Count:       len(notes),
			QueryTimeMs: time.Since(start).Milliseconds(),
		})
		return nil
	}

	printWarnings(warnings)
	if len(notes) == 0 {
		fmt.Println(ui.Hint(fmt.Sprintf("No notes tagged #%s.", tag)))
		return nil
	}

	fmt.Printf("%s %s\n", ui.Header("#"+tag), ui.Hint(ui.Count(len(notes), "note", "notes")))
	table := ui.NewTable(2)
	for _, n := range notes {
		table.AddRow("  "+n.Title, ui.FilePath(n.FilePath))
	}
	fmt.Print(table.String())
	return nil
}

func normalizeTagArg(tag string) string {
	if len(tag) > 0 && tag[0] == '#' {
		return tag[1:]
	}
	return tag
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
