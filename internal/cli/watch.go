package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ahazxm/markdown-notes/internal/ui"
	"github.com/ahazxm/markdown-notes/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and keep the index up to date",
	Long: `Watches the workspace for changes to markdown notes and updates the tag
index as they are saved.

Use this when your editor talks to the index through the CLI instead of the
language server, or run 'mdnotes lsp --watch' to do the same inside the server.

The watcher:
- Brings the index up to date before it starts
- Debounces rapid changes to the same note
- Ignores .mdnotes/, hidden directories and node_modules/

Examples:
  mdnotes watch
  mdnotes watch --debug
  mdnotes watch --workspace-path ~/notes`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("debug", false, "Enable debug logging")
}

func runWatch(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")

	ws, err := openWorkspace()
	if err != nil {
		return handleError(ErrConfigInvalid, err, "")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, warnings, err := openFreshIndex(ctx, ws)
	if err != nil {
		return handleError(ErrDatabaseError, err, "Run 'mdnotes reindex --full' to rebuild the index")
	}
	defer db.Close()
	printWarnings(warnings)

	w, err := watcher.New(watcher.Config{
		Workspace: ws,
		Database:  db,
		Debug:     debug,
		OnReindex: func(path string, err error) {
			if err != nil {
				fmt.Fprintln(os.Stderr, ui.Warningf("failed to reindex %s: %v", ws.Rel(path), err))
			} else if !errors.Is(ctx.Err(), context.Canceled) {
				fmt.Println(ui.Hint("reindexed " + ws.Rel(path)))
			}
		},
	})
	if err != nil {
		return handleError(ErrInternal, err, "")
	}

	stats, err := db.Stats(ctx)
	if err == nil {
		fmt.Println(ui.Successf("Watching %s (%s)", ui.FilePath(ws.Root),
			ui.Count(stats.NoteCount, "note", "notes")))
	}
	fmt.Println(ui.Hint("Press Ctrl+C to stop"))

	err = w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Println()
		fmt.Println(ui.Hint("Stopped watching."))
		return nil
	}
	if err != nil {
		return handleError(ErrInternal, err, "")
	}
	return nil
}
