package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ahazxm/markdown-notes/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Start the Language Server Protocol server",
	Long: `Start a Language Server Protocol (LSP) server for markdown notes.

The server completes #tags from the workspace index and [[wiki links]] from
the notes in the workspace. Link details (title and an excerpt of the note)
are filled in lazily when the editor asks for them.

The server communicates over stdin/stdout using JSON-RPC. When no workspace
is configured, the editor's workspace folder is used.

Examples:
  # Start LSP server (for editor integration)
  mdnotes lsp

  # Start with debug logging to stderr
  mdnotes lsp --debug

  # Also pick up notes changed outside the editor
  mdnotes lsp --watch

  # Start for a specific directory
  mdnotes lsp --workspace-path ~/notes`,
	RunE: runLSP,
}

func init() {
	rootCmd.AddCommand(lspCmd)
	lspCmd.Flags().Bool("debug", false, "Enable debug logging to stderr")
	lspCmd.Flags().Bool("watch", false, "Reindex notes changed on disk while the server runs")
}

func runLSP(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	watch, _ := cmd.Flags().GetBool("watch")
	c := getConfig()

	conv, err := c.Convention()
	if err != nil {
		return err
	}

	server := lsp.NewServer(lsp.Options{
		Root:               getWorkspacePath(),
		Convention:         conv,
		DocumentationLines: c.DocLines(),
		Debug:              debug,
		Watch:              watch,
	})

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}
