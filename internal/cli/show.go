package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahazxm/markdown-notes/internal/ui"
	"github.com/ahazxm/markdown-notes/internal/workspace"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show <note>",
	Short: "Show the details a resolved link completion displays",
	Long: `Shows a note's title, tags and the documentation excerpt that wiki link
completion attaches when a candidate is resolved.

The note can be given by label, file name, relative path or slug.

Examples:
  mdnotes show design-doc
  mdnotes show "Design Doc"
  mdnotes show projects/alpha.md --raw`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		f, err := ws.FindNote(ctx, args[0])
		if err != nil {
			if errors.Is(err, workspace.ErrNoteNotFound) {
				return handleError(ErrNoteNotFound, err, "Run 'mdnotes notes' to list available notes")
			}
			return handleError(ErrInternal, err, "")
		}

		n, err := noteLoader().LoadNote(ctx, f.Path)
		if err != nil {
			return handleError(ErrFileReadError, err, "")
		}
		doc := n.Documentation()

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"path":          f.RelativePath,
				"label":         ws.LabelForNote(f, ""),
				"title":         n.Title,
				"tags":          nonNil(n.Tags),
				"aliases":       nonNil(n.Aliases),
				"documentation": doc,
			}, nil)
			return nil
		}

		fmt.Printf("%s  %s\n", ui.Header(n.Title), ui.FilePath(displayPath(ws.Root, f.Path)))
		if len(n.Tags) > 0 {
			tags := make([]string, len(n.Tags))
			for i, t := range n.Tags {
				tags[i] = "#" + t
			}
			fmt.Println(ui.Hint(strings.Join(tags, " ")))
		}
		if doc == "" {
			return nil
		}

		display := ui.NewDisplayContext()
		if showRaw || !display.IsTTY {
			fmt.Println()
			fmt.Println(doc)
			return nil
		}

		rendered, err := ui.RenderMarkdown(doc, display.AvailableWidth(ui.MarkdownRenderMargin))
		if err != nil {
			fmt.Println()
			fmt.Println(doc)
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the documentation without markdown rendering")
	rootCmd.AddCommand(showCmd)
}
