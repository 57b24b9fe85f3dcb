package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/ahazxm/markdown-notes/internal/completion"
	"github.com/ahazxm/markdown-notes/internal/paths"
	"github.com/ahazxm/markdown-notes/internal/refs"
	"github.com/ahazxm/markdown-notes/internal/ui"
)

var (
	completeLine    int
	completeCol     int
	completeOffset  int
	completeResolve bool
)

var completeCmd = &cobra.Command{
	Use:   "complete <file>",
	Short: "Show completion candidates at a position in a note",
	Long: `Classifies the reference under the cursor and lists the completion
candidates the language server would offer there.

The position is given as a 1-based line and column (in characters), or as a
0-based byte offset. Files outside the workspace are allowed; link labels are
computed relative to the file.

Examples:
  mdnotes complete daily/today.md --line 3 --col 12
  mdnotes complete today.md --offset 57 --resolve
  mdnotes complete today.md --line 1 --col 5 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

func init() {
	completeCmd.Flags().IntVar(&completeLine, "line", 0, "1-based line of the cursor")
	completeCmd.Flags().IntVar(&completeCol, "col", 0, "1-based column of the cursor, in characters")
	completeCmd.Flags().IntVar(&completeOffset, "offset", -1, "0-based byte offset of the cursor (overrides --line/--col)")
	completeCmd.Flags().BoolVar(&completeResolve, "resolve", false, "Resolve link candidates to their note title and excerpt")
	rootCmd.AddCommand(completeCmd)
}

type completionMatchJSON struct {
	Kind  string    `json:"kind"`
	Range refs.Span `json:"range"`
	Token refs.Span `json:"token"`
	Text  string    `json:"text"`
}

type candidateJSON struct {
	Label         string `json:"label"`
	Kind          string `json:"kind"`
	SourcePath    string `json:"source_path,omitempty"`
	Detail        string `json:"detail,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

type completeResultJSON struct {
	File       string              `json:"file"`
	Offset     int                 `json:"offset"`
	Match      completionMatchJSON `json:"match"`
	Candidates []candidateJSON     `json:"candidates"`
}

func runComplete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	ws, err := openWorkspace()
	if err != nil {
		return handleError(ErrConfigInvalid, err, "")
	}

	path := args[0]
	if !filepath.IsAbs(path) {
		if _, statErr := os.Stat(path); statErr != nil {
			path = ws.Abs(path)
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return handleError(ErrFileReadError, err, "")
	}
	text := string(content)

	offset := completeOffset
	if offset < 0 {
		offset, err = offsetForLineCol(text, completeLine, completeCol)
		if err != nil {
			return handleError(ErrInvalidInput, err, "Pass --line and --col, or --offset")
		}
	}
	if offset > len(text) {
		return handleErrorMsg(ErrInvalidInput,
			fmt.Sprintf("offset %d is past the end of the file (%d bytes)", offset, len(text)), "")
	}

	db, warnings, err := openFreshIndex(ctx, ws)
	if err != nil {
		return handleError(ErrDatabaseError, err, "Run 'mdnotes reindex --full' to rebuild the index")
	}
	defer db.Close()

	provider := completion.NewProvider(db, ws, ws, noteLoader())
	doc := completion.Document{Path: path, Text: text}
	match := refs.Classify(text, offset)

	candidates, err := provider.Complete(ctx, doc, offset)
	if err != nil {
		return handleError(ErrSourceFailed, err, "")
	}
	if completeResolve {
		for i, c := range candidates {
			if c.Kind == refs.WikiLink {
				candidates[i], _ = provider.Resolve(ctx, c)
			}
		}
	}

	if isJSONOutput() {
		result := completeResultJSON{
			File:   path,
			Offset: offset,
			Match: completionMatchJSON{
				Kind:  match.Kind.String(),
				Range: match.Range,
				Token: match.Token,
				Text:  match.Text,
			},
			Candidates: make([]candidateJSON, 0, len(candidates)),
		}
		for _, c := range candidates {
			result.Candidates = append(result.Candidates, candidateJSON{
				Label:         c.Label,
				Kind:          c.Kind.String(),
				SourcePath:    c.SourcePath,
				Detail:        c.Detail,
				Documentation: c.Documentation,
			})
		}
		outputSuccessWithWarnings(result, warnings, &Meta{
			Count:       len(candidates),
			QueryTimeMs: time.Since(start).Milliseconds(),
		})
		return nil
	}

	printWarnings(warnings)

	if match.IsNone() {
		fmt.Println(ui.Hint("No tag or wiki link at this position."))
		return nil
	}

	fmt.Printf("%s %s %s\n",
		ui.Header(match.Kind.String()),
		ui.Accent.Render(fmt.Sprintf("%q", match.Text)),
		ui.Hint(fmt.Sprintf("bytes %d-%d", match.Range.Start, match.Range.End)))

	if len(candidates) == 0 {
		fmt.Println(ui.Hint("No candidates."))
		return nil
	}

	table := ui.NewTable(3)
	for _, c := range candidates {
		source := ""
		if c.SourcePath != "" {
			source = ui.Hint(ws.Rel(c.SourcePath))
		}
		table.AddRow("  "+c.Label, c.Detail, source)
	}
	fmt.Print(table.String())
	fmt.Println(ui.Hint(ui.Count(table.Len(), "candidate", "candidates")))

	return nil
}

// offsetForLineCol converts a 1-based line and character column to a byte offset.
// A column past the end of the line is clamped to the line end.
func offsetForLineCol(text string, line, col int) (int, error) {
	if line < 1 || col < 1 {
		return 0, fmt.Errorf("line and column must be at least 1 (got %d:%d)", line, col)
	}

	offset := 0
	for i := 1; i < line; i++ {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("line %d is past the end of the file", line)
		}
		offset += nl + 1
	}

	lineText := text[offset:]
	if nl := strings.IndexByte(lineText, '\n'); nl >= 0 {
		lineText = lineText[:nl]
	}
	for i := 1; i < col && len(lineText) > 0; i++ {
		_, size := utf8.DecodeRuneInString(lineText)
		offset += size
		lineText = lineText[size:]
	}
	return offset, nil
}

// displayPath shortens a path to workspace-relative form when it lies inside root.
func displayPath(root, path string) string {
	if err := paths.ValidateWithinWorkspace(root, path); err != nil {
		return path
	}
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
