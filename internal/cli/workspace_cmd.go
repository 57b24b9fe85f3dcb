package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ahazxm/markdown-notes/internal/config"
	"github.com/ahazxm/markdown-notes/internal/ui"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage named workspaces",
}

var workspaceAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Register a notes directory under a name",
	Long: `Registers a notes directory in the global config. The first workspace
added becomes the default.

Examples:
  mdnotes workspace add notes ~/notes`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, path := args[0], config.ExpandHome(args[1])
		abs, err := filepath.Abs(path)
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return handleErrorMsg(ErrWorkspaceNotFound, fmt.Sprintf("not a directory: %s", abs), "")
		}

		c := getConfig()
		if err := c.AddWorkspace(name, abs); err != nil {
			return handleError(ErrInvalidInput, err, "")
		}

		path = config.ResolvePath(configPath)
		if err := config.SaveTo(path, c); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"name":    name,
				"path":    abs,
				"default": c.DefaultWorkspace == name,
			}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Added workspace %s → %s", ui.Bold.Render(name), ui.FilePath(abs)))
		return nil
	},
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured workspaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getConfig()
		names := c.WorkspaceNames()

		type workspaceJSON struct {
			Name    string `json:"name"`
			Path    string `json:"path"`
			Default bool   `json:"default"`
		}
		list := make([]workspaceJSON, 0, len(names))
		for _, name := range names {
			path, _ := c.GetWorkspacePath(name)
			list = append(list, workspaceJSON{Name: name, Path: path, Default: name == c.DefaultWorkspace})
		}

		if isJSONOutput() {
			outputSuccess(list, &Meta{Count: len(list)})
			return nil
		}
		if len(list) == 0 {
			fmt.Println(ui.Hint("No workspaces configured. Run 'mdnotes workspace add <name> <path>'."))
			return nil
		}

		table := ui.NewTable(3)
		for _, w := range list {
			marker := ""
			if w.Default {
				marker = ui.Hint("(default)")
			}
			table.AddRow(ui.Bold.Render(w.Name), ui.FilePath(w.Path), marker)
		}
		fmt.Print(table.String())
		return nil
	},
}

func init() {
	workspaceCmd.AddCommand(workspaceAddCmd)
	workspaceCmd.AddCommand(workspaceListCmd)
	rootCmd.AddCommand(workspaceCmd)
}
