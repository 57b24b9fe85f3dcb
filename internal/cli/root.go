// Package cli implements the command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ahazxm/markdown-notes/internal/config"
	"github.com/ahazxm/markdown-notes/internal/ui"
)

var (
	// Global flags
	workspaceName     string // Named workspace from config
	workspacePathFlag string // Explicit path
	configPath        string

	// Resolved values
	resolvedWorkspacePath string
	resolvedConfigPath    string
	cfg                   *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mdnotes",
	Short: "Tag and wiki link completion for markdown notes",
	Long: `mdnotes indexes a directory of markdown notes and completes #tags and
[[wiki links]] in your editor through a language server.

The same completion engine is available on the command line for scripting
and debugging.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "Fix the file or run 'mdnotes config init --path <new>'")
		}
		if err := cfg.Validate(); err != nil {
			return handleError(ErrConfigInvalid, err, "Run 'mdnotes config path' to locate the config file")
		}
		if !ui.ConfigureAccent(cfg.UI.Accent) {
			warnf("ignoring invalid ui.accent %q", cfg.UI.Accent)
		}
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

		if !needsWorkspace(cmd) {
			return nil
		}

		resolvedWorkspacePath, err = resolveWorkspacePath()
		if err != nil {
			// The language server can take its root from the client instead.
			if cmd.Name() == "lsp" && errors.Is(err, config.ErrNoDefaultWorkspace) {
				return nil
			}
			return handleError(ErrWorkspaceNotSpecified, err, "")
		}

		if info, err := os.Stat(resolvedWorkspacePath); err != nil || !info.IsDir() {
			return handleErrorMsg(ErrWorkspaceNotFound,
				fmt.Sprintf("workspace not found: %s", resolvedWorkspacePath),
				"Check the path, or run 'mdnotes workspace list'")
		}

		return nil
	},
}

// needsWorkspace reports whether cmd operates on a workspace.
func needsWorkspace(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "config", "workspace", "completion", "help", "version":
			return false
		}
	}
	return true
}

// resolveWorkspacePath picks the workspace: explicit path > named workspace > default.
func resolveWorkspacePath() (string, error) {
	if workspacePathFlag != "" {
		return config.ExpandHome(workspacePathFlag), nil
	}

	path, err := cfg.GetWorkspacePath(workspaceName)
	if err == nil {
		return path, nil
	}
	if workspaceName != "" {
		return "", fmt.Errorf("workspace '%s' not found\n\nRun 'mdnotes workspace list' to see configured workspaces", workspaceName)
	}
	return "", fmt.Errorf(`%w

Either:
  1. Use --workspace <name> (from config)
  2. Use --workspace-path /path/to/notes
  3. Run 'mdnotes workspace add <name> <path>'`, err)
}

// errSilent is returned after an error has already been written as JSON.
var errSilent = errors.New("error already reported")

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errSilent) {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	}
	return err
}

func init() {
	registerGlobalFlags(rootCmd.PersistentFlags())
}

func registerGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&workspaceName, "workspace", "w", "", "Named workspace from config")
	flags.StringVar(&workspacePathFlag, "workspace-path", "", "Explicit path to a notes directory")
	flags.StringVar(&configPath, "config", "", "Path to config file")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// getWorkspacePath returns the resolved workspace path.
func getWorkspacePath() string {
	return resolvedWorkspacePath
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := config.ResolvePath(configPath)

	var loadedCfg *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
			return &config.Config{}, resolvedPath, nil
		}
		loadedCfg, err = config.LoadFrom(configPath)
	} else {
		loadedCfg, err = config.Load()
	}
	if err != nil {
		return nil, "", err
	}
	if loadedCfg == nil {
		loadedCfg = &config.Config{}
	}

	return loadedCfg, resolvedPath, nil
}

// warnf prints a warning to stderr unless JSON output is enabled.
func warnf(format string, args ...any) {
	if jsonOutput {
		return
	}
	fmt.Fprintln(os.Stderr, ui.Warningf(format, args...))
}
