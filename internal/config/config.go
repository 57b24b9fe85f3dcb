// Package config handles global mdnotes configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ahazxm/markdown-notes/internal/atomicfile"
	"github.com/ahazxm/markdown-notes/internal/note"
	"github.com/ahazxm/markdown-notes/internal/workspace"
)

// Config represents the global mdnotes configuration.
type Config struct {
	// DefaultWorkspace is the name of the default workspace (from Workspaces).
	DefaultWorkspace string `toml:"default_workspace"`

	// Workspaces maps workspace names to directories.
	Workspaces map[string]string `toml:"workspaces"`

	// LinkConvention selects how wiki link labels are derived from note files.
	LinkConvention string `toml:"link_convention"`

	// DocumentationLines caps the note body shown when a link candidate is resolved.
	DocumentationLines int `toml:"documentation_lines"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	CodeTheme string `toml:"code_theme"`
}

// ErrNoDefaultWorkspace is returned when no workspace is named and none is configured.
var ErrNoDefaultWorkspace = errors.New("no default workspace configured")

// GetWorkspacePath returns the directory for a named workspace.
// If name is empty, returns the default workspace path.
func (c *Config) GetWorkspacePath(name string) (string, error) {
	if name == "" {
		name = c.DefaultWorkspace
	}
	if name == "" {
		return "", ErrNoDefaultWorkspace
	}

	path, ok := c.Workspaces[name]
	if !ok {
		return "", fmt.Errorf("workspace '%s' not found in config", name)
	}
	return ExpandHome(path), nil
}

// WorkspaceNames returns the configured workspace names, sorted.
func (c *Config) WorkspaceNames() []string {
	names := make([]string, 0, len(c.Workspaces))
	for name := range c.Workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Convention returns the configured link convention, defaulting to no-extension.
func (c *Config) Convention() (workspace.Convention, error) {
	if strings.TrimSpace(c.LinkConvention) == "" {
		return workspace.DefaultConvention, nil
	}
	return workspace.ParseConvention(c.LinkConvention)
}

// DocLines returns the documentation line limit.
func (c *Config) DocLines() int {
	if c.DocumentationLines <= 0 {
		return note.DefaultDocumentationLines
	}
	return c.DocumentationLines
}

// Validate reports configuration values that cannot be used.
func (c *Config) Validate() error {
	var problems []string

	if _, err := c.Convention(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.DocumentationLines < 0 {
		problems = append(problems, fmt.Sprintf("documentation_lines must not be negative (got %d)", c.DocumentationLines))
	}
	if c.DefaultWorkspace != "" {
		if _, ok := c.Workspaces[c.DefaultWorkspace]; !ok {
			problems = append(problems, fmt.Sprintf("default_workspace %q is not listed in [workspaces]", c.DefaultWorkspace))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// ResolvePath returns explicit if set, otherwise the default config path.
func ResolvePath(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/mdnotes/config.toml first (XDG style),
// then falls back to the OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "mdnotes", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "mdnotes", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

const defaultConfig = `# mdnotes configuration

# Default workspace name (must exist in [workspaces] below)
# default_workspace = "notes"

# How wiki link labels are derived from note files:
#   no-extension  - file name without .md (default)
#   raw-filename  - file name with extension
#   to-spaces     - file name without .md, '-' and '_' become spaces
#   relative-path - path relative to the current note, without .md
#   slug          - slugified file name
# link_convention = "no-extension"

# Maximum number of note body lines shown for a resolved link
# documentation_lines = 20

# Named workspaces
# [workspaces]
# notes = "~/notes"

# Optional UI accent color (ANSI 0-255 or #RRGGBB) and code block theme.
# [ui]
# accent = "39"
# code_theme = "monokai"
`

// CreateDefault writes a commented default config to path if no file exists there.
// It returns true when a file was created.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
