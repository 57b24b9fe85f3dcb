package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ahazxm/markdown-notes/internal/atomicfile"
)

type persistedConfig struct {
	DefaultWorkspace   *string              `toml:"default_workspace,omitempty"`
	LinkConvention     *string              `toml:"link_convention,omitempty"`
	DocumentationLines *int                 `toml:"documentation_lines,omitempty"`
	Workspaces         map[string]string    `toml:"workspaces,omitempty"`
	UI                 *persistedUISettings `toml:"ui,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes the config to path atomically, omitting unset values.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		DefaultWorkspace: nonEmptyPtr(cfg.DefaultWorkspace),
		LinkConvention:   nonEmptyPtr(cfg.LinkConvention),
	}
	if cfg.DocumentationLines > 0 {
		lines := cfg.DocumentationLines
		out.DocumentationLines = &lines
	}
	if len(cfg.Workspaces) > 0 {
		out.Workspaces = cfg.Workspaces
	}

	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{
			Accent:    accent,
			CodeTheme: codeTheme,
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}

// AddWorkspace registers a named workspace. The first workspace added becomes the default.
func (c *Config) AddWorkspace(name, path string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("workspace name is required")
	}
	if c.Workspaces == nil {
		c.Workspaces = make(map[string]string)
	}
	if _, exists := c.Workspaces[name]; exists {
		return fmt.Errorf("workspace '%s' already exists", name)
	}

	c.Workspaces[name] = path
	if c.DefaultWorkspace == "" {
		c.DefaultWorkspace = name
	}
	return nil
}
