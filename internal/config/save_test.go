package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := &Config{
		DefaultWorkspace:   "work",
		Workspaces:         map[string]string{"work": "/tmp/work-notes"},
		LinkConvention:     "to-spaces",
		DocumentationLines: 5,
		UI:                 UIConfig{Accent: "39"},
	}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo returned error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}
	if loaded.DefaultWorkspace != "work" || loaded.Workspaces["work"] != "/tmp/work-notes" {
		t.Errorf("workspaces not persisted: %+v", loaded)
	}
	if loaded.LinkConvention != "to-spaces" || loaded.DocumentationLines != 5 {
		t.Errorf("settings not persisted: %+v", loaded)
	}
	if loaded.UI.Accent != "39" || loaded.UI.CodeTheme != "" {
		t.Errorf("ui = %+v", loaded.UI)
	}
}

func TestSaveToOmitsUnsetValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := SaveTo(path, &Config{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "" {
		t.Errorf("expected empty config, got:\n%s", data)
	}
}

func TestAddWorkspace(t *testing.T) {
	cfg := &Config{}

	if err := cfg.AddWorkspace("notes", "/notes"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.AddWorkspace("work", "/work"); err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultWorkspace != "notes" {
		t.Errorf("default = %q, want first added workspace", cfg.DefaultWorkspace)
	}
	if err := cfg.AddWorkspace("notes", "/other"); err == nil {
		t.Error("expected error adding duplicate workspace")
	}
	if err := cfg.AddWorkspace("  ", "/x"); err == nil {
		t.Error("expected error for blank name")
	}
}
