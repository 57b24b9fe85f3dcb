package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ahazxm/markdown-notes/internal/testutil"
)

var captureStdoutMu sync.Mutex

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	captureStdoutMu.Lock()
	defer captureStdoutMu.Unlock()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	outputCh := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		_ = r.Close()
		outputCh <- buf.String()
	}()

	fn()

	os.Stdout = orig
	_ = w.Close()
	return <-outputCh
}

// resetGlobalsForTest restores flag values and package state that persist
// between Execute calls.
func resetGlobalsForTest(t *testing.T) {
	t.Helper()

	var reset func(cmd *cobra.Command)
	reset = func(cmd *cobra.Command) {
		restore := func(flag *pflag.Flag) {
			_ = flag.Value.Set(flag.DefValue)
			flag.Changed = false
		}
		cmd.PersistentFlags().VisitAll(restore)
		cmd.Flags().VisitAll(restore)
		for _, sub := range cmd.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)

	configPath = filepath.Join(t.TempDir(), "config.toml")
	resolvedWorkspacePath = ""
	cfg = nil
}

type jsonResponse struct {
	OK       bool            `json:"ok"`
	Data     json.RawMessage `json:"data"`
	Error    *ErrorInfo      `json:"error"`
	Warnings []Warning       `json:"warnings"`
	Meta     *Meta           `json:"meta"`
}

// runJSON executes the CLI with --json and decodes the envelope.
func runJSON(t *testing.T, args ...string) (jsonResponse, error) {
	t.Helper()

	var runErr error
	out := captureStdout(t, func() {
		rootCmd.SetArgs(append(args, "--json"))
		runErr = rootCmd.ExecuteContext(context.Background())
	})

	var resp jsonResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	return resp, runErr
}

func buildTestWorkspace(t *testing.T) *testutil.TestWorkspace {
	t.Helper()
	return testutil.NewTestWorkspace(t).
		WithNote("design-doc.md", "Design Doc", "How the pieces fit together. #proj").
		WithNote("projects/alpha_plan.md", "Alpha Plan", "Tagged #proj and #urgent.").
		WithFile("daily/today.md", "# Today\n\nsee #pr and [[Des]]\n").
		Build()
}

func TestCompleteCommand(t *testing.T) {
	tw := buildTestWorkspace(t)

	t.Run("tag", func(t *testing.T) {
		resetGlobalsForTest(t)
		resp, err := runJSON(t, "complete", "daily/today.md", "--line", "3", "--col", "7",
			"--workspace-path", tw.Path)
		if err != nil || !resp.OK {
			t.Fatalf("complete failed: %v %+v", err, resp.Error)
		}

		var result completeResultJSON
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			t.Fatal(err)
		}
		if result.Match.Kind != "tag" || result.Match.Text != "pr" {
			t.Errorf("match = %+v", result.Match)
		}
		var labels []string
		for _, c := range result.Candidates {
			labels = append(labels, c.Label)
		}
		if strings.Join(labels, ",") != "pr,proj,urgent" {
			t.Errorf("labels = %v", labels)
		}
	})

	t.Run("wiki link with resolve", func(t *testing.T) {
		resetGlobalsForTest(t)
		resp, err := runJSON(t, "complete", tw.Abs("daily/today.md"), "--line", "3", "--col", "17",
			"--resolve", "--workspace-path", tw.Path)
		if err != nil || !resp.OK {
			t.Fatalf("complete failed: %v %+v", err, resp.Error)
		}

		var result completeResultJSON
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			t.Fatal(err)
		}
		if result.Match.Kind != "wikilink" || result.Match.Text != "Des" {
			t.Errorf("match = %+v", result.Match)
		}

		byLabel := map[string]candidateJSON{}
		for _, c := range result.Candidates {
			byLabel[c.Label] = c
		}
		doc, ok := byLabel["design-doc"]
		if !ok {
			t.Fatalf("candidates = %+v", result.Candidates)
		}
		if doc.Detail != "Design Doc" || !strings.Contains(doc.Documentation, "How the pieces fit") {
			t.Errorf("design-doc not resolved: %+v", doc)
		}
		if doc.SourcePath != tw.Abs("design-doc.md") {
			t.Errorf("source path = %q", doc.SourcePath)
		}
		if len(result.Candidates) != 3 {
			t.Errorf("got %d candidates, want 3", len(result.Candidates))
		}
	})

	t.Run("outside a reference", func(t *testing.T) {
		resetGlobalsForTest(t)
		resp, err := runJSON(t, "complete", "daily/today.md", "--offset", "0",
			"--workspace-path", tw.Path)
		if err != nil || !resp.OK {
			t.Fatalf("complete failed: %v %+v", err, resp.Error)
		}
		var result completeResultJSON
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			t.Fatal(err)
		}
		if result.Match.Kind != "none" || len(result.Candidates) != 0 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("offset past end", func(t *testing.T) {
		resetGlobalsForTest(t)
		resp, err := runJSON(t, "complete", "daily/today.md", "--offset", "9999",
			"--workspace-path", tw.Path)
		if !errors.Is(err, errSilent) {
			t.Errorf("err = %v, want errSilent", err)
		}
		if resp.OK || resp.Error == nil || resp.Error.Code != ErrInvalidInput {
			t.Errorf("resp = %+v", resp)
		}
	})
}

func TestTagsCommand(t *testing.T) {
	tw := buildTestWorkspace(t)

	resetGlobalsForTest(t)
	resp, err := runJSON(t, "tags", "--workspace-path", tw.Path)
	if err != nil || !resp.OK {
		t.Fatalf("tags failed: %v %+v", err, resp.Error)
	}
	var counts []struct {
		Tag   string `json:"tag"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(resp.Data, &counts); err != nil {
		t.Fatal(err)
	}
	if len(counts) != 3 || counts[1].Tag != "proj" || counts[1].Count != 2 {
		t.Errorf("counts = %+v", counts)
	}

	resetGlobalsForTest(t)
	resp, err = runJSON(t, "tags", "#urgent", "--workspace-path", tw.Path)
	if err != nil || !resp.OK {
		t.Fatalf("tags urgent failed: %v %+v", err, resp.Error)
	}
	var byTag struct {
		Tag   string `json:"tag"`
		Notes []struct {
			FilePath string `json:"file_path"`
			Title    string `json:"title"`
		} `json:"notes"`
	}
	if err := json.Unmarshal(resp.Data, &byTag); err != nil {
		t.Fatal(err)
	}
	if byTag.Tag != "urgent" || len(byTag.Notes) != 1 || byTag.Notes[0].Title != "Alpha Plan" {
		t.Errorf("result = %+v", byTag)
	}
}

func TestNotesCommandUsesConfiguredConvention(t *testing.T) {
	tw := buildTestWorkspace(t)

	resetGlobalsForTest(t)
	if err := os.WriteFile(configPath, []byte("link_convention = \"to-spaces\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	resp, err := runJSON(t, "notes", "--workspace-path", tw.Path, "--config", configPath)
	if err != nil || !resp.OK {
		t.Fatalf("notes failed: %v %+v", err, resp.Error)
	}
	var notes []struct {
		Label string `json:"label"`
		Title string `json:"title"`
		Path  string `json:"path"`
	}
	if err := json.Unmarshal(resp.Data, &notes); err != nil {
		t.Fatal(err)
	}

	labels := map[string]string{}
	for _, n := range notes {
		labels[n.Path] = n.Label
	}
	if labels["projects/alpha_plan.md"] != "alpha plan" || labels["design-doc.md"] != "design doc" {
		t.Errorf("labels = %v", labels)
	}
}

func TestShowCommand(t *testing.T) {
	tw := buildTestWorkspace(t)

	resetGlobalsForTest(t)
	resp, err := runJSON(t, "show", "alpha_plan", "--workspace-path", tw.Path)
	if err != nil || !resp.OK {
		t.Fatalf("show failed: %v %+v", err, resp.Error)
	}
	var shown struct {
		Path          string   `json:"path"`
		Title         string   `json:"title"`
		Tags          []string `json:"tags"`
		Documentation string   `json:"documentation"`
	}
	if err := json.Unmarshal(resp.Data, &shown); err != nil {
		t.Fatal(err)
	}
	if shown.Path != "projects/alpha_plan.md" || shown.Title != "Alpha Plan" {
		t.Errorf("shown = %+v", shown)
	}
	if strings.Join(shown.Tags, ",") != "proj,urgent" {
		t.Errorf("tags = %v", shown.Tags)
	}

	resetGlobalsForTest(t)
	resp, err = runJSON(t, "show", "missing", "--workspace-path", tw.Path)
	if !errors.Is(err, errSilent) {
		t.Errorf("err = %v, want errSilent", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrNoteNotFound {
		t.Errorf("resp = %+v", resp)
	}
}

func TestReindexCommand(t *testing.T) {
	tw := buildTestWorkspace(t)

	resetGlobalsForTest(t)
	resp, err := runJSON(t, "reindex", "--workspace-path", tw.Path)
	if err != nil || !resp.OK {
		t.Fatalf("reindex failed: %v %+v", err, resp.Error)
	}
	var result struct {
		Indexed int `json:"indexed"`
		Stats   struct {
			NoteCount int `json:"note_count"`
			TagCount  int `json:"tag_count"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Indexed != 3 || result.Stats.NoteCount != 3 || result.Stats.TagCount != 3 {
		t.Errorf("result = %+v", result)
	}
	tw.AssertFileExists(".mdnotes/index.db")

	resetGlobalsForTest(t)
	resp, err = runJSON(t, "reindex", "--full", "--workspace-path", tw.Path)
	if err != nil || !resp.OK {
		t.Fatalf("full reindex failed: %v %+v", err, resp.Error)
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Indexed != 3 {
		t.Errorf("full reindex indexed %d, want 3", result.Indexed)
	}
}

func TestMissingWorkspace(t *testing.T) {
	resetGlobalsForTest(t)

	resp, err := runJSON(t, "tags")
	if !errors.Is(err, errSilent) {
		t.Errorf("err = %v, want errSilent", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrWorkspaceNotSpecified {
		t.Errorf("resp = %+v", resp)
	}

	resetGlobalsForTest(t)
	resp, _ = runJSON(t, "tags", "--workspace-path", filepath.Join(t.TempDir(), "nope"))
	if resp.Error == nil || resp.Error.Code != ErrWorkspaceNotFound {
		t.Errorf("resp = %+v", resp)
	}
}

func TestConfigAndWorkspaceCommands(t *testing.T) {
	resetGlobalsForTest(t)
	path := configPath

	resp, err := runJSON(t, "config", "init", "--config", path)
	if err != nil || !resp.OK {
		t.Fatalf("config init failed: %v %+v", err, resp.Error)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not created: %v", err)
	}
	if !strings.Contains(string(content), "link_convention") {
		t.Errorf("unexpected default config:\n%s", content)
	}

	notesDir := t.TempDir()
	resetGlobalsForTest(t)
	resp, err = runJSON(t, "workspace", "add", "notes", notesDir, "--config", path)
	if err != nil || !resp.OK {
		t.Fatalf("workspace add failed: %v %+v", err, resp.Error)
	}

	resetGlobalsForTest(t)
	resp, err = runJSON(t, "workspace", "list", "--config", path)
	if err != nil || !resp.OK {
		t.Fatalf("workspace list failed: %v %+v", err, resp.Error)
	}
	var list []struct {
		Name    string `json:"name"`
		Path    string `json:"path"`
		Default bool   `json:"default"`
	}
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "notes" || !list[0].Default || list[0].Path != notesDir {
		t.Errorf("list = %+v", list)
	}

	// The default workspace now resolves without flags.
	resetGlobalsForTest(t)
	resp, err = runJSON(t, "tags", "--config", path)
	if err != nil || !resp.OK {
		t.Errorf("tags with default workspace failed: %v %+v", err, resp.Error)
	}
}

func TestOffsetForLineCol(t *testing.T) {
	text := "one\ntwé x\nthree"

	tests := []struct {
		line, col int
		want      int
		wantErr   bool
	}{
		{1, 1, 0, false},
		{1, 4, 3, false},
		{1, 9, 3, false},
		{2, 1, 4, false},
		{2, 4, 8, false},
		{3, 6, 16, false},
		{4, 1, 0, true},
		{0, 1, 0, true},
	}

	for _, tt := range tests {
		got, err := offsetForLineCol(text, tt.line, tt.col)
		if (err != nil) != tt.wantErr {
			t.Errorf("%d:%d err = %v", tt.line, tt.col, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("%d:%d = %d, want %d", tt.line, tt.col, got, tt.want)
		}
	}
}

func TestNormalizeVersion(t *testing.T) {
	for in, want := range map[string]string{"": "devel", "(devel)": "devel", "v1.2.3": "1.2.3"} {
		if got := normalizeVersion(in); got != want {
			t.Errorf("normalizeVersion(%q) = %q, want %q", in, got, want)
		}
	}
}
