package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/flattree/pkg/config"
)

const testOutline = `Work/
  [ ] Report
    Draft outline
  Review
Home/
  [ ] Groceries
`

func writeOutline(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.outline.txt")
	if err := os.WriteFile(path, []byte(testOutline), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustParse(t *testing.T, args ...string) *options {
	t.Helper()
	opts, _, err := parseArgs(args)
	if err != nil {
		t.Fatalf("parseArgs(%v): %v", args, err)
	}
	opts.noTUI = true
	return opts
}

func runOutput(t *testing.T, opts *options) string {
	t.Helper()
	var buf bytes.Buffer
	if err := run(context.Background(), opts, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	return buf.String()
}

func TestParseArgs(t *testing.T) {
	opts, _, err := parseArgs([]string{"--search", "rev", "--expand-depth", "0", "a.outline.txt", "b.outline.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.search != "rev" || !opts.expandDepthSet || opts.expandDepth != 0 {
		t.Errorf("unexpected options: %+v", opts)
	}
	if len(opts.files) != 2 {
		t.Errorf("files = %v", opts.files)
	}

	opts, _, err = parseArgs(nil)
	if err != nil || opts.expandDepthSet {
		t.Errorf("defaults: %+v, %v", opts, err)
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := [][]string{
		{"--tui", "--no-tui"},
		{"--expand-depth", "-1"},
		{"--load", "x", "plan.outline.txt"},
		{"--bogus"},
	}
	for _, args := range tests {
		if _, _, err := parseArgs(args); err == nil {
			t.Errorf("parseArgs(%v): expected an error", args)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	opts := mustParse(t, "--sort", "priority:desc", "--expand-depth", "5", "--watch")
	cfg, err := loadConfig(opts, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tree.ExpandDepth != 5 || !cfg.Watch.Enabled {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Tree.Sort) != 1 || cfg.Tree.Sort[0].Field != config.SortPriority || cfg.Tree.Sort[0].Ascending() {
		t.Errorf("sort = %v", cfg.Tree.Sort)
	}

	if _, err := loadConfig(mustParse(t, "--sort", "color"), t.TempDir()); err == nil {
		t.Error("expected an error for an unknown sort field")
	}
}

func TestRunPlainTree(t *testing.T) {
	out := runOutput(t, mustParse(t, writeOutline(t)))
	want := strings.Join([]string{
		"▾ Work",
		"  ▾ Report",
		"      Draft outline",
		"    Review",
		"▾ Home",
		"    Groceries",
	}, "\n") + "\n"
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestRunExpandDepth(t *testing.T) {
	out := runOutput(t, mustParse(t, "--expand-depth", "1", writeOutline(t)))
	if !strings.Contains(out, "  ▸ Report\n") || strings.Contains(out, "Draft outline") {
		t.Errorf("expected Report collapsed:\n%s", out)
	}
}

func TestRunSearch(t *testing.T) {
	out := runOutput(t, mustParse(t, "--search", "re", writeOutline(t)))
	want := "Report  (in Work)\nReview  (in Work)\n"
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestRunSortTopLevel(t *testing.T) {
	out := runOutput(t, mustParse(t, "--sort", "natural", "--expand-depth", "0", writeOutline(t)))
	if out != "▸ Home\n▸ Work\n" {
		t.Errorf("got:\n%s", out)
	}
}

func TestRunJSON(t *testing.T) {
	out := runOutput(t, mustParse(t, "--json", "--search", "draft", writeOutline(t)))

	var rows []jsonRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.Name != "Draft outline" || r.Item.Title != "Draft outline" {
		t.Errorf("row = %+v", r)
	}
	if strings.Join(r.Path, "/") != "Work/Report" {
		t.Errorf("path = %v", r.Path)
	}
}

func TestRunExports(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "plan.md")
	svg := filepath.Join(dir, "plan.svg")

	out := runOutput(t, mustParse(t, "--export-md", md, "--export-svg", svg, writeOutline(t)))
	if strings.Contains(out, "Work") {
		t.Errorf("exports should not print the tree:\n%s", out)
	}
	for _, path := range []string{md, svg} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "Groceries") {
			t.Errorf("%s missing an item", filepath.Base(path))
		}
	}
}

func TestRunStoreRoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "outlines.db")

	out := runOutput(t, mustParse(t, "--db", db, "--save", "plan", writeOutline(t)))
	if !strings.Contains(out, `Saved "plan" (6 items)`) {
		t.Errorf("save output: %q", out)
	}

	out = runOutput(t, mustParse(t, "--db", db, "--list"))
	if !strings.Contains(out, "plan") {
		t.Errorf("list output: %q", out)
	}

	out = runOutput(t, mustParse(t, "--db", db, "--load", "plan", "--search", "groc"))
	if !strings.Contains(out, "Groceries  (in Home)") {
		t.Errorf("load output: %q", out)
	}

	runOutput(t, mustParse(t, "--db", db, "--delete", "plan"))
	out = runOutput(t, mustParse(t, "--db", db, "--list"))
	if !strings.Contains(out, "No saved outlines.") {
		t.Errorf("list after delete: %q", out)
	}
}

func TestRunMissingFile(t *testing.T) {
	opts := mustParse(t, filepath.Join(t.TempDir(), "missing.outline.txt"))
	if err := run(context.Background(), opts, &bytes.Buffer{}); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestUseTUI(t *testing.T) {
	if !useTUI(&options{tui: true}) {
		t.Error("--tui should force the interactive view")
	}
	for _, o := range []*options{
		{noTUI: true},
		{jsonOut: true},
		{search: "x"},
		{exportMD: "a.md"},
		{saveName: "x"},
	} {
		if useTUI(o) {
			t.Errorf("useTUI(%+v) = true", o)
		}
	}
}
