package ui

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/flattree/pkg/config"
	"github.com/vanderheijden86/flattree/pkg/loader"
	"github.com/vanderheijden86/flattree/pkg/model"
)

func newTreeTestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(nil))
}

// sampleDoc builds:
//
//	Work/
//	  Report (task)
//	    Draft outline
//	      Deep detail
//	  Review
//	Home/
//	  Groceries (task)
func sampleDoc(t *testing.T) *Doc {
	t.Helper()
	doc, err := loader.NewModel([]loader.Element{
		{ID: 0, Depth: -1, Payload: model.Item{Title: "Plan", Kind: model.KindFolder}},
		{ID: 1, Depth: 0, Payload: model.Item{Title: "Work", Kind: model.KindFolder}},
		{ID: 2, Depth: 1, Payload: model.Item{Title: "Report", Kind: model.KindTask, Priority: 1}},
		{ID: 3, Depth: 2, Payload: model.Item{Title: "Draft outline", Kind: model.KindNote}},
		{ID: 4, Depth: 3, Payload: model.Item{Title: "Deep detail", Kind: model.KindNote}},
		{ID: 5, Depth: 1, Payload: model.Item{Title: "Review", Kind: model.KindNote}},
		{ID: 6, Depth: 0, Payload: model.Item{Title: "Home", Kind: model.KindFolder}},
		{ID: 7, Depth: 1, Payload: model.Item{Title: "Groceries", Kind: model.KindTask, Tags: []string{"errand"}}},
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return doc
}

func newSampleView(t *testing.T) TreeView {
	t.Helper()
	tv := NewTreeView(sampleDoc(t), newTreeTestTheme())
	tv.SetSize(80, 20)
	return tv
}

func rowIDs(tv *TreeView) []int {
	ids := make([]int, 0, tv.NodeCount())
	for _, r := range tv.Rows() {
		ids = append(ids, r.ID)
	}
	return ids
}

func childIDs(t *testing.T, doc *Doc, id int) []int {
	t.Helper()
	n, ok := doc.Find(id)
	if !ok {
		t.Fatalf("node %d not found", id)
	}
	var ids []int
	for _, c := range n.Children() {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestTreeViewDefaultExpansion(t *testing.T) {
	tv := newSampleView(t)

	// Depth 0 and 1 start expanded, so Draft outline shows collapsed.
	if got, want := rowIDs(&tv), []int{1, 2, 3, 5, 6, 7}; !slices.Equal(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	draft := tv.Rows()[2]
	if !draft.HasChildren || draft.Expanded {
		t.Errorf("expected Draft outline collapsed with children, got %+v", draft)
	}

	tv.SetExpandDepth(0)
	if got, want := rowIDs(&tv), []int{1, 6}; !slices.Equal(got, want) {
		t.Errorf("expand depth 0 rows = %v, want %v", got, want)
	}
}

func TestTreeGuides(t *testing.T) {
	tv := newSampleView(t)
	want := []string{"", "├── ", "│   └── ", "└── ", "", "└── "}
	if !slices.Equal(tv.guides, want) {
		t.Errorf("guides = %q, want %q", tv.guides, want)
	}
}

func TestTreeViewNavigation(t *testing.T) {
	tv := newSampleView(t)

	tv.MoveUp()
	if tv.Cursor() != 0 {
		t.Errorf("MoveUp at top should stay at 0, got %d", tv.Cursor())
	}
	tv.MoveDown()
	tv.MoveDown()
	if tv.SelectedID() != 3 {
		t.Errorf("expected Draft outline selected, got %d", tv.SelectedID())
	}
	tv.JumpToBottom()
	if tv.SelectedID() != 7 {
		t.Errorf("JumpToBottom selected %d", tv.SelectedID())
	}
	tv.MoveDown()
	if tv.SelectedID() != 7 {
		t.Errorf("MoveDown at bottom should stay, got %d", tv.SelectedID())
	}
	tv.JumpToTop()
	if tv.SelectedID() != 1 {
		t.Errorf("JumpToTop selected %d", tv.SelectedID())
	}

	tv.SetSize(80, 4)
	tv.PageDown()
	if tv.Cursor() != 2 {
		t.Errorf("PageDown with height 4 should move 2 rows, cursor %d", tv.Cursor())
	}
	tv.PageUp()
	if tv.Cursor() != 0 {
		t.Errorf("PageUp should return to 0, cursor %d", tv.Cursor())
	}

	if tv.SelectByID(4) {
		t.Error("hidden node should not be selectable")
	}
}

func TestToggleExpand(t *testing.T) {
	tv := newSampleView(t)
	tv.SelectByID(3)

	tv.ToggleExpand()
	if got, want := rowIDs(&tv), []int{1, 2, 3, 4, 5, 6, 7}; !slices.Equal(got, want) {
		t.Fatalf("after expand rows = %v, want %v", got, want)
	}
	tv.ToggleExpand()
	if slices.Contains(rowIDs(&tv), 4) {
		t.Error("expected Deep detail hidden after collapse")
	}
	if tv.SelectedID() != 3 {
		t.Errorf("selection moved to %d", tv.SelectedID())
	}

	// Leaves do not toggle.
	tv.SelectByID(5)
	tv.ToggleExpand()
	if tv.IsExpanded(5) {
		t.Error("leaf should not become expanded")
	}
}

func TestExpandOrMoveToChild(t *testing.T) {
	tv := newSampleView(t)
	tv.SelectByID(3)

	tv.ExpandOrMoveToChild()
	if !tv.IsExpanded(3) || tv.SelectedID() != 3 {
		t.Fatalf("expected Draft outline expanded and selected, got selected %d", tv.SelectedID())
	}
	tv.ExpandOrMoveToChild()
	if tv.SelectedID() != 4 {
		t.Errorf("expected cursor on first child, got %d", tv.SelectedID())
	}
}

func TestCollapseOrJumpToParent(t *testing.T) {
	tv := newSampleView(t)
	tv.SelectByID(5)

	tv.CollapseOrJumpToParent()
	if tv.SelectedID() != 1 {
		t.Fatalf("leaf should jump to parent, got %d", tv.SelectedID())
	}
	tv.CollapseOrJumpToParent()
	if got, want := rowIDs(&tv), []int{1, 6, 7}; !slices.Equal(got, want) {
		t.Errorf("after collapse rows = %v, want %v", got, want)
	}
	// Top-level rows have nowhere to go.
	tv.CollapseOrJumpToParent()
	if tv.SelectedID() != 1 {
		t.Errorf("top-level collapse moved to %d", tv.SelectedID())
	}
}

func TestExpandAllCollapseAll(t *testing.T) {
	tv := newSampleView(t)

	tv.ExpandAll()
	if tv.NodeCount() != 7 {
		t.Fatalf("ExpandAll shows %d rows, want 7", tv.NodeCount())
	}

	tv.SelectByID(4)
	tv.CollapseAll()
	if got, want := rowIDs(&tv), []int{1, 6}; !slices.Equal(got, want) {
		t.Errorf("CollapseAll rows = %v, want %v", got, want)
	}
	if tv.SelectedID() != 1 {
		t.Errorf("expected selection on the nearest shown ancestor, got %d", tv.SelectedID())
	}
}

func TestExpandSubtree(t *testing.T) {
	tv := newSampleView(t)
	tv.CollapseAll()
	tv.SelectByID(1)

	tv.ExpandSubtree()
	if got, want := rowIDs(&tv), []int{1, 2, 3, 4, 5, 6}; !slices.Equal(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

func TestSearchSubstring(t *testing.T) {
	tv := newSampleView(t)

	tv.SetQuery("RE")
	if got, want := rowIDs(&tv), []int{2, 5}; !slices.Equal(got, want) {
		t.Fatalf("search rows = %v, want %v", got, want)
	}
	for _, r := range tv.Rows() {
		if r.Depth != 0 || r.Expanded {
			t.Errorf("search row %d should be flat and unexpanded: %+v", r.ID, r)
		}
	}

	// Hidden nodes are found too.
	tv.SetQuery("detail")
	if got := rowIDs(&tv); !slices.Equal(got, []int{4}) {
		t.Fatalf("search rows = %v, want [4]", got)
	}
	if !strings.Contains(tv.View(), "in Work / Report / Draft outline") {
		t.Errorf("expected breadcrumb in search view:\n%s", tv.View())
	}

	tv.SetQuery("zzz")
	if tv.NodeCount() != 0 || !strings.Contains(tv.View(), `No items match "zzz"`) {
		t.Errorf("expected empty search view, got %d rows:\n%s", tv.NodeCount(), tv.View())
	}
}

func TestSearchFuzzy(t *testing.T) {
	tv := newSampleView(t)
	tv.SetSearchMode(config.SearchFuzzy)

	tv.SetQuery("rvw")
	if got := rowIDs(&tv); !slices.Equal(got, []int{5}) {
		t.Errorf("fuzzy rows = %v, want [5]", got)
	}
	tv.SetQuery("gcr")
	if got := rowIDs(&tv); !slices.Equal(got, []int{7}) {
		t.Errorf("fuzzy rows = %v, want [7]", got)
	}
}

func TestClearSearchReveal(t *testing.T) {
	tv := newSampleView(t)

	tv.SetQuery("deep")
	tv.ClearSearch(true)
	if tv.Searching() {
		t.Fatal("still searching")
	}
	if tv.SelectedID() != 4 {
		t.Fatalf("expected the hit to stay selected, got %d", tv.SelectedID())
	}
	if !tv.IsExpanded(3) {
		t.Error("expected ancestors expanded")
	}

	tv.CollapseAll()
	tv.SetQuery("deep")
	tv.ClearSearch(false)
	if slices.Contains(rowIDs(&tv), 4) {
		t.Error("leaving search without reveal should not expand anything")
	}
}

func TestReveal(t *testing.T) {
	tv := newSampleView(t)
	if !tv.Reveal(4) {
		t.Fatal("Reveal(4) failed")
	}
	if tv.SelectedID() != 4 {
		t.Errorf("selected %d", tv.SelectedID())
	}
	if tv.Reveal(99) {
		t.Error("Reveal of a missing id should fail")
	}
}

func TestTreeViewRender(t *testing.T) {
	tv := newSampleView(t)
	view := tv.View()

	for _, want := range []string{"▾", "▸", "•", "├── ", "│   └── ", "Draft outline", "P1", "#errand"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Count(view, "\n") != 6 {
		t.Errorf("expected 6 lines, got %d", strings.Count(view, "\n"))
	}
}

func TestTreeViewRenderWindow(t *testing.T) {
	tv := newSampleView(t)
	tv.SetSize(80, 2)
	tv.JumpToBottom()

	view := tv.View()
	if strings.Contains(view, "Work") || !strings.Contains(view, "Groceries") {
		t.Errorf("expected only the last rows rendered:\n%s", view)
	}
}

func TestEmptyView(t *testing.T) {
	doc, err := loader.NewModel(nil)
	if err != nil {
		t.Fatal(err)
	}
	tv := NewTreeView(doc, newTreeTestTheme())
	if !strings.Contains(tv.View(), "Empty outline") {
		t.Errorf("unexpected empty view:\n%s", tv.View())
	}
	if tv.SelectedID() != -1 || tv.SelectedNode() != nil {
		t.Error("expected no selection")
	}
}

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		title string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer title", 8, "a longe…"},
		{"日本語のタイトル", 7, "日本語…"},
		{"anything", 3, "..."},
	}
	for _, tt := range tests {
		if got := truncateTitle(tt.title, tt.width); got != tt.want {
			t.Errorf("truncateTitle(%q, %d) = %q, want %q", tt.title, tt.width, got, tt.want)
		}
	}
}

func TestSetDocKeepsState(t *testing.T) {
	tv := newSampleView(t)
	tv.SelectByID(3)
	tv.ToggleExpand()

	tv.SetDoc(sampleDoc(t))
	if tv.SelectedID() != 3 || !tv.IsExpanded(3) {
		t.Errorf("expected selection and expansion kept, selected %d", tv.SelectedID())
	}
}

func TestTreeStatePersistence(t *testing.T) {
	dir := t.TempDir()

	tv := newSampleView(t)
	tv.SetStateDir(dir, "plan.outline.txt")
	tv.SelectByID(1)
	tv.ToggleExpand()

	if _, err := os.Stat(TreeStatePath(dir)); err != nil {
		t.Fatalf("expected state file: %v", err)
	}

	restored := newSampleView(t)
	restored.SetStateDir(dir, "plan.outline.txt")
	if restored.IsExpanded(1) {
		t.Error("expected Work collapsed after restore")
	}
	if got, want := rowIDs(&restored), []int{1, 6, 7}; !slices.Equal(got, want) {
		t.Errorf("restored rows = %v, want %v", got, want)
	}

	other := newSampleView(t)
	other.SetStateDir(dir, "other.outline.txt")
	if !other.IsExpanded(1) {
		t.Error("state of another outline should be ignored")
	}
}

func TestTreeStateCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, treeStateFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	tv := newSampleView(t)
	tv.SetStateDir(dir, "plan.outline.txt")
	if !tv.IsExpanded(1) {
		t.Error("corrupt state should fall back to defaults")
	}
}

func TestTreeStateStaleIDs(t *testing.T) {
	dir := t.TempDir()
	content := `{"version":1,"outline":"p","expanded":{"3":true,"99":true,"x":false}}`
	if err := os.WriteFile(TreeStatePath(dir), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	tv := newSampleView(t)
	tv.SetStateDir(dir, "p")
	if !tv.IsExpanded(3) {
		t.Error("expected id 3 expanded from state")
	}
	if _, ok := tv.expanded[99]; ok {
		t.Error("stale id should be dropped")
	}
}

func TestTreeStatePath(t *testing.T) {
	if got := TreeStatePath(""); got != filepath.Join(".flattree", "tree-state.json") {
		t.Errorf("TreeStatePath(\"\") = %s", got)
	}
}
