// Package ui is the interactive terminal view of an outline.
package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/flattree/pkg/config"
	"github.com/vanderheijden86/flattree/pkg/model"
	"github.com/vanderheijden86/flattree/pkg/tree"
)

// Doc is the tree model behind the view.
type Doc = tree.Model[model.Item]

// Row is one displayed line.
type Row = tree.Row[model.Item]

// Errors returned by edit operations that do not apply to the selection.
var (
	ErrNoSelection   = errors.New("nothing selected")
	ErrSearchActive  = errors.New("not available while searching")
	ErrCannotIndent  = errors.New("no previous sibling to indent under")
	ErrCannotOutdent = errors.New("already at the top level")
	ErrAtEdge        = errors.New("already at the edge of its level")
)

// TreeView manages the navigable, editable outline view.
type TreeView struct {
	doc    *Doc
	rows   []Row
	guides []string // Tree-drawing prefix per row
	cursor int
	theme  Theme

	width          int
	height         int
	viewportOffset int

	// expanded holds explicit user overrides; other nodes expand when
	// shallower than expandDepth.
	expanded    map[int]bool
	expandDepth int

	query      string
	searchMode string

	// Persistence
	stateDir string
	outline  string
}

// NewTreeView creates a view over doc.
func NewTreeView(doc *Doc, theme Theme) TreeView {
	t := TreeView{
		doc:         doc,
		theme:       theme,
		expanded:    make(map[int]bool),
		expandDepth: 2,
		searchMode:  config.SearchSubstring,
	}
	t.Rebuild()
	return t
}

// SetSize updates the available dimensions for the tree view
func (t *TreeView) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// SetExpandDepth sets the default expansion depth for nodes without an
// explicit override.
func (t *TreeView) SetExpandDepth(depth int) {
	t.expandDepth = depth
	t.Rebuild()
}

// SetSearchMode selects substring or fuzzy matching.
func (t *TreeView) SetSearchMode(mode string) {
	t.searchMode = mode
	if t.query != "" {
		t.Rebuild()
	}
}

// Doc returns the underlying tree model.
func (t *TreeView) Doc() *Doc {
	return t.doc
}

// SetDoc swaps in a reloaded model, keeping overrides and selection for
// ids that still exist.
func (t *TreeView) SetDoc(doc *Doc) {
	selected := t.SelectedID()
	t.doc = doc
	for id := range t.expanded {
		if _, ok := doc.Find(id); !ok {
			delete(t.expanded, id)
		}
	}
	t.Rebuild()
	if selected >= 0 {
		t.SelectByID(selected)
	}
}

// IsExpanded reports whether the node's children are shown in tree mode.
func (t *TreeView) IsExpanded(id int) bool {
	if v, ok := t.expanded[id]; ok {
		return v
	}
	n, ok := t.doc.Find(id)
	if !ok {
		return false
	}
	return n.Depth < t.expandDepth
}

// Rebuild recomputes rows from the model. It must run after every change to
// the model or to expansion state.
func (t *TreeView) Rebuild() {
	if t.query == "" {
		t.rows = t.doc.GetVisibleRows(t.IsExpanded, "")
	} else if t.searchMode == config.SearchFuzzy {
		t.rows = t.fuzzyRows()
	} else {
		t.rows = t.doc.GetVisibleRows(t.IsExpanded, t.query)
	}
	t.guides = treeGuides(t.rows)

	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// fuzzyRows keeps every fuzzy match and orders them best first.
func (t *TreeView) fuzzyRows() []Row {
	hits := t.doc.BuildRows(tree.RowOptions[model.Item]{
		Query:    t.query,
		Match:    fuzzyMatch,
		Unsorted: true,
	})
	names := make([]string, len(hits))
	for i, r := range hits {
		names[i] = r.Name
	}
	matches := fuzzy.Find(t.query, names)
	rows := make([]Row, len(matches))
	for i, m := range matches {
		rows[i] = hits[m.Index]
	}
	return rows
}

func fuzzyMatch(name, query string) bool {
	return len(fuzzy.Find(query, []string{name})) > 0
}

// treeGuides computes the box-drawing prefix of each row. A row is the
// last child when no later row sits at its depth before a shallower one.
func treeGuides(rows []Row) []string {
	guides := make([]string, len(rows))
	var continuing []bool
	for i := len(rows) - 1; i >= 0; i-- {
		d := rows[i].Depth
		for len(continuing) <= d {
			continuing = append(continuing, false)
		}

		if d > 0 {
			var sb strings.Builder
			for k := 1; k < d; k++ {
				if continuing[k] {
					sb.WriteString("│   ")
				} else {
					sb.WriteString("    ")
				}
			}
			if continuing[d] {
				sb.WriteString("├── ")
			} else {
				sb.WriteString("└── ")
			}
			guides[i] = sb.String()
		}

		continuing[d] = true
		for k := d + 1; k < len(continuing); k++ {
			continuing[k] = false
		}
	}
	return guides
}

// Rows returns the rows currently displayed.
func (t *TreeView) Rows() []Row {
	return t.rows
}

// NodeCount returns the total number of visible rows.
func (t *TreeView) NodeCount() int {
	return len(t.rows)
}

// Cursor returns the selected row index.
func (t *TreeView) Cursor() int {
	return t.cursor
}

// SelectedRow returns the selected row, or false when the view is empty.
func (t *TreeView) SelectedRow() (Row, bool) {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor], true
	}
	return Row{}, false
}

// SelectedID returns the id of the selected node, or -1.
func (t *TreeView) SelectedID() int {
	if r, ok := t.SelectedRow(); ok {
		return r.ID
	}
	return -1
}

// SelectedNode returns the model node behind the selected row.
func (t *TreeView) SelectedNode() *tree.Node[model.Item] {
	r, ok := t.SelectedRow()
	if !ok {
		return nil
	}
	n, _ := t.doc.Find(r.ID)
	return n
}

// SelectByID moves the cursor to the row for id. Returns false when the
// node is not displayed.
func (t *TreeView) SelectByID(id int) bool {
	for i, r := range t.rows {
		if r.ID == id {
			t.cursor = i
			t.ensureCursorVisible()
			return true
		}
	}
	return false
}

// MoveDown moves the cursor down one row.
func (t *TreeView) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
		t.ensureCursorVisible()
	}
}

// MoveUp moves the cursor up one row.
func (t *TreeView) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.ensureCursorVisible()
	}
}

// JumpToTop moves cursor to the first row.
func (t *TreeView) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

// JumpToBottom moves cursor to the last row.
func (t *TreeView) JumpToBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
		t.ensureCursorVisible()
	}
}

// PageDown moves cursor down by half a viewport.
func (t *TreeView) PageDown() {
	t.cursor = min(t.cursor+t.pageSize(), len(t.rows)-1)
	t.cursor = max(t.cursor, 0)
	t.ensureCursorVisible()
}

// PageUp moves cursor up by half a viewport.
func (t *TreeView) PageUp() {
	t.cursor = max(t.cursor-t.pageSize(), 0)
	t.ensureCursorVisible()
}

func (t *TreeView) pageSize() int {
	if t.height/2 < 1 {
		return 5
	}
	return t.height / 2
}

// setExpanded records an override and persists it.
func (t *TreeView) setExpanded(id int, expanded bool) {
	t.expanded[id] = expanded
	t.saveState()
}

// ToggleExpand expands or collapses the selected node.
func (t *TreeView) ToggleExpand() {
	r, ok := t.SelectedRow()
	if !ok || !r.HasChildren || t.query != "" {
		return
	}
	t.setExpanded(r.ID, !r.Expanded)
	t.Rebuild()
}

// ExpandOrMoveToChild handles the → / l key: a collapsed node expands, an
// expanded node moves the cursor to its first child.
func (t *TreeView) ExpandOrMoveToChild() {
	r, ok := t.SelectedRow()
	if !ok || !r.HasChildren || t.query != "" {
		return
	}
	if !r.Expanded {
		t.setExpanded(r.ID, true)
		t.Rebuild()
		return
	}
	t.MoveDown()
}

// CollapseOrJumpToParent handles the ← / h key: an expanded node collapses,
// anything else moves the cursor to its parent.
func (t *TreeView) CollapseOrJumpToParent() {
	r, ok := t.SelectedRow()
	if !ok || t.query != "" {
		return
	}
	if r.Expanded {
		t.setExpanded(r.ID, false)
		t.Rebuild()
		return
	}
	t.JumpToParent()
}

// JumpToParent moves the cursor to the parent row. Top-level rows stay put.
func (t *TreeView) JumpToParent() {
	n := t.SelectedNode()
	if n == nil || n.Parent() == nil || n.Parent().IsRoot() {
		return
	}
	t.SelectByID(n.Parent().ID)
}

// ExpandAll expands every node.
func (t *TreeView) ExpandAll() {
	t.setSubtreeExpanded(t.doc.Root().ID, true)
}

// CollapseAll collapses every node.
func (t *TreeView) CollapseAll() {
	t.setSubtreeExpanded(t.doc.Root().ID, false)
}

// ExpandSubtree expands the selected node and everything below it.
func (t *TreeView) ExpandSubtree() {
	if id := t.SelectedID(); id >= 0 && t.query == "" {
		t.setSubtreeExpanded(id, true)
	}
}

func (t *TreeView) setSubtreeExpanded(id int, expanded bool) {
	ids, err := t.doc.GetIDsOfExpandableDescendants(id)
	if err != nil {
		return
	}
	selected := t.SelectedID()
	for _, id := range ids {
		t.expanded[id] = expanded
	}
	t.saveState()
	t.Rebuild()
	t.selectNearest(selected)
}

// selectNearest selects id, or its closest displayed ancestor when id is
// hidden inside a collapsed subtree.
func (t *TreeView) selectNearest(id int) {
	if id < 0 || t.SelectByID(id) {
		return
	}
	ancestors, err := t.doc.GetAncestorIDs(id)
	if err != nil {
		return
	}
	for _, a := range ancestors {
		if t.SelectByID(a) {
			return
		}
	}
}

// Query returns the active search query.
func (t *TreeView) Query() string {
	return t.query
}

// Searching reports whether search rows are displayed.
func (t *TreeView) Searching() bool {
	return t.query != ""
}

// SetQuery switches to search rows for query, or back to tree rows when
// query is empty.
func (t *TreeView) SetQuery(query string) {
	if query == t.query {
		return
	}
	t.query = query
	t.cursor = 0
	t.viewportOffset = 0
	t.Rebuild()
}

// ClearSearch returns to tree rows. With reveal set, every ancestor of the
// selected search hit is expanded and the hit stays selected.
func (t *TreeView) ClearSearch(reveal bool) {
	selected := t.SelectedID()
	t.query = ""
	t.Rebuild()
	if reveal && selected >= 0 {
		t.revealAndSelect(selected)
	}
}

// Reveal expands the ancestors of id and selects it.
func (t *TreeView) Reveal(id int) bool {
	if t.query != "" {
		t.ClearSearch(false)
	}
	return t.revealAndSelect(id)
}

func (t *TreeView) revealAndSelect(id int) bool {
	ancestors, err := t.doc.GetAncestorIDs(id)
	if err != nil {
		return false
	}
	changed := false
	for _, a := range ancestors {
		if !t.IsExpanded(a) {
			t.expanded[a] = true
			changed = true
		}
	}
	if changed {
		t.saveState()
		t.Rebuild()
	}
	return t.SelectByID(id)
}

// ensureCursorVisible keeps the cursor within the rendered window.
func (t *TreeView) ensureCursorVisible() {
	visible := t.visibleCount()
	if t.cursor < t.viewportOffset {
		t.viewportOffset = t.cursor
	}
	if t.cursor >= t.viewportOffset+visible {
		t.viewportOffset = t.cursor - visible + 1
	}
	if t.viewportOffset < 0 {
		t.viewportOffset = 0
	}
}

func (t *TreeView) visibleCount() int {
	if t.height <= 0 {
		return 20
	}
	return t.height
}

// visibleRange returns the [start, end) rows to render.
func (t *TreeView) visibleRange() (start, end int) {
	if len(t.rows) == 0 {
		return 0, 0
	}
	start = t.viewportOffset
	end = start + t.visibleCount()
	if end > len(t.rows) {
		end = len(t.rows)
		start = max(end-t.visibleCount(), 0)
	}
	return start, end
}

// View renders the visible rows.
func (t *TreeView) View() string {
	if len(t.rows) == 0 {
		return t.renderEmptyState()
	}

	start, end := t.visibleRange()
	var sb strings.Builder
	for i := start; i < end; i++ {
		line := t.renderRow(i)
		if i == t.cursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *TreeView) renderEmptyState() string {
	r := t.theme.Renderer
	mutedStyle := r.NewStyle().Foreground(t.theme.Muted)
	if t.query != "" {
		return mutedStyle.Render(fmt.Sprintf("No items match %q.", t.query))
	}

	titleStyle := r.NewStyle().Foreground(t.theme.Primary).Bold(true)
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Empty outline"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Press a to add the first item."))
	return sb.String()
}

// renderRow renders a single row with tree characters and styling.
func (t *TreeView) renderRow(i int) string {
	row := t.rows[i]
	item := row.Payload
	r := t.theme.Renderer
	var sb strings.Builder

	prefix := r.NewStyle().Foreground(t.theme.Muted).Render(t.guides[i])
	sb.WriteString(prefix)

	indicatorStyle := r.NewStyle().Foreground(t.theme.Secondary)
	sb.WriteString(indicatorStyle.Render(expandIndicator(row)))
	sb.WriteString(" ")

	icon, iconColor := t.theme.GetKindIcon(item.Kind)
	if item.Kind == model.KindTask {
		icon = GetStatusIcon(item.Status)
		iconColor = t.theme.GetStatusColor(item.Status)
	}
	sb.WriteString(r.NewStyle().Foreground(iconColor).Render(icon))
	sb.WriteString(" ")

	if item.Kind == model.KindTask && item.Priority > 0 {
		prioStyle := r.NewStyle().Bold(true).Foreground(t.theme.Muted)
		if item.Priority <= 1 {
			prioStyle = prioStyle.Foreground(t.theme.Primary)
		}
		sb.WriteString(prioStyle.Render(fmt.Sprintf("P%d", item.Priority)))
		sb.WriteString(" ")
	}

	var suffix string
	if t.query != "" {
		suffix = t.breadcrumb(row.ID)
	} else if len(item.Tags) > 0 {
		suffix = "#" + strings.Join(item.Tags, " #")
	}

	avail := t.width - lipgloss.Width(sb.String()) - runewidth.StringWidth(suffix) - 1
	title := truncateTitle(row.Name, max(avail, 20))
	titleStyle := r.NewStyle()
	if item.Kind == model.KindFolder {
		titleStyle = titleStyle.Bold(true)
	}
	if item.Kind == model.KindTask && item.Status.IsDone() {
		titleStyle = titleStyle.Strikethrough(true).Foreground(t.theme.Muted)
	}
	sb.WriteString(titleStyle.Render(title))

	if suffix != "" {
		sb.WriteString(" ")
		sb.WriteString(r.NewStyle().Foreground(t.theme.Muted).Render(suffix))
	}
	return sb.String()
}

// breadcrumb names the ancestors of a search hit, outermost first.
func (t *TreeView) breadcrumb(id int) string {
	ids, err := t.doc.GetAncestorIDs(id)
	if err != nil || len(ids) == 0 {
		return ""
	}
	names := make([]string, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if n, ok := t.doc.Find(ids[i]); ok {
			names = append(names, n.Name)
		}
	}
	return "in " + strings.Join(names, " / ")
}

// expandIndicator returns the expand/collapse marker for a row.
func expandIndicator(r Row) string {
	switch {
	case !r.HasChildren:
		return "•"
	case r.Expanded:
		return "▾"
	default:
		return "▸"
	}
}

// truncateTitle shortens a title to maxWidth display cells.
func truncateTitle(title string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	return runewidth.Truncate(title, maxWidth, "…")
}
