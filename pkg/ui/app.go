package ui

import (
	"fmt"
	"log"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/flattree/pkg/config"
	"github.com/vanderheijden86/flattree/pkg/loader"
	"github.com/vanderheijden86/flattree/pkg/model"
)

// SplitViewThreshold is the terminal width above which notes are shown
// beside the tree instead of replacing it.
const SplitViewThreshold = 100

type mode int

const (
	modeTree mode = iota
	modeSearch
	modeInput
	modeConfirmDelete
	modeSort
	modeHelp
)

type inputAction int

const (
	inputAddSibling inputAction = iota
	inputAddChild
	inputRename
)

// FileChangedMsg reports outline files modified on disk.
type FileChangedMsg struct {
	Paths []string
}

// OutlineReloadedMsg carries a freshly loaded outline.
type OutlineReloadedMsg struct {
	Outline *loader.Outline
	Err     error
}

// SavedMsg reports the result of writing the outline. Rev is the model
// revision that was written and Digest the hash of the bytes on disk.
type SavedMsg struct {
	Path   string
	Rev    int
	Digest loader.Digest
	Err    error
}

// Options configure the interactive view.
type Options struct {
	Title    string
	Path     string // File edits are saved to; empty makes the view read-only on disk
	Config   *config.Config
	StateDir string // Enables expand-state persistence when set
	Outline  string // Key for saved expand state; defaults to Path
	Watcher  *loader.Watcher
	Renderer *lipgloss.Renderer
}

// Model is the bubbletea model of the outline browser.
type Model struct {
	tree    TreeView
	theme   Theme
	title   string
	path    string
	watcher *loader.Watcher

	mode        mode
	helpReturn  mode
	search      textinput.Model
	input       textinput.Model
	inputAction inputAction
	picker      SortPickerModel
	lastSort    config.SortSpec

	notes     viewport.Model
	renderer  *glamour.TermRenderer
	showNotes bool
	notesFor  int

	// revision counts model changes; it is shared with the change handler
	// so copies of Model observe the same counter.
	revision  *int
	savedRev  int
	quitArmed bool
	// lastSave is the digest of our most recent write; a watcher event
	// for identical content is our own save and does not reload.
	lastSave loader.Digest

	status      string
	statusIsErr bool
	width       int
	height      int
	ready       bool
}

// NewModel creates the interactive view over doc.
func NewModel(doc *Doc, opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	r := opts.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	theme := DefaultTheme(r)

	tv := NewTreeView(doc, theme)
	tv.expandDepth = cfg.Tree.ExpandDepth
	tv.searchMode = cfg.Search.Mode
	if opts.StateDir != "" {
		outline := opts.Outline
		if outline == "" {
			outline = opts.Path
		}
		tv.SetStateDir(opts.StateDir, outline)
	} else {
		tv.Rebuild()
	}

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search names..."
	search.CharLimit = 120

	input := textinput.New()
	input.CharLimit = 500

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(60),
	)

	m := Model{
		tree:     tv,
		theme:    theme,
		title:    opts.Title,
		path:     opts.Path,
		watcher:  opts.Watcher,
		search:   search,
		input:    input,
		renderer: renderer,
		notesFor: -1,
		revision: new(int),
	}
	if len(cfg.Tree.Sort) > 0 {
		m.lastSort = cfg.Tree.Sort[0]
	}
	m.attach(doc)
	return m
}

// attach subscribes to change notifications of doc.
func (m *Model) attach(doc *Doc) {
	rev := m.revision
	doc.SetChangeHandler(func() { *rev++ })
}

// Dirty reports unsaved edits.
func (m Model) Dirty() bool {
	return *m.revision != m.savedRev
}

// Tree exposes the tree view.
func (m Model) Tree() *TreeView {
	return &m.tree
}

// Status returns the status line message.
func (m Model) Status() string {
	return m.status
}

func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return waitForChange(m.watcher)
	}
	return nil
}

// waitForChange blocks until the watcher reports changed files.
func waitForChange(w *loader.Watcher) tea.Cmd {
	return func() tea.Msg {
		return FileChangedMsg{Paths: <-w.Changes()}
	}
}

// reloadCmd reads the outline file again unless it still holds the bytes
// identified by skip.
func reloadCmd(path string, skip loader.Digest) tea.Cmd {
	return func() tea.Msg {
		if skip != (loader.Digest{}) {
			if sum, err := loader.FileDigest(path); err == nil && sum == skip {
				return nil
			}
		}
		outline, err := loader.LoadFile(path)
		return OutlineReloadedMsg{Outline: outline, Err: err}
	}
}

// saveCmd writes elems, taken at revision rev, to path.
func saveCmd(path string, rev int, elems []loader.Element) tea.Cmd {
	return func() tea.Msg {
		sum, err := loader.Save(path, elems)
		return SavedMsg{Path: path, Rev: rev, Digest: sum, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case FileChangedMsg:
		var cmd tea.Cmd
		switch {
		case m.path == "":
		case m.Dirty():
			m.setStatus("outline changed on disk; keeping unsaved edits", true)
		default:
			cmd = reloadCmd(m.path, m.lastSave)
		}
		if m.watcher != nil {
			cmd = tea.Batch(cmd, waitForChange(m.watcher))
		}
		return m, cmd

	case OutlineReloadedMsg:
		if msg.Err != nil {
			log.Printf("warning: reload failed: %v", msg.Err)
			m.setStatus("reload failed: "+msg.Err.Error(), true)
			return m, nil
		}
		doc, err := loader.NewModel(msg.Outline.Elements)
		if err != nil {
			m.setStatus("reload failed: "+err.Error(), true)
			return m, nil
		}
		m.attach(doc)
		m.tree.SetDoc(doc)
		m.savedRev = *m.revision
		m.lastSave = loader.Digest{}
		m.notesFor = -1
		m.updateNotes()
		m.setStatus("reloaded from disk", false)
		return m, nil

	case SavedMsg:
		if msg.Err != nil {
			log.Printf("warning: save failed: %v", msg.Err)
			m.setStatus("save failed: "+msg.Err.Error(), true)
			return m, nil
		}
		m.savedRev = msg.Rev
		m.lastSave = msg.Digest
		m.setStatus("saved "+msg.Path, false)
		return m, nil

	case tea.KeyMsg:
		var cmd tea.Cmd
		switch m.mode {
		case modeSearch:
			m, cmd = m.updateSearch(msg)
		case modeInput:
			m, cmd = m.updateInput(msg)
		case modeConfirmDelete:
			m = m.updateConfirm(msg)
		case modeSort:
			m = m.updateSort(msg)
		case modeHelp:
			m.mode = m.helpReturn
		default:
			m, cmd = m.updateTree(msg)
		}
		m.updateNotes()
		return m, cmd
	}
	return m, nil
}

func (m Model) updateTree(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()
	if key != "q" && key != "ctrl+c" {
		m.quitArmed = false
	}

	t := &m.tree
	switch key {
	case "q", "ctrl+c":
		if m.Dirty() && !m.quitArmed {
			m.quitArmed = true
			m.setStatus("unsaved changes: press q again to quit, w to save", true)
			return m, nil
		}
		return m, tea.Quit
	case "j", "down":
		t.MoveDown()
	case "k", "up":
		t.MoveUp()
	case "g", "home":
		t.JumpToTop()
	case "G", "end":
		t.JumpToBottom()
	case "ctrl+d", "pgdown":
		t.PageDown()
	case "ctrl+u", "pgup":
		t.PageUp()
	case "enter", " ":
		t.ToggleExpand()
	case "l", "right":
		t.ExpandOrMoveToChild()
	case "h", "left":
		t.CollapseOrJumpToParent()
	case "p":
		t.JumpToParent()
	case "E":
		t.ExpandAll()
	case "C":
		t.CollapseAll()
	case "*":
		t.ExpandSubtree()
	case "/":
		m.mode = modeSearch
		m.search.SetValue("")
		cmd := m.search.Focus()
		return m, cmd
	case "tab":
		m.report(t.Indent())
	case "shift+tab":
		m.report(t.Outdent())
	case "K", "shift+up":
		m.report(t.MoveSiblingUp())
	case "J", "shift+down":
		m.report(t.MoveSiblingDown())
	case "a":
		return m.startInput(inputAddSibling, "Add: ", "")
	case "A":
		if t.SelectedNode() == nil {
			return m.startInput(inputAddSibling, "Add: ", "")
		}
		return m.startInput(inputAddChild, "Add child: ", "")
	case "r", "f2":
		if n := t.SelectedNode(); n != nil {
			return m.startInput(inputRename, "Rename: ", n.Payload.Title)
		}
	case "d", "delete":
		if r, ok := t.SelectedRow(); ok {
			m.mode = modeConfirmDelete
			m.setStatus(fmt.Sprintf("delete %q and everything under it? (y/n)", r.Name), true)
		}
	case "x":
		m.report(t.ToggleDone())
	case "s":
		m.picker = NewSortPickerModel(m.lastSort, m.theme)
		m.picker.SetSize(m.width, m.height)
		m.mode = modeSort
	case "n":
		m.showNotes = !m.showNotes
		m.notesFor = -1
		m.layout()
	case "y":
		m.copySelection()
	case "w", "ctrl+s":
		cmd := m.save()
		return m, cmd
	case "?":
		m.helpReturn = modeTree
		m.mode = modeHelp
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.endSearch(false)
		return m, nil
	case "enter":
		m.endSearch(true)
		return m, nil
	case "down", "ctrl+n":
		m.tree.MoveDown()
		return m, nil
	case "up", "ctrl+p":
		m.tree.MoveUp()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.tree.SetQuery(strings.TrimSpace(m.search.Value()))
	return m, cmd
}

func (m *Model) endSearch(reveal bool) {
	m.mode = modeTree
	m.search.Blur()
	m.search.SetValue("")
	m.tree.ClearSearch(reveal)
}

func (m Model) startInput(action inputAction, prompt, value string) (Model, tea.Cmd) {
	if m.tree.Searching() && action != inputRename {
		m.report(ErrSearchActive)
		return m, nil
	}
	m.mode = modeInput
	m.inputAction = action
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeTree
		m.input.Blur()
		return m, nil
	case "enter":
		m.mode = modeTree
		m.input.Blur()
		value := m.input.Value()
		switch m.inputAction {
		case inputAddSibling:
			m.report(m.tree.AddSibling(value))
		case inputAddChild:
			m.report(m.tree.AddChild(value))
		case inputRename:
			m.report(m.tree.Rename(value))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) Model {
	m.mode = modeTree
	if msg.String() == "y" || msg.String() == "Y" {
		m.report(m.tree.Delete())
		if m.status == "" {
			m.setStatus("deleted", false)
		}
		return m
	}
	m.setStatus("", false)
	return m
}

func (m Model) updateSort(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeTree
	case "j", "down":
		m.picker.MoveDown()
	case "k", "up":
		m.picker.MoveUp()
	case "r":
		m.picker.ToggleDirection()
	case "a":
		m.picker.ToggleScope()
	case "?":
		m.helpReturn = modeSort
		m.mode = modeHelp
	case "enter":
		m.mode = modeTree
		spec := m.picker.SelectedSpec()
		m.lastSort = spec
		keys := SortKeysFor([]config.SortSpec{spec})
		var err error
		if m.picker.AllLevels() {
			err = m.tree.SortAll(keys)
		} else {
			err = m.tree.SortLevel(keys)
		}
		m.report(err)
		if err == nil {
			m.setStatus("sorted by "+spec.String(), false)
		}
	}
	return m
}

// report shows err in the status line. Tree errors never end the program.
func (m *Model) report(err error) {
	if err == nil {
		m.setStatus("", false)
		return
	}
	m.setStatus(err.Error(), true)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusIsErr = isErr
}

func (m *Model) save() tea.Cmd {
	if m.path == "" {
		m.setStatus("no file to save to", true)
		return nil
	}
	return saveCmd(m.path, *m.revision, m.tree.Doc().Elements())
}

func (m *Model) copySelection() {
	r, ok := m.tree.SelectedRow()
	if !ok {
		return
	}
	if err := clipboard.WriteAll(r.Name); err != nil {
		log.Printf("warning: clipboard copy failed: %v", err)
		m.setStatus("clipboard unavailable", true)
		return
	}
	m.setStatus("copied "+r.Name, false)
}

// layout sizes the tree and notes panes.
func (m *Model) layout() {
	bodyHeight := max(m.height-2, 1)
	treeWidth := m.width
	if m.showNotes && m.width > SplitViewThreshold {
		treeWidth = m.width * 6 / 10
		notesWidth := m.width - treeWidth - 2
		m.notes = viewport.New(notesWidth, bodyHeight)
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(notesWidth),
		)
	} else if m.showNotes {
		m.notes = viewport.New(m.width, bodyHeight)
	}
	m.tree.SetSize(treeWidth, bodyHeight)
	m.picker.SetSize(m.width, m.height)
	m.search.Width = max(m.width-4, 10)
	m.input.Width = max(m.width-14, 10)
}

// updateNotes renders the selected item's details into the notes pane.
func (m *Model) updateNotes() {
	if !m.showNotes {
		return
	}
	r, ok := m.tree.SelectedRow()
	if !ok {
		m.notes.SetContent("")
		m.notesFor = -1
		return
	}
	if r.ID == m.notesFor && !m.Dirty() {
		return
	}
	m.notesFor = r.ID

	md := itemMarkdown(r.Payload)
	if m.renderer != nil {
		if out, err := m.renderer.Render(md); err == nil {
			md = out
		}
	}
	m.notes.SetContent(md)
	m.notes.GotoTop()
}

// itemMarkdown describes an item for the notes pane.
func itemMarkdown(item model.Item) string {
	var sb strings.Builder
	sb.WriteString("# " + item.Title + "\n\n")

	var meta []string
	if item.Kind != "" {
		meta = append(meta, "**"+string(item.Kind)+"**")
	}
	if item.Kind == model.KindTask && item.Status != "" {
		meta = append(meta, strings.ReplaceAll(string(item.Status), "_", " "))
	}
	if item.Priority > 0 {
		meta = append(meta, fmt.Sprintf("`P%d`", item.Priority))
	}
	for _, tag := range item.Tags {
		meta = append(meta, "#"+tag)
	}
	if len(meta) > 0 {
		sb.WriteString(strings.Join(meta, " · ") + "\n\n")
	}
	if !item.Created.IsZero() {
		sb.WriteString("_Created " + item.Created.Format("2006-01-02 15:04") + "_\n\n")
	}
	if item.Notes != "" {
		sb.WriteString(item.Notes + "\n")
	}
	return sb.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	var body string
	switch {
	case m.mode == modeSort:
		body = m.picker.View()
	case m.mode == modeHelp:
		body = m.renderHelp()
	case m.showNotes && m.width > SplitViewThreshold:
		treeStyle := m.theme.Renderer.NewStyle().Width(m.tree.width)
		notesStyle := m.theme.Renderer.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(m.theme.Border).
			PaddingLeft(1)
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			treeStyle.Render(m.tree.View()),
			notesStyle.Render(m.notes.View()))
	case m.showNotes:
		body = m.notes.View()
	default:
		body = m.tree.View()
	}

	body = m.theme.Renderer.NewStyle().Height(max(m.height-2, 1)).MaxHeight(max(m.height-2, 1)).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	r := m.theme.Renderer
	titleStyle := r.NewStyle().Foreground(m.theme.Primary).Bold(true)
	countStyle := r.NewStyle().Foreground(m.theme.Muted)

	title := m.title
	if title == "" {
		title = "flattree"
	}
	if m.Dirty() {
		title += " *"
	}
	count := fmt.Sprintf(" %d items", m.tree.Doc().Len()-1)
	if m.tree.Searching() {
		count = fmt.Sprintf(" %d matches", m.tree.NodeCount())
	}
	return titleStyle.Render(title) + countStyle.Render(count)
}

func (m Model) renderFooter() string {
	r := m.theme.Renderer
	switch m.mode {
	case modeSearch:
		return m.search.View()
	case modeInput:
		return m.input.View()
	}
	if m.status != "" {
		style := r.NewStyle().Foreground(m.theme.Secondary)
		if m.statusIsErr {
			style = style.Foreground(m.theme.Blocked)
		}
		return style.Render(m.status)
	}
	helpStyle := r.NewStyle().Foreground(m.theme.Muted)
	return helpStyle.Render("/ search  a add  A child  r rename  d delete  tab indent  s sort  n notes  w save  ? help  q quit")
}

// helpContext picks the quick reference for the screen help was opened from.
func (m Model) helpContext() HelpContext {
	switch {
	case m.helpReturn == modeSort:
		return HelpSort
	case m.showNotes:
		return HelpNotes
	}
	return HelpTree
}

func (m Model) renderHelp() string {
	return RenderContextHelp(m.helpContext(), m.theme, m.width)
}
