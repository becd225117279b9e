package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpContext selects the quick reference shown by the help screen.
type HelpContext int

const (
	HelpTree HelpContext = iota
	HelpNotes
	HelpSort
)

// ContextHelpContent holds compact help for each context. Content should fit
// on one screen (~20 lines) without scrolling.
var ContextHelpContent = map[HelpContext]string{
	HelpTree:  contextHelpTree,
	HelpNotes: contextHelpNotes,
	HelpSort:  contextHelpSort,
}

// GetContextHelp returns the help content for ctx, falling back to the tree
// reference.
func GetContextHelp(ctx HelpContext) string {
	if content, ok := ContextHelpContent[ctx]; ok {
		return content
	}
	return contextHelpTree
}

// RenderContextHelp renders the help modal for ctx.
func RenderContextHelp(ctx HelpContext, theme Theme, width int) string {
	r := theme.Renderer

	modalWidth := 60
	if modalWidth > width-4 {
		modalWidth = max(width-4, 20)
	}

	titleStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Primary)
	headingStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Highlight)
	contentStyle := r.NewStyle().
		Foreground(theme.Secondary)
	footerStyle := r.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n")
	for _, line := range strings.Split(GetContextHelp(ctx), "\n") {
		switch {
		case strings.HasPrefix(line, "## "):
			b.WriteString(titleStyle.Render(strings.TrimPrefix(line, "## ")))
		case strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**"):
			b.WriteString(headingStyle.Render(strings.Trim(line, "*")))
		default:
			b.WriteString(contentStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("Press any key to close"))

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth)

	return modalStyle.Render(b.String())
}

const contextHelpTree = `## Outline

**Navigation**
  j/k        Move down/up
  g/G        Jump to top/bottom
  Ctrl+d/u   Page down/up
  Enter      Toggle expand
  l/h        Expand or enter / collapse or parent
  p          Jump to parent
  E/C        Expand all / collapse all
  *          Expand subtree

**Editing**
  Tab        Indent / Shift+Tab outdent
  K/J        Move among siblings
  a/A        Add sibling / child
  r          Rename
  d          Delete subtree
  x          Toggle done
  s          Sort children

**Other**
  /          Search (Enter reveals, Esc returns)
  n          Notes pane
  y          Copy name
  w          Save
  q          Quit`

const contextHelpNotes = `## Notes Pane

The pane shows the selected item: kind, status,
priority, tags, creation time and notes.

**Keys**
  j/k        Move, the pane follows the selection
  n          Close the pane
  y          Copy the item name

Wide terminals show the pane beside the tree;
narrow ones show it instead of the tree.`

const contextHelpSort = `## Sort Children

**Keys**
  j/k        Pick a field
  r          Reverse the direction
  a          Sort this level or every level
  Enter      Apply
  Esc        Cancel

Natural order compares digit runs as numbers,
so "Step 2" comes before "Step 10".
Items without a priority sort last.`
