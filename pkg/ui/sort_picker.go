package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/flattree/pkg/config"
)

// SortPickerModel provides a quick sort selection modal
type SortPickerModel struct {
	fields        []string
	selectedIndex int
	descending    bool
	allLevels     bool
	width         int
	height        int
	theme         Theme
}

// NewSortPickerModel creates a picker with current preselected. An empty or
// unknown current field selects the first entry.
func NewSortPickerModel(current config.SortSpec, theme Theme) SortPickerModel {
	fields := config.SortFields()
	selectedIdx := 0
	for i, f := range fields {
		if f == current.Field {
			selectedIdx = i
			break
		}
	}
	return SortPickerModel{
		fields:        fields,
		selectedIndex: selectedIdx,
		descending:    current.Field != "" && !current.Ascending(),
		theme:         theme,
	}
}

// SetSize updates the picker dimensions
func (m *SortPickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// MoveUp moves selection up
func (m *SortPickerModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

// MoveDown moves selection down
func (m *SortPickerModel) MoveDown() {
	if m.selectedIndex < len(m.fields)-1 {
		m.selectedIndex++
	}
}

// ToggleDirection flips between ascending and descending.
func (m *SortPickerModel) ToggleDirection() {
	m.descending = !m.descending
}

// ToggleScope flips between sorting the current level and every level.
func (m *SortPickerModel) ToggleScope() {
	m.allLevels = !m.allLevels
}

// AllLevels reports whether the sort applies to the whole outline.
func (m *SortPickerModel) AllLevels() bool {
	return m.allLevels
}

// SelectedSpec returns the highlighted field and direction.
func (m *SortPickerModel) SelectedSpec() config.SortSpec {
	spec := config.SortSpec{Field: m.fields[m.selectedIndex], Direction: "asc"}
	if m.descending {
		spec.Direction = "desc"
	}
	return spec
}

// View renders the sort picker overlay
func (m *SortPickerModel) View() string {
	if m.width == 0 {
		m.width = 60
	}
	if m.height == 0 {
		m.height = 20
	}

	t := m.theme

	boxWidth := 38
	if m.width < 48 {
		boxWidth = m.width - 10
	}
	if boxWidth < 25 {
		boxWidth = 25
	}

	var lines []string

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		MarginBottom(1)
	lines = append(lines, titleStyle.Render("Sort Children"))
	lines = append(lines, "")

	for i, field := range m.fields {
		itemStyle := t.Renderer.NewStyle()
		prefix := "  "
		if i == m.selectedIndex {
			itemStyle = itemStyle.Foreground(t.Primary).Bold(true)
			prefix = "> "
		} else {
			itemStyle = itemStyle.Foreground(t.Base.GetForeground())
		}
		lines = append(lines, itemStyle.Render(prefix+formatFieldName(field)))
	}

	lines = append(lines, "")
	optStyle := t.Renderer.NewStyle().Foreground(t.Secondary)
	direction := "ascending"
	if m.descending {
		direction = "descending"
	}
	scope := "this level"
	if m.allLevels {
		scope = "all levels"
	}
	lines = append(lines, optStyle.Render("Order: "+direction+"  Scope: "+scope))

	lines = append(lines, "")
	footerStyle := t.Renderer.NewStyle().
		Foreground(t.Secondary).
		Italic(true)
	lines = append(lines, footerStyle.Render("j/k: field | r: reverse | a: scope"))
	lines = append(lines, footerStyle.Render("enter: apply | esc: cancel"))

	content := strings.Join(lines, "\n")

	boxStyle := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		boxStyle.Render(content),
	)
}

// formatFieldName capitalizes a sort field for display.
// Example: "natural" -> "Natural"
func formatFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
