package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/flattree/pkg/model"
)

// Theme holds the colors and styles shared by every view.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor

	// Status colors
	Open       lipgloss.AdaptiveColor
	InProgress lipgloss.AdaptiveColor
	Blocked    lipgloss.AdaptiveColor
	Done       lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
	Match    lipgloss.Style
}

// DefaultTheme builds the theme for a renderer. Tests pass
// lipgloss.NewRenderer(nil) to get plain output.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6f42c1", Dark: "#bd93f9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#00838f", Dark: "#8be9fd"},
		Muted:     lipgloss.AdaptiveColor{Light: "#7a7a7a", Dark: "#6272a4"},
		Highlight: lipgloss.AdaptiveColor{Light: "#c2185b", Dark: "#ff79c6"},
		Border:    lipgloss.AdaptiveColor{Light: "#d0d0d0", Dark: "#44475a"},

		Open:       lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#50fa7b"},
		InProgress: lipgloss.AdaptiveColor{Light: "#f57c00", Dark: "#ffb86c"},
		Blocked:    lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ff5555"},
		Done:       lipgloss.AdaptiveColor{Light: "#9e9e9e", Dark: "#6272a4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#f8f8f2"})
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#e8e0f5", Dark: "#44475a"}).
		Bold(true)
	t.Match = r.NewStyle().Foreground(t.Highlight).Underline(true)
	return t
}

// GetKindIcon returns the icon and color for an item kind.
func (t Theme) GetKindIcon(kind model.Kind) (string, lipgloss.AdaptiveColor) {
	switch kind {
	case model.KindFolder:
		return "▣", t.Primary
	case model.KindTask:
		return "☐", t.Secondary
	default:
		return "¶", t.Muted
	}
}

// GetStatusColor returns the color for a task status.
func (t Theme) GetStatusColor(s model.Status) lipgloss.AdaptiveColor {
	switch s {
	case model.StatusInProgress:
		return t.InProgress
	case model.StatusBlocked:
		return t.Blocked
	case model.StatusDone:
		return t.Done
	default:
		return t.Open
	}
}

// GetStatusIcon returns a one-cell marker for a task status.
func GetStatusIcon(s model.Status) string {
	switch s {
	case model.StatusInProgress:
		return "◐"
	case model.StatusBlocked:
		return "✗"
	case model.StatusDone:
		return "✓"
	default:
		return "○"
	}
}
