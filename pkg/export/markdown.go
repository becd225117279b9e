// Package export renders outline rows as Markdown and SVG documents.
package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vanderheijden86/flattree/pkg/model"
	"github.com/vanderheijden86/flattree/pkg/tree"
)

// Row is an outline row as produced by tree.Model.GetVisibleRows.
type Row = tree.Row[model.Item]

// Summary counts the rows of an export by kind and task state.
type Summary struct {
	Total   int
	Folders int
	Notes   int
	Tasks   int
	Done    int
}

// Summarize counts rows.
func Summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		s.Total++
		switch r.Payload.Kind {
		case model.KindFolder:
			s.Folders++
		case model.KindTask:
			s.Tasks++
			if r.Payload.Status.IsDone() {
				s.Done++
			}
		default:
			s.Notes++
		}
	}
	return s
}

// GenerateMarkdown renders rows as a nested Markdown list. Tasks become
// checkboxes and notes are quoted under their item.
func GenerateMarkdown(rows []Row, title string, generated time.Time) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	if !generated.IsZero() {
		sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generated.Format(time.RFC1123)))
	}

	s := Summarize(rows)
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Items**: %d\n", s.Total))
	sb.WriteString(fmt.Sprintf("- **Folders**: %d\n", s.Folders))
	sb.WriteString(fmt.Sprintf("- **Tasks**: %d (%d done)\n", s.Tasks, s.Done))
	sb.WriteString(fmt.Sprintf("- **Notes**: %d\n\n", s.Notes))

	sb.WriteString("## Outline\n\n")
	if len(rows) == 0 {
		sb.WriteString("_Empty outline._\n")
		return sb.String()
	}

	for _, r := range rows {
		indent := strings.Repeat("  ", r.Depth)
		sb.WriteString(indent + "- " + markdownLabel(r) + "\n")

		if r.Payload.Notes != "" {
			for _, line := range strings.Split(r.Payload.Notes, "\n") {
				sb.WriteString(indent + "  > " + line + "\n")
			}
		}
	}
	return sb.String()
}

func markdownLabel(r Row) string {
	item := r.Payload
	name := escapeMarkdown(r.Name)

	var label string
	switch item.Kind {
	case model.KindTask:
		box := "[ ]"
		if item.Status.IsDone() {
			box = "[x]"
		}
		label = box + " " + name
	case model.KindFolder:
		label = "**" + name + "**"
	default:
		label = name
	}

	if item.Kind == model.KindTask && item.Priority > 0 {
		label += fmt.Sprintf(" `P%d`", item.Priority)
	}
	for _, tag := range item.Tags {
		label += " #" + tag
	}
	if r.Collapsed() {
		label += " …"
	}
	return label
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// SaveMarkdownToFile writes the generated markdown to a file
func SaveMarkdownToFile(rows []Row, title, filename string) error {
	content := GenerateMarkdown(rows, title, time.Now())
	return os.WriteFile(filename, []byte(content), 0644)
}
