package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/flattree/pkg/model"
)

// TabWidth is the column width a tab advances to in text outlines.
const TabWidth = 4

// decodeText parses an indented outline. The first indented line fixes the
// indent unit; every other indentation must be a multiple of it.
//
//	Groceries/
//	  [ ] Apples
//	  [x] Bread
//	    > from the corner shop
//	Ideas
//
// A trailing "/" makes a folder, "[ ]" and "[x]" make tasks, and lines
// starting with ">" append to the notes of the item above them. Leading
// "- " and "* " bullets are ignored.
//
// A title that would read as one of those markers is escaped: a leading
// backslash turns off prefix markers, and a single trailing backslash is
// dropped so a title may end in "/" or "\" without becoming a folder.
func decodeText(path string, data []byte) ([]entry, error) {
	var items []entry
	unit := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()
		content := strings.TrimSpace(raw)
		if content == "" || strings.HasPrefix(content, "#") {
			continue
		}

		if note, ok := strings.CutPrefix(content, ">"); ok {
			if len(items) == 0 {
				return nil, &ParseError{Path: path, Line: line, Err: fmt.Errorf("note before the first item")}
			}
			last := &items[len(items)-1].item
			if last.Notes != "" {
				last.Notes += "\n"
			}
			last.Notes += strings.TrimSpace(note)
			continue
		}

		width := indentWidth(raw)
		if width > 0 && unit == 0 {
			unit = width
		}
		depth := 0
		if width > 0 {
			if width%unit != 0 {
				return nil, &ParseError{Path: path, Line: line, Err: fmt.Errorf("indent of %d columns is not a multiple of %d", width, unit)}
			}
			depth = width / unit
		}

		items = append(items, entry{depth: depth, line: line, item: parseTextItem(content)})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: path, Line: line + 1, Err: err}
	}
	return items, nil
}

// indentWidth measures the display width of the leading whitespace.
func indentWidth(s string) int {
	width := 0
	for _, r := range s {
		switch {
		case r == '\t':
			width += TabWidth - width%TabWidth
		case unicode.IsSpace(r):
			width += max(runewidth.RuneWidth(r), 1)
		default:
			return width
		}
	}
	return width
}

func parseTextItem(content string) model.Item {
	escaped := strings.HasPrefix(content, `\`)
	if !escaped {
		for _, bullet := range []string{"- ", "* "} {
			if rest, ok := strings.CutPrefix(content, bullet); ok {
				content = strings.TrimSpace(rest)
				break
			}
		}
	}

	item := model.Item{Kind: model.KindNote}
	switch {
	case !escaped && strings.HasPrefix(content, "[ ] "):
		item.Kind, item.Status = model.KindTask, model.StatusOpen
		content = content[4:]
	case !escaped && (strings.HasPrefix(content, "[x] ") || strings.HasPrefix(content, "[X] ")):
		item.Kind, item.Status = model.KindTask, model.StatusDone
		content = content[4:]
	case strings.HasSuffix(content, "/") && len(content) > 1:
		item.Kind = model.KindFolder
		content = strings.TrimSuffix(content, "/")
	}
	item.Title = unescapeTitle(strings.TrimSpace(content))
	return item
}

// titleMarkers are the prefixes a title must not start with unescaped.
var titleMarkers = []string{`\`, "#", ">", "- ", "* ", "[ ] ", "[x] ", "[X] "}

// escapeTitle guards a title so parseTextItem reads it back unchanged.
func escapeTitle(title string) string {
	if title == "" {
		return `\`
	}
	for _, marker := range titleMarkers {
		if strings.HasPrefix(title, marker) {
			title = `\` + title
			break
		}
	}
	if strings.HasSuffix(title, "/") || strings.HasSuffix(title, `\`) {
		title += `\`
	}
	return title
}

func unescapeTitle(title string) string {
	title = strings.TrimPrefix(title, `\`)
	return strings.TrimSuffix(title, `\`)
}

// WriteText writes elems as an indented outline using two spaces per level.
func WriteText(w io.Writer, elems []Element) error {
	bw := bufio.NewWriter(w)
	for _, e := range skipRoot(elems) {
		indent := strings.Repeat("  ", e.Depth)
		item := e.Payload

		title := escapeTitle(item.Title)
		switch {
		case item.Kind == model.KindTask && item.Status.IsDone():
			title = "[x] " + title
		case item.Kind == model.KindTask:
			title = "[ ] " + title
		case item.Kind == model.KindFolder:
			title += "/"
		}
		fmt.Fprintf(bw, "%s%s\n", indent, title)

		if item.Notes != "" {
			for _, note := range strings.Split(item.Notes, "\n") {
				fmt.Fprintf(bw, "%s  > %s\n", indent, note)
			}
		}
	}
	return bw.Flush()
}
