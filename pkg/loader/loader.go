// Package loader reads and writes outline files and keeps them in sync with
// the filesystem.
//
// Three formats are supported, picked by file extension:
//
//   - .jsonl: one JSON object per line with "id", "depth" and item fields
//   - .yaml/.yml: a document with a title and nested "items"/"children"
//   - anything else: an indented text outline, one item per line
//
// Every format decodes to a flat, pre-ordered element sequence that starts
// with a synthesized root at depth -1, ready for tree.New.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/flattree/pkg/model"
	"github.com/vanderheijden86/flattree/pkg/tree"
)

// Element is one outline entry in flat form.
type Element = tree.Element[model.Item]

// Format identifies an outline file encoding.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatText  Format = "text"
)

// FormatFor picks the format from a file name.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatText
}

// Outline is a decoded outline file.
type Outline struct {
	Path     string
	Title    string
	Elements []Element // Root first
}

// ParseError reports a malformed outline file, with the 1-based line of the
// offending entry when known.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadFile reads and decodes one outline file.
func LoadFile(path string) (*Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read outline: %w", err)
	}
	return Decode(path, FormatFor(path), data)
}

// Decode parses data in the given format. path is only used for titles and
// error messages.
func Decode(path string, format Format, data []byte) (*Outline, error) {
	var (
		title string
		items []entry
		err   error
	)
	switch format {
	case FormatJSONL:
		items, err = decodeJSONL(path, data)
	case FormatYAML:
		title, items, err = decodeYAML(path, data)
	default:
		items, err = decodeText(path, data)
	}
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = TitleFromPath(path)
	}

	elems, err := assemble(path, title, items)
	if err != nil {
		return nil, err
	}
	return &Outline{Path: path, Title: title, Elements: elems}, nil
}

// TitleFromPath derives an outline title from its file name:
// "notes/todo.outline.yaml" becomes "todo".
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

// NewModel builds a tree model over elems with item titles as node names.
func NewModel(elems []Element, opts ...tree.Option[model.Item]) (*tree.Model[model.Item], error) {
	opts = append([]tree.Option[model.Item]{tree.WithNamer(model.Item.DisplayName)}, opts...)
	m, err := tree.New(elems, opts...)
	if err != nil {
		return nil, fmt.Errorf("build outline: %w", err)
	}
	return m, nil
}

// entry is a decoded item before ids are settled.
type entry struct {
	id    int // 0 when the file did not name one
	depth int
	line  int
	item  model.Item
}

// assemble validates decoded entries, assigns missing ids and prepends the
// root.
func assemble(path, title string, items []entry) ([]Element, error) {
	used := make(map[int]int, len(items))
	maxID := 0
	for _, e := range items {
		if e.id == 0 {
			continue
		}
		if e.id < 0 {
			return nil, &ParseError{Path: path, Line: e.line, Err: fmt.Errorf("id %d must be positive", e.id)}
		}
		if first, dup := used[e.id]; dup {
			return nil, &ParseError{Path: path, Line: e.line, Err: fmt.Errorf("duplicate id %d (first on line %d)", e.id, first)}
		}
		used[e.id] = e.line
		maxID = max(maxID, e.id)
	}

	elems := make([]Element, 0, len(items)+1)
	elems = append(elems, Element{ID: 0, Depth: tree.RootDepth, Payload: model.Item{Title: title, Kind: model.KindFolder}})
	prev := tree.RootDepth
	for _, e := range items {
		if e.depth < 0 {
			return nil, &ParseError{Path: path, Line: e.line, Err: fmt.Errorf("negative depth %d", e.depth)}
		}
		if e.depth > prev+1 {
			return nil, &ParseError{Path: path, Line: e.line, Err: fmt.Errorf("depth jumps from %d to %d", prev, e.depth)}
		}
		if err := e.item.Validate(); err != nil {
			return nil, &ParseError{Path: path, Line: e.line, Err: err}
		}
		id := e.id
		if id == 0 {
			maxID++
			id = maxID
		}
		elems = append(elems, Element{ID: id, Depth: e.depth, Payload: e.item})
		prev = e.depth
	}
	return elems, nil
}

// LoadFiles decodes several files concurrently. Results keep the order of
// paths; the first failure cancels the rest.
func LoadFiles(ctx context.Context, paths []string) ([]*Outline, error) {
	outlines := make([]*Outline, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o, err := LoadFile(path)
			if err != nil {
				return err
			}
			outlines[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outlines, nil
}

// Merge combines outlines into one sequence. A single outline is returned
// as is; several become top-level folders named after their titles, with
// ids renumbered so they stay unique.
func Merge(title string, outlines []*Outline) []Element {
	if len(outlines) == 1 {
		return outlines[0].Elements
	}

	elems := []Element{{ID: 0, Depth: tree.RootDepth, Payload: model.Item{Title: title, Kind: model.KindFolder}}}
	next := 1
	for _, o := range outlines {
		folder := o.Elements[0].Payload
		folder.Title = o.Title
		folder.Kind = model.KindFolder
		elems = append(elems, Element{ID: next, Depth: 0, Payload: folder})
		next++
		for _, e := range o.Elements[1:] {
			elems = append(elems, Element{ID: next, Depth: e.Depth + 1, Name: e.Name, Payload: e.Payload})
			next++
		}
	}
	return elems
}
