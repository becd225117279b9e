package loader

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/flattree/pkg/model"
)

// yamlDocument is the top level of a .yaml outline:
//
//	title: Groceries
//	items:
//	  - title: Fruit
//	    kind: folder
//	    children:
//	      - title: Apples
type yamlDocument struct {
	Title string     `yaml:"title,omitempty"`
	Items []yamlItem `yaml:"items"`
}

type yamlItem struct {
	ID         int `yaml:"id,omitempty"`
	model.Item `yaml:",inline"`
	Children   []yamlItem `yaml:"children,omitempty"`

	line int
}

// UnmarshalYAML records the source line of each item.
func (y *yamlItem) UnmarshalYAML(value *yaml.Node) error {
	type plain yamlItem
	if err := value.Decode((*plain)(y)); err != nil {
		return err
	}
	y.line = value.Line
	return nil
}

func decodeYAML(path string, data []byte) (string, []entry, error) {
	var doc yamlDocument
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", nil, &ParseError{Path: path, Err: err}
	}

	var items []entry
	var walk func(list []yamlItem, depth int)
	walk = func(list []yamlItem, depth int) {
		for _, y := range list {
			items = append(items, entry{id: y.ID, depth: depth, line: y.line, item: y.Item})
			walk(y.Children, depth+1)
		}
	}
	walk(doc.Items, 0)
	return doc.Title, items, nil
}

// WriteYAML writes elems as a nested YAML document. The root's title becomes
// the document title.
func WriteYAML(w io.Writer, elems []Element) error {
	doc := yamlDocument{}
	if len(elems) > 0 && elems[0].Depth < 0 {
		doc.Title = elems[0].Payload.Title
	}

	// stack[d] is the slice pointer that receives items at depth d.
	stack := []*[]yamlItem{&doc.Items}
	for _, e := range skipRoot(elems) {
		if e.Depth >= len(stack) {
			return fmt.Errorf("encode id %d: depth %d has no parent", e.ID, e.Depth)
		}
		stack = stack[:e.Depth+1]
		target := stack[e.Depth]
		*target = append(*target, yamlItem{ID: e.ID, Item: e.Payload})
		added := &(*target)[len(*target)-1]
		stack = append(stack, &added.Children)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
