package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/flattree/pkg/model"
)

// jsonlRecord is one line of a .jsonl outline.
type jsonlRecord struct {
	ID    int `json:"id,omitempty"`
	Depth int `json:"depth"`
	model.Item
}

const maxJSONLLine = 4 * 1024 * 1024

func decodeJSONL(path string, data []byte) ([]entry, error) {
	var items []entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		var rec jsonlRecord
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
		items = append(items, entry{id: rec.ID, depth: rec.Depth, line: line, item: rec.Item})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: path, Line: line + 1, Err: err}
	}
	return items, nil
}

// WriteJSONL writes every element below the root as one JSON line.
func WriteJSONL(w io.Writer, elems []Element) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, e := range skipRoot(elems) {
		if err := enc.Encode(jsonlRecord{ID: e.ID, Depth: e.Depth, Item: e.Payload}); err != nil {
			return fmt.Errorf("encode id %d: %w", e.ID, err)
		}
	}
	return bw.Flush()
}

func skipRoot(elems []Element) []Element {
	if len(elems) > 0 && elems[0].Depth < 0 {
		return elems[1:]
	}
	return elems
}
