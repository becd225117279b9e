package ui

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"
)

// TreeState is the persisted expand/collapse state of an outline, saved to
// <state dir>/tree-state.json.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "outline": "plan.outline.txt",
//	  "expanded": {
//	    "12": true,   // explicitly expanded
//	    "40": false   // explicitly collapsed
//	  }
//	}
//
// Only explicit user changes are stored; nodes not in the map use the
// expand-depth default. A state file written for another outline, or one
// that cannot be parsed, is ignored.
type TreeState struct {
	Version  int             `json:"version"`
	Outline  string          `json:"outline,omitempty"`
	Expanded map[string]bool `json:"expanded"`
}

// TreeStateVersion is the current schema version for tree persistence
const TreeStateVersion = 1

// DefaultTreeState returns an empty state for the given outline.
func DefaultTreeState(outline string) *TreeState {
	return &TreeState{
		Version:  TreeStateVersion,
		Outline:  outline,
		Expanded: make(map[string]bool),
	}
}

const treeStateFileName = "tree-state.json"

// TreeStatePath returns the path to the tree state file in stateDir.
func TreeStatePath(stateDir string) string {
	if stateDir == "" {
		stateDir = ".flattree"
	}
	return filepath.Join(stateDir, treeStateFileName)
}

// SetStateDir enables persistence of expand/collapse state under dir for
// the named outline and applies any saved state.
func (t *TreeView) SetStateDir(dir, outline string) {
	t.stateDir = dir
	t.outline = outline
	t.loadState()
	t.Rebuild()
}

// saveState persists explicit expand/collapse overrides. Errors are logged
// but do not interrupt the user.
func (t *TreeView) saveState() {
	if t.stateDir == "" {
		return
	}

	state := DefaultTreeState(t.outline)
	for id, expanded := range t.expanded {
		if _, ok := t.doc.Find(id); !ok {
			continue
		}
		state.Expanded[strconv.Itoa(id)] = expanded
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Printf("warning: failed to marshal tree state: %v", err)
		return
	}

	path := TreeStatePath(t.stateDir)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("warning: failed to create state directory %s: %v", dir, err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("warning: failed to write tree state to %s: %v", path, err)
	}
}

// loadState restores expand/collapse overrides from disk. A missing file is
// the first run and leaves the defaults in place.
func (t *TreeView) loadState() {
	data, err := os.ReadFile(TreeStatePath(t.stateDir))
	if err != nil {
		return
	}

	var state TreeState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("warning: invalid tree state file, using defaults: %v", err)
		return
	}
	if state.Outline != t.outline {
		return
	}
	t.applyState(&state)
}

// applyState copies overrides for ids that still exist. Stale ids are
// dropped.
func (t *TreeView) applyState(state *TreeState) {
	for key, expanded := range state.Expanded {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if _, ok := t.doc.Find(id); ok {
			t.expanded[id] = expanded
		}
	}
}
