package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/vanderheijden86/flattree/pkg/model"
	"github.com/vanderheijden86/flattree/pkg/tree"
)

// Outline edits. Each one is a single tree model mutation; the view is
// rebuilt afterwards and the moved or created node stays selected.

// editTarget returns the selected node and its parent, refusing while
// search rows are shown.
func (t *TreeView) editTarget() (*tree.Node[model.Item], *tree.Node[model.Item], int, error) {
	if t.query != "" {
		return nil, nil, 0, ErrSearchActive
	}
	n := t.SelectedNode()
	if n == nil {
		return nil, nil, 0, ErrNoSelection
	}
	parent := n.Parent()
	return n, parent, childIndex(parent, n), nil
}

func childIndex(parent, n *tree.Node[model.Item]) int {
	for i, c := range parent.Children() {
		if c == n {
			return i
		}
	}
	return -1
}

// Indent makes the selected node the last child of its previous sibling.
func (t *TreeView) Indent() error {
	n, parent, idx, err := t.editTarget()
	if err != nil {
		return err
	}
	if idx <= 0 {
		return ErrCannotIndent
	}
	prev := parent.Children()[idx-1]
	if err := t.doc.MoveElements(prev, prev.ChildCount(), []int{n.ID}); err != nil {
		return fmt.Errorf("indent: %w", err)
	}
	t.expanded[prev.ID] = true
	t.saveState()
	return t.afterEdit(n.ID)
}

// Outdent moves the selected node out of its parent, placing it right after
// the parent.
func (t *TreeView) Outdent() error {
	n, parent, _, err := t.editTarget()
	if err != nil {
		return err
	}
	if parent.IsRoot() {
		return ErrCannotOutdent
	}
	grand := parent.Parent()
	if err := t.doc.MoveElements(grand, childIndex(grand, parent)+1, []int{n.ID}); err != nil {
		return fmt.Errorf("outdent: %w", err)
	}
	return t.afterEdit(n.ID)
}

// MoveSiblingUp swaps the selected node with its previous sibling.
func (t *TreeView) MoveSiblingUp() error {
	n, parent, idx, err := t.editTarget()
	if err != nil {
		return err
	}
	if idx <= 0 {
		return ErrAtEdge
	}
	if err := t.doc.MoveElements(parent, idx-1, []int{n.ID}); err != nil {
		return fmt.Errorf("move up: %w", err)
	}
	return t.afterEdit(n.ID)
}

// MoveSiblingDown swaps the selected node with its next sibling.
func (t *TreeView) MoveSiblingDown() error {
	n, parent, idx, err := t.editTarget()
	if err != nil {
		return err
	}
	if idx >= parent.ChildCount()-1 {
		return ErrAtEdge
	}
	// The index is counted before the move, so skipping one sibling means
	// pointing two places further.
	if err := t.doc.MoveElements(parent, idx+2, []int{n.ID}); err != nil {
		return fmt.Errorf("move down: %w", err)
	}
	return t.afterEdit(n.ID)
}

// AddSibling inserts a new item after the selection, or at the end of the
// top level when nothing is selected.
func (t *TreeView) AddSibling(title string) error {
	item, err := newItem(title)
	if err != nil {
		return err
	}
	if t.query != "" {
		return ErrSearchActive
	}

	parent, index := t.doc.Root(), t.doc.Root().ChildCount()
	if n := t.SelectedNode(); n != nil {
		parent = n.Parent()
		index = childIndex(parent, n) + 1
	}
	added, err := t.doc.AddElement(item, parent, index)
	if err != nil {
		return fmt.Errorf("add item: %w", err)
	}
	return t.afterEdit(added.ID)
}

// AddChild appends a new item under the selection and expands it.
func (t *TreeView) AddChild(title string) error {
	item, err := newItem(title)
	if err != nil {
		return err
	}
	n, _, _, err := t.editTarget()
	if err != nil {
		return err
	}
	added, err := t.doc.AddElement(item, n, n.ChildCount())
	if err != nil {
		return fmt.Errorf("add child: %w", err)
	}
	t.expanded[n.ID] = true
	t.saveState()
	return t.afterEdit(added.ID)
}

// Delete removes the selected node and its subtree. The cursor moves to the
// row that took its place.
func (t *TreeView) Delete() error {
	n, _, _, err := t.editTarget()
	if err != nil {
		return err
	}
	if err := t.doc.RemoveElements([]int{n.ID}); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	delete(t.expanded, n.ID)
	t.Rebuild()
	return nil
}

// Rename replaces the selected item's title.
func (t *TreeView) Rename(title string) error {
	title = strings.TrimSpace(title)
	n := t.SelectedNode()
	if n == nil {
		return ErrNoSelection
	}
	item := n.Payload.Clone()
	item.Title = title
	item.Updated = time.Now().UTC()
	if err := item.Validate(); err != nil {
		return err
	}
	if err := t.doc.UpdatePayload(n.ID, item); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return t.afterEdit(n.ID)
}

// ToggleDone flips a task between done and open. Other kinds become tasks.
func (t *TreeView) ToggleDone() error {
	n := t.SelectedNode()
	if n == nil {
		return ErrNoSelection
	}
	item := n.Payload.Clone()
	switch {
	case item.Kind != model.KindTask:
		item.Kind = model.KindTask
		item.Status = model.StatusOpen
	case item.Status.IsDone():
		item.Status = model.StatusOpen
	default:
		item.Status = model.StatusDone
	}
	item.Updated = time.Now().UTC()
	if err := t.doc.UpdatePayload(n.ID, item); err != nil {
		return fmt.Errorf("toggle done: %w", err)
	}
	return t.afterEdit(n.ID)
}

// SortLevel orders the children of the selection's parent by keys.
func (t *TreeView) SortLevel(keys []tree.SortKey[model.Item]) error {
	selected := t.SelectedID()
	parentID := t.doc.Root().ID
	if n := t.SelectedNode(); n != nil && t.query == "" {
		parentID = n.Parent().ID
	}
	if err := t.doc.SortChildrenOf(parentID, keys...); err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	return t.afterEdit(selected)
}

// SortAll orders every sibling level by keys.
func (t *TreeView) SortAll(keys []tree.SortKey[model.Item]) error {
	selected := t.SelectedID()
	parents, err := t.doc.GetIDsOfExpandableDescendants(t.doc.Root().ID)
	if err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	for _, id := range parents {
		if err := t.doc.SortChildrenOf(id, keys...); err != nil {
			return fmt.Errorf("sort: %w", err)
		}
	}
	return t.afterEdit(selected)
}

func (t *TreeView) afterEdit(id int) error {
	t.Rebuild()
	if id >= 0 && !t.SelectByID(id) {
		t.revealAndSelect(id)
	}
	return nil
}

func newItem(title string) (model.Item, error) {
	item := model.NewItem(strings.TrimSpace(title))
	if err := item.Validate(); err != nil {
		return model.Item{}, err
	}
	return item, nil
}
