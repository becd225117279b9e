package tree

import (
	"log"

	"github.com/cockroachdb/errors"
)

// Element is the inbound and outbound form of a node: a payload tagged with
// its id and depth. A slice of elements in pre-order is a flat tree.
type Element[T any] struct {
	ID      int    `json:"id" yaml:"id"`
	Depth   int    `json:"depth" yaml:"depth"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Payload T      `json:"payload" yaml:"payload"`
}

// Model owns a flat depth-tagged sequence and the tree derived from it.
// Every mutation edits the tree links, re-flattens the tree into the
// sequence and then calls the change handler.
//
// A Model is not safe for concurrent use. Mutations made from inside the
// change handler fail with ErrReentrantMutation.
type Model[T any] struct {
	list  []*Node[T]
	root  *Node[T]
	index map[int]*Node[T]
	maxID int

	namer           func(T) string
	onChange        func()
	rootName        string
	checkInvariants bool
	logger          *log.Logger

	mutating bool
	broken   error
}

// New builds a model from a flat sequence. The sequence must start with the
// root (depth -1), must not increase depth by more than one between
// neighbours, and must not repeat ids. An empty sequence produces a model
// holding only a synthesized root with id 0.
func New[T any](elements []Element[T], opts ...Option[T]) (*Model[T], error) {
	m := &Model[T]{
		rootName: "Root",
		logger:   discardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if len(elements) == 0 {
		var zero T
		m.root = NewNode(0, RootDepth, m.rootName, zero)
		m.list = []*Node[T]{m.root}
		m.reindex()
		return m, nil
	}

	list := make([]*Node[T], len(elements))
	for i, e := range elements {
		list[i] = NewNode(e.ID, e.Depth, m.nameFor(e.Payload, e.Name), e.Payload)
	}
	// Depth and id problems are reported at whichever index comes first.
	if err := firstStructureError(ValidateList(list), duplicateIDError(list)); err != nil {
		return nil, err
	}

	root, err := ListToTree(list)
	if err != nil {
		return nil, err
	}
	m.root = root
	m.list = list
	m.reindex()
	return m, nil
}

// duplicateIDError returns a *StructureError for the first repeated id.
func duplicateIDError[T any](list []*Node[T]) error {
	seen := make(map[int]int, len(list))
	for i, n := range list {
		if first, dup := seen[n.ID]; dup {
			return structureErrorf(i, "duplicate id %d (first used at index %d)", n.ID, first)
		}
		seen[n.ID] = i
	}
	return nil
}

// firstStructureError picks the error with the lowest index.
func firstStructureError(errs ...error) error {
	var first error
	firstIndex := -1
	for _, err := range errs {
		if err == nil {
			continue
		}
		index := 0
		var se *StructureError
		if errors.As(err, &se) {
			index = se.Index
		}
		if first == nil || index < firstIndex {
			first, firstIndex = err, index
		}
	}
	return first
}

// SetChangeHandler replaces the change handler.
func (m *Model[T]) SetChangeHandler(fn func()) {
	m.onChange = fn
}

// Root returns the hidden root.
func (m *Model[T]) Root() *Node[T] {
	return m.root
}

// Len returns the number of nodes, root included.
func (m *Model[T]) Len() int {
	return len(m.list)
}

// Nodes returns the flat sequence in pre-order, root first.
func (m *Model[T]) Nodes() []*Node[T] {
	out := make([]*Node[T], len(m.list))
	copy(out, m.list)
	return out
}

// Elements exports the flat sequence, root first.
func (m *Model[T]) Elements() []Element[T] {
	out := make([]Element[T], len(m.list))
	for i, n := range m.list {
		out[i] = Element[T]{ID: n.ID, Depth: n.Depth, Name: n.Name, Payload: n.Payload}
	}
	return out
}

// Find returns the node with the given id.
func (m *Model[T]) Find(id int) (*Node[T], bool) {
	n, ok := m.index[id]
	return n, ok
}

// GenerateUniqueID returns an id larger than any id the model has seen.
func (m *Model[T]) GenerateUniqueID() int {
	m.maxID++
	return m.maxID
}

// AddElement creates a node for payload under parent at insertIndex
// (clamped to the valid range) and returns it.
func (m *Model[T]) AddElement(payload T, parent *Node[T], insertIndex int) (*Node[T], error) {
	nodes, err := m.AddElements([]T{payload}, parent, insertIndex)
	if err != nil {
		return nil, err
	}
	return nodes[0], nil
}

// AddChildElement is AddElement addressed by parent id.
func (m *Model[T]) AddChildElement(payload T, parentID int, insertIndex int) (*Node[T], error) {
	parent, ok := m.index[parentID]
	if !ok {
		return nil, errors.Wrap(notFound(parentID), "add element")
	}
	return m.AddElement(payload, parent, insertIndex)
}

// AddElements creates one node per payload, inserted in order under parent
// starting at insertIndex. The sequence is re-flattened once.
func (m *Model[T]) AddElements(payloads []T, parent *Node[T], insertIndex int) ([]*Node[T], error) {
	if err := m.beginMutation(); err != nil {
		return nil, err
	}
	defer m.endMutation()

	if parent == nil {
		return nil, errors.Wrap(ErrInvalidParent, "add elements: parent is nil")
	}
	if !m.owns(parent) {
		return nil, errors.Wrap(notFound(parent.ID), "add elements")
	}
	if len(payloads) == 0 {
		return nil, nil
	}

	nodes := make([]*Node[T], len(payloads))
	for i, p := range payloads {
		nodes[i] = NewNode(m.GenerateUniqueID(), parent.Depth+1, m.nameFor(p, ""), p)
	}
	parent.insertChildren(insertIndex, nodes...)

	if err := m.commit("add"); err != nil {
		return nil, err
	}
	return nodes, nil
}

// RemoveElements removes the nodes with the given ids together with their
// subtrees. When both a node and one of its ancestors are listed, only the
// ancestor is detached.
func (m *Model[T]) RemoveElements(ids []int) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.endMutation()

	if len(ids) == 0 {
		return nil
	}
	targets, err := m.lookup(ids)
	if err != nil {
		return errors.Wrap(err, "remove elements")
	}
	for _, n := range targets {
		if n == m.root {
			return errors.Wrapf(ErrRootRemoval, "remove elements: id %d", n.ID)
		}
	}

	for _, n := range CommonAncestors(targets) {
		n.detach()
	}
	return m.commit("remove")
}

// MoveElements reparents the nodes with the given ids under newParent,
// inserting them in the given order at insertIndex.
//
// insertIndex addresses newParent's children as they are before the move.
// Moved nodes that already sit under newParent before that position are
// discounted, so dropping a node further down its own sibling list lands
// where the caller pointed. Nodes coming from other parents do not shift the
// index. When a node and one of its ancestors are both listed, only the
// ancestor moves (carrying the other along).
func (m *Model[T]) MoveElements(newParent *Node[T], insertIndex int, ids []int) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.endMutation()

	if newParent == nil {
		return errors.Wrap(ErrInvalidParent, "move elements: parent is nil")
	}
	if !m.owns(newParent) {
		return errors.Wrap(notFound(newParent.ID), "move elements")
	}
	if len(ids) == 0 {
		return nil
	}
	targets, err := m.lookup(ids)
	if err != nil {
		return errors.Wrap(err, "move elements")
	}

	moving := make(map[*Node[T]]bool, len(targets))
	for _, n := range targets {
		moving[n] = true
	}
	for p := newParent; p != nil; p = p.parent {
		if moving[p] {
			return errors.Wrapf(ErrCyclicMove, "move elements: id %d under id %d", p.ID, newParent.ID)
		}
	}

	targets = CommonAncestors(targets)
	insertIndex = clamp(insertIndex, 0, len(newParent.children))
	adjusted := insertIndex
	for _, sibling := range newParent.children[:insertIndex] {
		if moving[sibling] {
			adjusted--
		}
	}

	for _, n := range targets {
		n.detach()
	}
	newParent.insertChildren(adjusted, targets...)
	if err := UpdateDepthValues(newParent); err != nil {
		return err
	}
	return m.commit("move")
}

// UpdatePayload replaces a node's payload and re-derives its name when the
// model has a naming function.
func (m *Model[T]) UpdatePayload(id int, payload T) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.endMutation()

	n, ok := m.index[id]
	if !ok {
		return errors.Wrap(notFound(id), "update payload")
	}
	n.Payload = payload
	if m.namer != nil {
		n.Name = m.namer(payload)
	}
	return m.commit("update")
}

// Rename sets a node's display name.
func (m *Model[T]) Rename(id int, name string) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.endMutation()

	n, ok := m.index[id]
	if !ok {
		return errors.Wrap(notFound(id), "rename")
	}
	n.Name = name
	return m.commit("rename")
}

// SortChildren stably reorders the root's direct children by keys. Deeper
// levels are left untouched.
func (m *Model[T]) SortChildren(keys ...SortKey[T]) error {
	return m.SortChildrenOf(m.root.ID, keys...)
}

// SortChildrenOf stably reorders the direct children of parentID by keys.
func (m *Model[T]) SortChildrenOf(parentID int, keys ...SortKey[T]) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.endMutation()

	parent, ok := m.index[parentID]
	if !ok {
		return errors.Wrap(notFound(parentID), "sort children")
	}
	if len(keys) == 0 || len(parent.children) < 2 {
		return nil
	}
	SortNodes(parent.children, keys...)
	return m.commit("sort")
}

// GetAncestorIDs returns the ids of the node's ancestors, nearest first. The
// hidden root is not included.
func (m *Model[T]) GetAncestorIDs(id int) ([]int, error) {
	n, ok := m.index[id]
	if !ok {
		return nil, errors.Wrap(notFound(id), "ancestors")
	}
	var ids []int
	for p := n.parent; p != nil && !p.IsRoot(); p = p.parent {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// GetIDsOfExpandableDescendants returns, in pre-order, the ids of the node
// and of every descendant that has children.
func (m *Model[T]) GetIDsOfExpandableDescendants(id int) ([]int, error) {
	n, ok := m.index[id]
	if !ok {
		return nil, errors.Wrap(notFound(id), "expandable descendants")
	}
	var ids []int
	for _, d := range TreeToList(n) {
		if d.HasChildren() {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}

func (m *Model[T]) nameFor(payload T, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if m.namer != nil {
		return m.namer(payload)
	}
	return ""
}

func (m *Model[T]) owns(n *Node[T]) bool {
	found, ok := m.index[n.ID]
	return ok && found == n
}

// lookup resolves every id or fails on the first missing one.
func (m *Model[T]) lookup(ids []int) ([]*Node[T], error) {
	nodes := make([]*Node[T], 0, len(ids))
	for _, id := range ids {
		n, ok := m.index[id]
		if !ok {
			return nil, notFound(id)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (m *Model[T]) reindex() {
	m.index = make(map[int]*Node[T], len(m.list))
	for _, n := range m.list {
		m.index[n.ID] = n
		if n.ID > m.maxID {
			m.maxID = n.ID
		}
	}
}

func (m *Model[T]) beginMutation() error {
	if m.mutating {
		return ErrReentrantMutation
	}
	if m.broken != nil {
		return errors.Wrap(ErrStructure, "model is unusable after an invariant failure")
	}
	m.mutating = true
	return nil
}

func (m *Model[T]) endMutation() {
	m.mutating = false
}

// commit re-flattens the tree, rebuilds the id index, optionally verifies
// the invariants and notifies the change handler. It runs with the mutation
// guard held, so the handler cannot start another mutation.
func (m *Model[T]) commit(op string) error {
	m.list = TreeToList(m.root)
	m.reindex()

	if m.checkInvariants {
		if err := m.CheckInvariants(); err != nil {
			m.broken = err
			m.logger.Printf("tree: invariant violated after %s: %v", op, err)
			return errors.Wrapf(err, "%s", op)
		}
	}

	if m.onChange != nil {
		m.onChange()
	}
	return nil
}
