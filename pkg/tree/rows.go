package tree

import (
	"strings"
)

// Row is one displayable line handed to a renderer.
type Row[T any] struct {
	ID          int
	Depth       int
	Name        string
	Payload     T
	HasChildren bool // The node has children, shown or not
	Expanded    bool // The node's children follow this row
}

// Collapsed reports whether the row stands in for hidden children.
func (r Row[T]) Collapsed() bool {
	return r.HasChildren && !r.Expanded
}

// RowOptions selects how rows are produced.
type RowOptions[T any] struct {
	// IsExpanded decides whether a node's children are shown in tree mode.
	// Nil shows everything.
	IsExpanded func(id int) bool

	// Query switches to search mode when non-empty.
	Query string

	// Match tests a node name against the query in search mode. Nil means a
	// case-insensitive substring match.
	Match func(name, query string) bool

	// SortKeys orders search results. Nil means natural name order.
	SortKeys []SortKey[T]

	// Unsorted keeps search results in tree order.
	Unsorted bool
}

// GetVisibleRows returns the rows to display: the expanded tree when query is
// empty, otherwise a flat, sorted list of nodes whose names contain query.
func (m *Model[T]) GetVisibleRows(isExpanded func(id int) bool, query string) []Row[T] {
	return m.BuildRows(RowOptions[T]{IsExpanded: isExpanded, Query: query})
}

// BuildRows is GetVisibleRows with full control over matching and ordering.
func (m *Model[T]) BuildRows(opts RowOptions[T]) []Row[T] {
	if opts.Query != "" {
		return m.searchRows(opts)
	}
	return m.expandedRows(opts.IsExpanded)
}

// expandedRows walks the tree in pre-order from depth 0, descending only
// into expanded nodes.
func (m *Model[T]) expandedRows(isExpanded func(id int) bool) []Row[T] {
	rows := make([]Row[T], 0, len(m.list))

	stack := make([]*Node[T], 0, len(m.root.children))
	for i := len(m.root.children) - 1; i >= 0; i-- {
		stack = append(stack, m.root.children[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		expanded := n.HasChildren() && (isExpanded == nil || isExpanded(n.ID))
		rows = append(rows, rowFor(n, n.Depth, expanded))
		if !expanded {
			continue
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return rows
}

// searchRows scans every node below the root and returns the matches at
// depth 0. Search results are never expanded.
func (m *Model[T]) searchRows(opts RowOptions[T]) []Row[T] {
	match := opts.Match
	if match == nil {
		match = ContainsFold
	}

	var hits []*Node[T]
	for _, n := range Descendants(m.root) {
		if match(n.Name, opts.Query) {
			hits = append(hits, n)
		}
	}

	if !opts.Unsorted {
		keys := opts.SortKeys
		if keys == nil {
			keys = []SortKey[T]{ByNaturalName[T](true)}
		}
		SortNodes(hits, keys...)
	}

	rows := make([]Row[T], len(hits))
	for i, n := range hits {
		rows[i] = rowFor(n, 0, false)
	}
	return rows
}

func rowFor[T any](n *Node[T], depth int, expanded bool) Row[T] {
	return Row[T]{
		ID:          n.ID,
		Depth:       depth,
		Name:        n.Name,
		Payload:     n.Payload,
		HasChildren: n.HasChildren(),
		Expanded:    expanded,
	}
}

// ContainsFold reports whether substr occurs in s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
