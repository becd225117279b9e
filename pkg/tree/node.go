// Package tree implements a depth-indexed tree model: hierarchical data kept
// both as a flat, pre-ordered sequence of depth-tagged nodes and as an
// explicit parent/children tree rebuilt from that sequence.
//
// The flat sequence is authoritative. Its first element is a hidden root at
// depth -1; every other element has depth >= 0 and may be at most one level
// deeper than its predecessor. ListToTree and TreeToList convert between the
// two representations, and Model keeps them consistent across mutations.
package tree

// RootDepth is the depth of the hidden root element.
const RootDepth = -1

// Node is a single depth-tagged element. The parent link is a non-owning
// back reference derived by the converter; children is the only ownership
// path.
type Node[T any] struct {
	ID      int    // Unique within a model, never reused
	Depth   int    // -1 for the root, >= 0 otherwise
	Name    string // Display label
	Payload T      // Caller-owned data

	parent   *Node[T]
	children []*Node[T]
}

// NewNode creates a detached node. Parent/children links are established by
// ListToTree or by the model.
func NewNode[T any](id, depth int, name string, payload T) *Node[T] {
	return &Node[T]{ID: id, Depth: depth, Name: name, Payload: payload}
}

// Parent returns the node's parent, or nil for the root and detached nodes.
func (n *Node[T]) Parent() *Node[T] {
	return n.parent
}

// Children returns a copy of the node's children in order.
func (n *Node[T]) Children() []*Node[T] {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]*Node[T], len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of direct children.
func (n *Node[T]) ChildCount() int {
	return len(n.children)
}

// HasChildren reports whether the node has at least one child.
func (n *Node[T]) HasChildren() bool {
	return len(n.children) > 0
}

// IsRoot reports whether the node is the hidden root.
func (n *Node[T]) IsRoot() bool {
	return n.Depth == RootDepth
}

// IsAncestorOf reports whether n is a strict ancestor of other.
func (n *Node[T]) IsAncestorOf(other *Node[T]) bool {
	if other == nil {
		return false
	}
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// indexInParent returns the node's position in its parent's children, or -1.
func (n *Node[T]) indexInParent() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// detach removes n from its parent's children and clears the back reference.
func (n *Node[T]) detach() {
	if i := n.indexInParent(); i >= 0 {
		siblings := n.parent.children
		copy(siblings[i:], siblings[i+1:])
		siblings[len(siblings)-1] = nil
		n.parent.children = siblings[:len(siblings)-1]
	}
	n.parent = nil
}

// insertChildren inserts nodes into n's children at index (clamped) and
// points their parent links at n.
func (n *Node[T]) insertChildren(index int, nodes ...*Node[T]) {
	index = clamp(index, 0, len(n.children))
	grown := make([]*Node[T], 0, len(n.children)+len(nodes))
	grown = append(grown, n.children[:index]...)
	grown = append(grown, nodes...)
	grown = append(grown, n.children[index:]...)
	n.children = grown
	for _, c := range nodes {
		c.parent = n
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
