package tree

import (
	"github.com/cockroachdb/errors"
)

// ValidateList checks that list is a well-formed depth-tagged sequence:
// non-empty, root first at depth -1, no other negative depths, and no depth
// increase of more than one between neighbours. The returned error is a
// *StructureError naming the first offending index.
func ValidateList[T any](list []*Node[T]) error {
	if len(list) == 0 {
		return structureErrorf(0, "sequence is empty, expected at least the root")
	}
	for i, n := range list {
		if n == nil {
			return structureErrorf(i, "nil element")
		}
	}
	if list[0].Depth != RootDepth {
		return structureErrorf(0, "first element has depth %d, expected %d", list[0].Depth, RootDepth)
	}
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1].Depth, list[i].Depth
		if cur == RootDepth {
			return structureErrorf(i, "only the first element may have depth %d", RootDepth)
		}
		if cur < 0 {
			return structureErrorf(i, "negative depth %d", cur)
		}
		if cur > prev+1 {
			return structureErrorf(i, "depth jumps from %d to %d", prev, cur)
		}
	}
	return nil
}

// ListToTree links the nodes of a depth-tagged sequence into a tree and
// returns its root (the first element). Existing parent/children links on
// the nodes are overwritten.
//
// Each node adopts the following run of nodes one level deeper than itself,
// stopping at the first node that is not deeper. The scan is linear for
// typical trees and quadratic only for a root with very many direct children.
func ListToTree[T any](list []*Node[T]) (*Node[T], error) {
	if err := ValidateList(list); err != nil {
		return nil, err
	}

	for _, n := range list {
		n.parent = nil
		n.children = nil
	}

	for i, parent := range list {
		if parent.children != nil {
			continue
		}

		childCount := 0
		for j := i + 1; j < len(list); j++ {
			if list[j].Depth == parent.Depth+1 {
				childCount++
			}
			if list[j].Depth <= parent.Depth {
				break
			}
		}
		if childCount == 0 {
			continue
		}

		children := make([]*Node[T], 0, childCount)
		for j := i + 1; j < len(list); j++ {
			if list[j].Depth == parent.Depth+1 {
				list[j].parent = parent
				children = append(children, list[j])
			}
			if list[j].Depth <= parent.Depth {
				break
			}
		}
		parent.children = children
	}

	return list[0], nil
}

// TreeToList flattens the tree below root (root included) in pre-order.
// A nil root yields nil.
func TreeToList[T any](root *Node[T]) []*Node[T] {
	if root == nil {
		return nil
	}

	var result []*Node[T]
	stack := []*Node[T]{root}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, current)

		// Push back-to-front so the leftmost child is visited first.
		for i := len(current.children) - 1; i >= 0; i-- {
			stack = append(stack, current.children[i])
		}
	}
	return result
}

// UpdateDepthValues restamps the depth of every descendant of root as
// parent depth + 1, top-down. root's own depth is left as is.
func UpdateDepthValues[T any](root *Node[T]) error {
	if root == nil {
		return errors.Wrap(ErrInvalidParent, "update depth values")
	}
	if !root.HasChildren() {
		return nil
	}

	stack := []*Node[T]{root}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range current.children {
			child.Depth = current.Depth + 1
			stack = append(stack, child)
		}
	}
	return nil
}

// Descendants returns every node strictly below root in pre-order.
func Descendants[T any](root *Node[T]) []*Node[T] {
	all := TreeToList(root)
	if len(all) <= 1 {
		return nil
	}
	return all[1:]
}

// CommonAncestors reduces nodes to the members that are not descendants of
// any other member, keeping the input order and dropping duplicates.
func CommonAncestors[T any](nodes []*Node[T]) []*Node[T] {
	set := make(map[*Node[T]]bool, len(nodes))
	for _, n := range nodes {
		set[n] = true
	}

	var result []*Node[T]
	seen := make(map[*Node[T]]bool, len(nodes))
	for _, n := range nodes {
		if seen[n] {
			continue
		}
		seen[n] = true

		covered := false
		for p := n.parent; p != nil; p = p.parent {
			if set[p] {
				covered = true
				break
			}
		}
		if !covered {
			result = append(result, n)
		}
	}
	return result
}
