package tree

import (
	"github.com/cockroachdb/errors"
)

// CheckInvariants verifies that the flat sequence and the tree agree:
// the sequence is well formed, ids are unique and indexed, every non-root
// node sits exactly once in its parent's children one level below it, and
// flattening the tree reproduces the sequence.
func (m *Model[T]) CheckInvariants() error {
	if err := ValidateList(m.list); err != nil {
		return err
	}
	if m.list[0] != m.root {
		return violation("first element is not the root")
	}

	if len(m.index) != len(m.list) {
		return violation("index holds %d ids for %d nodes", len(m.index), len(m.list))
	}
	for i, n := range m.list {
		if m.index[n.ID] != n {
			return violation("id %d at index %d is duplicated or not indexed", n.ID, i)
		}
		if n.ID > m.maxID {
			return violation("id %d exceeds the id counter %d", n.ID, m.maxID)
		}
		if n == m.root {
			if n.parent != nil {
				return violation("root has a parent")
			}
			continue
		}
		if n.parent == nil {
			return violation("id %d has no parent", n.ID)
		}
		if n.Depth != n.parent.Depth+1 {
			return violation("id %d has depth %d under parent depth %d", n.ID, n.Depth, n.parent.Depth)
		}
		count := 0
		for _, c := range n.parent.children {
			if c == n {
				count++
			}
		}
		if count != 1 {
			return violation("id %d appears %d times in its parent's children", n.ID, count)
		}
	}

	flat := TreeToList(m.root)
	if len(flat) != len(m.list) {
		return violation("tree flattens to %d nodes, sequence has %d", len(flat), len(m.list))
	}
	for i := range flat {
		if flat[i] != m.list[i] {
			return violation("tree order differs from the sequence at index %d", i)
		}
	}
	return nil
}

func violation(format string, args ...interface{}) error {
	return errors.Mark(errors.AssertionFailedf(format, args...), ErrStructure)
}
