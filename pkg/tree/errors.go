package tree

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors returned by the converter and the model. Callers test
// them with errors.Is; the returned errors usually wrap them with the id
// that caused the failure.
var (
	// ErrStructure marks a violation of the depth/order invariants. It is a
	// data-integrity bug, not a user error.
	ErrStructure = errors.New("invalid tree structure")
	// ErrNotFound is returned when a referenced id is not in the model.
	ErrNotFound = errors.New("element not found")
	// ErrInvalidParent is returned when a nil parent is supplied.
	ErrInvalidParent = errors.New("invalid parent")
	// ErrRootRemoval is returned when the hidden root is among the removal targets.
	ErrRootRemoval = errors.New("cannot remove the root element")
	// ErrCyclicMove is returned when a move would place a node below itself.
	ErrCyclicMove = errors.New("move would create a cycle")
	// ErrReentrantMutation is returned when a mutation is attempted while
	// another one (or its change notification) is still running.
	ErrReentrantMutation = errors.New("mutation already in progress")
)

// StructureError describes the first element of a sequence that breaks the
// depth invariants.
type StructureError struct {
	Index  int    // Position in the flat sequence
	Reason string // Human-readable description
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("invalid tree structure at index %d: %s", e.Index, e.Reason)
}

// Is lets errors.Is(err, ErrStructure) match a *StructureError.
func (e *StructureError) Is(target error) bool {
	return target == ErrStructure
}

func structureErrorf(index int, format string, args ...interface{}) error {
	return &StructureError{Index: index, Reason: fmt.Sprintf(format, args...)}
}

func notFound(id int) error {
	return errors.Wrapf(ErrNotFound, "id %d", id)
}
