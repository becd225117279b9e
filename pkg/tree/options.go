package tree

import (
	"io"
	"log"
)

// Option configures a Model.
type Option[T any] func(*Model[T])

// WithNamer sets the function used to derive a node's display name from its
// payload when no explicit name is given.
func WithNamer[T any](namer func(T) string) Option[T] {
	return func(m *Model[T]) {
		m.namer = namer
	}
}

// WithChangeHandler sets the callback invoked after every successful
// mutation.
func WithChangeHandler[T any](fn func()) Option[T] {
	return func(m *Model[T]) {
		m.onChange = fn
	}
}

// WithRootName sets the name of a synthesized root (default "Root").
func WithRootName[T any](name string) Option[T] {
	return func(m *Model[T]) {
		m.rootName = name
	}
}

// WithInvariantChecks enables a full invariant check after every mutation.
// A failed check poisons the model.
func WithInvariantChecks[T any](enabled bool) Option[T] {
	return func(m *Model[T]) {
		m.checkInvariants = enabled
	}
}

// WithLogger sets the logger used to report invariant failures.
func WithLogger[T any](logger *log.Logger) Option[T] {
	return func(m *Model[T]) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
