// Package cursor is the contract between backends and the materializer.
//
// A Cursor is a forward-only, single-pass walk over raw records. Tree-shaped
// backends hand out sub-cursors for nested records; tabular backends report
// nested access as unsupported.
package cursor

import (
	"context"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
)

type Cursor interface {
	// Advance moves to the next record and reports whether one exists.
	Advance() (bool, error)
	// ReadScalar reads a raw value of the current record. ok is false when the
	// field does not exist, which is distinct from a present null value.
	ReadScalar(desc mapping.FieldDescriptor) (value any, ok bool, err error)
	HasField(name string) bool
	// Nested returns a cursor over the child records found at source. When
	// element is set only children with that name are visited.
	Nested(source, element mapping.FieldDescriptor) (Cursor, error)
	// Position describes the current record for error messages.
	Position() string
	// Close releases the backend resource. It is safe to call more than once.
	Close() error
}

// Source opens a fresh cursor for every fetch.
type Source interface {
	Open(ctx context.Context) (Cursor, error)
}

type SourceFunc func(ctx context.Context) (Cursor, error)

func (f SourceFunc) Open(ctx context.Context) (Cursor, error) {
	return f(ctx)
}

// Direct is implemented by cursors whose records already are candidates and
// need no materialization.
type Direct interface {
	Current() any
}
