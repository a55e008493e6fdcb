// Package memory serves in-memory sequences as query sources. Its cursors
// hand out the elements themselves, so no mapping tree is involved.
package memory

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"strings"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/cursor"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder"
)

type Source struct {
	label string
	seq   iter.Seq[any]
}

func Of[T any](items ...T) *Source {
	return FromSlice(items)
}

// FromSlice serves items. The slice is read on every fetch, so later changes
// to its elements are visible to uncached queries.
func FromSlice[T any](items []T) *Source {
	return FromSeq(func(yield func(T) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	})
}

// FromSeq serves seq. seq must be restartable for queries fetched more than
// once without caching.
func FromSeq[T any](seq iter.Seq[T]) *Source {
	return &Source{
		label: "memory(" + reflect.TypeFor[T]().String() + ")",
		seq: func(yield func(any) bool) {
			for item := range seq {
				if !yield(item) {
					return
				}
			}
		},
	}
}

func (s *Source) Open(ctx context.Context) (cursor.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	next, stop := iter.Pull(s.seq)
	return &Cursor{label: s.label, next: next, stop: stop, pos: -1}, nil
}

type Cursor struct {
	label   string
	next    func() (any, bool)
	stop    func()
	current any
	pos     int
	done    bool
	closed  bool
}

var (
	_ cursor.Cursor = (*Cursor)(nil)
	_ cursor.Direct = (*Cursor)(nil)
)

func (c *Cursor) Advance() (bool, error) {
	if c.closed {
		return false, &faults.DataSourceQueryError{Position: c.label, Err: fmt.Errorf("cursor is closed")}
	}
	if c.done {
		return false, nil
	}
	item, ok := c.next()
	if !ok {
		c.done = true
		c.current = nil
		return false, nil
	}
	c.pos++
	c.current = item
	return true, nil
}

func (c *Cursor) Current() any {
	return c.current
}

// ReadScalar reads a field of the current element; "a/b" reads through
// nested fields.
func (c *Cursor) ReadScalar(desc mapping.FieldDescriptor) (any, bool, error) {
	if desc.Positional() || !c.HasField(desc.Name()) {
		return nil, false, nil
	}
	v, err := recorder.Replay(recorder.Fields(strings.Split(desc.Name(), "/")...), c.current)
	if err != nil {
		return nil, false, &faults.DataSourceQueryError{Field: desc.String(), Position: c.Position(), Err: err}
	}
	return v, true, nil
}

func (c *Cursor) HasField(name string) bool {
	if c.current == nil || name == "" {
		return false
	}
	_, err := recorder.Replay(recorder.Fields(strings.Split(name, "/")...), c.current)
	return err == nil
}

func (c *Cursor) Nested(source, _ mapping.FieldDescriptor) (cursor.Cursor, error) {
	return nil, &faults.DataSourceQueryError{
		Field:    source.String(),
		Position: c.Position(),
		Err:      fmt.Errorf("in-memory elements are candidates already and have no nested records"),
	}
}

func (c *Cursor) Position() string {
	return fmt.Sprintf("%s[%d]", c.label, c.pos)
}

func (c *Cursor) Close() error {
	if !c.closed {
		c.closed = true
		c.stop()
	}
	return nil
}
