package xmltree

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/cursor"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
)

// New creates a source whose records are the elements of doc reached by path,
// for example "bank/accounts/account".
func New(doc *Node, path string) *Source {
	return &Source{doc: doc, path: path}
}

// FromFile parses the file once; every fetch walks the parsed tree.
func FromFile(name, path string) (*Source, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open xml source")
	}
	defer f.Close()
	doc, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "xml source %s", name)
	}
	return New(doc, path), nil
}

type Source struct {
	doc  *Node
	path string
}

func (s *Source) Open(ctx context.Context) (cursor.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newCursor("/"+s.doc.Name, s.doc.Select(s.path), s.relative()), nil
}

// relative drops a leading root element name so positions read "/bank/accounts/account[2]"
// whichever form the path was given in.
func (s *Source) relative() string {
	segments := split(s.path)
	if len(segments) > 1 && segments[0] == s.doc.Name && len(s.doc.descend(segments[1:])) > 0 {
		segments = segments[1:]
	}
	return strings.Join(segments, "/")
}

type Cursor struct {
	base    string
	records []*Node
	path    string
	pos     int
	closed  bool
}

var _ cursor.Cursor = (*Cursor)(nil)

func newCursor(base string, records []*Node, path string) *Cursor {
	return &Cursor{base: base, records: records, path: path, pos: -1}
}

func (c *Cursor) Advance() (bool, error) {
	if c.closed {
		return false, &faults.DataSourceQueryError{Position: c.base, Err: fmt.Errorf("cursor is closed")}
	}
	if c.pos < len(c.records) {
		c.pos++
	}
	return c.pos < len(c.records), nil
}

func (c *Cursor) current() (*Node, error) {
	if c.pos < 0 || c.pos >= len(c.records) {
		return nil, &faults.DataSourceQueryError{Position: c.Position(), Err: fmt.Errorf("cursor is not positioned on an element")}
	}
	return c.records[c.pos], nil
}

// ReadScalar returns the text of the element or attribute desc names as a
// string. Positional descriptors address child elements.
func (c *Cursor) ReadScalar(desc mapping.FieldDescriptor) (any, bool, error) {
	n, err := c.current()
	if err != nil {
		return nil, false, err
	}
	if desc.Positional() {
		child, ok := n.Child(desc.Index())
		if !ok {
			return nil, false, nil
		}
		return child.Text, true, nil
	}
	v, ok := n.Value(desc.Name())
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

func (c *Cursor) HasField(name string) bool {
	n, err := c.current()
	if err != nil {
		return false
	}
	_, ok := n.Value(name)
	return ok
}

// Nested visits the elements at source, or the elements named element below
// them when element is set.
func (c *Cursor) Nested(source, element mapping.FieldDescriptor) (cursor.Cursor, error) {
	n, err := c.current()
	if err != nil {
		return nil, err
	}
	var children []*Node
	if source.Positional() {
		if child, ok := n.Child(source.Index()); ok {
			children = []*Node{child}
		}
	} else {
		children = n.descend(split(source.Name()))
	}
	if !element.IsZero() {
		var elems []*Node
		for _, ch := range children {
			elems = append(elems, ch.descend(split(element.Name()))...)
		}
		children = elems
	}
	path := source.String()
	if !element.IsZero() {
		path += "/" + element.String()
	}
	return newCursor(c.Position(), children, path), nil
}

// Position is an XPath-like location of the current element, 1-based.
func (c *Cursor) Position() string {
	return fmt.Sprintf("%s/%s[%d]", c.base, c.path, c.pos+1)
}

func (c *Cursor) Close() error {
	c.closed = true
	return nil
}
