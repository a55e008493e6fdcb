package cursor

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
)

// Maps walks records held as map[string]any. Nested maps and slices of maps
// serve nested mappings; "a/b" names read through nested maps.
type Maps struct {
	records []map[string]any
	columns []string
	label   string
	pos     int
	closed  bool
}

// NewMaps creates a cursor over records. Columns, when given, define the order
// used for positional descriptors.
func NewMaps(label string, records []map[string]any, columns ...string) *Maps {
	return &Maps{
		records: records,
		columns: columns,
		label:   label,
		pos:     -1,
	}
}

func (c *Maps) Advance() (bool, error) {
	if c.closed {
		return false, &faults.DataSourceQueryError{Position: c.label, Err: fmt.Errorf("cursor is closed")}
	}
	if c.pos < len(c.records) {
		c.pos++
	}
	return c.pos < len(c.records), nil
}

func (c *Maps) current() (map[string]any, error) {
	if c.pos < 0 || c.pos >= len(c.records) {
		return nil, &faults.DataSourceQueryError{Position: c.Position(), Err: fmt.Errorf("cursor is not positioned on a record")}
	}
	return c.records[c.pos], nil
}

func (c *Maps) ReadScalar(desc mapping.FieldDescriptor) (any, bool, error) {
	rec, err := c.current()
	if err != nil {
		return nil, false, err
	}
	name := desc.Name()
	if desc.Positional() {
		if desc.Index() >= len(c.columns) {
			return nil, false, nil
		}
		name = c.columns[desc.Index()]
	}
	v, ok := lookup(rec, name)
	return v, ok, nil
}

func (c *Maps) HasField(name string) bool {
	rec, err := c.current()
	if err != nil {
		return false
	}
	_, ok := lookup(rec, name)
	return ok
}

func (c *Maps) Nested(source, element mapping.FieldDescriptor) (Cursor, error) {
	rec, err := c.current()
	if err != nil {
		return nil, err
	}
	v, _ := lookup(rec, source.Name())
	sub, err := NestedMaps(c.Position()+"/"+source.Name(), v, source, element)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// NestedMaps creates the cursor over the child records held in v, a decoded
// document value read from source. When v is a map and element is set, the
// children are looked up under element first. A nil v has no children.
func NestedMaps(label string, v any, source, element mapping.FieldDescriptor) (*Maps, error) {
	if v == nil {
		return NewMaps(label, nil), nil
	}
	if m, isMap := v.(map[string]any); isMap && !element.IsZero() {
		if inner, found := m[element.Name()]; found {
			v = inner
			label += "/" + element.Name()
		}
	}
	children, err := Records(v)
	if err != nil {
		return nil, &faults.DataSourceQueryError{Field: source.String(), Position: label, Err: err}
	}
	return NewMaps(label, children), nil
}

func (c *Maps) Position() string {
	return fmt.Sprintf("%s[%d]", c.label, c.pos)
}

func (c *Maps) Close() error {
	c.closed = true
	return nil
}

func lookup(rec map[string]any, name string) (any, bool) {
	if v, ok := rec[name]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(name, "/")
	if !found {
		return nil, false
	}
	child, ok := rec[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(child, rest)
}

// Records converts a decoded document value, a map or a slice of maps, into
// records.
func Records(v any) ([]map[string]any, error) {
	switch v := v.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []map[string]any:
		return v, nil
	case nil:
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("value of type %T holds no nested records", v)
	}
	out := make([]map[string]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		m, ok := rv.Index(i).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d of type %T is not a record", i, rv.Index(i).Interface())
		}
		out = append(out, m)
	}
	return out, nil
}
