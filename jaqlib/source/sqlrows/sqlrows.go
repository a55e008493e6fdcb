// Package sqlrows serves database/sql result sets as query sources.
package sqlrows

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/cursor"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
)

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// New creates a source running query on every fetch.
func New(db Querier, query string, args ...any) *Source {
	return &Source{
		db:    db,
		query: query,
		args:  args,
	}
}

type Source struct {
	db    Querier
	query string
	args  []any
}

func (s *Source) Open(ctx context.Context) (cursor.Cursor, error) {
	rows, err := s.db.QueryContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, &faults.DataSourceQueryError{Position: s.query, Err: err}
	}
	c, err := NewCursor(rows, s.query)
	if err != nil {
		rows.Close()
		return nil, err
	}
	return c, nil
}

// Cursor reads the rows of one result set. Column names match
// case-insensitively when no exact match exists.
type Cursor struct {
	rows    *sql.Rows
	label   string
	columns []*sql.ColumnType
	exact   map[string]int
	folded  map[string]int
	values  []any
	pos     int
	closed  bool
}

var _ cursor.Cursor = (*Cursor)(nil)

var fold = cases.Fold()

// NewCursor takes ownership of rows; Close closes them.
func NewCursor(rows *sql.Rows, label string) (*Cursor, error) {
	columns, err := rows.ColumnTypes()
	if err != nil {
		return nil, &faults.DataSourceQueryError{Position: label, Err: errors.Wrap(err, "unable to read column types")}
	}
	c := &Cursor{
		rows:    rows,
		label:   label,
		columns: columns,
		exact:   make(map[string]int, len(columns)),
		folded:  make(map[string]int, len(columns)),
		values:  make([]any, len(columns)),
	}
	for i, col := range columns {
		c.exact[col.Name()] = i
		if _, ok := c.folded[fold.String(col.Name())]; !ok {
			c.folded[fold.String(col.Name())] = i
		}
	}
	return c, nil
}

func (c *Cursor) Advance() (bool, error) {
	if c.closed {
		return false, &faults.DataSourceQueryError{Position: c.Position(), Err: fmt.Errorf("cursor is closed")}
	}
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return false, &faults.DataSourceQueryError{Position: c.Position(), Err: err}
		}
		return false, nil
	}
	c.pos++
	dest := make([]any, len(c.values))
	for i := range c.values {
		c.values[i] = nil
		dest[i] = &c.values[i]
	}
	if err := c.rows.Scan(dest...); err != nil {
		return false, &faults.DataSourceQueryError{Position: c.Position(), Err: errors.Wrap(err, "unable to scan row")}
	}
	return true, nil
}

func (c *Cursor) column(desc mapping.FieldDescriptor) (int, bool) {
	if desc.Positional() {
		return desc.Index(), desc.Index() < len(c.columns)
	}
	if i, ok := c.exact[desc.Name()]; ok {
		return i, true
	}
	i, ok := c.folded[fold.String(desc.Name())]
	return i, ok
}

// ReadScalar returns the scanned value of the column desc names. A declared
// type name must match the column's database type name.
func (c *Cursor) ReadScalar(desc mapping.FieldDescriptor) (any, bool, error) {
	i, ok := c.column(desc)
	if !ok {
		return nil, false, nil
	}
	if want := desc.TypeName(); want != "" {
		if got := c.columns[i].DatabaseTypeName(); got != "" && !strings.EqualFold(got, want) {
			return nil, false, &faults.DataSourceQueryError{
				Field:    desc.String(),
				Position: c.Position(),
				Err:      fmt.Errorf("column %s has type %s", c.columns[i].Name(), got),
			}
		}
	}
	return c.values[i], true, nil
}

func (c *Cursor) HasField(name string) bool {
	_, ok := c.column(mapping.ByName(name))
	return ok
}

func (c *Cursor) Nested(source, _ mapping.FieldDescriptor) (cursor.Cursor, error) {
	return nil, &faults.DataSourceQueryError{
		Field:    source.String(),
		Position: c.Position(),
		Err:      fmt.Errorf("tabular rows have no nested records"),
	}
}

func (c *Cursor) Position() string {
	return fmt.Sprintf("%s row %d", c.label, c.pos)
}

// Columns returns the result set's column names in order.
func (c *Cursor) Columns() []string {
	names := make([]string, len(c.columns))
	for i, col := range c.columns {
		names[i] = col.Name()
	}
	return names
}

func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}
