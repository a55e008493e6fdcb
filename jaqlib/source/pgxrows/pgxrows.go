// Package pgxrows serves pgx result sets as query sources. json and jsonb
// columns decode to documents and serve nested mappings.
package pgxrows

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/cursor"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
)

// Querier is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func New(db Querier, sql string, args ...any) *Source {
	return &Source{
		db:   db,
		sql:  sql,
		args: args,
	}
}

type Source struct {
	db   Querier
	sql  string
	args []any
}

func (s *Source) Open(ctx context.Context) (cursor.Cursor, error) {
	rows, err := s.db.Query(ctx, s.sql, s.args...)
	if err != nil {
		return nil, &faults.DataSourceQueryError{Position: s.sql, Err: err}
	}
	return NewCursor(rows, s.sql), nil
}

type Cursor struct {
	rows   pgx.Rows
	label  string
	fields []pgconn.FieldDescription
	exact  map[string]int
	folded map[string]int
	types  *pgtype.Map
	values []any
	pos    int
	closed bool
}

var _ cursor.Cursor = (*Cursor)(nil)

var fold = cases.Fold()

// NewCursor takes ownership of rows; Close closes them.
func NewCursor(rows pgx.Rows, label string) *Cursor {
	fields := rows.FieldDescriptions()
	c := &Cursor{
		rows:   rows,
		label:  label,
		fields: fields,
		exact:  make(map[string]int, len(fields)),
		folded: make(map[string]int, len(fields)),
		types:  pgtype.NewMap(),
	}
	for i, f := range fields {
		c.exact[f.Name] = i
		if _, ok := c.folded[fold.String(f.Name)]; !ok {
			c.folded[fold.String(f.Name)] = i
		}
	}
	return c
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
	values, err := c.rows.Values()
	if err != nil {
		return false, &faults.DataSourceQueryError{Position: c.Position(), Err: errors.Wrap(err, "unable to decode row")}
	}
	c.values = values
	return true, nil
}

func (c *Cursor) column(desc mapping.FieldDescriptor) (int, bool) {
	if desc.Positional() {
		return desc.Index(), desc.Index() < len(c.fields)
	}
	if i, ok := c.exact[desc.Name()]; ok {
		return i, true
	}
	i, ok := c.folded[fold.String(desc.Name())]
	return i, ok
}

// TypeName returns the PostgreSQL name of the column's type, or its OID when
// the type is not known to pgtype.
func (c *Cursor) TypeName(i int) string {
	oid := c.fields[i].DataTypeOID
	if t, ok := c.types.TypeForOID(oid); ok {
		return t.Name
	}
	return fmt.Sprintf("oid %d", oid)
}

// ReadScalar returns the decoded value of the column desc names. A declared
// type code must equal the column's type OID; a declared type name must equal
// its PostgreSQL type name.
func (c *Cursor) ReadScalar(desc mapping.FieldDescriptor) (any, bool, error) {
	i, ok := c.column(desc)
	if !ok {
		return nil, false, nil
	}
	if err := c.checkType(desc, i); err != nil {
		return nil, false, err
	}
	if i >= len(c.values) {
		return nil, false, &faults.DataSourceQueryError{Field: desc.String(), Position: c.Position(), Err: fmt.Errorf("cursor is not positioned on a row")}
	}
	return c.values[i], true, nil
}

func (c *Cursor) checkType(desc mapping.FieldDescriptor, i int) error {
	f := c.fields[i]
	switch {
	case desc.TypeCode() != 0 && uint32(desc.TypeCode()) != f.DataTypeOID:
	case desc.TypeName() != "" && !strings.EqualFold(desc.TypeName(), c.TypeName(i)):
	default:
		return nil
	}
	return &faults.DataSourceQueryError{
		Field:    desc.String(),
		Position: c.Position(),
		Err:      fmt.Errorf("column %s has type %s", f.Name, c.TypeName(i)),
	}
}

func (c *Cursor) HasField(name string) bool {
	_, ok := c.column(mapping.ByName(name))
	return ok
}

// Nested serves the document decoded from a json or jsonb column.
func (c *Cursor) Nested(source, element mapping.FieldDescriptor) (cursor.Cursor, error) {
	v, ok, err := c.ReadScalar(source)
	if err != nil {
		return nil, err
	}
	if !ok {
		return cursor.NewMaps(c.Position()+"/"+source.String(), nil), nil
	}
	sub, err := cursor.NestedMaps(c.Position()+"/"+source.String(), v, source, element)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (c *Cursor) Position() string {
	return fmt.Sprintf("%s row %d", c.label, c.pos)
}

func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.rows.Close()
	return nil
}
