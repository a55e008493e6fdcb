package pgxrows

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/query"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/session"
)

// fakeRows replays fixed rows through the pgx.Rows interface.
type fakeRows struct {
	fields []pgconn.FieldDescription
	rows   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.pos >= len(r.rows) || (r.err != nil && r.pos == 1) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(...any) error {
	return errors.New("not supported")
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos-1], nil
}

type fakeQuerier struct {
	rows    *fakeRows
	queries []string
}

func (q *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.queries = append(q.queries, sql)
	if q.rows == nil {
		return nil, errors.New("relation does not exist")
	}
	q.rows.pos = 0
	q.rows.closed = false
	return q.rows, nil
}

type Line struct {
	SKU   string  `jaq:"sku"`
	Price float64 `jaq:"price"`
}

type Order struct {
	ID       uuid.UUID `jaq:"id"`
	Customer string    `jaq:"customer"`
	Total    float64   `jaq:"total"`
	Lines    []Line    `jaq:"lines"`
}

var orderFields = []pgconn.FieldDescription{
	{Name: "id", DataTypeOID: pgtype.UUIDOID},
	{Name: "customer", DataTypeOID: pgtype.TextOID},
	{Name: "total", DataTypeOID: pgtype.Float8OID},
	{Name: "lines", DataTypeOID: pgtype.JSONBOID},
}

func orderRows() (*fakeRows, []uuid.UUID) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	return &fakeRows{
		fields: orderFields,
		rows: [][]any{
			{[16]byte(ids[0]), faker.Company().Name(), 30.5, []any{
				map[string]any{"sku": "a-1", "price": 10.5},
				map[string]any{"sku": "b-2", "price": 20.0},
			}},
			{[16]byte(ids[1]), faker.Company().Name(), 0.0, nil},
		},
	}, ids
}

func quiet(opts ...session.Option) *session.Session {
	opts = append(opts, session.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	return session.New(opts...)
}

func TestCursorTypeChecks(t *testing.T) {
	rows, _ := orderRows()
	c := NewCursor(rows, "orders")
	ok, err := c.Advance()
	require.NoError(t, err)
	require.True(t, ok)

	tests := []struct {
		name    string
		desc    mapping.FieldDescriptor
		wantErr bool
	}{
		{"undeclared", mapping.ByName("total"), false},
		{"matching oid", mapping.ByName("total").WithType(pgtype.Float8OID, ""), false},
		{"matching name", mapping.ByName("customer").WithType(0, "TEXT"), false},
		{"wrong oid", mapping.ByName("total").WithType(pgtype.Int8OID, ""), true},
		{"wrong name", mapping.ByIndex(1).WithType(0, "int8"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found, err := c.ReadScalar(tt.desc)
			if tt.wantErr {
				require.ErrorIs(t, err, faults.ErrDataSourceQuery)
				assert.Contains(t, err.Error(), "has type")
				return
			}
			require.NoError(t, err)
			assert.True(t, found)
		})
	}

	assert.Equal(t, "jsonb", c.TypeName(3))
	assert.True(t, c.HasField("CUSTOMER"))
	assert.False(t, c.HasField("missing"))
}

func TestQueryMaterializesJSONBCollections(t *testing.T) {
	rows, ids := orderRows()
	db := &fakeQuerier{rows: rows}

	got, err := query.Select[Order](quiet(session.WithStrict(true))).
		From(New(db, "SELECT id, customer, total, lines FROM orders")).
		AsList(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[0], got[0].ID)
	assert.Equal(t, []Line{{SKU: "a-1", Price: 10.5}, {SKU: "b-2", Price: 20}}, got[0].Lines)
	assert.NotNil(t, got[1].Lines)
	assert.Empty(t, got[1].Lines)
	assert.True(t, rows.closed)
}

func TestRowErrorsSurface(t *testing.T) {
	rows, _ := orderRows()
	rows.err = errors.New("canceling statement due to user request")
	db := &fakeQuerier{rows: rows}

	_, err := query.Select[Order](quiet()).From(New(db, "SELECT * FROM orders")).Count(context.Background())
	require.ErrorIs(t, err, faults.ErrDataSourceQuery)
	assert.Contains(t, err.Error(), "canceling statement")
	assert.True(t, rows.closed)

	_, err = New(&fakeQuerier{}, "SELECT 1").Open(context.Background())
	assert.ErrorIs(t, err, faults.ErrDataSourceQuery)
}
