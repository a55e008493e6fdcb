package sqlrows

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/query"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/session"
)

type Employee struct {
	ID         int64   `jaq:"id"`
	Name       string  `jaq:"name"`
	Salary     float64 `jaq:"salary"`
	Department string  `jaq:"department"`
}

type fixture struct {
	ID     int64
	Name   string
	Salary float64
}

func openDB(t *testing.T) (*sql.DB, []fixture) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE employees (id INTEGER PRIMARY KEY, name TEXT NOT NULL, salary REAL, photo BLOB)`)
	require.NoError(t, err)

	fixtures := make([]fixture, 3)
	for i := range fixtures {
		fixtures[i] = fixture{
			ID:     int64(i + 1),
			Name:   faker.Name().Name(),
			Salary: float64(1000 * (i + 1)),
		}
		_, err := db.Exec(`INSERT INTO employees (id, name, salary, photo) VALUES (?, ?, ?, ?)`,
			fixtures[i].ID, fixtures[i].Name, fixtures[i].Salary, []byte{byte(i)})
		require.NoError(t, err)
	}
	return db, fixtures
}

func quiet(opts ...session.Option) *session.Session {
	opts = append(opts, session.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	return session.New(opts...)
}

func TestCursorReadsColumns(t *testing.T) {
	db, fixtures := openDB(t)
	c, err := New(db, `SELECT id, name, salary AS Salary, photo FROM employees ORDER BY id`).Open(context.Background())
	require.NoError(t, err)
	defer c.Close()

	ok, err := c.Advance()
	require.NoError(t, err)
	require.True(t, ok)

	tests := []struct {
		name  string
		desc  mapping.FieldDescriptor
		want  any
		found bool
	}{
		{"by name", mapping.ByName("name"), fixtures[0].Name, true},
		{"case folded", mapping.ByName("NAME"), fixtures[0].Name, true},
		{"exact alias", mapping.ByName("Salary"), fixtures[0].Salary, true},
		{"by index", mapping.ByIndex(0), fixtures[0].ID, true},
		{"blob", mapping.ByName("photo"), []byte{0}, true},
		{"declared type", mapping.ByName("id").WithType(0, "integer"), fixtures[0].ID, true},
		{"missing", mapping.ByName("department"), nil, false},
		{"index out of range", mapping.ByIndex(9), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := c.ReadScalar(tt.desc)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}

	_, _, err = c.ReadScalar(mapping.ByName("name").WithType(0, "INTEGER"))
	assert.ErrorIs(t, err, faults.ErrDataSourceQuery)

	_, err = c.Nested(mapping.ByName("name"), mapping.FieldDescriptor{})
	assert.ErrorIs(t, err, faults.ErrDataSourceQuery)

	assert.Equal(t, []string{"id", "name", "Salary", "photo"}, c.(*Cursor).Columns())
	assert.Contains(t, c.Position(), "row 1")
}

func TestCloseIsIdempotent(t *testing.T) {
	db, _ := openDB(t)
	c, err := New(db, `SELECT id FROM employees`).Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	_, err = c.Advance()
	assert.ErrorIs(t, err, faults.ErrDataSourceQuery)
}

func TestOpenFailureIsDataSourceError(t *testing.T) {
	db, _ := openDB(t)
	_, err := New(db, `SELECT * FROM missing_table`).Open(context.Background())
	assert.ErrorIs(t, err, faults.ErrDataSourceQuery)
}

func TestQueryOverTable(t *testing.T) {
	db, fixtures := openDB(t)
	emp, rec, err := query.StandIn[*Employee](nil)
	require.NoError(t, err)

	got, err := query.Select[Employee](quiet()).
		From(New(db, `SELECT id, name, salary FROM employees ORDER BY id`)).
		Where(rec.Field(&emp.Salary)).IsGreaterOrEqual(2000).
		AsList(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, fixtures[1].Name, got[0].Name)
	assert.Equal(t, fixtures[2].ID, got[1].ID)
}

func TestMissingDepartmentColumn(t *testing.T) {
	db, _ := openDB(t)
	src := New(db, `SELECT id, name, salary FROM employees WHERE id = ?`, 1)

	t.Run("lenient leaves the default", func(t *testing.T) {
		got, err := query.Select[Employee](quiet()).From(src).AsUnique(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "", got.MustGet().Department)
		assert.Equal(t, int64(1), got.MustGet().ID)
	})

	t.Run("strict names the column", func(t *testing.T) {
		_, err := query.Select[Employee](quiet(session.WithStrict(true))).From(src).AsUnique(context.Background())
		require.ErrorIs(t, err, faults.ErrDataSourceQuery)
		assert.Contains(t, err.Error(), "department")
	})
}
