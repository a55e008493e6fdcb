package xmltree

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/query"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/session"
)

const bank = `<?xml version="1.0"?>
<bank>
  <!-- accounts of the Graz branch -->
  <accounts>
    <account id="1">
      <balance>1200.5</balance>
      <owner><name>Ann</name><city>Graz</city></owner>
      <orders>
        <order><amount>10</amount></order>
        <order><amount>20</amount></order>
      </orders>
    </account>
    <account id="2">
      <balance>8000</balance>
      <owner><name>Bob</name><city>Linz</city></owner>
      <orders/>
    </account>
    <account id="3">
      <balance>-40</balance>
      <owner><name>Cleo</name><city>Graz</city></owner>
    </account>
  </accounts>
</bank>`

type Owner struct {
	Name string `jaq:"name"`
	City string `jaq:"city"`
}

type Order struct {
	Amount int `jaq:"amount"`
}

type Account struct {
	ID      int64   `jaq:"@id"`
	Balance float64 `jaq:"balance"`
	Owner   *Owner  `jaq:"owner"`
	Orders  []Order `jaq:"orders,element=order"`
}

func quiet(opts ...session.Option) *session.Session {
	opts = append(opts, session.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	return session.New(opts...)
}

func parse(t *testing.T) *Node {
	t.Helper()
	doc, err := ParseString(bank)
	require.NoError(t, err)
	return doc
}

func TestParse(t *testing.T) {
	doc := parse(t)
	assert.Equal(t, "bank", doc.Name)
	accounts := doc.Select("bank/accounts/account")
	require.Len(t, accounts, 3)
	assert.Equal(t, "2", accounts[1].Attrs["id"])
	assert.Len(t, doc.Select("accounts/account"), 3)

	v, ok := accounts[0].Value("owner/name")
	assert.True(t, ok)
	assert.Equal(t, "Ann", v)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"unclosed", "<a><b></a>"},
		{"two roots", "<a/><b/>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.doc)
			assert.Error(t, err)
		})
	}
}

func TestCursorReads(t *testing.T) {
	c, err := New(parse(t), "accounts/account").Open(context.Background())
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
		{"attribute", mapping.ByName("@id"), "1", true},
		{"child", mapping.ByName("balance"), "1200.5", true},
		{"path", mapping.ByName("owner/city"), "Graz", true},
		{"attribute below path", mapping.ByName("owner/@id"), nil, false},
		{"missing child", mapping.ByName("email"), nil, false},
		{"missing attribute", mapping.ByName("@kind"), nil, false},
		{"positional", mapping.ByIndex(0), "1200.5", true},
		{"positional out of range", mapping.ByIndex(9), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := c.ReadScalar(tt.desc)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, c.HasField("owner"))
	assert.False(t, c.HasField("email"))
	assert.Equal(t, "/bank/accounts/account[1]", c.Position())
}

func TestCursorNested(t *testing.T) {
	c, err := New(parse(t), "accounts/account").Open(context.Background())
	require.NoError(t, err)
	_, err = c.Advance()
	require.NoError(t, err)

	orders, err := c.Nested(mapping.ByName("orders"), mapping.ByName("order"))
	require.NoError(t, err)
	var amounts []any
	for {
		ok, err := orders.Advance()
		require.NoError(t, err)
		if !ok {
			break
		}
		v, _, err := orders.ReadScalar(mapping.ByName("amount"))
		require.NoError(t, err)
		amounts = append(amounts, v)
	}
	assert.Equal(t, []any{"10", "20"}, amounts)
	assert.Equal(t, "/bank/accounts/account[1]/orders/order[3]", orders.Position())
}

func TestCursorClosed(t *testing.T) {
	c, err := New(parse(t), "accounts/account").Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	_, err = c.Advance()
	assert.ErrorIs(t, err, faults.ErrDataSourceQuery)
}

func TestQueryOverDocument(t *testing.T) {
	sess := quiet()
	acc, rec, err := query.StandIn[*Account](sess)
	require.NoError(t, err)

	got, err := query.Select[*Account](sess).
		From(New(parse(t), "bank/accounts/account")).
		Where(rec.Field(&acc.Owner.City)).IsEqual("Graz").
		And(rec.Field(&acc.Balance)).IsGreaterThan(0).
		AsList(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, 1200.5, got[0].Balance)
	assert.Equal(t, &Owner{Name: "Ann", City: "Graz"}, got[0].Owner)
	assert.Equal(t, []Order{{Amount: 10}, {Amount: 20}}, got[0].Orders)
}

type Contact struct {
	ID    int64  `jaq:"@id"`
	Email string `jaq:"owner/email"`
}

func TestMissingCollectionIsEmpty(t *testing.T) {
	got, err := query.Select[*Account](quiet(session.WithStrict(true))).
		From(New(parse(t), "bank/accounts/account")).
		AsList(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Empty(t, got[1].Orders)
	assert.Empty(t, got[2].Orders)
}

func TestMissingField(t *testing.T) {
	src := New(parse(t), "bank/accounts/account")

	lenient, err := query.Select[*Contact](quiet()).From(src).AsList(context.Background())
	require.NoError(t, err)
	require.Len(t, lenient, 3)
	assert.Equal(t, "", lenient[2].Email)

	sess := quiet(session.WithStrict(true))
	c, rec, err := query.StandIn[*Contact](sess)
	require.NoError(t, err)
	_, err = query.Select[*Contact](sess).
		From(src).
		Where(rec.Field(&c.ID)).IsEqual(3).
		AsFirst(context.Background())
	require.ErrorIs(t, err, faults.ErrFieldMissing)
	assert.Contains(t, err.Error(), "/bank/accounts/account[1]")
}

func TestFromFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "bank.xml")
	require.NoError(t, os.WriteFile(name, []byte(bank), 0o600))

	src, err := FromFile(name, "accounts/account")
	require.NoError(t, err)
	n, err := query.Select[*Account](quiet()).From(src).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.xml"), "a")
	assert.Error(t, err)
}
