package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
)

const bankXML = `<bank>
  <accounts>
    <account id="1">
      <balance>1200.5</balance>
      <owner><name>Ann</name><city>Graz</city></owner>
      <orders><order><amount>10</amount></order><order><amount>20</amount></order></orders>
    </account>
    <account id="2">
      <balance>8000</balance>
      <owner><name>Bob</name><city>Linz</city></owner>
    </account>
    <account id="3">
      <balance>-40</balance>
      <owner><name>Cleo</name><city>Graz</city></owner>
    </account>
  </accounts>
</bank>`

const accountMapping = `record: accounts/account
fields:
  - target: ID
    source: "@id"
    type: int
  - target: Balance
    source: balance
    type: float
  - target: Owner
    source: owner
    fields:
      - {target: Name, source: name}
      - {target: City, source: city}
  - target: Orders
    source: orders
    element: order
    fields:
      - {target: Amount, source: amount, type: int}
`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func xmlFixture(t *testing.T) (doc, mapping string) {
	t.Helper()
	dir := t.TempDir()
	return write(t, dir, "bank.xml", bankXML), write(t, dir, "account.yaml", accountMapping)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQueryText(t *testing.T) {
	doc, m := xmlFixture(t)
	out, err := run(t, "query", "--input", doc, "--mapping", m, "--where", "Owner.City = Graz")
	require.NoError(t, err)

	assert.Equal(t,
		"ID=1 Balance=1200.5 Owner.Name=Ann Owner.City=Graz Orders=[2]\n"+
			"ID=3 Balance=-40 Owner.Name=Cleo Owner.City=Graz Orders=[0]\n",
		out)
}

func TestQueryShapes(t *testing.T) {
	doc, m := xmlFixture(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"count", []string{"--where", "Balance > 1000", "--count"}, "2\n"},
		{"or", []string{"--where", "Balance < 0", "--where", "Owner.Name = 'Bob'", "--any", "--count"}, "2\n"},
		{"and", []string{"-w", "Balance < 0", "-w", "Owner.Name = Bob", "--count"}, "0\n"},
		{"null check", []string{"-w", "Owner notnull", "--count"}, "3\n"},
		{"first", []string{"-w", "ID >= 2", "--first"}, "ID=2 Balance=8000 Owner.Name=Bob Owner.City=Linz Orders=[0]\n"},
		{"no match", []string{"-w", "ID > 9"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"query", "-i", doc, "-m", m}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestQueryJSON(t *testing.T) {
	doc, m := xmlFixture(t)
	out, err := run(t, "--format", "json", "query", "-i", doc, "-m", m, "-w", "ID = 1")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, 1200.5, records[0]["Balance"])
	assert.Equal(t, map[string]any{"Name": "Ann", "City": "Graz"}, records[0]["Owner"])
	assert.Len(t, records[0]["Orders"], 2)

	out, err = run(t, "--format", "json", "query", "-i", doc, "-m", m, "-w", "ID = 9")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestQueryDump(t *testing.T) {
	doc, m := xmlFixture(t)
	out, err := run(t, "--format", "dump", "query", "-i", doc, "-m", m, "-w", "ID = 2")
	require.NoError(t, err)
	assert.Contains(t, out, `Name: (string) (len=3) "Bob"`)
}

func TestQueryStrict(t *testing.T) {
	dir := t.TempDir()
	doc := write(t, dir, "bank.xml", bankXML)
	m := write(t, dir, "contact.yaml", `record: bank/accounts/account
fields:
  - {target: ID, source: "@id", type: int}
  - {target: Email, source: owner/email}
`)

	out, err := run(t, "query", "-i", doc, "-m", m, "--count")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	_, err = run(t, "--strict", "query", "-i", doc, "-m", m, "--count")
	require.ErrorIs(t, err, faults.ErrFieldMissing)

	cfg := write(t, dir, "jaq.yaml", "strict: true\nlog_level: error\n")
	_, err = run(t, "--config", cfg, "query", "-i", doc, "-m", m, "--count")
	assert.ErrorIs(t, err, faults.ErrFieldMissing)
}

func TestQuerySQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bank.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE accounts (id INTEGER PRIMARY KEY, owner TEXT, balance REAL)`)
	require.NoError(t, err)
	for i, balance := range []float64{10, 6000, 7000} {
		_, err = db.Exec(`INSERT INTO accounts VALUES (?, ?, ?)`, i+1, faker.Name().Name(), balance)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	m := write(t, dir, "account.yaml", `record: accounts
fields:
  - {target: ID, source: id, type: int}
  - {target: Owner, source: owner}
  - {target: Balance, source: balance, type: float}
`)

	out, err := run(t, "query", "--source", "sqlite", "-i", dbPath, "-m", m, "-w", "Balance > 5000", "--count")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = run(t, "query", "--source", "sqlite", "-i", dbPath, "-m", m,
		"--sql", "SELECT id, owner, balance FROM accounts WHERE id = 1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ID=1 Owner="), out)
	assert.True(t, strings.HasSuffix(out, " Balance=10\n"), out)
}

func TestQueryErrors(t *testing.T) {
	doc, m := xmlFixture(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad format", []string{"--format", "xml", "query", "-i", doc, "-m", m}, "invalid format"},
		{"missing mapping", []string{"query", "-i", doc}, "mapping"},
		{"unknown source", []string{"query", "--source", "csv", "-i", doc, "-m", m}, "unknown source"},
		{"missing input", []string{"query", "-m", m}, "--input is required"},
		{"unknown operator", []string{"query", "-i", doc, "-m", m, "-w", "ID ~ 1"}, "unknown operator"},
		{"unknown field", []string{"query", "-i", doc, "-m", m, "-w", "Email = x"}, "no such field"},
		{"bad literal", []string{"query", "-i", doc, "-m", m, "-w", "ID = one"}, "one"},
		{"collection", []string{"query", "-i", doc, "-m", m, "-w", "Orders = 1"}, "collections cannot be compared"},
		{"null with value", []string{"query", "-i", doc, "-m", m, "-w", "ID null 1"}, "takes no value"},
		{"missing value", []string{"query", "-i", doc, "-m", m, "-w", "ID ="}, "needs a value"},
		{"count and first", []string{"query", "-i", doc, "-m", m, "--count", "--first"}, "count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRecordType(t *testing.T) {
	doc, m := xmlFixture(t)
	bad := write(t, filepath.Dir(m), "bad.yaml", "fields:\n  - {target: id, source: id}\n")
	_, err := run(t, "query", "-i", doc, "-m", bad)
	require.ErrorIs(t, err, faults.ErrConfiguration)
	assert.Contains(t, err.Error(), "exported")

	bad = write(t, filepath.Dir(m), "type.yaml", "fields:\n  - {target: ID, source: id, type: decimal}\n")
	_, err = run(t, "query", "-i", doc, "-m", bad)
	assert.ErrorContains(t, err, "unknown type")
}
