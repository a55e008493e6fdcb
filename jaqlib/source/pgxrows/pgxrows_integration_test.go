//go:build integration

package pgxrows

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"

	"github.com/wernerfragner/jaqlib-sub001/internal/testutils"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/query"
)

func TestPostgresOrders(t *testing.T) {
	ctx := context.Background()
	pool, err := testutils.NewPgPool(ctx)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `CREATE TABLE orders_test (id uuid PRIMARY KEY, customer text, total float8, lines jsonb)`)
	require.NoError(t, err)
	defer func() {
		_, _ = pool.Exec(context.Background(), `DROP TABLE orders_test`)
	}()
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	_, err = pool.Exec(ctx, `INSERT INTO orders_test VALUES ($1, $2, 30.5, '[{"sku":"a-1","price":10.5},{"sku":"b-2","price":20}]'), ($3, $4, 0, '[]')`,
		ids[0], faker.Company().Name(), ids[1], faker.Company().Name())
	require.NoError(t, err)

	sess := quiet()
	o, rec, err := query.StandIn[*Order](sess)
	require.NoError(t, err)
	got, err := query.Select[*Order](sess).
		From(New(pool, `SELECT id, customer, total, lines FROM orders_test`)).
		Where(rec.Field(&o.Total)).IsGreaterThan(10).
		AsList(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ids[0], got[0].ID)
	assert.Equal(t, []Line{{SKU: "a-1", Price: 10.5}, {SKU: "b-2", Price: 20}}, got[0].Lines)
}
