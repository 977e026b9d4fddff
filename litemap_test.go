package litemap_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/litemap"
	"github.com/syssam/litemap/dialect"
	dsql "github.com/syssam/litemap/dialect/sql"
	"github.com/syssam/litemap/schema"
	"github.com/syssam/litemap/schema/field"
	"github.com/syssam/litemap/schema/index"
)

// newTestClient opens an in-memory database, registers the entities and
// creates their schema. A single pooled connection keeps the in-memory
// database alive for the test's lifetime.
func newTestClient(t *testing.T, register func(r *schema.Registry)) *litemap.Client {
	t.Helper()
	drv, err := dsql.Open(dialect.SQLite, ":memory:")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)

	r := schema.NewRegistry()
	register(r)
	client := litemap.NewClient(drv, r)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.CreateSchema(context.Background()))
	return client
}

func registerOrder(t *testing.T) func(r *schema.Registry) {
	return func(r *schema.Registry) {
		require.NoError(t, r.RegisterEntity("Order", "orders", true))
		require.NoError(t, r.RegisterColumn("Order", field.Int("id").Primary().Increment().Descriptor()))
		require.NoError(t, r.RegisterColumn("Order", field.Float("total").Descriptor()))
		require.NoError(t, r.RegisterColumn("Order", field.Text("status").SQLDefault("pending").Descriptor()))
		require.NoError(t, r.RegisterColumn("Order", field.Bool("paid").Default(false).Descriptor()))
		require.NoError(t, r.RegisterIndex("Order", index.Fields("status").Descriptor()))
	}
}

func TestClientInsertDefaults(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, registerOrder(t))
	ctx := context.Background()

	res, err := client.Insert(ctx, "Order", map[string]any{"total": 9.99})
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	rows, err := client.Select(ctx, "Order", map[string]any{"id": id})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]
	// The engine filled the raw SQL default, the client the static one.
	assert.Equal(t, "pending", row["status"])
	assert.Equal(t, 9.99, row["total"])
	assert.Equal(t, false, row["paid"])
}

func TestClientBoolRoundTrip(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, registerOrder(t))
	ctx := context.Background()

	_, err := client.Insert(ctx, "Order", map[string]any{"total": 1.0, "paid": true})
	require.NoError(t, err)
	_, err = client.Insert(ctx, "Order", map[string]any{"total": 2.0, "paid": false})
	require.NoError(t, err)

	// Boolean conditions bind through the storage representation.
	rows, err := client.Select(ctx, "Order", map[string]any{"paid": true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1.0, rows[0]["total"])
	assert.Equal(t, true, rows[0]["paid"])

	n, err := client.Count(ctx, "Order", map[string]any{"paid": false})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClientUpdateDelete(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, registerOrder(t))
	ctx := context.Background()

	for _, total := range []float64{1, 2, 3} {
		_, err := client.Insert(ctx, "Order", map[string]any{"total": total})
		require.NoError(t, err)
	}

	affected, err := client.Update(ctx, "Order", map[string]any{"status": "paid"}, map[string]any{"total": 2.0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// Unknown columns are rejected before touching the engine.
	_, err = client.Update(ctx, "Order", map[string]any{"nope": 1}, map[string]any{"total": 2.0})
	require.Error(t, err)
	assert.True(t, schema.IsValidation(err))

	affected, err = client.Delete(ctx, "Order", map[string]any{"status": "pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	n, err := client.Count(ctx, "Order", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClientSelectOptions(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, registerOrder(t))
	ctx := context.Background()

	for _, total := range []float64{3, 1, 2} {
		_, err := client.Insert(ctx, "Order", map[string]any{"total": total})
		require.NoError(t, err)
	}

	rows, err := client.Select(ctx, "Order", nil,
		dsql.WithColumns("total"),
		dsql.WithOrderBy("total", true),
		dsql.WithLimit(2),
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3.0, rows[0]["total"])
	assert.Equal(t, 2.0, rows[1]["total"])
}

func TestClientUUIDGeneration(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(r *schema.Registry) {
		require.NoError(t, r.RegisterEntity("Customer", "customers", true))
		require.NoError(t, r.RegisterColumn("Customer", field.Text("id").Primary().UUID().Descriptor()))
		require.NoError(t, r.RegisterColumn("Customer", field.Text("email").Unique().Descriptor()))
	})
	ctx := context.Background()

	_, err := client.Insert(ctx, "Customer", map[string]any{"email": "a@example.com"})
	require.NoError(t, err)

	rows, err := client.Select(ctx, "Customer", map[string]any{"email": "a@example.com"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	id, ok := rows[0]["id"].(string)
	require.True(t, ok)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestClientStatementReuse(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, registerOrder(t))
	ctx := context.Background()

	for _, total := range []float64{1, 2, 3} {
		_, err := client.Insert(ctx, "Order", map[string]any{"total": total})
		require.NoError(t, err)
	}

	// Identical shapes share one prepared statement.
	assert.Equal(t, 1, client.Cache().Len())
	assert.Equal(t, int64(2), client.Cache().Hits())
	assert.Equal(t, int64(1), client.Cache().Misses())
}

func TestInTxRollsBackOnConstraint(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(r *schema.Registry) {
		require.NoError(t, r.RegisterEntity("Customer", "customers", true))
		require.NoError(t, r.RegisterColumn("Customer", field.Int("id").Primary().Increment().Descriptor()))
		require.NoError(t, r.RegisterColumn("Customer", field.Text("email").Unique().Descriptor()))
	})
	ctx := context.Background()

	insert := func(ctx context.Context, tx *litemap.Tx, email string) error {
		query, args, err := dsql.Insert("customers", map[string]any{"email": email})
		if err != nil {
			return err
		}
		return tx.Exec(ctx, query, args, nil)
	}

	err := client.InTx(ctx, nil, func(ctx context.Context, tx *litemap.Tx) error {
		if err := insert(ctx, tx, "dup@example.com"); err != nil {
			return err
		}
		return insert(ctx, tx, "dup@example.com")
	})
	require.Error(t, err)
	assert.True(t, litemap.IsConstraint(err))

	// The first insert rolled back with the second.
	n, err := client.Count(ctx, "Customer", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestInTxSavepointPartialRollback(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, registerOrder(t))
	ctx := context.Background()

	err := client.InTx(ctx, &litemap.TxOptions{Isolation: litemap.Immediate}, func(ctx context.Context, tx *litemap.Tx) error {
		query, args, err := dsql.Insert("orders", map[string]any{"total": 1.0, "paid": 0})
		if err != nil {
			return err
		}
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return err
		}
		name, err := tx.Savepoint(ctx, "")
		if err != nil {
			return err
		}
		query, args, err = dsql.Insert("orders", map[string]any{"total": 2.0, "paid": 0})
		if err != nil {
			return err
		}
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return err
		}
		return tx.RollbackToSavepoint(ctx, name)
	})
	require.NoError(t, err)

	rows, err := client.Select(ctx, "Order", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1.0, rows[0]["total"])
}

func TestCreateSchemaIdempotent(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, registerOrder(t))
	// Everything is IF NOT EXISTS; a second run is harmless.
	assert.NoError(t, client.CreateSchema(context.Background()))
}
