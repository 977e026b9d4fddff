package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/litemap/schema"
	"github.com/syssam/litemap/schema/field"
	"github.com/syssam/litemap/schema/index"
)

func TestRegisterEntity(t *testing.T) {
	t.Parallel()

	t.Run("derives_table_name", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("OrderItem", "", true))
		e, ok := r.Entity("OrderItem")
		require.True(t, ok)
		assert.Equal(t, "order_items", e.Table)
		assert.True(t, e.Explicit)
	})

	t.Run("implicit_then_explicit", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("Order", "order_tmp", false))
		e, _ := r.Entity("Order")
		assert.False(t, e.Explicit)

		require.NoError(t, r.RegisterEntity("Order", "orders", true))
		e, _ = r.Entity("Order")
		assert.True(t, e.Explicit)
		assert.Equal(t, "orders", e.Table)
	})

	t.Run("implicit_reregistration_is_noop", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("Order", "orders", true))
		require.NoError(t, r.RegisterEntity("Order", "other", false))
		e, _ := r.Entity("Order")
		assert.Equal(t, "orders", e.Table)
		assert.True(t, e.Explicit)
	})
}

func TestRegisterEntityRenamesAutoIndexes(t *testing.T) {
	t.Parallel()

	t.Run("renames_matching_names", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("Order", "order_tmp", false))
		require.NoError(t, r.RegisterColumn("Order", field.Text("status").Descriptor()))
		require.NoError(t, r.RegisterIndex("Order", index.Fields("status").Descriptor()))
		require.NoError(t, r.RegisterIndex("Order", index.Fields("status").StorageKey("custom_status").Descriptor()))

		require.NoError(t, r.RegisterEntity("Order", "orders", true))
		e, _ := r.Entity("Order")
		names := make([]string, 0, 2)
		for _, idx := range e.Indexes() {
			names = append(names, idx.Name)
		}
		assert.Equal(t, []string{"idx_orders_status", "custom_status"}, names)

		// The old name is free again.
		require.NoError(t, r.RegisterEntity("Other", "order_tmp", true))
		require.NoError(t, r.RegisterColumn("Other", field.Text("status").Descriptor()))
		require.NoError(t, r.RegisterIndex("Other", index.Fields("status").Descriptor()))
	})

	t.Run("rename_collision_fails_without_mutation", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("Other", "orders", true))
		require.NoError(t, r.RegisterColumn("Other", field.Text("status").Descriptor()))
		require.NoError(t, r.RegisterIndex("Other", index.Fields("status").Descriptor()))

		require.NoError(t, r.RegisterEntity("Order", "order_tmp", false))
		require.NoError(t, r.RegisterColumn("Order", field.Text("status").Descriptor()))
		require.NoError(t, r.RegisterIndex("Order", index.Fields("status").Descriptor()))

		err := r.RegisterEntity("Order", "orders", true)
		require.Error(t, err)
		assert.True(t, schema.IsNameConflict(err))

		// Registry untouched: table name and index name unchanged.
		e, _ := r.Entity("Order")
		assert.Equal(t, "order_tmp", e.Table)
		assert.False(t, e.Explicit)
		assert.Equal(t, "idx_order_tmp_status", e.Indexes()[0].Name)
	})
}

func TestRegisterColumn(t *testing.T) {
	t.Parallel()

	t.Run("requires_entity", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		err := r.RegisterColumn("Missing", field.Text("name").Descriptor())
		require.Error(t, err)
		assert.True(t, schema.IsNotRegistered(err))
	})

	t.Run("preserves_declaration_order", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("Order", "orders", true))
		require.NoError(t, r.RegisterColumn("Order", field.Int("id").Primary().Descriptor()))
		require.NoError(t, r.RegisterColumn("Order", field.Float("total").Descriptor()))
		require.NoError(t, r.RegisterColumn("Order", field.Text("status").Descriptor()))

		cols, err := r.Columns("Order")
		require.NoError(t, err)
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.Name
		}
		assert.Equal(t, []string{"id", "total", "status"}, names)
	})

	t.Run("overwrite_keeps_position", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("Order", "orders", true))
		require.NoError(t, r.RegisterColumn("Order", field.Text("status").Descriptor()))
		require.NoError(t, r.RegisterColumn("Order", field.Float("total").Descriptor()))
		require.NoError(t, r.RegisterColumn("Order", field.Text("status").Unique().Descriptor()))

		cols, err := r.Columns("Order")
		require.NoError(t, err)
		require.Len(t, cols, 2)
		assert.Equal(t, "status", cols[0].Name)
		assert.True(t, cols[0].Unique)
	})

	t.Run("composite_primary_order", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("OrderItem", "order_items", true))
		require.NoError(t, r.RegisterColumn("OrderItem", field.Int("order_id").Primary().Descriptor()))
		require.NoError(t, r.RegisterColumn("OrderItem", field.Int("product_id").Primary().Descriptor()))

		primary, err := r.PrimaryColumns("OrderItem")
		require.NoError(t, err)
		require.Len(t, primary, 2)
		assert.Equal(t, "order_id", primary[0].Name)
		assert.Equal(t, "product_id", primary[1].Name)
	})

	t.Run("demoted_primary_is_removed", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("Order", "orders", true))
		require.NoError(t, r.RegisterColumn("Order", field.Int("id").Primary().Descriptor()))
		require.NoError(t, r.RegisterColumn("Order", field.Int("id").Descriptor()))

		primary, err := r.PrimaryColumns("Order")
		require.NoError(t, err)
		assert.Empty(t, primary)
	})
}

func TestRegisterIndex(t *testing.T) {
	t.Parallel()

	newEntity := func(t *testing.T) *schema.Registry {
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("Order", "orders", true))
		require.NoError(t, r.RegisterColumn("Order", field.Text("status").Descriptor()))
		require.NoError(t, r.RegisterColumn("Order", field.Int("customer").Descriptor()))
		return r
	}

	t.Run("auto_name", func(t *testing.T) {
		t.Parallel()
		r := newEntity(t)
		require.NoError(t, r.RegisterIndex("Order", index.Fields("customer", "status").Descriptor()))
		e, _ := r.Entity("Order")
		assert.Equal(t, "idx_orders_customer_status", e.Indexes()[0].Name)
	})

	t.Run("requires_entity", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		err := r.RegisterIndex("Missing", index.Fields("a").Descriptor())
		assert.True(t, schema.IsNotRegistered(err))
	})

	t.Run("duplicate_name_same_entity", func(t *testing.T) {
		t.Parallel()
		r := newEntity(t)
		require.NoError(t, r.RegisterIndex("Order", index.Fields("status").Descriptor()))
		err := r.RegisterIndex("Order", index.Fields("customer").StorageKey("idx_orders_status").Descriptor())
		assert.True(t, schema.IsNameConflict(err))
	})

	t.Run("duplicate_name_across_entities", func(t *testing.T) {
		t.Parallel()
		r := newEntity(t)
		require.NoError(t, r.RegisterIndex("Order", index.Fields("status").StorageKey("by_status").Descriptor()))
		require.NoError(t, r.RegisterEntity("Invoice", "invoices", true))
		require.NoError(t, r.RegisterColumn("Invoice", field.Text("status").Descriptor()))
		err := r.RegisterIndex("Invoice", index.Fields("status").StorageKey("by_status").Descriptor())
		assert.True(t, schema.IsNameConflict(err))
	})

	t.Run("zero_columns", func(t *testing.T) {
		t.Parallel()
		r := newEntity(t)
		err := r.RegisterIndex("Order", index.Fields().Descriptor())
		assert.True(t, schema.IsValidation(err))
	})

	t.Run("duplicate_columns", func(t *testing.T) {
		t.Parallel()
		r := newEntity(t)
		err := r.RegisterIndex("Order", index.Fields("status", "status").Descriptor())
		require.Error(t, err)
		assert.True(t, schema.IsValidation(err))
		assert.Contains(t, err.Error(), "status")
	})

	t.Run("unknown_column", func(t *testing.T) {
		t.Parallel()
		r := newEntity(t)
		err := r.RegisterIndex("Order", index.Fields("status", "missing").Descriptor())
		require.Error(t, err)
		assert.True(t, schema.IsValidation(err))
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("inherited_column_is_known", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("Base", "", false))
		require.NoError(t, r.RegisterColumn("Base", field.Text("created_by").Descriptor()))
		require.NoError(t, r.RegisterEntity("Order", "orders", true, schema.WithParent("Base")))
		require.NoError(t, r.RegisterColumn("Order", field.Text("status").Descriptor()))
		assert.NoError(t, r.RegisterIndex("Order", index.Fields("created_by").Descriptor()))
	})
}

func TestInheritance(t *testing.T) {
	t.Parallel()

	t.Run("parent_columns_resolved", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("Base", "", false))
		require.NoError(t, r.RegisterColumn("Base", field.Int("id").Primary().Increment().Descriptor()))
		require.NoError(t, r.RegisterColumn("Base", field.Text("created_at").Descriptor()))
		require.NoError(t, r.RegisterEntity("Order", "orders", true, schema.WithParent("Base")))
		require.NoError(t, r.RegisterColumn("Order", field.Float("total").Descriptor()))

		cols, err := r.Columns("Order")
		require.NoError(t, err)
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.Name
		}
		assert.Equal(t, []string{"id", "created_at", "total"}, names)

		primary, err := r.PrimaryColumns("Order")
		require.NoError(t, err)
		require.Len(t, primary, 1)
		assert.Equal(t, "id", primary[0].Name)
	})

	t.Run("child_declaration_wins", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("Base", "", false))
		require.NoError(t, r.RegisterColumn("Base", field.Text("status").Descriptor()))
		require.NoError(t, r.RegisterEntity("Order", "orders", true, schema.WithParent("Base")))
		require.NoError(t, r.RegisterColumn("Order", field.Text("status").Unique().Descriptor()))

		cols, err := r.Columns("Order")
		require.NoError(t, err)
		require.Len(t, cols, 1)
		assert.True(t, cols[0].Unique)

		// Stored parent descriptor is untouched.
		base, _ := r.Entity("Base")
		c, ok := base.Column("status")
		require.True(t, ok)
		assert.False(t, c.Unique)
	})

	t.Run("cycle_terminates", func(t *testing.T) {
		t.Parallel()
		r := schema.NewRegistry()
		require.NoError(t, r.RegisterEntity("A", "", false, schema.WithParent("B")))
		require.NoError(t, r.RegisterEntity("B", "", false, schema.WithParent("A")))
		require.NoError(t, r.RegisterColumn("A", field.Text("a").Descriptor()))
		require.NoError(t, r.RegisterColumn("B", field.Text("b").Descriptor()))

		cols, err := r.Columns("A")
		require.NoError(t, err)
		assert.Len(t, cols, 2)
	})
}

func TestExplicitEntities(t *testing.T) {
	t.Parallel()
	r := schema.NewRegistry()
	require.NoError(t, r.RegisterEntity("Base", "", false))
	require.NoError(t, r.RegisterEntity("Order", "orders", true))
	require.NoError(t, r.RegisterEntity("Invoice", "invoices", true))

	explicit := r.ExplicitEntities()
	require.Len(t, explicit, 2)
	assert.Equal(t, "Order", explicit[0].Key)
	assert.Equal(t, "Invoice", explicit[1].Key)
}

func TestClear(t *testing.T) {
	t.Parallel()
	r := schema.NewRegistry()
	require.NoError(t, r.RegisterEntity("Order", "orders", true))
	require.NoError(t, r.RegisterColumn("Order", field.Text("status").Descriptor()))
	require.NoError(t, r.RegisterIndex("Order", index.Fields("status").Descriptor()))

	r.Clear()
	_, ok := r.Entity("Order")
	assert.False(t, ok)

	// Index names are free again after a clear.
	require.NoError(t, r.RegisterEntity("Order", "orders", true))
	require.NoError(t, r.RegisterColumn("Order", field.Text("status").Descriptor()))
	assert.NoError(t, r.RegisterIndex("Order", index.Fields("status").Descriptor()))
}

func TestResolveDetached(t *testing.T) {
	t.Parallel()
	r := schema.NewRegistry()
	require.NoError(t, r.RegisterEntity("Base", "", false))
	require.NoError(t, r.RegisterColumn("Base", field.Int("id").Primary().Increment().Descriptor()))
	require.NoError(t, r.RegisterEntity("Order", "orders", true, schema.WithParent("Base")))
	require.NoError(t, r.RegisterColumn("Order", field.Float("total").Descriptor()))

	flat, err := r.Resolve("Order")
	require.NoError(t, err)
	assert.Equal(t, "orders", flat.Table)
	assert.Len(t, flat.Columns(), 2)
	require.Len(t, flat.PrimaryColumns(), 1)
	assert.Equal(t, "id", flat.PrimaryColumns()[0].Name)

	_, err = r.Resolve("Missing")
	assert.True(t, schema.IsNotRegistered(err))
}
