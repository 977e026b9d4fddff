// Package schema holds the metadata registry: the single source of
// truth for declared record shapes.
//
// Entities are registered once at startup, either directly through
// Registry.RegisterEntity/RegisterColumn/RegisterIndex or through the
// fluent builders in schema/field and schema/index:
//
//	r := schema.NewRegistry()
//	r.RegisterEntity("Order", "orders", true)
//	r.RegisterColumn("Order", field.Int("id").Primary().Increment().Descriptor())
//	r.RegisterColumn("Order", field.Float("total").Descriptor())
//	r.RegisterColumn("Order", field.Text("status").SQLDefault("pending").Descriptor())
//	r.RegisterIndex("Order", index.Fields("status").Descriptor())
//
// Only explicitly registered entities own a physical table. An entity
// registered with explicit=false contributes columns to its subtypes
// (via the parent link) but generates no DDL.
//
// Index names are unique across the whole registry, not per entity,
// because the underlying engine enforces index-name uniqueness
// database-wide.
package schema
