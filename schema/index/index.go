// Package index provides fluent builders for index descriptors.
//
//	r.RegisterIndex("Order", index.Fields("status").Descriptor())
//	r.RegisterIndex("Order", index.Fields("customer", "status").Unique().StorageKey("idx_orders_open").Descriptor())
package index

import "github.com/syssam/litemap/schema"

// Builder accumulates index options and produces a descriptor.
type Builder struct {
	desc *schema.Index
}

// Fields returns an index builder over the given columns, in order.
func Fields(columns ...string) *Builder {
	return &Builder{desc: &schema.Index{Columns: columns}}
}

// Unique makes the index a unique index.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// StorageKey sets the index name. When omitted, the registry
// auto-names the index idx_<table>_<col1>_<col2>_...
func (b *Builder) StorageKey(name string) *Builder {
	b.desc.Name = name
	return b
}

// Descriptor returns the index descriptor.
func (b *Builder) Descriptor() *schema.Index {
	return b.desc
}
