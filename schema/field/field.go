// Package field provides fluent builders for column descriptors.
//
// Builders are the registration trigger for the metadata registry:
//
//	r.RegisterColumn("Order", field.Int("id").Primary().Increment().Descriptor())
//	r.RegisterColumn("Order", field.Text("status").SQLDefault("pending").Descriptor())
//	r.RegisterColumn("Order", field.Bool("paid").Default(false).Descriptor())
package field

import (
	"github.com/google/uuid"

	"github.com/syssam/litemap/schema"
)

// Builder accumulates column options and produces a descriptor.
type Builder struct {
	desc *schema.Column
}

// Text returns a text column builder.
func Text(name string) *Builder {
	return &Builder{desc: &schema.Column{Name: name, Type: schema.TypeText}}
}

// Int returns an integer column builder.
func Int(name string) *Builder {
	return &Builder{desc: &schema.Column{Name: name, Type: schema.TypeInteger}}
}

// Float returns a real column builder.
func Float(name string) *Builder {
	return &Builder{desc: &schema.Column{Name: name, Type: schema.TypeReal}}
}

// Bytes returns a blob column builder.
func Bytes(name string) *Builder {
	return &Builder{desc: &schema.Column{Name: name, Type: schema.TypeBlob}}
}

// JSON returns a json column builder. JSON columns are stored as TEXT.
func JSON(name string) *Builder {
	return &Builder{desc: &schema.Column{Name: name, Type: schema.TypeJSON}}
}

// Bool returns an integer-backed boolean column builder. Values pass
// through schema.BoolTransformer on both the write and read paths, so
// the storage representation (0/1) always surfaces as a genuine bool.
func Bool(name string) *Builder {
	return &Builder{desc: &schema.Column{
		Name:        name,
		Type:        schema.TypeInteger,
		Transformer: schema.BoolTransformer,
	}}
}

// Nullable allows NULL values. Columns are NOT NULL by default.
func (b *Builder) Nullable() *Builder {
	b.desc.Nullable = true
	return b
}

// Unique adds a column-level UNIQUE constraint.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Default sets a static default value, applied at insert time when no
// value is supplied and rendered into the DDL.
func (b *Builder) Default(v any) *Builder {
	b.desc.Default = schema.Value(v)
	return b
}

// DefaultFunc sets a function-valued default, resolved at insert time
// and excluded from the DDL.
func (b *Builder) DefaultFunc(fn func() any) *Builder {
	b.desc.Default = schema.Computed(fn)
	return b
}

// SQLDefault sets a raw SQL default. It takes precedence over Default
// in the generated DDL. Strings matching a known expression pattern
// (CURRENT_TIMESTAMP, RANDOM(), ...) are emitted verbatim; anything
// else is quoted as a string literal.
func (b *Builder) SQLDefault(v any) *Builder {
	b.desc.SQLDefault = v
	return b
}

// Primary marks the column as part of the primary key.
func (b *Builder) Primary() *Builder {
	b.desc.Primary = true
	return b
}

// Increment uses the engine's auto-increment strategy. Rendered as
// PRIMARY KEY AUTOINCREMENT only when the column is the single primary
// column of its entity.
func (b *Builder) Increment() *Builder {
	b.desc.Generated = schema.GenerateIncrement
	return b
}

// UUID generates a random UUID for the column at insert time when no
// value is supplied.
func (b *Builder) UUID() *Builder {
	b.desc.Generated = schema.GenerateUUID
	if b.desc.Default == nil {
		b.desc.Default = schema.Computed(func() any { return uuid.NewString() })
	}
	return b
}

// Transformer sets a bidirectional value converter applied on every
// write and read path.
func (b *Builder) Transformer(t schema.Transformer) *Builder {
	b.desc.Transformer = t
	return b
}

// Descriptor returns the column descriptor.
func (b *Builder) Descriptor() *schema.Column {
	return b.desc
}
