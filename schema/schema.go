package schema

// Type is the storage type of a column.
type Type int

// Storage types supported by the runtime.
const (
	TypeText Type = iota
	TypeInteger
	TypeReal
	TypeBlob
	TypeJSON
)

func (t Type) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeInteger:
		return "integer"
	case TypeReal:
		return "real"
	case TypeBlob:
		return "blob"
	case TypeJSON:
		return "json"
	default:
		return "invalid"
	}
}

// DDL returns the physical column type emitted in CREATE TABLE
// statements. JSON columns are stored as TEXT.
func (t Type) DDL() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeReal:
		return "REAL"
	case TypeBlob:
		return "BLOB"
	default:
		return "TEXT"
	}
}

// GenerationStrategy describes how a primary-key value is produced.
type GenerationStrategy int

const (
	// GenerateNone means the caller supplies the value.
	GenerateNone GenerationStrategy = iota
	// GenerateIncrement uses the engine's auto-increment rowid.
	GenerateIncrement
	// GenerateUUID produces a random UUID at insert time.
	GenerateUUID
)

func (g GenerationStrategy) String() string {
	switch g {
	case GenerateIncrement:
		return "increment"
	case GenerateUUID:
		return "uuid"
	default:
		return "none"
	}
}

// Default is a tagged default value: either a static value rendered
// into the DDL, or a computed thunk resolved by the caller at insert
// time and never by the generator.
type Default struct {
	value any
	fn    func() any
}

// Value returns a static default.
func Value(v any) *Default {
	return &Default{value: v}
}

// Computed returns a function-valued default.
func Computed(fn func() any) *Default {
	return &Default{fn: fn}
}

// Static returns the static value and true if the default is not
// function-valued.
func (d *Default) Static() (any, bool) {
	if d.fn != nil {
		return nil, false
	}
	return d.value, true
}

// Resolve returns the default value, invoking the thunk if the
// default is function-valued.
func (d *Default) Resolve() any {
	if d.fn != nil {
		return d.fn()
	}
	return d.value
}

// Transformer converts a value between its application and storage
// representations.
type Transformer interface {
	ToStorage(v any) (any, error)
	FromStorage(v any) (any, error)
}

// Column describes one column of an entity table.
type Column struct {
	Name     string
	Type     Type
	Nullable bool
	Unique   bool
	// Default is applied when no value is supplied at insert time.
	Default *Default
	// SQLDefault is a raw SQL default literal or expression. It takes
	// precedence over Default in the generated DDL.
	SQLDefault any
	Primary    bool
	Generated  GenerationStrategy
	// Transformer, if set, is applied on every write (ToStorage) and
	// read (FromStorage) path.
	Transformer Transformer
}

// clone returns a shallow copy of the column.
func (c *Column) clone() *Column {
	cc := *c
	return &cc
}

// Index describes a secondary index. Index names are unique across
// the whole registry because the engine enforces database-wide
// index-name uniqueness.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

func (i *Index) clone() *Index {
	cc := *i
	cc.Columns = append([]string(nil), i.Columns...)
	return &cc
}

// Entity describes one declared type's table mapping. Only entities
// registered explicitly own a physical table; auto-discovered
// ancestors contribute columns but no DDL.
type Entity struct {
	// Key is the opaque type identity the entity was registered under.
	Key string
	// Table is the physical table name.
	Table string
	// Parent links to the supertype entity, if any. Column resolution
	// walks this chain with child declarations taking precedence.
	Parent string
	// Explicit reports whether the entity owns a physical table.
	Explicit bool

	columns map[string]*Column
	order   []string
	primary []string
	indexes []*Index
}

func newEntity(key, table string) *Entity {
	return &Entity{
		Key:     key,
		Table:   table,
		columns: make(map[string]*Column),
	}
}

// Columns returns the entity's own columns in declaration order,
// without inherited members. Use Registry.Columns for resolution
// across the supertype chain.
func (e *Entity) Columns() []*Column {
	cols := make([]*Column, 0, len(e.order))
	for _, name := range e.order {
		cols = append(cols, e.columns[name])
	}
	return cols
}

// Column returns the entity's own column with the given name.
func (e *Entity) Column(name string) (*Column, bool) {
	c, ok := e.columns[name]
	return c, ok
}

// PrimaryColumns returns the entity's own primary columns in
// declaration order.
func (e *Entity) PrimaryColumns() []*Column {
	cols := make([]*Column, 0, len(e.primary))
	for _, name := range e.primary {
		cols = append(cols, e.columns[name])
	}
	return cols
}

// Indexes returns the entity's indexes in registration order.
func (e *Entity) Indexes() []*Index {
	return append([]*Index(nil), e.indexes...)
}
