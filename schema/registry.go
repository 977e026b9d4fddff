package schema

import (
	"strings"
	"sync"

	"github.com/go-openapi/inflect"
)

// Registry is the single source of truth for declared record shapes.
// It is a pure in-memory store: descriptors are created on first
// registration, live for the process lifetime, and are read-only to
// the SQL generator. One instance is built at process start and
// threaded by reference; Clear exists for test isolation only.
//
// The registry locks internally so it is safe for use from multiple
// goroutines.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	order    []string
	// indexNames maps every registered index name to its owning
	// entity key. The engine enforces index-name uniqueness
	// database-wide, so the set spans all entities.
	indexNames map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entities:   make(map[string]*Entity),
		indexNames: make(map[string]string),
	}
}

// EntityOption configures an entity at registration time.
type EntityOption func(*Entity)

// WithParent links the entity to its supertype. Column resolution
// walks the parent chain with child declarations taking precedence.
func WithParent(key string) EntityOption {
	return func(e *Entity) {
		e.Parent = key
	}
}

// RegisterEntity creates the descriptor for key if absent. When table
// is empty, the name is derived from the key (e.g. "OrderItem" becomes
// "order_items").
//
// Registering an existing entity with explicit=true overwrites its
// table name, marks it as owning a physical table, and renames
// auto-generated index names of the form idx_<oldTable>_<cols> to use
// the new table name. A rename that collides with an index name used
// elsewhere fails with NameConflictError and leaves the registry
// unchanged. Column data is never overwritten by re-registration.
func (r *Registry) RegisterEntity(key, table string, explicit bool, opts ...EntityOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if table == "" {
		table = inflect.Tableize(key)
	}
	e, ok := r.entities[key]
	if !ok {
		e = newEntity(key, table)
		e.Explicit = explicit
		for _, opt := range opts {
			opt(e)
		}
		r.entities[key] = e
		r.order = append(r.order, key)
		return nil
	}
	if !explicit {
		return nil
	}
	if err := r.renameAutoIndexes(e, e.Table, table); err != nil {
		return err
	}
	e.Table = table
	e.Explicit = true
	for _, opt := range opts {
		opt(e)
	}
	return nil
}

// renameAutoIndexes rewrites auto-generated index names bound to the
// old table name. Verification runs before any mutation so a conflict
// leaves the registry untouched.
func (r *Registry) renameAutoIndexes(e *Entity, oldTable, newTable string) error {
	if oldTable == newTable {
		return nil
	}
	oldPrefix := "idx_" + oldTable + "_"
	newPrefix := "idx_" + newTable + "_"
	type rename struct {
		idx      *Index
		old, new string
	}
	var renames []rename
	for _, idx := range e.indexes {
		if !strings.HasPrefix(idx.Name, oldPrefix) {
			continue
		}
		renamed := newPrefix + strings.TrimPrefix(idx.Name, oldPrefix)
		if owner, taken := r.indexNames[renamed]; taken {
			return NewNameConflictError(renamed, e.Key, owner)
		}
		renames = append(renames, rename{idx: idx, old: idx.Name, new: renamed})
	}
	for _, rn := range renames {
		delete(r.indexNames, rn.old)
		r.indexNames[rn.new] = e.Key
		rn.idx.Name = rn.new
	}
	return nil
}

// RegisterColumn inserts or overwrites a column on the entity. The
// entity must already be registered. Primary columns are tracked in
// declaration order.
func (r *Registry) RegisterColumn(key string, c *Column) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[key]
	if !ok {
		return NewNotRegisteredError("register column", key)
	}
	if c.Name == "" {
		return NewValidationError(e.Table, "column has no name")
	}
	cc := c.clone()
	if _, exists := e.columns[cc.Name]; !exists {
		e.order = append(e.order, cc.Name)
	}
	e.columns[cc.Name] = cc
	pos := -1
	for i, name := range e.primary {
		if name == cc.Name {
			pos = i
			break
		}
	}
	switch {
	case cc.Primary && pos < 0:
		e.primary = append(e.primary, cc.Name)
	case !cc.Primary && pos >= 0:
		e.primary = append(e.primary[:pos], e.primary[pos+1:]...)
	}
	return nil
}

// RegisterIndex appends an index to the entity. An empty index name is
// auto-generated as idx_<table>_<col1>_<col2>_... Index names must be
// unique across the whole registry; the columns must exist on the
// entity (inherited columns included), appear at most once, and the
// index must name at least one column.
func (r *Registry) RegisterIndex(key string, idx *Index) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[key]
	if !ok {
		return NewNotRegisteredError("register index", key)
	}
	if len(idx.Columns) == 0 {
		return NewValidationError(e.Table, "index has no columns")
	}
	resolved, err := r.resolveColumns(key)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(resolved))
	for _, c := range resolved {
		known[c.Name] = true
	}
	var dup, missing []string
	seen := make(map[string]bool, len(idx.Columns))
	for _, name := range idx.Columns {
		if seen[name] {
			dup = append(dup, name)
		}
		seen[name] = true
		if !known[name] {
			missing = append(missing, name)
		}
	}
	if len(dup) > 0 {
		return NewValidationError(e.Table, "index has duplicate columns", dup...)
	}
	if len(missing) > 0 {
		return NewValidationError(e.Table, "index references unknown columns", missing...)
	}
	cc := idx.clone()
	if cc.Name == "" {
		cc.Name = "idx_" + e.Table + "_" + strings.Join(cc.Columns, "_")
	}
	if owner, taken := r.indexNames[cc.Name]; taken {
		return NewNameConflictError(cc.Name, key, owner)
	}
	e.indexes = append(e.indexes, cc)
	r.indexNames[cc.Name] = key
	return nil
}

// Entity returns the stored descriptor for key.
func (r *Registry) Entity(key string) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[key]
	return e, ok
}

// Columns resolves the entity's columns including inherited members,
// walking the parent chain with child declarations taking precedence
// on a name clash. The stored descriptors are never mutated.
func (r *Registry) Columns(key string) ([]*Column, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveColumns(key)
}

func (r *Registry) resolveColumns(key string) ([]*Column, error) {
	chain, err := r.chain(key)
	if err != nil {
		return nil, err
	}
	var (
		cols []*Column
		pos  = make(map[string]int)
	)
	// Root first; a clash keeps the ancestor's position but takes the
	// child's descriptor.
	for i := len(chain) - 1; i >= 0; i-- {
		for _, name := range chain[i].order {
			c := chain[i].columns[name]
			if at, ok := pos[name]; ok {
				cols[at] = c
				continue
			}
			pos[name] = len(cols)
			cols = append(cols, c)
		}
	}
	return cols, nil
}

// PrimaryColumns resolves the entity's primary columns including
// inherited members, in declaration order.
func (r *Registry) PrimaryColumns(key string) ([]*Column, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolvePrimary(key)
}

func (r *Registry) resolvePrimary(key string) ([]*Column, error) {
	chain, err := r.chain(key)
	if err != nil {
		return nil, err
	}
	var (
		names []string
		seen  = make(map[string]bool)
	)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, name := range chain[i].primary {
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	cols, err := r.resolveColumns(key)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*Column, len(cols))
	for _, c := range cols {
		byName[c.Name] = c
	}
	primary := make([]*Column, 0, len(names))
	for _, name := range names {
		if c, ok := byName[name]; ok && c.Primary {
			primary = append(primary, c)
		}
	}
	return primary, nil
}

// chain returns the entity and its ancestors, child first. The walk
// terminates at the hierarchy root and never revisits a type.
func (r *Registry) chain(key string) ([]*Entity, error) {
	e, ok := r.entities[key]
	if !ok {
		return nil, NewNotRegisteredError("resolve", key)
	}
	var (
		chain   []*Entity
		visited = make(map[string]bool)
	)
	for e != nil && !visited[e.Key] {
		visited[e.Key] = true
		chain = append(chain, e)
		if e.Parent == "" {
			break
		}
		e = r.entities[e.Parent]
	}
	return chain, nil
}

// Resolve returns a flattened copy of the entity with inherited
// columns and primary columns merged in. The copy is detached from the
// registry and safe to hand to the generator.
func (r *Registry) Resolve(key string) (*Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[key]
	if !ok {
		return nil, NewNotRegisteredError("resolve", key)
	}
	cols, err := r.resolveColumns(key)
	if err != nil {
		return nil, err
	}
	primary, err := r.resolvePrimary(key)
	if err != nil {
		return nil, err
	}
	flat := newEntity(e.Key, e.Table)
	flat.Explicit = e.Explicit
	for _, c := range cols {
		flat.columns[c.Name] = c
		flat.order = append(flat.order, c.Name)
	}
	for _, c := range primary {
		flat.primary = append(flat.primary, c.Name)
	}
	flat.indexes = append(flat.indexes, e.indexes...)
	return flat, nil
}

// ExplicitEntities returns the explicitly registered entities in
// registration order. These are the only entities that generate DDL.
func (r *Registry) ExplicitEntities() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Entity
	for _, key := range r.order {
		if e := r.entities[key]; e.Explicit {
			out = append(out, e)
		}
	}
	return out
}

// Clear wipes all descriptors and the global index-name set. Intended
// for test isolation only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = make(map[string]*Entity)
	r.order = nil
	r.indexNames = make(map[string]string)
}
