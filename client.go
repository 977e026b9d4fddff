package litemap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	dsql "github.com/syssam/litemap/dialect/sql"
	"github.com/syssam/litemap/schema"
)

// Client wires the metadata registry, the SQL generator, the statement
// cache and the transaction driver around one database handle.
type Client struct {
	registry *schema.Registry
	drv      *dsql.Driver
	cache    *StmtCache
	log      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithCache replaces the default statement cache.
func WithCache(cache *StmtCache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient returns a client over the given driver and registry.
func NewClient(drv *dsql.Driver, registry *schema.Registry, opts ...ClientOption) *Client {
	c := &Client{
		registry: registry,
		drv:      drv,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewStmtCache(drv.DB(), WithCacheLogger(c.log))
	}
	return c
}

// Registry returns the metadata registry.
func (c *Client) Registry() *schema.Registry {
	return c.registry
}

// Cache returns the statement cache.
func (c *Client) Cache() *StmtCache {
	return c.cache
}

// Driver returns the underlying driver.
func (c *Client) Driver() *dsql.Driver {
	return c.drv
}

// Close releases the statement cache and closes the driver.
func (c *Client) Close() error {
	if err := c.cache.Cleanup(); err != nil {
		c.log.Warn("statement cache cleanup failed", "error", err)
	}
	return c.drv.Close()
}

// CreateSchema generates and executes the DDL for every explicitly
// registered entity: a CREATE TABLE statement followed by one CREATE
// INDEX statement per index.
func (c *Client) CreateSchema(ctx context.Context) error {
	for _, e := range c.registry.ExplicitEntities() {
		resolved, err := c.registry.Resolve(e.Key)
		if err != nil {
			return err
		}
		ddl, err := dsql.CreateTable(resolved)
		if err != nil {
			return err
		}
		if err := c.drv.Exec(ctx, ddl, []any{}, nil); err != nil {
			return fmt.Errorf("litemap: create table for %q: %w", e.Key, err)
		}
		stmts, err := dsql.IndexStatements(resolved)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if err := c.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
				return fmt.Errorf("litemap: create index for %q: %w", e.Key, err)
			}
		}
	}
	return nil
}

// columnMap returns the resolved columns of the entity, keyed by name.
func columnMap(e *schema.Entity) map[string]*schema.Column {
	cols := e.Columns()
	byName := make(map[string]*schema.Column, len(cols))
	for _, col := range cols {
		byName[col.Name] = col
	}
	return byName
}

// toStorage converts the values of m to their storage representation,
// rejecting names that are not columns of the entity.
func toStorage(e *schema.Entity, byName map[string]*schema.Column, m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for name, v := range m {
		col, ok := byName[name]
		if !ok {
			return nil, schema.NewValidationError(e.Table, "unknown column", name)
		}
		if col.Transformer != nil {
			tv, err := col.Transformer.ToStorage(v)
			if err != nil {
				return nil, err
			}
			v = tv
		}
		out[name] = v
	}
	return out, nil
}

// applyDefaults fills missing columns: uuid generation first, then
// static or computed defaults. Raw SQL defaults are left to the
// engine, and increment columns to the rowid allocator.
func applyDefaults(e *schema.Entity, byName map[string]*schema.Column, row map[string]any) error {
	for _, col := range e.Columns() {
		if _, ok := row[col.Name]; ok {
			continue
		}
		if col.Generated == schema.GenerateIncrement || col.SQLDefault != nil {
			continue
		}
		var v any
		switch {
		case col.Generated == schema.GenerateUUID && col.Default == nil:
			v = uuid.NewString()
		case col.Default != nil:
			v = col.Default.Resolve()
		default:
			continue
		}
		if col.Transformer != nil {
			tv, err := col.Transformer.ToStorage(v)
			if err != nil {
				return err
			}
			v = tv
		}
		row[col.Name] = v
	}
	return nil
}

// exec runs a generated statement through the statement cache. A
// handle obtained with the cache disabled is finalized right after its
// single use.
func (c *Client) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	stmt, err := c.cache.GetOrCreate(ctx, query)
	if err != nil {
		return nil, err
	}
	if !c.cache.Enabled() {
		defer func() {
			if ferr := stmt.Finalize(); ferr != nil {
				c.log.Warn("statement finalize failed", "sql", query, "error", ferr)
			}
		}()
	}
	return stmt.Exec(ctx, args...)
}

// Insert inserts the row for the entity, applying defaults, uuid
// generation and transformers, and executes through the cache.
func (c *Client) Insert(ctx context.Context, key string, row map[string]any) (sql.Result, error) {
	e, err := c.registry.Resolve(key)
	if err != nil {
		return nil, err
	}
	byName := columnMap(e)
	storage, err := toStorage(e, byName, row)
	if err != nil {
		return nil, err
	}
	if err := applyDefaults(e, byName, storage); err != nil {
		return nil, err
	}
	query, args, err := dsql.Insert(e.Table, storage)
	if err != nil {
		return nil, err
	}
	return c.exec(ctx, query, args)
}

// Update updates the entity rows matching conds and returns the number
// of affected rows.
func (c *Client) Update(ctx context.Context, key string, row, conds map[string]any) (int64, error) {
	e, err := c.registry.Resolve(key)
	if err != nil {
		return 0, err
	}
	byName := columnMap(e)
	srow, err := toStorage(e, byName, row)
	if err != nil {
		return 0, err
	}
	sconds, err := toStorage(e, byName, conds)
	if err != nil {
		return 0, err
	}
	query, args, err := dsql.Update(e.Table, srow, sconds)
	if err != nil {
		return 0, err
	}
	res, err := c.exec(ctx, query, args)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete deletes the entity rows matching conds and returns the number
// of affected rows.
func (c *Client) Delete(ctx context.Context, key string, conds map[string]any) (int64, error) {
	e, err := c.registry.Resolve(key)
	if err != nil {
		return 0, err
	}
	sconds, err := toStorage(e, columnMap(e), conds)
	if err != nil {
		return 0, err
	}
	query, args, err := dsql.Delete(e.Table, sconds)
	if err != nil {
		return 0, err
	}
	res, err := c.exec(ctx, query, args)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Select returns the entity rows matching conds as column→value maps.
// Column transformers run on the read path, so integer-backed booleans
// surface as genuine booleans.
func (c *Client) Select(ctx context.Context, key string, conds map[string]any, opts ...dsql.SelectOption) ([]map[string]any, error) {
	e, err := c.registry.Resolve(key)
	if err != nil {
		return nil, err
	}
	byName := columnMap(e)
	sconds, err := toStorage(e, byName, conds)
	if err != nil {
		return nil, err
	}
	query, args := dsql.Select(e.Table, sconds, opts...)
	stmt, err := c.cache.GetOrCreate(ctx, query)
	if err != nil {
		return nil, err
	}
	if !c.cache.Enabled() {
		defer func() {
			if ferr := stmt.Finalize(); ferr != nil {
				c.log.Warn("statement finalize failed", "sql", query, "error", ferr)
			}
		}()
	}
	rows, err := stmt.Query(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows, byName)
}

// Count returns the number of entity rows matching conds.
func (c *Client) Count(ctx context.Context, key string, conds map[string]any) (int64, error) {
	e, err := c.registry.Resolve(key)
	if err != nil {
		return 0, err
	}
	sconds, err := toStorage(e, columnMap(e), conds)
	if err != nil {
		return 0, err
	}
	query, args := dsql.Count(e.Table, sconds)
	stmt, err := c.cache.GetOrCreate(ctx, query)
	if err != nil {
		return 0, err
	}
	if !c.cache.Enabled() {
		defer func() {
			if ferr := stmt.Finalize(); ferr != nil {
				c.log.Warn("statement finalize failed", "sql", query, "error", ferr)
			}
		}()
	}
	rows, err := stmt.Query(ctx, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

// scanRows scans all rows into column→value maps, applying column
// transformers on the way out.
func scanRows(rows *sql.Rows, byName map[string]*schema.Column) ([]map[string]any, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			v := vals[i]
			if col, ok := byName[name]; ok && col.Transformer != nil {
				tv, terr := col.Transformer.FromStorage(v)
				if terr != nil {
					return nil, terr
				}
				v = tv
			}
			row[name] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// InTx runs the callback inside a transaction on a dedicated
// connection: commit on success, rollback on failure.
func (c *Client) InTx(ctx context.Context, opts *TxOptions, fn TxFunc) error {
	conn, err := c.drv.SingleConn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	m := NewTxManager(dsql.Conn{ExecQuerier: conn}, WithManagerLogger(c.log))
	return m.Execute(ctx, fn, opts)
}
