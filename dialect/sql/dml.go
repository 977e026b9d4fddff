package sql

import (
	"sort"
	"strings"

	"github.com/syssam/litemap/schema"
)

// DML generation works on plain column→value maps. Map iteration order
// is not stable, so keys are sorted to keep generated text
// deterministic and cache-friendly. All values bind through positional
// placeholders; only identifiers are interpolated.

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// whereClause renders the WHERE fragment for the conditions. A nil
// value compares with IS NULL and binds no parameter.
func whereClause(conds map[string]any) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}
	var (
		terms []string
		args  []any
	)
	for _, k := range sortedKeys(conds) {
		if conds[k] == nil {
			terms = append(terms, quoteIdent(k)+" IS NULL")
			continue
		}
		terms = append(terms, quoteIdent(k)+" = ?")
		args = append(args, conds[k])
	}
	return " WHERE " + strings.Join(terms, " AND "), args
}

// Insert generates a parameterized INSERT statement for the row.
func Insert(table string, row map[string]any) (string, []any, error) {
	if len(row) == 0 {
		return "", nil, schema.NewValidationError(table, "insert payload is empty")
	}
	keys := sortedKeys(row)
	args := make([]any, len(keys))
	marks := make([]string, len(keys))
	for i, k := range keys {
		args[i] = row[k]
		marks[i] = "?"
	}
	query := "INSERT INTO " + quoteIdent(table) +
		" (" + strings.Join(quoteIdents(keys), ", ") + ")" +
		" VALUES (" + strings.Join(marks, ", ") + ")"
	return query, args, nil
}

type selectConfig struct {
	columns []string
	orderBy string
	desc    bool
	limit   int
	offset  int
}

// SelectOption configures a generated SELECT statement.
type SelectOption func(*selectConfig)

// WithColumns restricts the selected columns. The default is *.
func WithColumns(columns ...string) SelectOption {
	return func(c *selectConfig) {
		c.columns = columns
	}
}

// WithOrderBy orders the result by the given column.
func WithOrderBy(column string, desc bool) SelectOption {
	return func(c *selectConfig) {
		c.orderBy = column
		c.desc = desc
	}
}

// WithLimit limits the number of returned rows.
func WithLimit(n int) SelectOption {
	return func(c *selectConfig) {
		c.limit = n
	}
}

// WithOffset skips the first n rows.
func WithOffset(n int) SelectOption {
	return func(c *selectConfig) {
		c.offset = n
	}
}

// Select generates a parameterized SELECT statement.
func Select(table string, conds map[string]any, opts ...SelectOption) (string, []any) {
	cfg := &selectConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	cols := "*"
	if len(cfg.columns) > 0 {
		cols = strings.Join(quoteIdents(cfg.columns), ", ")
	}
	where, args := whereClause(conds)
	query := "SELECT " + cols + " FROM " + quoteIdent(table) + where
	if cfg.orderBy != "" {
		query += " ORDER BY " + quoteIdent(cfg.orderBy)
		if cfg.desc {
			query += " DESC"
		}
	}
	if cfg.limit > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.limit)
	}
	if cfg.offset > 0 {
		query += " OFFSET ?"
		args = append(args, cfg.offset)
	}
	return query, args
}

// Update generates a parameterized UPDATE statement. An empty payload
// is rejected, and so is an empty condition set: full-table mutation
// must be spelled out by the caller with an explicit always-true
// condition rather than by omission.
func Update(table string, row, conds map[string]any) (string, []any, error) {
	if len(row) == 0 {
		return "", nil, schema.NewValidationError(table, "update payload is empty")
	}
	if len(conds) == 0 {
		return "", nil, schema.NewValidationError(table, "update requires conditions")
	}
	keys := sortedKeys(row)
	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+len(conds))
	for i, k := range keys {
		sets[i] = quoteIdent(k) + " = ?"
		args = append(args, row[k])
	}
	where, whereArgs := whereClause(conds)
	args = append(args, whereArgs...)
	query := "UPDATE " + quoteIdent(table) + " SET " + strings.Join(sets, ", ") + where
	return query, args, nil
}

// Delete generates a parameterized DELETE statement. Empty conditions
// are rejected under the same policy as Update.
func Delete(table string, conds map[string]any) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, schema.NewValidationError(table, "delete requires conditions")
	}
	where, args := whereClause(conds)
	return "DELETE FROM " + quoteIdent(table) + where, args, nil
}

// Count generates a SELECT COUNT(*) statement.
func Count(table string, conds map[string]any) (string, []any) {
	where, args := whereClause(conds)
	return "SELECT COUNT(*) FROM " + quoteIdent(table) + where, args
}
