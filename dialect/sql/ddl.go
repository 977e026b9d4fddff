package sql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/syssam/litemap/schema"
)

// quoteIdent quotes an identifier. Identifiers may be interpolated
// into SQL text; values never are.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}

// quoteLiteral quotes a string literal, escaping single quotes by
// doubling.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// sqlExprPatterns is the fixed set of case-insensitive patterns that
// classify a string SQL default as an expression rather than a string
// literal.
var sqlExprPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(CURRENT_TIME|CURRENT_DATE|CURRENT_TIMESTAMP|DEFAULT)$`),
	regexp.MustCompile(`(?i)^RANDOM\(\)$`),
	regexp.MustCompile(`(?i)^ABS\(.*\)$`),
	regexp.MustCompile(`(?i)^COALESCE\(.*\)$`),
	regexp.MustCompile(`^[A-Z_]+$`),
}

func isSQLExpr(s string) bool {
	for _, re := range sqlExprPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// formatSQLDefault renders a raw SQL default value. Numbers are
// unquoted, booleans map to 1/0, nil to NULL, and strings are emitted
// verbatim when they classify as a SQL expression or quoted otherwise.
func formatSQLDefault(table string, v any) (string, error) {
	switch d := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if d {
			return "1", nil
		}
		return "0", nil
	case string:
		if isSQLExpr(d) {
			return d, nil
		}
		return quoteLiteral(d), nil
	default:
		return formatNumber(table, v)
	}
}

// formatStaticDefault renders a static default value. Unlike raw SQL
// defaults, strings are always quoted as literals.
func formatStaticDefault(table string, v any) (string, error) {
	switch d := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if d {
			return "1", nil
		}
		return "0", nil
	case string:
		return quoteLiteral(d), nil
	default:
		return formatNumber(table, v)
	}
}

func formatNumber(table string, v any) (string, error) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), nil
	case int8:
		return strconv.FormatInt(int64(n), 10), nil
	case int16:
		return strconv.FormatInt(int64(n), 10), nil
	case int32:
		return strconv.FormatInt(int64(n), 10), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case uint:
		return strconv.FormatUint(uint64(n), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(n), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(n), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(n), 10), nil
	case uint64:
		return strconv.FormatUint(n, 10), nil
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64), nil
	default:
		return "", schema.NewValidationError(table, fmt.Sprintf("unsupported default value type %T", v))
	}
}

// defaultClause returns the DEFAULT fragment for the column, if any.
// Precedence: SQLDefault over static Default; function-valued defaults
// are excluded from the DDL and applied by the caller at insert time.
func defaultClause(table string, c *schema.Column) (string, bool, error) {
	if c.SQLDefault != nil {
		s, err := formatSQLDefault(table, c.SQLDefault)
		return s, err == nil, err
	}
	if c.Default == nil {
		return "", false, nil
	}
	v, static := c.Default.Static()
	if !static {
		return "", false, nil
	}
	s, err := formatStaticDefault(table, v)
	return s, err == nil, err
}

// CreateTable generates the CREATE TABLE statement for an entity.
// Column order follows descriptor declaration order. A single primary
// column receives a column-level PRIMARY KEY marker (with AUTOINCREMENT
// for the increment strategy); composite keys are rendered only as a
// trailing table-level constraint.
func CreateTable(e *schema.Entity) (string, error) {
	cols := e.Columns()
	if len(cols) == 0 {
		return "", schema.NewValidationError(e.Table, "entity has no columns")
	}
	primary := e.PrimaryColumns()
	single := len(primary) == 1
	defs := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		parts := []string{quoteIdent(c.Name), c.Type.DDL()}
		if single && c.Primary {
			if c.Generated == schema.GenerateIncrement {
				parts = append(parts, "PRIMARY KEY AUTOINCREMENT")
			} else {
				parts = append(parts, "PRIMARY KEY")
			}
		}
		if !c.Primary && !c.Nullable {
			parts = append(parts, "NOT NULL")
		}
		if !c.Primary && c.Unique {
			parts = append(parts, "UNIQUE")
		}
		def, ok, err := defaultClause(e.Table, c)
		if err != nil {
			return "", err
		}
		if ok {
			parts = append(parts, "DEFAULT "+def)
		}
		defs = append(defs, strings.Join(parts, " "))
	}
	if len(primary) >= 2 {
		names := make([]string, len(primary))
		for i, c := range primary {
			names[i] = quoteIdent(c.Name)
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(names, ", ")+")")
	}
	return "CREATE TABLE IF NOT EXISTS " + quoteIdent(e.Table) + " (" + strings.Join(defs, ", ") + ")", nil
}

// IndexStatements generates one CREATE INDEX statement per index on
// the entity, columns quoted and comma-joined in declared order.
func IndexStatements(e *schema.Entity) ([]string, error) {
	indexes := e.Indexes()
	out := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		if len(idx.Columns) == 0 {
			return nil, schema.NewValidationError(e.Table, fmt.Sprintf("index %q has no columns", idx.Name))
		}
		stmt := "CREATE "
		if idx.Unique {
			stmt += "UNIQUE "
		}
		stmt += "INDEX IF NOT EXISTS " + quoteIdent(idx.Name) +
			" ON " + quoteIdent(e.Table) +
			" (" + strings.Join(quoteIdents(idx.Columns), ", ") + ")"
		out = append(out, stmt)
	}
	return out, nil
}
