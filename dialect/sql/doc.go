// Package sql implements the SQLite dialect: a driver over
// database/sql and the SQL generator.
//
// The generator is a pure translation from entity descriptors, or
// (table, data, conditions) maps, to SQL text plus an ordered
// parameter list:
//
//	ddl, err := sql.CreateTable(entity)
//	query, args, err := sql.Insert("orders", map[string]any{"total": 9.99})
//	// INSERT INTO "orders" ("total") VALUES (?) -- args [9.99]
//
// Identifiers may be interpolated (always quoted); values bind through
// positional placeholders and are never interpolated.
package sql
