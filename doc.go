// Package litemap is a relational-mapping runtime for SQLite: declare
// a record shape once and get generated table DDL, parameterized DML,
// and transaction-safe execution.
//
// The runtime is built from four parts:
//
//   - the metadata registry (package schema), the single source of
//     truth for declared record shapes;
//   - the SQL generator (package dialect/sql), a pure translation from
//     metadata to dialect-correct text plus an ordered parameter list;
//   - the transaction/savepoint engine (Tx, TxManager), a state machine
//     over BEGIN/COMMIT/ROLLBACK/SAVEPOINT with partial-failure
//     recovery;
//   - the statement cache (StmtCache), reuse of prepared statements
//     with exactly-once finalization.
//
// A typical setup registers entities once at startup and wires the
// pieces through a Client:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	r := schema.NewRegistry()
//	r.RegisterEntity("Order", "orders", true)
//	r.RegisterColumn("Order", field.Int("id").Primary().Increment().Descriptor())
//	r.RegisterColumn("Order", field.Float("total").Descriptor())
//	r.RegisterColumn("Order", field.Text("status").SQLDefault("pending").Descriptor())
//
//	client := litemap.NewClient(drv, r)
//	if err := client.CreateSchema(ctx); err != nil {
//		log.Fatal(err)
//	}
//	err = client.InTx(ctx, nil, func(ctx context.Context, tx *litemap.Tx) error {
//		return tx.Exec(ctx, "INSERT INTO \"orders\" (\"total\") VALUES (?)", []any{9.99}, nil)
//	})
package litemap
