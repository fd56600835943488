// Package sql renders a compiled graph to Go data access code for SQL
// databases.
//
// Generated code structure:
//
//	{target}/
//	├── packet.go        # PackageName, PackageVersion, Tables, Register, Deploy
//	└── {table}.go       # record struct, column constants, table, mapping, accessors
//
// Each record struct is flat: one field per physical column, in column
// order. The generated mapping is the seam between the compiled table and
// the runtime:
//
//	client, err := dbmeta.Open(dialect.SQLite, "app.db")
//	if _, err := billing.Deploy(ctx, client); err != nil {
//		return err
//	}
//	err = client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
//		id, err := tx.GenID(ctx)
//		if err != nil {
//			return err
//		}
//		return billing.InsertInvoice(ctx, tx, &billing.Invoice{ID: id, Total: 10})
//	})
package sql
