// Package dbmeta is the runtime of schema packages compiled by the dbmeta
// compiler.
//
// A Client opens a database and bootstraps it on first use: the packet
// registry table dbm_packet is created and the registry marker packet
// (dbm, 1) and the id sequence packet (seqid, 1) are deployed.
//
// Generated packages deploy their tables as one packet per package
// version and read and write rows through their mappings:
//
//	client, err := dbmeta.Open(dialect.SQLite, "app.db")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	if _, err := billing.Deploy(ctx, client); err != nil {
//		return err
//	}
//	err = client.Run(ctx, func(ctx context.Context, tx *dbmeta.Tx) error {
//		id, err := tx.GenID(ctx)
//		if err != nil {
//			return err
//		}
//		return billing.InsertInvoice(ctx, tx, &billing.Invoice{ID: id, Total: 100})
//	})
//
// # Ids
//
// Every row of every table takes its id from one sequence, the single row
// of table seqid_seq. Tx.GenID reads and advances it inside the unit of
// work, so a rollback hands the same ids out again. The read and the
// write are not atomic against a concurrent writer; one logical writer
// per database is assumed.
package dbmeta
