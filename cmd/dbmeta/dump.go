package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/despencer/dbmeta"
	"github.com/despencer/dbmeta/dialect/sql"
	"github.com/despencer/dbmeta/dialect/sql/schema"
)

// TablesFile is the name of the dump of the table list.
const TablesFile = "_tables"

// dumpFile is the document written for one table.
type dumpFile struct {
	Table string           `json:"table"`
	Data  []map[string]any `json:"data"`
}

func (a *app) dumpCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "dump <schema.yaml>",
		Short: "Dump the rows of a schema's tables",
		Long: "Write the rows of every table of a schema document to <table>.data JSON files in the output " +
			"directory, and the dumped tables with their row counts to " + TablesFile + ".data.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("missing output directory: set --out")
			}
			g, err := a.graph(args[0])
			if err != nil {
				return err
			}
			client, err := a.open()
			if err != nil {
				return err
			}
			defer client.Close()
			if err := os.MkdirAll(out, 0o755); err != nil {
				return fmt.Errorf("dump: %w", err)
			}
			list := dumpFile{Table: TablesFile, Data: []map[string]any{}}
			err = client.Run(cmd.Context(), func(ctx context.Context, tx *dbmeta.Tx) error {
				for _, t := range tables(g) {
					rows, err := dumpTable(ctx, tx, t)
					if err != nil {
						return err
					}
					if err := writeDump(out, t.Name, dumpFile{Table: t.Name, Data: rows}); err != nil {
						return err
					}
					list.Data = append(list.Data, map[string]any{"name": t.Name, "rows": len(rows)})
					a.logger.Debug("table dumped", "table", t.Name, "rows", len(rows))
				}
				return nil
			})
			if err != nil {
				return err
			}
			if err := writeDump(out, TablesFile, list); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dumped %d tables of %s-%d to %s\n", len(list.Data), g.Schema.Name, g.Schema.Version, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory of the .data files")
	return cmd
}

// dumpTable reads the rows of t ordered by id, keyed by column name.
func dumpTable(ctx context.Context, tx *dbmeta.Tx, t *schema.Table) ([]map[string]any, error) {
	columns := t.ColumnNames()
	query, args := sql.Select(columns...).Dialect(tx.Dialect()).From(t.Name).OrderBy("id").Query()
	rows, err := tx.QueryValues(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", t.Name, err)
	}
	recs := make([]map[string]any, len(rows))
	for i, row := range rows {
		rec := make(map[string]any, len(columns))
		for j, v := range row {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[columns[j]] = v
		}
		recs[i] = rec
	}
	return recs, nil
}

func writeDump(dir, name string, d dumpFile) error {
	buf, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return fmt.Errorf("dump %s: %w", name, err)
	}
	return os.WriteFile(filepath.Join(dir, name+".data"), append(buf, '\n'), 0o644)
}
