package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/despencer/dbmeta/compiler/gen"
	"github.com/despencer/dbmeta/compiler/load"
	"github.com/despencer/dbmeta/dialect/sql/schema"
)

// graph loads the schema document at path and compiles it with the
// configured storage.
func (a *app) graph(path string, opts ...gen.Option) (*gen.Graph, error) {
	pkg, err := load.LoadFile(path)
	if err != nil {
		return nil, err
	}
	opts = append([]gen.Option{gen.WithStorageDriver(a.cfg.Storage), gen.WithTypes(a.cfg.Types)}, opts...)
	switch {
	case a.previous != "":
		prev, err := load.LoadFile(a.previous)
		if err != nil {
			return nil, fmt.Errorf("previous version: %w", err)
		}
		opts = append(opts, gen.WithPrevious(prev))
		if a.allowDrop {
			opts = append(opts, gen.WithAllowDrop())
		}
	case a.allowDrop:
		return nil, errors.New("--allow-drop needs --previous")
	}
	cfg, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return gen.NewGraph(cfg, pkg)
}

// upgradeFlags adds the flags selecting the deployed version to upgrade from.
func (a *app) upgradeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.previous, "previous", "", "schema document of the deployed version to upgrade from")
	cmd.Flags().BoolVar(&a.allowDrop, "allow-drop", false, "let the upgrade drop columns and tables")
}

// tables returns the tables of g, referenced tables first.
func tables(g *gen.Graph) []*schema.Table {
	nodes := g.DeployOrder()
	tables := make([]*schema.Table, len(nodes))
	for i, n := range nodes {
		tables[i] = n.Table
	}
	return tables
}

// script returns the CREATE TABLE statements of g, referenced tables first.
func script(g *gen.Graph) []string {
	return schema.Script(g.Storage.Dialect, tables(g)...)
}

// upgrade returns the statements upgrading a database that holds the
// previous version of g, and the diff of the two versions.
func upgrade(g *gen.Graph) ([]string, *schema.ValidationResult, error) {
	from, to := tables(g.Previous), tables(g)
	stmts, err := schema.Upgrade(g.Storage.Dialect, from, to, g.UpgradeOptions()...)
	if err != nil {
		return nil, nil, err
	}
	return stmts, schema.ValidateDiff(from, to, g.UpgradeOptions()...), nil
}

func (a *app) tablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables <schema.yaml>",
		Short: "Print the tables of a schema",
		Long: "Compile a schema document and print the CREATE TABLE statements of its entities in deploy order. " +
			"With --previous, print the statements upgrading a database that holds the previous version instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.graph(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if g.Previous == nil {
				fmt.Fprintf(out, "-- %s version %d (%s)\n", g.Schema.Name, g.Schema.Version, g.Storage)
				for _, stmt := range script(g) {
					fmt.Fprintf(out, "%s;\n", stmt)
				}
				return nil
			}
			stmts, diff, err := upgrade(g)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "-- %s version %d from version %d (%s)\n", g.Schema.Name, g.Schema.Version, g.Previous.Schema.Version, g.Storage)
			for _, line := range strings.Split(strings.TrimSpace(diff.String()), "\n") {
				fmt.Fprintf(out, "-- %s\n", line)
			}
			for _, stmt := range stmts {
				fmt.Fprintf(out, "%s;\n", stmt)
			}
			return nil
		},
	}
	a.upgradeFlags(cmd)
	return cmd
}
