package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"ariga.io/atlas/sql/migrate"
	"github.com/spf13/cobra"

	"github.com/despencer/dbmeta"
	"github.com/despencer/dbmeta/compiler/gen"
)

// open opens the configured database.
func (a *app) open() (*dbmeta.Client, error) {
	if a.cfg.DSN == "" {
		return nil, errors.New("missing data source name: set --dsn or dsn in the config file")
	}
	opts := []dbmeta.Option{dbmeta.Log(a.logger)}
	if a.verbose {
		opts = append(opts, dbmeta.Debug())
	}
	return dbmeta.Open(a.cfg.Dialect, a.cfg.DSN, opts...)
}

func (a *app) deployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy [schema.yaml]",
		Short: "Deploy a schema or a packet directory",
		Long: "Deploy the tables of a schema document as the packet (package, version), and the " +
			"packets of a directory of <version>_<module>.sql files. Registered packets are skipped. " +
			"With --previous, a database holding the previous version is upgraded instead of created.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && a.cfg.Dir == "" {
				return errors.New("nothing to deploy: pass a schema document or --dir")
			}
			client, err := a.open()
			if err != nil {
				return err
			}
			defer client.Close()
			ctx, out := cmd.Context(), cmd.OutOrStdout()
			if len(args) == 1 {
				g, err := a.graph(args[0])
				if err != nil {
					return err
				}
				if g.Storage.Dialect != client.Dialect() {
					return fmt.Errorf("storage %s renders %s tables, database is %s", g.Storage, g.Storage.Dialect, client.Dialect())
				}
				stmts, err := a.deployScript(ctx, client, g)
				if err != nil {
					return err
				}
				ok, err := client.Deploy(ctx, g.Schema.Name, g.Schema.Version, stmts...)
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintf(out, "deployed %s-%d\n", g.Schema.Name, g.Schema.Version)
				} else {
					fmt.Fprintf(out, "%s-%d already deployed\n", g.Schema.Name, g.Schema.Version)
				}
			}
			if a.cfg.Dir != "" {
				dir, err := migrate.NewLocalDir(a.cfg.Dir)
				if err != nil {
					return fmt.Errorf("packet directory: %w", err)
				}
				n, err := client.DeployDir(ctx, dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "deployed %d packets from %s\n", n, a.cfg.Dir)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&a.flags.Dir, "dir", "d", "", "directory of <version>_<module>.sql packet files")
	a.upgradeFlags(cmd)
	return cmd
}

// deployScript returns the statements of the packet of g: the upgrade when
// the database holds the previous version, the full script otherwise.
func (a *app) deployScript(ctx context.Context, client *dbmeta.Client, g *gen.Graph) ([]string, error) {
	if g.Previous == nil {
		return script(g), nil
	}
	prev := g.Previous.Schema.Version
	held, err := client.Registered(ctx, g.Schema.Name, prev)
	if err != nil || !held {
		return script(g), err
	}
	stmts, diff, err := upgrade(g)
	if err != nil {
		return nil, err
	}
	if diff.HasBreakingChanges() {
		a.logger.Warn("upgrade drops data", "package", g.Schema.Name, "diff", diff.String())
	}
	a.logger.Info("upgrading package", "package", g.Schema.Name, "from", prev, "to", g.Schema.Version, "statements", len(stmts))
	return stmts, nil
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Bootstrap a database and list its packets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.open()
			if err != nil {
				return err
			}
			defer client.Close()
			packets, err := client.Packets(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODULE\tVERSION\tDEPLOYED")
			for _, p := range packets {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Module, p.Version, p.Deployed.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}
