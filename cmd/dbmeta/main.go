// Command dbmeta compiles schema documents into tables and Go access code
// and deploys them as packets.
//
//	dbmeta tables schema.yaml
//	dbmeta gen --target ./billing schema.yaml
//	dbmeta deploy --dsn app.db schema.yaml
//	dbmeta deploy --dsn app.db --previous schema_v1.yaml schema.yaml
//	dbmeta check --dsn app.db
//	dbmeta dump --dsn app.db --out ./dump schema.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// app holds the settings shared by every command.
type app struct {
	configFile string
	verbose    bool
	previous   string
	allowDrop  bool
	flags      config
	cfg        config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "dbmeta",
		Short:         "Schema compiler and packet deployer",
		Long:          "Compile schema documents into tables and Go access code, and deploy them to a database as versioned packets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&a.configFile, "config", "", "path to a YAML config file with default settings")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level, including every statement")
	f.StringVar(&a.flags.Dialect, "dialect", "", "database dialect: sqlite, postgres or mysql")
	f.StringVar(&a.flags.DSN, "dsn", "", "data source name of the database")
	f.StringVar(&a.flags.Storage, "storage", "", "backend descriptor for column types (defaults to the dialect)")

	root.AddCommand(
		a.tablesCmd(),
		a.genCmd(),
		a.deployCmd(),
		a.checkCmd(),
		a.dumpCmd(),
	)
	return root
}

// init loads the config file, applies the flags set on the command line
// over it and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	cfg := config{}
	if a.configFile != "" {
		c, err := loadConfig(a.configFile)
		if err != nil {
			return err
		}
		cfg = *c
	}
	flags := cmd.Flags()
	for name, v := range map[string]*string{
		"dialect": &a.flags.Dialect,
		"dsn":     &a.flags.DSN,
		"storage": &a.flags.Storage,
		"target":  &a.flags.Target,
		"package": &a.flags.Package,
		"dir":     &a.flags.Dir,
	} {
		if flags.Changed(name) {
			*cfg.field(name) = *v
		}
	}
	if err := cfg.defaults(); err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "dbmeta:", err)
		stop()
		os.Exit(1)
	}
}
