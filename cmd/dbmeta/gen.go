package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/despencer/dbmeta/compiler/gen"
	"github.com/despencer/dbmeta/compiler/gen/sql"
)

func (a *app) genCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "gen <schema.yaml>",
		Short: "Generate Go access code for a schema",
		Long: "Compile a schema document and write one Go file per table plus a package file " +
			"with the deploy packet into the target directory.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if a.cfg.Target == "" {
				return errors.New("missing target directory: set --target or target in the config file")
			}
			run := func() error { return a.generate(cmd.Context(), path) }
			if err := run(); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			w, err := newWatcher(path)
			if err != nil {
				return err
			}
			defer w.Close()
			a.logger.Info("watching schema", "schema", path)
			return watchLoop(cmd.Context(), w, path, a.logger, run)
		},
	}
	cmd.Flags().StringVarP(&a.flags.Target, "target", "t", "", "output directory of the generated code")
	cmd.Flags().StringVar(&a.flags.Package, "package", "", "import path of the generated package")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate whenever the schema document changes")
	a.upgradeFlags(cmd)
	return cmd
}

func (a *app) generate(ctx context.Context, path string) error {
	opts := []gen.Option{gen.WithTarget(a.cfg.Target), gen.WithGenerator(sql.NewGenerator())}
	if a.cfg.Package != "" {
		opts = append(opts, gen.WithPackage(a.cfg.Package))
	}
	g, err := a.graph(path, opts...)
	if err != nil {
		return err
	}
	return sql.GenerateContext(ctx, g)
}

// newWatcher watches the directory of path. Editors often replace a file
// instead of writing it, which drops a watch on the file itself.
func newWatcher(path string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		return nil, errors.Join(fmt.Errorf("watch %s: %w", path, err), w.Close())
	}
	return w, nil
}

// watchLoop calls run on every write or creation of path until ctx is
// done. Failures of run are logged and do not stop the loop.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, logger *slog.Logger, run func() error) error {
	name := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			logger.Debug("schema changed", "schema", path, "op", ev.Op.String())
			if err := run(); err != nil {
				logger.Error("generation failed", "schema", path, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
