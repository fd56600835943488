package sql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/despencer/dbmeta/compiler/gen"
)

// PackageFile is the name of the generated package file.
const PackageFile = "packet.go"

// Generate renders the graph to Go source in the configured target
// directory: one file per table and the package file.
//
//	g, err := gen.NewGraph(cfg, pkg)
//	if err != nil {
//		return err
//	}
//	err = sql.Generate(g)
func Generate(g *gen.Graph) error {
	return GenerateContext(context.Background(), g)
}

// GenerateContext is like Generate with a context that cancels pending
// file writes.
func GenerateContext(ctx context.Context, g *gen.Graph) error {
	if g.Config == nil || g.Target == "" {
		return gen.NewConfigError("Target", nil, "missing target directory in config")
	}
	if err := checkNames(g); err != nil {
		return err
	}
	files := Files(g)
	w := gen.NewWriter(g.Target).WithWorkers(g.Workers)
	if err := w.Write(ctx, files); err != nil {
		return err
	}
	slog.Info("code generated", "package", pkgName(g), "target", g.Target, "files", w.Metrics().FilesGenerated)
	return nil
}

// Files returns the files rendered for the graph, table files in node
// order followed by the package file.
func Files(g *gen.Graph) []gen.File {
	files := make([]gen.File, 0, len(g.Nodes)+1)
	for _, n := range g.Nodes {
		files = append(files, gen.File{Name: gen.FileName(n.Table.Name), File: genEntity(g, n)})
	}
	return append(files, gen.File{Name: PackageFile, File: genPackage(g)})
}

// packageNames are the package level identifiers of the package file.
var packageNames = []string{"PackageName", "PackageVersion", "PreviousVersion", "Tables", "PreviousTables", "Register", "Deployer", "Deploy"}

// checkNames fails when two package level identifiers of the rendered
// package collide, for example entity "Invoice" with column "table" and
// entity "InvoiceTable".
func checkNames(g *gen.Graph) error {
	owner := make(map[string]string)
	for _, name := range packageNames {
		owner[name] = PackageFile
	}
	for _, n := range g.Nodes {
		names := []string{
			n.GoName, n.GoName + "Table", n.GoName + "Mapping",
			"Get" + n.GoName, "List" + gen.Plural(n.GoName),
			"Insert" + n.GoName, "Update" + n.GoName, "Delete" + n.GoName,
		}
		for _, fd := range n.Fields {
			names = append(names, n.GoName+"Column"+fd.Name)
		}
		for _, name := range names {
			if prev, ok := owner[name]; ok {
				return gen.NewSchemaError(n.Name, "", fmt.Sprintf("Go identifier %s of table %s is already declared by %s", name, n.Table.Name, prev), nil)
			}
			owner[name] = n.Table.Name
		}
	}
	return nil
}

// NewGenerator returns the generator to set with gen.WithGenerator.
func NewGenerator() gen.Generator {
	return gen.GenerateFunc(Generate)
}
