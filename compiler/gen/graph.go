package gen

import (
	"fmt"
	"log/slog"
	"strings"

	sqlschema "github.com/despencer/dbmeta/dialect/sql/schema"
	"github.com/despencer/dbmeta/schema"
)

type (
	// Generator renders a compiled graph.
	Generator interface {
		Generate(*Graph) error
	}

	// GenerateFunc adapts a function to the Generator interface.
	GenerateFunc func(*Graph) error

	// Hook wraps a Generator, for example to run code before or after it.
	//
	//	func logHook(next gen.Generator) gen.Generator {
	//		return gen.GenerateFunc(func(g *gen.Graph) error {
	//			slog.Info("generating", "tables", len(g.Nodes))
	//			return next.Generate(g)
	//		})
	//	}
	Hook func(Generator) Generator
)

// Generate calls f(g).
func (f GenerateFunc) Generate(g *Graph) error { return f(g) }

// Graph is a package compiled against a storage descriptor.
type Graph struct {
	*Config
	// Schema is the compiled schema package.
	Schema *schema.Package
	// Nodes holds the compiled entities, namespaces visited depth-first and
	// entities in registration order.
	Nodes []*Node
	// Previous is the compiled previous version, see Config.Previous.
	Previous *Graph
}

// NewGraph compiles every entity of pkg and validates the resulting tables.
func NewGraph(c *Config, pkg *schema.Package) (*Graph, error) {
	if c == nil || c.Storage == nil {
		return nil, NewConfigError("Storage", nil, "missing storage descriptor")
	}
	if pkg == nil {
		return nil, NewSchemaError("", "", "nil package", nil)
	}
	g := &Graph{Config: c, Schema: pkg}
	for _, e := range pkg.Entities() {
		n, err := NewNode(e.Namespace(), e, c.Storage)
		if err != nil {
			return nil, err
		}
		g.Nodes = append(g.Nodes, n)
	}
	if err := sqlschema.ValidateSchema(g.Tables()).Err(); err != nil {
		return nil, NewSchemaError("", "", "", err)
	}
	if err := g.qualify(); err != nil {
		return nil, err
	}
	if c.Previous != nil {
		if err := g.upgrade(c.Previous); err != nil {
			return nil, err
		}
	}
	slog.Debug("package compiled", "package", pkg.Name, "version", pkg.Version, "tables", len(g.Nodes), "storage", c.Storage.Name)
	return g, nil
}

// qualify derives the Go name of entities declared under the same name in
// several namespaces from their table names, and fails when two nodes or
// two fields of a node still share a Go name.
func (g *Graph) qualify() error {
	count := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		count[n.GoName]++
	}
	for _, n := range g.Nodes {
		if count[n.GoName] > 1 {
			n.GoName = Pascal(n.Table.Name)
		}
	}
	seen := make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if prev, ok := seen[n.GoName]; ok {
			return NewSchemaError(n.Name, "", fmt.Sprintf("Go name %s of table %s clashes with table %s", n.GoName, n.Table.Name, prev.Table.Name), nil)
		}
		seen[n.GoName] = n
		fields := make(map[string]*Field, len(n.Fields))
		for _, f := range n.Fields {
			if prev, ok := fields[f.Name]; ok {
				return NewSchemaError(n.Name, strings.Join(f.Path, "."), fmt.Sprintf("Go field %s clashes with member %s", f.Name, strings.Join(prev.Path, ".")), nil)
			}
			fields[f.Name] = f
		}
	}
	return nil
}

// upgrade compiles the previous version of the package and checks that the
// database holding it can be upgraded.
func (g *Graph) upgrade(prev *schema.Package) error {
	switch {
	case prev.Name != g.Schema.Name:
		return NewConfigError("Previous", prev.Name, "previous package is "+prev.Name+", not "+g.Schema.Name)
	case prev.Version >= g.Schema.Version:
		return NewConfigError("Previous", prev.Version, fmt.Sprintf("previous version must be lower than %d", g.Schema.Version))
	}
	pg, err := NewGraph(&Config{Storage: g.Storage}, prev)
	if err != nil {
		return fmt.Errorf("previous version: %w", err)
	}
	if _, err := sqlschema.Upgrade(g.Storage.Dialect, pg.Tables(), g.Tables(), g.UpgradeOptions()...); err != nil {
		return NewSchemaError("", "", fmt.Sprintf("upgrade from version %d", prev.Version), err)
	}
	g.Previous = pg
	return nil
}

// UpgradeOptions returns the diff options of upgrades from the previous
// version.
func (g *Graph) UpgradeOptions() []sqlschema.ValidateOption {
	if !g.AllowDrop {
		return nil
	}
	return []sqlschema.ValidateOption{sqlschema.AllowDropColumn(), sqlschema.AllowDropTable()}
}

// Tables returns the compiled tables in node order.
func (g *Graph) Tables() []*sqlschema.Table {
	tables := make([]*sqlschema.Table, len(g.Nodes))
	for i, n := range g.Nodes {
		tables[i] = n.Table
	}
	return tables
}

// Node returns the node of the named table or nil.
func (g *Graph) Node(table string) *Node {
	for _, n := range g.Nodes {
		if n.Table.Name == table {
			return n
		}
	}
	return nil
}

// DeployOrder returns the nodes ordered so that referenced tables come
// before the tables referencing them. Nodes keep their relative order
// otherwise; reference cycles are broken at the first revisited node.
func (g *Graph) DeployOrder() []*Node {
	const (
		visiting = iota + 1
		done
	)
	var (
		order []*Node
		state = make(map[*Node]int, len(g.Nodes))
		visit func(*Node)
	)
	visit = func(n *Node) {
		if state[n] != 0 {
			return
		}
		state[n] = visiting
		for _, c := range n.Table.References() {
			if ref := g.Node(c.Reference); ref != nil && ref != n {
				visit(ref)
			}
		}
		state[n] = done
		order = append(order, n)
	}
	for _, n := range g.Nodes {
		visit(n)
	}
	return order
}

// Gen renders the graph with the configured generator, wrapped by the
// configured hooks.
func (g *Graph) Gen() error {
	if g.Generator == nil {
		return NewConfigError("Generator", nil, "no generator configured")
	}
	var next Generator = g.Generator
	for i := len(g.Hooks) - 1; i >= 0; i-- {
		next = g.Hooks[i](next)
	}
	return next.Generate(g)
}
