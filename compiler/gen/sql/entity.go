package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/despencer/dbmeta/compiler/gen"
)

// genEntity generates the file of one compiled entity: the record struct,
// the column constants, the table, the row mapping and typed accessors.
func genEntity(g *gen.Graph, n *gen.Node) *jen.File {
	f := newFile(g)
	genStruct(f, n)
	genColumns(f, n)
	genTable(f, n)
	genMapping(f, n)
	genAccessors(f, n)
	return f
}

func genStruct(f *jen.File, n *gen.Node) {
	f.Commentf("%s is a row of table %s.", n.GoName, n.Table.Name)
	f.Type().Id(n.GoName).StructFunc(func(group *jen.Group) {
		for _, fd := range n.Fields {
			s := group.Id(fd.Name).Add(goType(fd))
			if fd.IsReference() {
				s.Comment("references " + fd.Column.Reference)
			}
		}
	})
}

func genColumns(f *jen.File, n *gen.Node) {
	f.Commentf("Columns of table %s.", n.Table.Name)
	f.Const().DefsFunc(func(defs *jen.Group) {
		for _, fd := range n.Fields {
			defs.Id(n.GoName + "Column" + fd.Name).Op("=").Lit(fd.Column.Name)
		}
	})
}

func genTable(f *jen.File, n *gen.Node) {
	f.Commentf("%sTable is the physical table of %s.", n.GoName, n.GoName)
	f.Var().Id(n.GoName+"Table").Op("=").Add(tableLit(n.Table))
}

func genMapping(f *jen.File, n *gen.Node) {
	f.Commentf("%sMapping maps %s to table %s. Its fields follow the", n.GoName, n.GoName, n.Table.Name)
	f.Comment("physical column order.")
	f.Var().Id(n.GoName+"Mapping").Op("=").Qual(sqlmapPkg, "New").CallFunc(func(group *jen.Group) {
		group.Id(n.GoName + "Table").Dot("Name")
		for _, fd := range n.Fields {
			group.Add(mapField(n, fd))
		}
	})
}

// genAccessors generates the typed row functions of a node. They are
// package functions so that no column can shadow them.
func genAccessors(f *jen.File, n *gen.Node) {
	var (
		name    = n.GoName
		mapping = jen.Id(name + "Mapping")
		ctx     = jen.Id("ctx").Qual("context", "Context")
		ex      = jen.Id("ex").Qual(dialectPkg, "ExecQuerier")
		rec     = jen.Id("rec").Op("*").Id(name)
		plural  = gen.Plural(name)
	)

	f.Commentf("Get%s returns the %s with the given id. The boolean is false", name, name)
	f.Comment("when no row matches.")
	f.Func().Id("Get"+name).Params(ctx, ex, jen.Id("id").Int64()).Params(jen.Id(name), jen.Bool(), jen.Error()).Block(
		jen.Return(mapping.Clone().Dot("Get").Call(jen.Id("ctx"), jen.Id("ex"), jen.Id("id"))),
	)

	f.Commentf("List%s returns the %s rows matching pred, ordered by id.", plural, name)
	f.Comment("An empty pred matches every row.")
	f.Func().Id("List"+plural).Params(ctx, ex, jen.Id("pred").String(), jen.Id("args").Op("...").Any()).Params(jen.Index().Id(name), jen.Error()).Block(
		jen.Return(mapping.Clone().Dot("List").Call(jen.Id("ctx"), jen.Id("ex"), jen.Id("pred"), jen.Id("args").Op("..."))),
	)

	f.Commentf("Insert%s writes rec as a new row. The id must be assigned.", name)
	f.Func().Id("Insert"+name).Params(ctx, ex, rec.Clone()).Error().Block(
		jen.List(jen.Id("_"), jen.Err()).Op(":=").Add(mapping.Clone()).Dot("Insert").Call(jen.Id("ctx"), jen.Id("ex"), jen.Id("rec")),
		jen.Return(jen.Err()),
	)

	f.Commentf("Update%s writes rec over the row with the same id.", name)
	f.Func().Id("Update"+name).Params(ctx, ex, rec.Clone()).Error().Block(
		jen.List(jen.Id("rows"), jen.Err()).Op(":=").Add(mapping.Clone()).Dot("Update").Call(jen.Id("ctx"), jen.Id("ex"), jen.Id("rec")),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
		jen.If(jen.Id("rows").Op("==").Lit(0)).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(n.Table.Name+" %d: no such row"), jen.Id("rec").Dot("ID"))),
		),
		jen.Return(jen.Nil()),
	)

	f.Commentf("Delete%s removes the row with the given id and reports whether it", name)
	f.Comment("existed.")
	f.Func().Id("Delete"+name).Params(ctx, ex, jen.Id("id").Int64()).Params(jen.Bool(), jen.Error()).Block(
		jen.Return(mapping.Clone().Dot("Delete").Call(jen.Id("ctx"), jen.Id("ex"), jen.Id("id"))),
	)
}
