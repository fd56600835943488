package sql

import (
	"path"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/despencer/dbmeta/compiler/gen"
	sqlschema "github.com/despencer/dbmeta/dialect/sql/schema"
	"github.com/despencer/dbmeta/schema"
)

const (
	dialectPkg = "github.com/despencer/dbmeta/dialect"
	schemaPkg  = "github.com/despencer/dbmeta/dialect/sql/schema"
	sqlmapPkg  = "github.com/despencer/dbmeta/dialect/sql/sqlmap"
)

// pkgName returns the name of the generated package: the last element of
// the configured import path, or the schema package name.
func pkgName(g *gen.Graph) string {
	name := g.Schema.Name
	switch {
	case g.Config.Package != "":
		name = path.Base(g.Config.Package)
	case name == "" && g.Target != "":
		name = path.Base(strings.ReplaceAll(g.Target, "\\", "/"))
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return -1
	}, name)
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "db" + name
	}
	return name
}

func newFile(g *gen.Graph) *jen.File {
	f := jen.NewFile(pkgName(g))
	if g.Header != "" {
		f.HeaderComment(g.Header)
	}
	return f
}

// goType returns the Go type of a field.
func goType(f *gen.Field) jen.Code {
	if f.IsReference() {
		return jen.Int64()
	}
	switch f.Type {
	case schema.TypeID:
		return jen.Int64()
	case schema.TypeInt32:
		return jen.Int32()
	case schema.TypeUint32:
		return jen.Uint32()
	case schema.TypeString:
		return jen.String()
	default:
		return jen.Any()
	}
}

// mapField returns the sqlmap field constructor call of f.
//
//	sqlmap.Int32("total", func(r *Invoice) *int32 { return &r.Total })
func mapField(n *gen.Node, f *gen.Field) jen.Code {
	ptr := func(typ jen.Code) jen.Code {
		return jen.Func().Params(jen.Id("r").Op("*").Id(n.GoName)).Op("*").Add(typ).Block(
			jen.Return(jen.Op("&").Id("r").Dot(f.Name)),
		)
	}
	col := jen.Lit(f.Column.Name)
	switch {
	case f.IsID():
		return jen.Qual(sqlmapPkg, "ID").Call(ptr(jen.Int64()))
	case f.IsReference():
		return jen.Qual(sqlmapPkg, "Ref").Call(col, ptr(jen.Int64()))
	case f.Type == schema.TypeID:
		return jen.Qual(sqlmapPkg, "Int64").Call(col, ptr(jen.Int64()))
	case f.Type == schema.TypeInt32:
		return jen.Qual(sqlmapPkg, "Int32").Call(col, ptr(jen.Int32()))
	case f.Type == schema.TypeUint32:
		return jen.Qual(sqlmapPkg, "Uint32").Call(col, ptr(jen.Uint32()))
	case f.Type == schema.TypeString:
		return jen.Qual(sqlmapPkg, "String").Call(col, ptr(jen.String()))
	default:
		// Schema-declared primitives pass through untouched.
		return jen.Qual(sqlmapPkg, "Func").Call(
			col,
			jen.Func().Params(jen.Id("r").Op("*").Id(n.GoName)).Params(jen.Any(), jen.Error()).Block(
				jen.Return(jen.Id("r").Dot(f.Name), jen.Nil()),
			),
			jen.Func().Params(jen.Id("r").Op("*").Id(n.GoName), jen.Id("v").Any()).Error().Block(
				jen.Id("r").Dot(f.Name).Op("=").Id("v"),
				jen.Return(jen.Nil()),
			),
		)
	}
}

// tableLit returns the composite literal of a table.
func tableLit(t *sqlschema.Table) jen.Code {
	return jen.Op("&").Qual(schemaPkg, "Table").Values(jen.Dict{
		jen.Id("Name"):    jen.Lit(t.Name),
		jen.Id("Primary"): jen.Op("&").Qual(schemaPkg, "Column").Values(columnDict(t.Primary)),
		jen.Id("Columns"): jen.Index().Op("*").Qual(schemaPkg, "Column").ValuesFunc(func(group *jen.Group) {
			for _, c := range t.Columns {
				group.Values(columnDict(c))
			}
		}),
	})
}

// columnDict returns the composite literal fields of a column.
func columnDict(c *sqlschema.Column) jen.Dict {
	d := jen.Dict{
		jen.Id("Name"): jen.Lit(c.Name),
		jen.Id("Type"): jen.Lit(c.Type),
	}
	if c.IsReference() {
		d[jen.Id("Reference")] = jen.Lit(c.Reference)
	}
	return d
}
