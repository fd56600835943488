package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/despencer/dbmeta/compiler/gen"
)

// genPackage generates the package file: the packet identity, the table
// list, mapping registration and the packet deploy entry point.
func genPackage(g *gen.Graph) *jen.File {
	f := newFile(g)
	ctx := jen.Id("ctx").Qual("context", "Context")

	f.Comment("Packet identity of the schema package.")
	f.Const().DefsFunc(func(defs *jen.Group) {
		defs.Id("PackageName").Op("=").Lit(g.Schema.Name)
		defs.Id("PackageVersion").Op("=").Lit(g.Schema.Version)
		if g.Previous != nil {
			defs.Id("PreviousVersion").Op("=").Lit(g.Previous.Schema.Version)
		}
	})

	f.Comment("Tables returns the tables of the package, referenced tables first.")
	f.Func().Id("Tables").Params().Index().Op("*").Qual(schemaPkg, "Table").Block(
		jen.Return(jen.Index().Op("*").Qual(schemaPkg, "Table").ValuesFunc(func(group *jen.Group) {
			for _, n := range g.DeployOrder() {
				group.Id(n.GoName + "Table")
			}
		})),
	)

	if g.Previous != nil {
		f.Comment("PreviousTables returns the tables of version PreviousVersion, referenced")
		f.Comment("tables first.")
		f.Func().Id("PreviousTables").Params().Index().Op("*").Qual(schemaPkg, "Table").Block(
			jen.Return(jen.Index().Op("*").Qual(schemaPkg, "Table").ValuesFunc(func(group *jen.Group) {
				for _, n := range g.Previous.DeployOrder() {
					group.Add(tableLit(n.Table))
				}
			})),
		)
	}

	f.Comment("Register adds the row mappings of the package to reg.")
	f.Func().Id("Register").Params(jen.Id("reg").Op("*").Qual(sqlmapPkg, "Registry")).Error().BlockFunc(func(group *jen.Group) {
		for _, n := range g.Nodes {
			group.If(
				jen.Err().Op(":=").Qual(sqlmapPkg, "Register").Call(jen.Id("reg"), jen.Id(n.GoName+"Mapping")),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err()))
		}
		group.Return(jen.Nil())
	})

	f.Comment("Deployer deploys schema packets. It is implemented by *dbmeta.Client.")
	f.Type().Id("Deployer").Interface(
		jen.Id("Dialect").Params().String(),
		jen.Id("Registered").Params(ctx, jen.Id("module").String(), jen.Id("version").Int()).Params(jen.Bool(), jen.Error()),
		jen.Id("Deploy").Params(ctx, jen.Id("module").String(), jen.Id("version").Int(), jen.Id("stmts").Op("...").String()).Params(jen.Bool(), jen.Error()),
	)

	script := jen.Id("stmts").Op(":=").Qual(schemaPkg, "Script").Call(jen.Id("d").Dot("Dialect").Call(), jen.Id("Tables").Call().Op("..."))
	deploy := jen.Return(jen.Id("d").Dot("Deploy").Call(jen.Id("ctx"), jen.Id("PackageName"), jen.Id("PackageVersion"), jen.Id("stmts").Op("...")))
	f.Comment("Deploy creates the tables of the package as packet (PackageName, PackageVersion).")
	if g.Previous == nil {
		f.Comment("It reports false when the packet is already registered.")
		f.Func().Id("Deploy").Params(ctx, jen.Id("d").Id("Deployer")).Params(jen.Bool(), jen.Error()).Block(script, deploy)
		return f
	}
	f.Comment("A database holding packet (PackageName, PreviousVersion) is upgraded instead.")
	f.Comment("It reports false when the packet is already registered.")
	f.Func().Id("Deploy").Params(ctx, jen.Id("d").Id("Deployer")).Params(jen.Bool(), jen.Error()).Block(
		script,
		jen.List(jen.Id("upgrade"), jen.Err()).Op(":=").Id("d").Dot("Registered").Call(jen.Id("ctx"), jen.Id("PackageName"), jen.Id("PreviousVersion")),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.False(), jen.Err())),
		jen.If(jen.Id("upgrade")).Block(
			jen.List(jen.Id("stmts"), jen.Err()).Op("=").Qual(schemaPkg, "Upgrade").CallFunc(func(args *jen.Group) {
				args.Id("d").Dot("Dialect").Call()
				args.Id("PreviousTables").Call()
				args.Id("Tables").Call()
				if g.AllowDrop {
					args.Qual(schemaPkg, "AllowDropColumn").Call()
					args.Qual(schemaPkg, "AllowDropTable").Call()
				}
			}),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.False(), jen.Err())),
		),
		deploy,
	)
	return f
}
