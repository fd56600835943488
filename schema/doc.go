// Package schema provides the declarative type graph consumed by the compiler.
//
// A schema is a [Package] owning a tree of [Namespace] nodes. Each namespace
// declares types locally and resolves names by walking upward to its parent:
//
//	pkg := schema.NewDBPackage("shop")
//	app := pkg.Namespace("app")
//
//	addr, _ := app.Struct("Address")
//	addr.Add("city", app.MustResolve("string"))
//
//	inv, _ := app.Entity("Invoice")
//	inv.Add("total", app.MustResolve("int32"))
//	inv.Add("address", addr)
//
// # Types
//
// Three kinds of types exist:
//
//   - [SimpleType]: a named primitive such as int32, string or id.
//   - [RecordType]: an ordered list of members. A record registered with
//     [Namespace.Entity] is a storable table root and always starts with
//     the id member; records registered with [Namespace.Struct] are value
//     types that get flattened into the columns of their owner.
//   - [ReferenceType]: a pointer to a row of an entity, see [Ref].
//
// # Resolution
//
// Names are resolved only here. [Namespace.Resolve] scans the local types
// first and then delegates to the parent, so a type declared in a
// descendant never affects lookups made from an ancestor, while a
// descendant may shadow an ancestor's declaration.
//
// The graph is built once and is read-only afterwards. It is not safe for
// concurrent modification.
package schema
