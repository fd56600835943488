package schema

import "strings"

// Package is a versioned schema owning the root namespace.
type Package struct {
	Name string
	// Version is the monotonic schema version of the package.
	Version int
	Root    *Namespace
}

// NewPackage returns a package whose root declares uint32, int32 and string.
// The root namespace carries the package name.
func NewPackage(name string) *Package {
	root := &Namespace{Name: name}
	for _, n := range []string{TypeUint32, TypeInt32, TypeString} {
		root.types = append(root.types, Simple(n))
	}
	return &Package{Name: name, Version: 1, Root: root}
}

// NewDBPackage returns a package for database schemas. In addition to the
// primitives of NewPackage, its root declares the id primitive.
func NewDBPackage(name string) *Package {
	p := NewPackage(name)
	p.Root.types = append(p.Root.types, Simple(TypeID))
	return p
}

// Namespace returns the namespace at the dot separated path, creating any
// missing nodes. Empty segments are skipped, so "app..billing" is
// "app.billing" and an empty path returns the root.
func (p *Package) Namespace(path string) *Namespace {
	return p.Root.Child(strings.Split(path, ".")...)
}

// Entities returns every entity of the package with its declaring namespace,
// namespaces visited depth-first and entities in registration order.
func (p *Package) Entities() []*RecordType {
	var all []*RecordType
	_ = p.Root.Walk(func(n *Namespace) error {
		all = append(all, n.entities...)
		return nil
	})
	return all
}
