package schema

import (
	"slices"
	"strings"
)

// Namespace is a node of the namespace tree. It owns its children and its
// locally declared types. The parent link is a non-owning back pointer set
// once when the node is attached; the tree is never detached afterwards.
type Namespace struct {
	Name     string
	parent   *Namespace
	children []*Namespace
	types    []Type
	entities []*RecordType
}

// Parent returns the enclosing namespace, or nil at the root.
func (n *Namespace) Parent() *Namespace { return n.parent }

// Children returns the child namespaces in creation order.
func (n *Namespace) Children() []*Namespace { return n.children }

// Types returns the locally declared types in declaration order.
func (n *Namespace) Types() []Type { return n.types }

// Entities returns the locally registered entities in registration order.
func (n *Namespace) Entities() []*RecordType { return n.entities }

// IsRoot reports whether n is the root of its tree.
func (n *Namespace) IsRoot() bool { return n.parent == nil }

// Path returns the names from the root down to n, excluding the root itself.
func (n *Namespace) Path() []string {
	var path []string
	for c := n; c != nil && c.parent != nil; c = c.parent {
		path = append(path, c.Name)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// String returns the dot separated path of the namespace.
func (n *Namespace) String() string { return strings.Join(n.Path(), ".") }

// Child returns the descendant at the given path. Existing children are
// matched by exact name; from the first missing segment on, a node is
// created and attached for every remaining segment. Empty names are
// skipped.
func (n *Namespace) Child(names ...string) *Namespace {
	names = slices.DeleteFunc(slices.Clone(names), func(name string) bool { return name == "" })
	c := n
	for i, name := range names {
		next := c.child(name)
		if next == nil {
			for _, name := range names[i:] {
				next = &Namespace{Name: name, parent: c}
				c.children = append(c.children, next)
				c = next
			}
			return c
		}
		c = next
	}
	return c
}

func (n *Namespace) child(name string) *Namespace {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Lookup returns the type declared locally under name, without consulting parents.
func (n *Namespace) Lookup(name string) (Type, bool) {
	for _, t := range n.types {
		if t.TypeName() == name {
			return t, true
		}
	}
	return nil, false
}

// Resolve returns the type for name, scanning the local declarations first
// and delegating to the parent on a miss.
func (n *Namespace) Resolve(name string) (Type, error) {
	for c := n; c != nil; c = c.parent {
		if t, ok := c.Lookup(name); ok {
			return t, nil
		}
	}
	return nil, &TypeNotFoundError{Name: name, Namespace: n.String()}
}

// MustResolve is like Resolve but panics if the type cannot be found.
func (n *Namespace) MustResolve(name string) Type {
	t, err := n.Resolve(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Declare adds a type to the local declarations. Declared records remember n
// as their namespace.
func (n *Namespace) Declare(t Type) error {
	if _, ok := n.Lookup(t.TypeName()); ok {
		return &RedeclaredError{Name: t.TypeName(), Owner: n.String()}
	}
	if r, ok := t.(*RecordType); ok && r.ns == nil {
		r.ns = n
	}
	n.types = append(n.types, t)
	return nil
}

// Struct declares a value record named name.
func (n *Namespace) Struct(name string) (*RecordType, error) {
	r := Record(name)
	if err := n.Declare(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Entity declares a record named name as a table root. The record is
// registered before any member beyond id is added, so later members may
// reference the entity itself or entities registered after it.
func (n *Namespace) Entity(name string) (*RecordType, error) {
	id, err := n.Resolve(TypeID)
	if err != nil {
		return nil, err
	}
	r := Record(name)
	r.entity = true
	r.Members = []*Member{{Name: TypeID, Type: id}}
	if err := n.Declare(r); err != nil {
		return nil, err
	}
	n.entities = append(n.entities, r)
	return r, nil
}

// Walk calls fn for n and every descendant in depth-first pre-order.
func (n *Namespace) Walk(fn func(*Namespace) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}
