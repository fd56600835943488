package schema

import "fmt"

// Names of the built-in primitives seeded into every package root.
const (
	TypeUint32 = "uint32"
	TypeInt32  = "int32"
	TypeString = "string"
	// TypeID is the reserved surrogate key primitive, seeded only for database packages.
	TypeID = "id"
)

// Type is implemented by SimpleType, RecordType and ReferenceType.
type Type interface {
	// TypeName returns the declared name of the type.
	TypeName() string
	typ()
}

// The following types make up the type graph.
type (
	// SimpleType is a named primitive.
	SimpleType struct {
		Name string
	}

	// RecordType is a named, ordered sequence of members. It is either a
	// value type or, when registered as an entity, a storable table root.
	RecordType struct {
		Name    string
		Members []*Member
		entity  bool
		ns      *Namespace
	}

	// ReferenceType marks a member as a pointer to a row of the Base entity.
	ReferenceType struct {
		Base *RecordType
	}

	// Member is a named slot of a record. Type is a non-owning reference to
	// a type reachable from the declaring namespace.
	Member struct {
		Name string
		Type Type
	}
)

// Simple returns a new primitive type.
func Simple(name string) *SimpleType { return &SimpleType{Name: name} }

// TypeName implements the Type interface.
func (t *SimpleType) TypeName() string { return t.Name }

func (*SimpleType) typ() {}

// Record returns a new value record without members.
func Record(name string) *RecordType { return &RecordType{Name: name} }

// TypeName implements the Type interface.
func (t *RecordType) TypeName() string { return t.Name }

func (*RecordType) typ() {}

// IsEntity reports whether the record was registered as a table root.
func (t *RecordType) IsEntity() bool { return t.entity }

// Namespace returns the namespace that declares the record, or nil for
// records that were never declared.
func (t *RecordType) Namespace() *Namespace { return t.ns }

// Member returns the member with the given name or nil.
func (t *RecordType) Member(name string) *Member {
	for _, m := range t.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Add appends a member. Member names are unique within a record.
func (t *RecordType) Add(name string, typ Type) (*RecordType, error) {
	if typ == nil {
		return t, fmt.Errorf("schema: member %q of %q has no type", name, t.Name)
	}
	if t.Member(name) != nil {
		return t, &RedeclaredError{Name: name, Owner: t.Name}
	}
	t.Members = append(t.Members, &Member{Name: name, Type: typ})
	return t, nil
}

// MustAdd is like Add but panics on error.
func (t *RecordType) MustAdd(name string, typ Type) *RecordType {
	if _, err := t.Add(name, typ); err != nil {
		panic(err)
	}
	return t
}

// Ref returns a reference to the given entity.
func Ref(base *RecordType) *ReferenceType { return &ReferenceType{Base: base} }

// TypeName implements the Type interface.
func (t *ReferenceType) TypeName() string {
	if t.Base == nil {
		return "ref"
	}
	return "ref " + t.Base.Name
}

func (*ReferenceType) typ() {}

var (
	_ Type = (*SimpleType)(nil)
	_ Type = (*RecordType)(nil)
	_ Type = (*ReferenceType)(nil)
)
