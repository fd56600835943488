package gen

import (
	"errors"
	"strings"

	sqlschema "github.com/despencer/dbmeta/dialect/sql/schema"
	"github.com/despencer/dbmeta/schema"
)

// Field is a flattened leaf of an entity: one physical column and the
// primitive or reference it was compiled from.
type Field struct {
	// Name is the exported Go name of the column.
	Name string
	// Path holds the member names from the entity down to the leaf.
	Path []string
	// Type is the primitive name of the leaf. It is empty for references.
	Type string
	// Ref is the target entity of a reference leaf.
	Ref    *schema.RecordType
	Column *sqlschema.Column
}

// IsReference reports whether the field is a foreign key.
func (f *Field) IsReference() bool { return f.Ref != nil }

// IsID reports whether the field is the primary column.
func (f *Field) IsID() bool { return len(f.Path) == 1 && f.Path[0] == schema.TypeID }

// Node is an entity compiled against a storage descriptor.
type Node struct {
	// Name is the entity name.
	Name string
	// GoName is the exported Go identifier of the entity. It is the entity
	// name unless another namespace declares an entity of the same name, in
	// which case it is derived from the table name.
	GoName    string
	Entity    *schema.RecordType
	Namespace *schema.Namespace
	Table     *sqlschema.Table
	// Fields holds the primary field followed by the data fields, in
	// physical column order.
	Fields []*Field
}

// NewTable compiles an entity to its physical table. Nested value records
// are expanded depth-first with "<member>_" prefixes, references become
// foreign key columns typed as the storage's id, and primitives take the
// column type the storage maps them to.
func NewTable(ns *schema.Namespace, entity *schema.RecordType, storage *Storage) (*sqlschema.Table, error) {
	n, err := NewNode(ns, entity, storage)
	if err != nil {
		return nil, err
	}
	return n.Table, nil
}

// NewNode is like NewTable but also returns the leaf of every column.
func NewNode(ns *schema.Namespace, entity *schema.RecordType, storage *Storage) (*Node, error) {
	if entity == nil {
		return nil, NewSchemaError("", "", "nil entity", nil)
	}
	if storage == nil {
		return nil, NewConfigError("Storage", nil, "missing storage descriptor")
	}
	if ns == nil {
		ns = entity.Namespace()
	}
	if ns == nil {
		return nil, NewSchemaError(entity.Name, "", "entity is not declared in a namespace", nil)
	}
	if len(entity.Members) == 0 || entity.Members[0].Name != schema.TypeID {
		return nil, NewSchemaError(entity.Name, "", "first member must be "+schema.TypeID, nil)
	}
	if t, ok := entity.Members[0].Type.(*schema.SimpleType); !ok || t.Name != schema.TypeID {
		return nil, NewSchemaError(entity.Name, schema.TypeID, "must be of type "+schema.TypeID, nil)
	}
	c := &compiler{
		ns:      ns,
		entity:  entity,
		storage: storage,
		table:   TableName(ns, entity.Name),
		visit:   map[*schema.RecordType]bool{entity: true},
	}
	fields, err := c.flatten(nil, entity.Members)
	if err != nil {
		return nil, err
	}
	t := sqlschema.NewTable(c.table, fields[0].Column)
	for _, f := range fields[1:] {
		t.AddColumns(f.Column)
	}
	return &Node{
		Name:      entity.Name,
		GoName:    Pascal(entity.Name),
		Entity:    entity,
		Namespace: ns,
		Table:     t,
		Fields:    fields,
	}, nil
}

// TableName returns the physical name of an entity declared in ns: the
// namespace path joined by "_", or the package name for the root, followed
// by "_" and the entity name.
func TableName(ns *schema.Namespace, entity string) string {
	prefix := NamespaceName(ns)
	if prefix == "" {
		return entity
	}
	return prefix + "_" + entity
}

// NamespaceName returns the table prefix of a namespace.
func NamespaceName(ns *schema.Namespace) string {
	switch {
	case ns == nil:
		return ""
	case ns.IsRoot():
		return ns.Name
	default:
		return strings.Join(ns.Path(), "_")
	}
}

type compiler struct {
	ns      *schema.Namespace
	entity  *schema.RecordType
	storage *Storage
	table   string
	// records on the current expansion path.
	visit map[*schema.RecordType]bool
}

// flatten emits the leaves of members into a fresh slice.
func (c *compiler) flatten(prefix []string, members []*schema.Member) ([]*Field, error) {
	var fields []*Field
	for _, m := range members {
		path := append(append([]string(nil), prefix...), m.Name)
		switch t := m.Type.(type) {
		case *schema.RecordType:
			if c.visit[t] {
				return nil, NewSchemaError(c.entity.Name, strings.Join(path, "."), "record "+t.Name+" contains itself", nil)
			}
			c.visit[t] = true
			nested, err := c.flatten(path, t.Members)
			delete(c.visit, t)
			if err != nil {
				return nil, err
			}
			fields = append(fields, nested...)
		case *schema.ReferenceType:
			if t.Base == nil {
				return nil, NewSchemaError(c.entity.Name, strings.Join(path, "."), "reference without target", nil)
			}
			typ, err := c.columnType(schema.TypeID, path)
			if err != nil {
				return nil, err
			}
			target := t.Base.Namespace()
			if target == nil {
				target = c.ns
			}
			fields = append(fields, c.field(path, "", t.Base, &sqlschema.Column{
				Type:      typ,
				Reference: TableName(target, t.Base.Name),
			}))
		case *schema.SimpleType:
			typ, err := c.columnType(t.Name, path)
			if err != nil {
				return nil, err
			}
			fields = append(fields, c.field(path, t.Name, nil, &sqlschema.Column{Type: typ}))
		default:
			return nil, NewSchemaError(c.entity.Name, strings.Join(path, "."), "member has no type", nil)
		}
	}
	return fields, nil
}

func (c *compiler) field(path []string, typ string, ref *schema.RecordType, col *sqlschema.Column) *Field {
	col.Name = strings.Join(path, "_")
	return &Field{
		Name:   Pascal(col.Name),
		Path:   path,
		Type:   typ,
		Ref:    ref,
		Column: col,
	}
}

func (c *compiler) columnType(name string, path []string) (string, error) {
	typ, err := c.storage.ColumnType(name)
	var unmapped *UnmappedTypeError
	if errors.As(err, &unmapped) {
		unmapped.Table = c.table
		unmapped.Column = strings.Join(path, "_")
	}
	return typ, err
}
