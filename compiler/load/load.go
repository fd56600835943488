// Package load reads schema documents and builds schema packages from them.
//
// A document declares a versioned package and its namespaces:
//
//	name: billing
//	version: 2
//	namespaces:
//	  - name: app
//	    types: [money]
//	    structs:
//	      - name: Address
//	        members:
//	          - {name: city, type: string}
//	    entities:
//	      - name: Invoice
//	        members:
//	          - {name: total, type: money}
//	          - {name: address, type: Address}
//	          - {name: customer, type: ref Customer}
//
// Type names resolve upward from the declaring namespace. A "ref" type
// names an entity and becomes a foreign key.
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/despencer/dbmeta/schema"
)

// refPrefix starts the type of a reference member.
const refPrefix = "ref "

type (
	// Document is the parsed form of a schema document.
	Document struct {
		Name       string       `yaml:"name"`
		Version    int          `yaml:"version"`
		Namespaces []*Namespace `yaml:"namespaces"`
	}

	// Namespace declares the primitives, value records and entities of one
	// namespace. An empty name is the package root.
	Namespace struct {
		Name     string    `yaml:"name"`
		Types    []string  `yaml:"types,omitempty"`
		Structs  []*Record `yaml:"structs,omitempty"`
		Entities []*Record `yaml:"entities,omitempty"`
	}

	// Record is a struct or entity declaration.
	Record struct {
		Name    string    `yaml:"name"`
		Members []*Member `yaml:"members,omitempty"`
	}

	// Member is a named, typed slot of a record.
	Member struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	}
)

// Error reports a document that cannot be built into a package.
type Error struct {
	// Path locates the failing declaration, for example
	// "app.billing/Invoice.customer".
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path == "" {
		return "load: " + e.Err.Error()
	}
	return fmt.Sprintf("load: %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// LoadFile reads the document at path and builds its package.
func LoadFile(path string) (*schema.Package, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return Load(bytes.NewReader(buf))
}

// Load reads a document from r and builds its package.
func Load(r io.Reader) (*schema.Package, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return doc.Package()
}

// Parse decodes a document. Unknown keys are rejected.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	doc := &Document{}
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &Error{Err: errors.New("empty document")}
		}
		return nil, &Error{Err: err}
	}
	if doc.Name == "" {
		return nil, &Error{Err: errors.New("missing package name")}
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	if doc.Version < 0 {
		return nil, &Error{Err: fmt.Errorf("invalid version %d", doc.Version)}
	}
	return doc, nil
}

// Package builds the schema package of the document. Records are declared
// in every namespace before any member is resolved, so members may refer
// to records declared later in the document.
func (d *Document) Package() (*schema.Package, error) {
	pkg := schema.NewDBPackage(d.Name)
	pkg.Version = d.Version
	type decl struct {
		ns     *schema.Namespace
		path   string
		record *schema.RecordType
		src    *Record
	}
	var decls []decl
	for _, n := range d.Namespaces {
		ns := pkg.Namespace(n.Name)
		for _, name := range n.Types {
			if err := ns.Declare(schema.Simple(name)); err != nil {
				return nil, &Error{Path: n.Name, Err: err}
			}
		}
		for _, s := range n.Structs {
			r, err := ns.Struct(s.Name)
			if err != nil {
				return nil, &Error{Path: n.Name, Err: err}
			}
			decls = append(decls, decl{ns: ns, path: n.Name, record: r, src: s})
		}
		for _, e := range n.Entities {
			r, err := ns.Entity(e.Name)
			if err != nil {
				return nil, &Error{Path: n.Name, Err: err}
			}
			decls = append(decls, decl{ns: ns, path: n.Name, record: r, src: e})
		}
	}
	for _, dc := range decls {
		for _, m := range dc.src.Members {
			path := dc.path + "/" + dc.src.Name + "." + m.Name
			typ, err := resolve(dc.ns, m.Type)
			if err != nil {
				return nil, &Error{Path: path, Err: err}
			}
			if _, err := dc.record.Add(m.Name, typ); err != nil {
				return nil, &Error{Path: path, Err: err}
			}
		}
	}
	return pkg, nil
}

// resolve returns the type named by a member declaration.
func resolve(ns *schema.Namespace, name string) (schema.Type, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("missing type")
	}
	base, ok := strings.CutPrefix(name, refPrefix)
	if !ok {
		return ns.Resolve(name)
	}
	typ, err := ns.Resolve(strings.TrimSpace(base))
	if err != nil {
		return nil, err
	}
	r, ok := typ.(*schema.RecordType)
	if !ok || !r.IsEntity() {
		return nil, fmt.Errorf("%q is not an entity", typ.TypeName())
	}
	return schema.Ref(r), nil
}
