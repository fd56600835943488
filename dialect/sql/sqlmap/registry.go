package sqlmap

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Registry holds the mappings of an application keyed by record type. It is
// built once at startup and passed to the code that reads and writes records.
type Registry struct {
	mu       sync.RWMutex
	mappings map[reflect.Type]any
	tables   map[string]reflect.Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mappings: make(map[reflect.Type]any),
		tables:   make(map[string]reflect.Type),
	}
}

// Register validates m and adds it as the mapping of T. A record type and a
// table can only be registered once.
func Register[T any](r *Registry, m *Mapping[T]) error {
	if err := m.validate(); err != nil {
		return err
	}
	typ := reflect.TypeFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mappings[typ]; ok {
		return fmt.Errorf("sqlmap: %s is already registered", typ)
	}
	if other, ok := r.tables[m.Table]; ok {
		return fmt.Errorf("sqlmap: table %s is already mapped to %s", m.Table, other)
	}
	r.mappings[typ] = m
	r.tables[m.Table] = typ
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](r *Registry, m *Mapping[T]) {
	if err := Register(r, m); err != nil {
		panic(err)
	}
}

// Lookup returns the mapping registered for T.
func Lookup[T any](r *Registry) (*Mapping[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mappings[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return m.(*Mapping[T]), true
}

// For is like Lookup but returns an error naming T when it has no mapping.
func For[T any](r *Registry) (*Mapping[T], error) {
	m, ok := Lookup[T](r)
	if !ok {
		return nil, fmt.Errorf("sqlmap: no mapping registered for %s", reflect.TypeFor[T]())
	}
	return m, nil
}

// Tables returns the registered table names in sorted order.
func (r *Registry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
