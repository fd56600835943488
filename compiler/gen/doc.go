// Package gen compiles schema packages to physical tables and drives code
// generation for them.
//
// # Pipeline
//
//	schema.Package (namespaces, records, entities)
//	        ↓
//	   NewGraph + Storage (flattening, column types)
//	        ↓
//	   Graph of Nodes (one table per entity)
//	        ↓
//	   Generator (gen/sql renders Go access code)
//
// # Flattening
//
// Every entity becomes one table named after its namespace path and its own
// name. Nested value records are expanded depth-first into prefixed columns,
// references become foreign key columns typed as the storage's id:
//
//	Invoice{id: id, total: int32, address: Address{city: string}}
//	    → app_Invoice(id INTEGER, total INTEGER, address_city TEXT)
//
// # Storage descriptors
//
// A Storage maps primitive names to column types. The built-in descriptors
// are "sqlite", "postgres" and "mysql"; schemas that declare their own
// primitives extend one with WithTypes.
package gen
