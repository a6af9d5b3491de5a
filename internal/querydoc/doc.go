// Package querydoc decodes YAML query documents into IR trees.
//
// A document names a query, its projector and the constants its
// placeholders resolve to:
//
//	name: people-by-name
//	projector: Person
//	query:
//	  select:
//	    alias: p
//	    from: {table: {name: people, alias: p}}
//	    columns:
//	      - {name: id, expr: {column: p.id}}
//	    where:
//	      eq: [{column: p.name}, {param: {index: 0, type: string}}]
//	constants:
//	  - {string: ann}
//
// Every expression is a mapping with exactly one key naming its kind.
// Entity-valued nodes (ref, related, key, create_table with an entity)
// resolve against an entity model supplied to Decode.
package querydoc
