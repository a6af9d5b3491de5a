// Package model is the read-only entity metadata consumed by the query
// compiler.
//
// A Model holds one TypeDescriptor per entity. Descriptors list properties
// in declared order; that order is the order of primary-key columns and
// therefore of elemental key expansion. Relationship properties reference
// another entity and persist as that entity's key columns, named
// <property column>_<referenced column>, flattened transitively.
//
// The model also builds the IR fragments that depend on metadata:
// entity-typed ObjectReference and MemberInit operands, and CreateTable
// statements.
package model
