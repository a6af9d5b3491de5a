// Package ir provides the SQL expression intermediate representation for plansql.
//
// The IR is a closed set of node types behind the sealed Expr interface. Nodes
// are immutable: constructors and With* change methods always return new
// nodes, and a rewrite that changes nothing returns the original pointer.
// Downstream passes and the plan cache rely on pointer identity to detect
// unchanged subtrees.
//
// This package imports nothing internal. Every other internal package
// imports ir, so it remains the foundational layer.
//
// Key design constraints:
//   - Constant placeholders carry an index and a declared type, never a value.
//     Values are supplied per compilation as an external constant list.
//   - Equality and fingerprints are structural; placeholder values never
//     participate.
//   - Operations on the IR itself never fail. Malformed trees are reported by
//     Validate or by the formatter.
package ir
