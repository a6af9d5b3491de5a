// Package rewrite implements the tree-to-tree passes run before formatting.
//
// Every pass is built on ir.Transform and returns its input pointer when no
// rule fired, so an unchanged tree keeps its identity through the pipeline.
//
// Passes:
//   - RemoveRedundantCalls: algebraic simplification (empty concatenation
//     operands, single-argument COALESCE, double negation, NULL comparisons)
//   - LowerStringPatterns: StartsWith/EndsWith/ContainsString to LIKE
//   - ExpandObjectOperands: entity comparisons and null checks to
//     conjunctions over elemental key columns
//
// Apply runs them in the fixed order expected by the formatter.
package rewrite
