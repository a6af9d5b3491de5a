// Package engine is the query compiler facade.
//
// Compile takes a tree, a projector reference and the constants its
// placeholders resolve to, and returns SQL text with ordered parameters:
//
//  1. Fingerprint the tree and projector
//  2. On a cache hit, rebind the stored plan to the new constants
//  3. On a miss, run the rewrite passes and format in parameterize mode
//  4. Store the result when it is reusable
//
// Rewriting and formatting are pure, so an Engine is safe for concurrent
// use; the plan cache is its only shared state. Configuration is passed
// explicitly through Config; there are no process-wide defaults.
package engine
