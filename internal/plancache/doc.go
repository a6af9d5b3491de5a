// Package plancache stores reusable format results keyed by the structural
// fingerprint of the tree that produced them.
//
// Two queries share an entry when their trees are Equal (placeholders
// compared by position and declared type, never by bound value) and their
// projectors are equal. Only reusable results are retained; single-use
// results are returned to the caller and forgotten.
//
// The cache is unbounded. Entries live as long as the Cache does, so a
// workload producing many distinct query shapes grows it without limit;
// Len exposes the entry count for monitoring.
package plancache
