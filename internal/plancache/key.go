package plancache

import (
	"fmt"

	"github.com/roach88/plansql/internal/ir"
)

// Key identifies a plan: a tree, its projector reference and the
// precomputed fingerprint over both. Keys are immutable once constructed.
type Key struct {
	expr      ir.Expr
	projector string
	hash      string
}

// NewKey fingerprints e together with projector.
func NewKey(e ir.Expr, projector string) (Key, error) {
	if e == nil {
		return Key{}, fmt.Errorf("plan key: nil expression")
	}
	hash, err := ir.Fingerprint(e, projector)
	if err != nil {
		return Key{}, fmt.Errorf("plan key: %w", err)
	}
	return Key{expr: e, projector: projector, hash: hash}, nil
}

// Expr returns the tree the key was built from.
func (k Key) Expr() ir.Expr { return k.expr }

// Projector returns the projector reference.
func (k Key) Projector() string { return k.projector }

// Fingerprint returns the hex SHA-256 fingerprint.
func (k Key) Fingerprint() string { return k.hash }

// Equal reports whether two keys denote the same plan. The fingerprint is
// compared first; structural equality settles hash collisions.
func (k Key) Equal(other Key) bool {
	return k.hash == other.hash &&
		k.projector == other.projector &&
		ir.Equal(k.expr, other.expr)
}
