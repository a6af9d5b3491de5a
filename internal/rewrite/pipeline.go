package rewrite

import (
	"fmt"

	"github.com/roach88/plansql/internal/ir"
)

// Pass is one named rewrite step.
type Pass struct {
	Name  string
	Apply func(ir.Expr) (ir.Expr, error)
}

// Passes returns the fixed pass sequence. Redundant-call elimination runs
// before expansion (so x = NULL on an entity becomes a null check) and again
// after it (expansion and pattern lowering introduce new calls).
func Passes(types Assignability) []Pass {
	return []Pass{
		{Name: "lower-patterns", Apply: LowerStringPatterns},
		{Name: "remove-redundant", Apply: RemoveRedundantCalls},
		{Name: "expand-object-operands", Apply: func(e ir.Expr) (ir.Expr, error) {
			return ExpandObjectOperands(e, types)
		}},
		{Name: "remove-redundant", Apply: RemoveRedundantCalls},
	}
}

// Apply runs the fixed pass sequence over e.
func Apply(e ir.Expr, types Assignability) (ir.Expr, error) {
	return Run(e, Passes(types)...)
}

// Run applies passes in order. The first failing pass aborts the run.
func Run(e ir.Expr, passes ...Pass) (ir.Expr, error) {
	var err error
	for _, p := range passes {
		e, err = p.Apply(e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
	}
	return e, nil
}
