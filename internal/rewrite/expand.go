package rewrite

import (
	"fmt"

	"github.com/roach88/plansql/internal/ir"
)

// Assignability answers whether an entity type can stand in for another.
// *model.Model satisfies it.
type Assignability interface {
	IsAssignable(from, to string) bool
}

// ExpandObjectOperands lowers comparisons and null checks on entity-typed
// operands to primitive SQL:
//
//	L = R        →  L1 = R1 AND L2 = R2 ...
//	L <> R       →  L1 <> R1 AND L2 <> R2 ...
//	IsNull(E)    →  IsNull(E1) AND IsNull(E2) ...
//	IsNotNull(E) →  IsNotNull(E1) AND IsNotNull(E2) ...
//
// Pairs are matched by position in the elemental sequences, never by name.
// A nil types treats only identically named entities as assignable.
func ExpandObjectOperands(e ir.Expr, types Assignability) (ir.Expr, error) {
	x := &expander{types: types}
	return ir.Transform(e, x.rewrite)
}

type expander struct {
	types Assignability
}

func (x *expander) rewrite(e ir.Expr) (ir.Expr, error) {
	switch n := e.(type) {
	case *ir.Binary:
		if ir.IsEntity(n.Left) && ir.IsEntity(n.Right) {
			return x.expandBinary(n)
		}
	case *ir.FunctionCall:
		if (n.Function == ir.FuncIsNull || n.Function == ir.FuncIsNotNull) &&
			len(n.Args) == 1 && ir.IsEntity(n.Args[0]) {
			return x.expandNullCheck(n)
		}
	}
	return e, nil
}

func (x *expander) expandBinary(b *ir.Binary) (ir.Expr, error) {
	left, _ := ir.EntityName(b.Left)
	right, _ := ir.EntityName(b.Right)

	if b.Op != ir.OpEqual && b.Op != ir.OpNotEqual {
		return nil, ir.NewUnsupportedError(ir.KindBinary, b.Op.String(),
			fmt.Sprintf("operator not supported on entity operands %s and %s", left, right))
	}
	if !x.assignable(left, right) {
		return nil, ir.NewMetadataError(ir.KindBinary, left,
			fmt.Sprintf("entity types %s and %s are not assignable", left, right))
	}

	leftKeys := ElementalExpressions(b.Left)
	rightKeys := ElementalExpressions(b.Right)
	if len(leftKeys) != len(rightKeys) {
		return nil, ir.NewMetadataError(ir.KindBinary, left,
			fmt.Sprintf("elemental key lengths differ: %s has %d, %s has %d", left, len(leftKeys), right, len(rightKeys)))
	}
	if len(leftKeys) == 0 {
		return nil, ir.NewMetadataError(ir.KindBinary, left, "entity operand has no elemental key")
	}

	terms := make([]ir.Expr, len(leftKeys))
	for i := range leftKeys {
		terms[i] = ir.NewBinary(b.Op, leftKeys[i], rightKeys[i])
	}
	return ir.AndAll(terms...), nil
}

func (x *expander) expandNullCheck(call *ir.FunctionCall) (ir.Expr, error) {
	keys := ElementalExpressions(call.Args[0])
	if len(keys) == 0 {
		entity, _ := ir.EntityName(call.Args[0])
		return nil, ir.NewMetadataError(ir.KindFunctionCall, entity, "entity operand has no elemental key")
	}
	terms := make([]ir.Expr, len(keys))
	for i, k := range keys {
		terms[i] = ir.Call(call.Function, k)
	}
	return ir.AndAll(terms...), nil
}

func (x *expander) assignable(a, b string) bool {
	if a == b {
		return true
	}
	if x.types == nil {
		return false
	}
	return x.types.IsAssignable(a, b) || x.types.IsAssignable(b, a)
}

// ElementalExpressions flattens an entity-typed operand into its primitive
// key expressions in binding order. Every ObjectReference binding is
// elemental; a MemberInit contributes only its primary-key bindings.
// Entity-typed binding values are flattened recursively. Non-entity input
// yields nil.
func ElementalExpressions(e ir.Expr) []ir.Expr {
	var out []ir.Expr
	collectElementals(e, &out)
	return out
}

func collectElementals(e ir.Expr, out *[]ir.Expr) {
	var bindings []ir.MemberBinding
	keysOnly := false
	switch n := e.(type) {
	case *ir.ObjectReference:
		bindings = n.Bindings
	case *ir.MemberInit:
		bindings = n.Bindings
		keysOnly = true
	default:
		return
	}
	for _, b := range bindings {
		if keysOnly && !b.PrimaryKey {
			continue
		}
		if ir.IsEntity(b.Value) {
			collectElementals(b.Value, out)
			continue
		}
		*out = append(*out, b.Value)
	}
}
