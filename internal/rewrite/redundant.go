package rewrite

import "github.com/roach88/plansql/internal/ir"

// RemoveRedundantCalls simplifies calls that do not change the result:
//
//	Concat(a, "", Concat(b, c))  →  Concat(a, b, c)
//	Concat("a", "b")             →  "ab"
//	Concat(x)                    →  x
//	Coalesce(x)                  →  x
//	NOT (NOT x)                  →  x
//	x = NULL, x <> NULL          →  IsNull(x), IsNotNull(x)
func RemoveRedundantCalls(e ir.Expr) (ir.Expr, error) {
	return ir.Transform(e, simplify)
}

func simplify(e ir.Expr) (ir.Expr, error) {
	switch n := e.(type) {
	case *ir.FunctionCall:
		switch n.Function {
		case ir.FuncConcat:
			return simplifyConcat(n), nil
		case ir.FuncCoalesce:
			if len(n.Args) == 1 {
				return n.Args[0], nil
			}
		}
	case *ir.Unary:
		if inner, ok := n.Operand.(*ir.Unary); ok && n.Op == ir.OpNot && inner.Op == ir.OpNot {
			return inner.Operand, nil
		}
	case *ir.Binary:
		if n.Op != ir.OpEqual && n.Op != ir.OpNotEqual {
			return e, nil
		}
		fn := ir.FuncIsNull
		if n.Op == ir.OpNotEqual {
			fn = ir.FuncIsNotNull
		}
		switch {
		case ir.IsNullConstant(n.Right):
			return ir.Call(fn, n.Left), nil
		case ir.IsNullConstant(n.Left):
			return ir.Call(fn, n.Right), nil
		}
	}
	return e, nil
}

func simplifyConcat(call *ir.FunctionCall) ir.Expr {
	var args []ir.Expr
	changed := false
	for _, arg := range call.Args {
		if nested, ok := arg.(*ir.FunctionCall); ok && nested.Function == ir.FuncConcat {
			// Children are simplified first, so nested is already flat.
			args = appendConcatArg(args, nested.Args...)
			changed = true
			continue
		}
		before := len(args)
		args = appendConcatArg(args, arg)
		if len(args) != before+1 || args[len(args)-1] != arg {
			changed = true
		}
	}

	switch len(args) {
	case 0:
		return ir.NewConstant(ir.String(""))
	case 1:
		return args[0]
	}
	if !changed {
		return call
	}
	return call.WithArgs(args...)
}

// appendConcatArg appends items, dropping empty string constants and
// merging adjacent string constants.
func appendConcatArg(args []ir.Expr, items ...ir.Expr) []ir.Expr {
	for _, item := range items {
		s, ok := stringConstant(item)
		if !ok {
			args = append(args, item)
			continue
		}
		if s == "" {
			continue
		}
		if len(args) > 0 {
			if prev, ok := stringConstant(args[len(args)-1]); ok {
				args[len(args)-1] = ir.NewConstant(ir.String(prev + s))
				continue
			}
		}
		args = append(args, item)
	}
	return args
}

func stringConstant(e ir.Expr) (string, bool) {
	c, ok := e.(*ir.Constant)
	if !ok {
		return "", false
	}
	s, ok := c.Value.(ir.String)
	return string(s), ok
}
