package rewrite

import "github.com/roach88/plansql/internal/ir"

// LowerStringPatterns rewrites the string-pattern functions to LIKE:
//
//	StartsWith(x, p)      →  Like(x, Concat(p, "%"))
//	EndsWith(x, p)        →  Like(x, Concat("%", p))
//	ContainsString(x, p)  →  Like(x, Concat("%", p, "%"))
//
// A constant pattern collapses to a single literal once
// RemoveRedundantCalls has run.
func LowerStringPatterns(e ir.Expr) (ir.Expr, error) {
	return ir.Transform(e, func(e ir.Expr) (ir.Expr, error) {
		call, ok := e.(*ir.FunctionCall)
		if !ok {
			return e, nil
		}
		if lowered, ok := LowerPattern(call); ok {
			return lowered, nil
		}
		return e, nil
	})
}

// LowerPattern lowers one pattern call. It reports false for any other
// function or a call with the wrong number of arguments.
func LowerPattern(call *ir.FunctionCall) (*ir.FunctionCall, bool) {
	if len(call.Args) != 2 {
		return nil, false
	}
	subject, term := call.Args[0], call.Args[1]
	percent := func() ir.Expr { return ir.NewConstant(ir.String("%")) }

	var pattern ir.Expr
	switch call.Function {
	case ir.FuncStartsWith:
		pattern = ir.Call(ir.FuncConcat, term, percent())
	case ir.FuncEndsWith:
		pattern = ir.Call(ir.FuncConcat, percent(), term)
	case ir.FuncContainsString:
		pattern = ir.Call(ir.FuncConcat, percent(), term, percent())
	default:
		return nil, false
	}
	return ir.Call(ir.FuncLike, subject, pattern), true
}
