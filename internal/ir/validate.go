package ir

import (
	"fmt"
	"slices"
)

// ValidationResult contains the structural problems found in a tree.
type ValidationResult struct {
	// Valid is true when no problems were found.
	Valid bool

	// Problems lists every violation in traversal order.
	Problems []string
}

// Validate checks the structural invariants of a tree:
//  1. Column declaration names are unique within a Select
//  2. From is a Table, Select or Join
//  3. Table aliases are unique within one Select's sources
//  4. Qualified columns resolve to an alias in the enclosing scope chain
//  5. Joins other than cross joins carry a condition
//  6. Aggregates other than Count carry an argument
//  7. Known functions are called with an accepted number of arguments
//
// Validate never fails; it reports. Validate is a pure function with no
// side effects.
func Validate(e Expr) ValidationResult {
	v := &validator{problems: []string{}}
	v.visit(e)
	return ValidationResult{Valid: len(v.problems) == 0, Problems: v.problems}
}

// validator accumulates problems during traversal. scopes is a stack of
// alias sets, innermost last.
type validator struct {
	problems []string
	scopes   [][]string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) resolves(alias string) bool {
	for i := len(v.scopes) - 1; i >= 0; i-- {
		if slices.Contains(v.scopes[i], alias) {
			return true
		}
	}
	return false
}

func (v *validator) visit(e Expr) {
	if e == nil {
		return
	}

	switch n := e.(type) {
	case *Select:
		v.visitSelect(n)
	case *Delete:
		v.scopes = append(v.scopes, []string{n.Alias, n.Table})
		v.visit(n.Where)
		v.scopes = v.scopes[:len(v.scopes)-1]
	case *Join:
		// Sources are visited by the owning Select; a bare Join only
		// checks its own shape.
		v.visitJoinShape(n)
	case *Column:
		if n.SelectAlias != "" && !v.resolves(n.SelectAlias) {
			v.addProblem("column %q references unknown alias %q", n.Name, n.SelectAlias)
		}
	case *FunctionCall:
		if arity, ok := FunctionArity(n.Function); ok && !arity.Accepts(len(n.Args)) {
			v.addProblem("function %s: %s", n.Function, NewArityError(n.Function, len(n.Args), arity).Message)
		}
		for _, a := range n.Args {
			v.visit(a)
		}
	case *Aggregate:
		if n.Arg == nil && n.AggregateKind != AggregateCount {
			v.addProblem("aggregate %s requires an argument", n.AggregateKind)
		}
		v.visit(n.Arg)
	default:
		_, _ = RewriteChildren(e, func(child Expr) (Expr, error) {
			v.visit(child)
			return child, nil
		})
	}
}

func (v *validator) visitSelect(s *Select) {
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if seen[c.Name] {
			v.addProblem("select %q declares column %q more than once", s.Alias, c.Name)
		}
		seen[c.Name] = true
	}

	var aliases []string
	if s.From != nil {
		switch s.From.(type) {
		case *Table, *Select, *Join:
			v.collectSources(s.From, &aliases)
		default:
			v.addProblem("select %q reads from %s; expected Table, Select or Join", s.Alias, s.From.Kind())
		}
	}

	v.scopes = append(v.scopes, aliases)
	for _, c := range s.Columns {
		v.visit(c.Expr)
	}
	v.visit(s.Where)
	for _, g := range s.GroupBy {
		v.visit(g)
	}
	for _, o := range s.OrderBy {
		v.visit(o.Expr)
	}
	v.visit(s.Skip)
	v.visit(s.Take)
	v.scopes = v.scopes[:len(v.scopes)-1]
}

// collectSources walks a From source, validating nested sources and
// recording the aliases they introduce. Join conditions are checked once
// every alias of the join is known.
func (v *validator) collectSources(src Expr, aliases *[]string) {
	add := func(alias string) {
		if alias == "" {
			return
		}
		if slices.Contains(*aliases, alias) {
			v.addProblem("alias %q is declared more than once", alias)
			return
		}
		*aliases = append(*aliases, alias)
	}

	switch n := src.(type) {
	case *Table:
		add(n.Alias)
	case *Select:
		v.visitSelect(n)
		add(n.Alias)
	case *Join:
		v.visitJoinShape(n)
		v.collectSources(n.Left, aliases)
		v.collectSources(n.Right, aliases)
		v.scopes = append(v.scopes, *aliases)
		v.visit(n.Condition)
		v.scopes = v.scopes[:len(v.scopes)-1]
	default:
		v.addProblem("join source is %s; expected Table, Select or Join", src.Kind())
	}
}

func (v *validator) visitJoinShape(j *Join) {
	if j.JoinKind != JoinCross && j.Condition == nil {
		v.addProblem("%s join requires a condition", j.JoinKind)
	}
}
