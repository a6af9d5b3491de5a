package ir

import "fmt"

// RewriteFunc maps a node to its replacement. Returning the argument
// unchanged signals "no change".
type RewriteFunc func(Expr) (Expr, error)

// Transform rewrites e bottom-up: children are transformed first, then fn
// is applied to the (possibly rebuilt) node. A node is rebuilt only when at
// least one child changed, so a transform that matches nothing returns e
// itself.
func Transform(e Expr, fn RewriteFunc) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	rebuilt, err := RewriteChildren(e, func(child Expr) (Expr, error) {
		return Transform(child, fn)
	})
	if err != nil {
		return nil, err
	}
	return fn(rebuilt)
}

// RewriteChildren applies fn to each direct child of e and returns a new
// node if any child changed. Otherwise it returns e.
func RewriteChildren(e Expr, fn RewriteFunc) (Expr, error) {
	r := &rewriter{fn: fn}
	out := r.node(e)
	if r.err != nil {
		return nil, r.err
	}
	return out, nil
}

// rewriter tracks the first error and whether the current node changed.
type rewriter struct {
	fn  RewriteFunc
	err error
}

func (r *rewriter) child(e Expr, changed *bool) Expr {
	if e == nil || r.err != nil {
		return e
	}
	out, err := r.fn(e)
	if err != nil {
		r.err = err
		return e
	}
	if out != e {
		*changed = true
	}
	return out
}

func (r *rewriter) list(items []Expr, changed *bool) []Expr {
	var out []Expr
	for i, item := range items {
		n := r.child(item, new(bool))
		if n != item && out == nil {
			out = make([]Expr, len(items))
			copy(out, items[:i])
		}
		if out != nil {
			out[i] = n
		}
	}
	if out == nil {
		return items
	}
	*changed = true
	return out
}

func (r *rewriter) bindings(items []MemberBinding, changed *bool) []MemberBinding {
	var out []MemberBinding
	for i, b := range items {
		v := r.child(b.Value, new(bool))
		if v != b.Value && out == nil {
			out = make([]MemberBinding, len(items))
			copy(out, items[:i])
		}
		if out != nil {
			b.Value = v
			out[i] = b
		}
	}
	if out == nil {
		return items
	}
	*changed = true
	return out
}

func (r *rewriter) node(e Expr) Expr {
	changed := false
	switch n := e.(type) {
	case *Select:
		columns := n.Columns
		var newColumns []ColumnDeclaration
		for i, c := range columns {
			v := r.child(c.Expr, new(bool))
			if v != c.Expr && newColumns == nil {
				newColumns = make([]ColumnDeclaration, len(columns))
				copy(newColumns, columns[:i])
			}
			if newColumns != nil {
				newColumns[i] = ColumnDeclaration{Name: c.Name, Expr: v}
			}
		}
		if newColumns != nil {
			columns = newColumns
			changed = true
		}
		from := r.child(n.From, &changed)
		where := r.child(n.Where, &changed)
		orderBy := n.OrderBy
		var newOrder []OrderBy
		for i, o := range orderBy {
			v := r.child(o.Expr, new(bool))
			if v != o.Expr && newOrder == nil {
				newOrder = make([]OrderBy, len(orderBy))
				copy(newOrder, orderBy[:i])
			}
			if newOrder != nil {
				newOrder[i] = OrderBy{Expr: v, Direction: o.Direction}
			}
		}
		if newOrder != nil {
			orderBy = newOrder
			changed = true
		}
		groupBy := r.list(n.GroupBy, &changed)
		skip := r.child(n.Skip, &changed)
		take := r.child(n.Take, &changed)
		if !changed {
			return n
		}
		c := *n
		c.Columns, c.From, c.Where, c.OrderBy, c.GroupBy, c.Skip, c.Take =
			columns, from, where, orderBy, groupBy, skip, take
		return &c
	case *Join:
		left := r.child(n.Left, &changed)
		right := r.child(n.Right, &changed)
		cond := r.child(n.Condition, &changed)
		if !changed {
			return n
		}
		return &Join{JoinKind: n.JoinKind, Left: left, Right: right, Condition: cond}
	case *Table, *Column, *Constant, *ConstantPlaceholder:
		return n
	case *FunctionCall:
		args := r.list(n.Args, &changed)
		if !changed {
			return n
		}
		return &FunctionCall{Function: n.Function, Args: args}
	case *Aggregate:
		arg := r.child(n.Arg, &changed)
		if !changed {
			return n
		}
		return &Aggregate{AggregateKind: n.AggregateKind, Arg: arg, Distinct: n.Distinct}
	case *ObjectReference:
		bindings := r.bindings(n.Bindings, &changed)
		if !changed {
			return n
		}
		return &ObjectReference{Entity: n.Entity, Bindings: bindings}
	case *MemberInit:
		bindings := r.bindings(n.Bindings, &changed)
		if !changed {
			return n
		}
		return &MemberInit{Entity: n.Entity, Bindings: bindings}
	case *Tuple:
		items := r.list(n.Items, &changed)
		if !changed {
			return n
		}
		return &Tuple{Items: items}
	case *Binary:
		left := r.child(n.Left, &changed)
		right := r.child(n.Right, &changed)
		if !changed {
			return n
		}
		return &Binary{Op: n.Op, Left: left, Right: right}
	case *Unary:
		operand := r.child(n.Operand, &changed)
		if !changed {
			return n
		}
		return &Unary{Op: n.Op, Operand: operand}
	case *Conditional:
		test := r.child(n.Test, &changed)
		ifTrue := r.child(n.IfTrue, &changed)
		ifFalse := r.child(n.IfFalse, &changed)
		if !changed {
			return n
		}
		return &Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse}
	case *Delete:
		where := r.child(n.Where, &changed)
		if !changed {
			return n
		}
		return &Delete{Table: n.Table, Alias: n.Alias, Where: where}
	case *CreateTable:
		var columns []*ColumnDefinition
		for i, col := range n.Columns {
			v := r.child(col, new(bool))
			if v == Expr(col) {
				if columns != nil {
					columns[i] = col
				}
				continue
			}
			def, ok := v.(*ColumnDefinition)
			if !ok {
				r.fail(fmt.Errorf("column definition replaced by %s", v.Kind()))
				return n
			}
			if columns == nil {
				columns = make([]*ColumnDefinition, len(n.Columns))
				copy(columns, n.Columns[:i])
			}
			columns[i] = def
		}
		constraints, cChanged := r.constraints(n.Constraints)
		if columns == nil && !cChanged {
			return n
		}
		c := *n
		if columns != nil {
			c.Columns = columns
		}
		c.Constraints = constraints
		return &c
	case *ColumnDefinition:
		constraints, cChanged := r.constraints(n.Constraints)
		if !cChanged {
			return n
		}
		return &ColumnDefinition{Name: n.Name, Type: n.Type, Constraints: constraints}
	case *SimpleConstraint:
		value := r.child(n.Value, &changed)
		if !changed {
			return n
		}
		return &SimpleConstraint{Constraint: n.Constraint, Columns: n.Columns, Value: value}
	default:
		r.fail(fmt.Errorf("unsupported node type: %T", e))
		return e
	}
}

func (r *rewriter) constraints(items []*SimpleConstraint) ([]*SimpleConstraint, bool) {
	var out []*SimpleConstraint
	for i, sc := range items {
		v := r.child(sc, new(bool))
		if v == Expr(sc) {
			if out != nil {
				out[i] = sc
			}
			continue
		}
		next, ok := v.(*SimpleConstraint)
		if !ok {
			r.fail(fmt.Errorf("constraint replaced by %s", v.Kind()))
			return items, false
		}
		if out == nil {
			out = make([]*SimpleConstraint, len(items))
			copy(out, items[:i])
		}
		out[i] = next
	}
	if out == nil {
		return items, false
	}
	return out, true
}

func (r *rewriter) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
