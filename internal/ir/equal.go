package ir

import (
	"bytes"
	"math"
	"time"
)

// Equal reports whether a and b are structurally equal.
//
// Placeholders compare by index and declared type only, so two trees that
// differ only in the constants bound to their placeholders are equal.
// Constants compare by type and value. Identical pointers short-circuit.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case *Select:
		y := b.(*Select)
		if x.Alias != y.Alias || x.Distinct != y.Distinct || x.ForUpdate != y.ForUpdate ||
			len(x.Columns) != len(y.Columns) || len(x.OrderBy) != len(y.OrderBy) {
			return false
		}
		for i := range x.Columns {
			if x.Columns[i].Name != y.Columns[i].Name || !Equal(x.Columns[i].Expr, y.Columns[i].Expr) {
				return false
			}
		}
		for i := range x.OrderBy {
			if x.OrderBy[i].Direction != y.OrderBy[i].Direction || !Equal(x.OrderBy[i].Expr, y.OrderBy[i].Expr) {
				return false
			}
		}
		return Equal(x.From, y.From) && Equal(x.Where, y.Where) && equalList(x.GroupBy, y.GroupBy) &&
			Equal(x.Skip, y.Skip) && Equal(x.Take, y.Take)
	case *Join:
		y := b.(*Join)
		return x.JoinKind == y.JoinKind && Equal(x.Left, y.Left) && Equal(x.Right, y.Right) &&
			Equal(x.Condition, y.Condition)
	case *Table:
		y := b.(*Table)
		return *x == *y
	case *Column:
		y := b.(*Column)
		return *x == *y
	case *FunctionCall:
		y := b.(*FunctionCall)
		return x.Function == y.Function && equalList(x.Args, y.Args)
	case *Aggregate:
		y := b.(*Aggregate)
		return x.AggregateKind == y.AggregateKind && x.Distinct == y.Distinct && Equal(x.Arg, y.Arg)
	case *Constant:
		return EqualValues(x.Value, b.(*Constant).Value)
	case *ConstantPlaceholder:
		y := b.(*ConstantPlaceholder)
		return *x == *y
	case *ObjectReference:
		y := b.(*ObjectReference)
		return x.Entity == y.Entity && equalBindings(x.Bindings, y.Bindings)
	case *MemberInit:
		y := b.(*MemberInit)
		return x.Entity == y.Entity && equalBindings(x.Bindings, y.Bindings)
	case *Tuple:
		return equalList(x.Items, b.(*Tuple).Items)
	case *Binary:
		y := b.(*Binary)
		return x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Unary:
		y := b.(*Unary)
		return x.Op == y.Op && Equal(x.Operand, y.Operand)
	case *Conditional:
		y := b.(*Conditional)
		return Equal(x.Test, y.Test) && Equal(x.IfTrue, y.IfTrue) && Equal(x.IfFalse, y.IfFalse)
	case *Delete:
		y := b.(*Delete)
		return x.Table == y.Table && x.Alias == y.Alias && Equal(x.Where, y.Where)
	case *CreateTable:
		y := b.(*CreateTable)
		if x.Name != y.Name || x.IfNotExists != y.IfNotExists || len(x.Columns) != len(y.Columns) {
			return false
		}
		for i := range x.Columns {
			if !Equal(x.Columns[i], y.Columns[i]) {
				return false
			}
		}
		return equalConstraints(x.Constraints, y.Constraints)
	case *ColumnDefinition:
		y := b.(*ColumnDefinition)
		return x.Name == y.Name && x.Type == y.Type && equalConstraints(x.Constraints, y.Constraints)
	case *SimpleConstraint:
		y := b.(*SimpleConstraint)
		return x.Constraint == y.Constraint && equalStrings(x.Columns, y.Columns) && Equal(x.Value, y.Value)
	default:
		return false
	}
}

// EqualValues reports whether two constant values have the same type and value.
func EqualValues(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Null:
		y, ok := b.(Null)
		return ok && x.Type == y.Type
	case Float:
		y, ok := b.(Float)
		return ok && (x == y || math.IsNaN(float64(x)) && math.IsNaN(float64(y)))
	case Timestamp:
		y, ok := b.(Timestamp)
		return ok && time.Time(x).Equal(time.Time(y))
	case Bytes:
		y, ok := b.(Bytes)
		return ok && bytes.Equal(x, y)
	case Collection:
		y, ok := b.(Collection)
		if !ok || x.Elem != y.Elem || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !EqualValues(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case Bool, Int, String, Enum, GUID, TimeSpan:
		return a == b
	default:
		return false
	}
}

func equalList(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalBindings(a, b []MemberBinding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Member != b[i].Member || a[i].PrimaryKey != b[i].PrimaryKey || !Equal(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

func equalConstraints(a, b []*SimpleConstraint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
