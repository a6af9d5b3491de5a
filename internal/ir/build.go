package ir

import "slices"

// NewSelect creates a Select over from with the given alias and columns.
func NewSelect(alias string, from Expr, columns ...ColumnDeclaration) *Select {
	return &Select{Alias: alias, From: from, Columns: slices.Clone(columns)}
}

// Col declares a projected column.
func Col(name string, e Expr) ColumnDeclaration {
	return ColumnDeclaration{Name: name, Expr: e}
}

// Asc and Desc create ORDER BY terms.
func Asc(e Expr) OrderBy  { return OrderBy{Expr: e, Direction: Ascending} }
func Desc(e Expr) OrderBy { return OrderBy{Expr: e, Direction: Descending} }

// NewJoin creates a Join.
func NewJoin(kind JoinKind, left, right, condition Expr) *Join {
	return &Join{JoinKind: kind, Left: left, Right: right, Condition: condition}
}

// NewTable creates a Table source.
func NewTable(name, alias string) *Table {
	return &Table{Name: name, Alias: alias}
}

// NewColumn creates a Column owned by the source with the given alias.
// An empty alias leaves the column unqualified.
func NewColumn(alias, name string) *Column {
	return &Column{SelectAlias: alias, Name: name}
}

// Call creates a FunctionCall.
func Call(fn Function, args ...Expr) *FunctionCall {
	return &FunctionCall{Function: fn, Args: slices.Clone(args)}
}

// NewAggregate creates an Aggregate. arg may be nil for AggregateCount.
func NewAggregate(kind AggregateKind, arg Expr, distinct bool) *Aggregate {
	return &Aggregate{AggregateKind: kind, Arg: arg, Distinct: distinct}
}

// NewConstant creates a Constant. A nil value becomes an untyped Null.
func NewConstant(v Value) *Constant {
	if v == nil {
		v = Null{}
	}
	return &Constant{Value: v}
}

// Placeholder creates a ConstantPlaceholder.
func Placeholder(index int, typ DataType) *ConstantPlaceholder {
	return &ConstantPlaceholder{Index: index, Type: typ}
}

// BindMember creates a MemberBinding.
func BindMember(member string, primaryKey bool, value Expr) MemberBinding {
	return MemberBinding{Member: member, PrimaryKey: primaryKey, Value: value}
}

// NewObjectReference creates an ObjectReference.
func NewObjectReference(entity string, bindings ...MemberBinding) *ObjectReference {
	return &ObjectReference{Entity: entity, Bindings: slices.Clone(bindings)}
}

// NewMemberInit creates a MemberInit.
func NewMemberInit(entity string, bindings ...MemberBinding) *MemberInit {
	return &MemberInit{Entity: entity, Bindings: slices.Clone(bindings)}
}

// NewTuple creates a Tuple.
func NewTuple(items ...Expr) *Tuple {
	return &Tuple{Items: slices.Clone(items)}
}

// NewBinary creates a Binary.
func NewBinary(op BinaryOp, left, right Expr) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

// Eq, Ne and And are shorthands for common binary nodes.
func Eq(left, right Expr) *Binary  { return NewBinary(OpEqual, left, right) }
func Ne(left, right Expr) *Binary  { return NewBinary(OpNotEqual, left, right) }
func And(left, right Expr) *Binary { return NewBinary(OpAnd, left, right) }

// AndAll conjoins terms in order as a left-nested AND chain. It returns nil
// for no terms and the single term unchanged for one.
func AndAll(terms ...Expr) Expr {
	if len(terms) == 0 {
		return nil
	}
	result := terms[0]
	for _, t := range terms[1:] {
		result = And(result, t)
	}
	return result
}

// Not negates a boolean expression.
func Not(e Expr) *Unary {
	return &Unary{Op: OpNot, Operand: e}
}

// NewConditional creates a Conditional.
func NewConditional(test, ifTrue, ifFalse Expr) *Conditional {
	return &Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse}
}

// NewDelete creates a Delete.
func NewDelete(table, alias string, where Expr) *Delete {
	return &Delete{Table: table, Alias: alias, Where: where}
}

// NewCreateTable creates a CreateTable.
func NewCreateTable(name string, columns []*ColumnDefinition, constraints []*SimpleConstraint) *CreateTable {
	return &CreateTable{Name: name, Columns: slices.Clone(columns), Constraints: slices.Clone(constraints)}
}

// NewColumnDefinition creates a ColumnDefinition.
func NewColumnDefinition(name string, typ DataType, constraints ...*SimpleConstraint) *ColumnDefinition {
	return &ColumnDefinition{Name: name, Type: typ, Constraints: slices.Clone(constraints)}
}

// NewConstraint creates a SimpleConstraint.
func NewConstraint(kind ConstraintKind, columns ...string) *SimpleConstraint {
	return &SimpleConstraint{Constraint: kind, Columns: slices.Clone(columns)}
}

// DefaultValue creates a DEFAULT constraint.
func DefaultValue(value Expr) *SimpleConstraint {
	return &SimpleConstraint{Constraint: ConstraintDefault, Value: value}
}

// Change operations. Each returns a new node; the receiver is untouched.

func (s *Select) clone() *Select {
	c := *s
	return &c
}

// WithColumns returns a copy of s projecting columns.
func (s *Select) WithColumns(columns ...ColumnDeclaration) *Select {
	c := s.clone()
	c.Columns = slices.Clone(columns)
	return c
}

// WithFrom returns a copy of s reading from from.
func (s *Select) WithFrom(from Expr) *Select {
	c := s.clone()
	c.From = from
	return c
}

// WithWhere returns a copy of s filtered by where.
func (s *Select) WithWhere(where Expr) *Select {
	c := s.clone()
	c.Where = where
	return c
}

// WithOrderBy returns a copy of s ordered by terms.
func (s *Select) WithOrderBy(terms ...OrderBy) *Select {
	c := s.clone()
	c.OrderBy = slices.Clone(terms)
	return c
}

// WithGroupBy returns a copy of s grouped by exprs.
func (s *Select) WithGroupBy(exprs ...Expr) *Select {
	c := s.clone()
	c.GroupBy = slices.Clone(exprs)
	return c
}

// WithLimit returns a copy of s with Skip and Take. Either may be nil.
func (s *Select) WithLimit(skip, take Expr) *Select {
	c := s.clone()
	c.Skip, c.Take = skip, take
	return c
}

// WithDistinct returns a copy of s with the Distinct flag set to d.
func (s *Select) WithDistinct(d bool) *Select {
	c := s.clone()
	c.Distinct = d
	return c
}

// WithForUpdate returns a copy of s with the ForUpdate flag set to f.
func (s *Select) WithForUpdate(f bool) *Select {
	c := s.clone()
	c.ForUpdate = f
	return c
}

// WithCondition returns a copy of j joined on cond.
func (j *Join) WithCondition(cond Expr) *Join {
	c := *j
	c.Condition = cond
	return &c
}

// WithWhere returns a copy of d filtered by where.
func (d *Delete) WithWhere(where Expr) *Delete {
	c := *d
	c.Where = where
	return &c
}

// WithArgs returns a copy of f applied to args.
func (f *FunctionCall) WithArgs(args ...Expr) *FunctionCall {
	return Call(f.Function, args...)
}
