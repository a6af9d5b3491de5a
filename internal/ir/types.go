package ir

// Kind discriminates IR node variants.
type Kind int

const (
	KindSelect Kind = iota + 1
	KindJoin
	KindTable
	KindColumn
	KindFunctionCall
	KindAggregate
	KindConstant
	KindConstantPlaceholder
	KindObjectReference
	KindMemberInit
	KindTuple
	KindBinary
	KindUnary
	KindConditional
	KindDelete
	KindCreateTable
	KindColumnDefinition
	KindSimpleConstraint
)

var kindNames = map[Kind]string{
	KindSelect:              "Select",
	KindJoin:                "Join",
	KindTable:               "Table",
	KindColumn:              "Column",
	KindFunctionCall:        "FunctionCall",
	KindAggregate:           "Aggregate",
	KindConstant:            "Constant",
	KindConstantPlaceholder: "ConstantPlaceholder",
	KindObjectReference:     "ObjectReference",
	KindMemberInit:          "MemberInit",
	KindTuple:               "Tuple",
	KindBinary:              "Binary",
	KindUnary:               "Unary",
	KindConditional:         "Conditional",
	KindDelete:              "Delete",
	KindCreateTable:         "CreateTable",
	KindColumnDefinition:    "ColumnDefinition",
	KindSimpleConstraint:    "SimpleConstraint",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Expr is a node of the SQL expression IR.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in passes and the formatter.
//
// All nodes are pointers to immutable structs. Callers must not modify a
// node after construction; use the With* methods instead.
type Expr interface {
	Kind() Kind
	expr() // Marker method - seals interface to this package
}

// JoinKind is the kind of a Join.
type JoinKind int

const (
	JoinCross JoinKind = iota
	JoinInner
	JoinLeft
	JoinRight
	JoinOuter
)

func (k JoinKind) String() string {
	switch k {
	case JoinCross:
		return "cross"
	case JoinInner:
		return "inner"
	case JoinLeft:
		return "left"
	case JoinRight:
		return "right"
	case JoinOuter:
		return "outer"
	default:
		return "unknown"
	}
}

// Direction is an ORDER BY direction. Ascending is the zero value.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// AggregateKind is the aggregate function of an Aggregate node.
type AggregateKind int

const (
	AggregateCount AggregateKind = iota
	AggregateMin
	AggregateMax
	AggregateSum
	AggregateAverage
)

func (k AggregateKind) String() string {
	switch k {
	case AggregateCount:
		return "count"
	case AggregateMin:
		return "min"
	case AggregateMax:
		return "max"
	case AggregateSum:
		return "sum"
	case AggregateAverage:
		return "average"
	default:
		return "unknown"
	}
}

// BinaryOp is the operator of a Binary node.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpOr
	OpEqual
	OpNotEqual
	OpLess
	OpLessOrEqual
	OpGreater
	OpGreaterOrEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
)

var binaryOpNames = [...]string{
	OpAnd:            "and",
	OpOr:             "or",
	OpEqual:          "eq",
	OpNotEqual:       "ne",
	OpLess:           "lt",
	OpLessOrEqual:    "le",
	OpGreater:        "gt",
	OpGreaterOrEqual: "ge",
	OpAdd:            "add",
	OpSubtract:       "sub",
	OpMultiply:       "mul",
	OpDivide:         "div",
	OpModulo:         "mod",
}

func (op BinaryOp) String() string {
	if int(op) >= 0 && int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "unknown"
}

// ParseBinaryOp returns the operator with the given short name (eq, and, ...).
func ParseBinaryOp(s string) (BinaryOp, bool) {
	for op, name := range binaryOpNames {
		if name == s {
			return BinaryOp(op), true
		}
	}
	return 0, false
}

// IsComparison reports whether op is a relational operator.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEqual && op <= OpGreaterOrEqual
}

// IsLogical reports whether op is AND or OR.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// UnaryOp is the operator of a Unary node.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
)

func (op UnaryOp) String() string {
	if op == OpNegate {
		return "negate"
	}
	return "not"
}

// Function is the tag of a FunctionCall. Tags are open-ended strings so
// that unknown functions can be represented and rejected by the formatter.
type Function string

const (
	FuncIsNull         Function = "IsNull"
	FuncIsNotNull      Function = "IsNotNull"
	FuncIn             Function = "In"
	FuncNotIn          Function = "NotIn"
	FuncLike           Function = "Like"
	FuncNotLike        Function = "NotLike"
	FuncStartsWith     Function = "StartsWith"
	FuncEndsWith       Function = "EndsWith"
	FuncContainsString Function = "ContainsString"
	FuncConcat         Function = "Concat"
	FuncCoalesce       Function = "Coalesce"
	FuncLower          Function = "Lower"
	FuncUpper          Function = "Upper"
	FuncTrim           Function = "Trim"
	FuncLength         Function = "Length"
	FuncSubstring      Function = "Substring"
	FuncAbs            Function = "Abs"
	FuncRound          Function = "Round"
	FuncServerDateTime Function = "ServerDateTime"
	FuncExists         Function = "Exists"
)

// Arity is the accepted argument count range of a function. Max < 0 means
// unbounded.
type Arity struct {
	Min, Max int
}

// Accepts reports whether n arguments satisfy the arity.
func (a Arity) Accepts(n int) bool {
	return n >= a.Min && (a.Max < 0 || n <= a.Max)
}

var functionArity = map[Function]Arity{
	FuncIsNull:         {1, 1},
	FuncIsNotNull:      {1, 1},
	FuncIn:             {2, 2},
	FuncNotIn:          {2, 2},
	FuncLike:           {2, 2},
	FuncNotLike:        {2, 2},
	FuncStartsWith:     {2, 2},
	FuncEndsWith:       {2, 2},
	FuncContainsString: {2, 2},
	FuncConcat:         {1, -1},
	FuncCoalesce:       {1, -1},
	FuncLower:          {1, 1},
	FuncUpper:          {1, 1},
	FuncTrim:           {1, 1},
	FuncLength:         {1, 1},
	FuncSubstring:      {2, 3},
	FuncAbs:            {1, 1},
	FuncRound:          {1, 2},
	FuncServerDateTime: {0, 0},
	FuncExists:         {1, 1},
}

// FunctionArity returns the arity of a known function tag.
func FunctionArity(f Function) (Arity, bool) {
	a, ok := functionArity[f]
	return a, ok
}

// ConstraintKind is the kind of a SimpleConstraint.
type ConstraintKind int

const (
	ConstraintNotNull ConstraintKind = iota
	ConstraintPrimaryKey
	ConstraintUnique
	ConstraintDefault
	ConstraintAutoIncrement
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintNotNull:
		return "not_null"
	case ConstraintPrimaryKey:
		return "primary_key"
	case ConstraintUnique:
		return "unique"
	case ConstraintDefault:
		return "default"
	case ConstraintAutoIncrement:
		return "auto_increment"
	default:
		return "unknown"
	}
}

// ColumnDeclaration is one projected column of a Select.
type ColumnDeclaration struct {
	Name string
	Expr Expr
}

// OrderBy is one ORDER BY term.
type OrderBy struct {
	Expr      Expr
	Direction Direction
}

// MemberBinding binds an entity member to a value expression.
// PrimaryKey marks members that belong to the entity's primary key.
type MemberBinding struct {
	Member     string
	PrimaryKey bool
	Value      Expr
}

// Select is a query block.
//
//	SELECT [DISTINCT] <columns> FROM <from> WHERE <where>
//	GROUP BY <group_by> ORDER BY <order_by> LIMIT <skip>, <take> [FOR UPDATE]
//
// An empty column list renders as *. From is a Table, Select or Join, or nil.
// Column declaration names must be unique within one Select.
type Select struct {
	Alias     string
	Columns   []ColumnDeclaration
	From      Expr
	Where     Expr
	OrderBy   []OrderBy
	GroupBy   []Expr
	Skip      Expr
	Take      Expr
	Distinct  bool
	ForUpdate bool
}

// Join combines two sources. Condition is required unless JoinKind is
// JoinCross.
type Join struct {
	JoinKind  JoinKind
	Left      Expr
	Right     Expr
	Condition Expr
}

// Table is a named table source with an alias.
type Table struct {
	Name  string
	Alias string
}

// Column references a column, optionally qualified by the alias of the
// source that owns it.
type Column struct {
	SelectAlias string
	Name        string
}

// FunctionCall applies a function tag to ordered arguments.
type FunctionCall struct {
	Function Function
	Args     []Expr
}

// Aggregate is an aggregate call. Arg may be nil only for AggregateCount.
type Aggregate struct {
	AggregateKind AggregateKind
	Arg           Expr
	Distinct      bool
}

// Constant is an inline typed value.
type Constant struct {
	Value Value
}

// ConstantPlaceholder is a position into the constant list supplied when the
// tree is formatted. Type is the declared type of the constant.
type ConstantPlaceholder struct {
	Index int
	Type  DataType
}

// ObjectReference is an entity-typed value prior to elemental expansion.
// Every binding is elemental.
type ObjectReference struct {
	Entity   string
	Bindings []MemberBinding
}

// MemberInit is a composite member initialization of an entity type. Only
// bindings marked PrimaryKey are elemental.
type MemberInit struct {
	Entity   string
	Bindings []MemberBinding
}

// Tuple is an ordered composite value.
type Tuple struct {
	Items []Expr
}

// Binary applies a binary operator.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Unary applies a unary operator.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

// Conditional is CASE WHEN Test THEN IfTrue ELSE IfFalse END.
type Conditional struct {
	Test    Expr
	IfTrue  Expr
	IfFalse Expr
}

// Delete removes rows from Table. Columns qualified by Alias refer to the
// target table; DELETE targets carry no alias in the rendered text.
type Delete struct {
	Table string
	Alias string
	Where Expr
}

// CreateTable is a table definition. Column and constraint order is
// preserved in the output.
type CreateTable struct {
	Name        string
	IfNotExists bool
	Columns     []*ColumnDefinition
	Constraints []*SimpleConstraint
}

// ColumnDefinition is one column of a CreateTable.
type ColumnDefinition struct {
	Name        string
	Type        DataType
	Constraints []*SimpleConstraint
}

// SimpleConstraint is a column or table constraint. Columns is used by
// table-level PRIMARY KEY and UNIQUE; Value by DEFAULT.
type SimpleConstraint struct {
	Constraint ConstraintKind
	Columns    []string
	Value      Expr
}

func (*Select) Kind() Kind              { return KindSelect }
func (*Join) Kind() Kind                { return KindJoin }
func (*Table) Kind() Kind               { return KindTable }
func (*Column) Kind() Kind              { return KindColumn }
func (*FunctionCall) Kind() Kind        { return KindFunctionCall }
func (*Aggregate) Kind() Kind           { return KindAggregate }
func (*Constant) Kind() Kind            { return KindConstant }
func (*ConstantPlaceholder) Kind() Kind { return KindConstantPlaceholder }
func (*ObjectReference) Kind() Kind     { return KindObjectReference }
func (*MemberInit) Kind() Kind          { return KindMemberInit }
func (*Tuple) Kind() Kind               { return KindTuple }
func (*Binary) Kind() Kind              { return KindBinary }
func (*Unary) Kind() Kind               { return KindUnary }
func (*Conditional) Kind() Kind         { return KindConditional }
func (*Delete) Kind() Kind              { return KindDelete }
func (*CreateTable) Kind() Kind         { return KindCreateTable }
func (*ColumnDefinition) Kind() Kind    { return KindColumnDefinition }
func (*SimpleConstraint) Kind() Kind    { return KindSimpleConstraint }

func (*Select) expr()              {}
func (*Join) expr()                {}
func (*Table) expr()               {}
func (*Column) expr()              {}
func (*FunctionCall) expr()        {}
func (*Aggregate) expr()           {}
func (*Constant) expr()            {}
func (*ConstantPlaceholder) expr() {}
func (*ObjectReference) expr()     {}
func (*MemberInit) expr()          {}
func (*Tuple) expr()               {}
func (*Binary) expr()              {}
func (*Unary) expr()               {}
func (*Conditional) expr()         {}
func (*Delete) expr()              {}
func (*CreateTable) expr()         {}
func (*ColumnDefinition) expr()    {}
func (*SimpleConstraint) expr()    {}

// IsEntity reports whether e is an entity-typed operand.
func IsEntity(e Expr) bool {
	switch e.(type) {
	case *ObjectReference, *MemberInit:
		return true
	default:
		return false
	}
}

// EntityName returns the entity type of an entity-typed operand.
func EntityName(e Expr) (string, bool) {
	switch n := e.(type) {
	case *ObjectReference:
		return n.Entity, true
	case *MemberInit:
		return n.Entity, true
	default:
		return "", false
	}
}

// IsNullConstant reports whether e is a Constant holding Null.
func IsNullConstant(e Expr) bool {
	c, ok := e.(*Constant)
	if !ok {
		return false
	}
	_, isNull := c.Value.(Null)
	return isNull
}
