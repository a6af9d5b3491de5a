// Package querysql renders IR trees to dialect-specific SQL text with an
// ordered parameter list.
//
// Rendering is a single depth-first traversal. Identifiers are always
// quoted. Parameters are numbered in the order they appear in the text, so
// positional binding needs no reordering.
package querysql

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/plansql/internal/dialect"
	"github.com/roach88/plansql/internal/ir"
	"github.com/roach88/plansql/internal/rewrite"
)

// Formatter renders IR trees for one dialect. A Formatter holds no
// per-call state and is safe for concurrent use.
type Formatter struct {
	dialect *dialect.Dialect
	opts    Options
}

// NewFormatter creates a Formatter. A nil dialect means dialect.SQL92().
func NewFormatter(d *dialect.Dialect, opts Options) *Formatter {
	if d == nil {
		d = dialect.SQL92()
	}
	if opts.IndentWidth <= 0 {
		opts.IndentWidth = 2
	}
	return &Formatter{dialect: d, opts: opts}
}

// Dialect returns the formatter's dialect.
func (f *Formatter) Dialect() *dialect.Dialect {
	return f.dialect
}

// Options returns the formatter's options.
func (f *Formatter) Options() Options {
	return f.opts
}

// Format renders e. Placeholders resolve against constants according to
// the formatter's Mode. No partial output is returned on error.
func (f *Formatter) Format(e ir.Expr, constants []ir.Value) (*Result, error) {
	if e == nil {
		return nil, fmt.Errorf("cannot format nil expression")
	}

	w := &writer{
		d:         f.dialect,
		mode:      f.opts.Mode,
		indent:    f.opts.IndentWidth,
		constants: constants,
		params:    []ir.TypedValue{},
		mapping:   map[int]int{},
		reusable:  f.opts.Mode != ModeEvaluate,
	}

	var err error
	if s, ok := e.(*ir.Select); ok {
		err = w.selectBody(s, scope{})
	} else {
		err = w.visit(e, scope{})
	}
	if err != nil {
		return nil, err
	}

	res := &Result{
		SQL:        w.buf.String(),
		Parameters: w.params,
		Style:      f.dialect.ParameterStyle,
	}
	if w.reusable {
		res.ParameterIndexes = w.mapping
	}
	return res, nil
}

// scope is the rendering context threaded through the traversal. Inside a
// DELETE, columns owned by the delete alias are written against the table.
type scope struct {
	deleteAlias string
	deleteTable string
}

// writer holds the state of one Format call.
type writer struct {
	d         *dialect.Dialect
	mode      Mode
	indent    int
	constants []ir.Value

	buf      strings.Builder
	depth    int
	params   []ir.TypedValue
	mapping  map[int]int
	reusable bool
}

func (w *writer) write(s string) {
	w.buf.WriteString(s)
}

func (w *writer) newline() {
	w.buf.WriteByte('\n')
	w.buf.WriteString(strings.Repeat(" ", w.depth*w.indent))
}

// param appends a bound parameter and writes its marker. placeholder is the
// originating placeholder index, or -1 for a fixed value.
func (w *writer) param(tv ir.TypedValue, placeholder int) {
	n := len(w.params)
	w.params = append(w.params, tv)
	if placeholder >= 0 {
		w.mapping[n] = placeholder
	}
	w.write(w.d.Parameter(n))
}

func (w *writer) visit(e ir.Expr, sc scope) error {
	switch n := e.(type) {
	case nil:
		return fmt.Errorf("unexpected nil expression")
	case *ir.Select:
		return w.subquery(n, sc)
	case *ir.Column:
		w.column(n, sc)
		return nil
	case *ir.Constant:
		return w.constant(n.Value)
	case *ir.ConstantPlaceholder:
		return w.placeholder(n)
	case *ir.FunctionCall:
		return w.function(n, sc)
	case *ir.Aggregate:
		return w.aggregate(n, sc)
	case *ir.Tuple:
		return w.list("(", n.Items, ", ", ")", sc)
	case *ir.Binary:
		return w.binary(n, sc)
	case *ir.Unary:
		return w.unary(n, sc)
	case *ir.Conditional:
		return w.conditional(n, sc)
	case *ir.Delete:
		return w.delete(n)
	case *ir.CreateTable:
		return w.createTable(n)
	case *ir.ColumnDefinition:
		return w.columnDefinition(n)
	case *ir.SimpleConstraint:
		return w.tableConstraint(n)
	case *ir.ObjectReference, *ir.MemberInit:
		entity, _ := ir.EntityName(n)
		return ir.NewUnsupportedError(e.Kind(), entity, "entity operand must be expanded before formatting")
	case *ir.Table, *ir.Join:
		return ir.NewUnsupportedError(e.Kind(), "", "source used outside FROM")
	default:
		return ir.NewUnsupportedError(e.Kind(), fmt.Sprintf("%T", e), "unsupported node type")
	}
}

func (w *writer) list(open string, items []ir.Expr, sep, close string, sc scope) error {
	w.write(open)
	for i, item := range items {
		if i > 0 {
			w.write(sep)
		}
		if err := w.visit(item, sc); err != nil {
			return err
		}
	}
	w.write(close)
	return nil
}

// selectBody renders a Select without surrounding parentheses.
func (w *writer) selectBody(s *ir.Select, sc scope) error {
	w.write("SELECT ")
	if s.Distinct {
		w.write("DISTINCT ")
	}
	if len(s.Columns) == 0 {
		w.write("*")
	}
	for i, c := range s.Columns {
		if i > 0 {
			w.write(", ")
		}
		if err := w.visit(c.Expr, sc); err != nil {
			return err
		}
		if col, ok := c.Expr.(*ir.Column); c.Name != "" && (!ok || col.Name != c.Name) {
			w.write(" AS ")
			w.write(w.d.QuoteName(c.Name))
		}
	}

	if s.From != nil {
		w.newline()
		w.write("FROM ")
		if err := w.source(s.From, sc); err != nil {
			return err
		}
	}

	if s.Where != nil {
		w.newline()
		w.write("WHERE ")
		if err := w.visit(s.Where, sc); err != nil {
			return err
		}
	}

	if len(s.GroupBy) > 0 {
		w.newline()
		if err := w.list("GROUP BY ", s.GroupBy, ", ", "", sc); err != nil {
			return err
		}
	}

	if len(s.OrderBy) > 0 {
		w.newline()
		w.write("ORDER BY ")
		for i, o := range s.OrderBy {
			if i > 0 {
				w.write(", ")
			}
			if err := w.visit(o.Expr, sc); err != nil {
				return err
			}
			if o.Direction == ir.Descending {
				w.write(" DESC")
			}
		}
	}

	if err := w.limit(s, sc); err != nil {
		return err
	}

	if s.ForUpdate && w.d.SupportsForUpdate {
		w.write(" FOR UPDATE")
	}
	return nil
}

func (w *writer) limit(s *ir.Select, sc scope) error {
	if s.Skip == nil && s.Take == nil {
		return nil
	}
	w.write(" LIMIT ")

	switch w.d.LimitStyle {
	case dialect.LimitOffset:
		if s.Take != nil {
			if err := w.visit(s.Take, sc); err != nil {
				return err
			}
		} else {
			w.write(w.d.UnboundedLimit)
		}
		if s.Skip != nil {
			w.write(" OFFSET ")
			return w.visit(s.Skip, sc)
		}
		return nil
	default:
		if s.Skip != nil {
			if err := w.visit(s.Skip, sc); err != nil {
				return err
			}
		} else {
			w.write("0")
		}
		w.write(", ")
		if s.Take != nil {
			return w.visit(s.Take, sc)
		}
		w.write(dialect.MaxTake)
		return nil
	}
}

// subquery renders a Select nested in an expression.
func (w *writer) subquery(s *ir.Select, sc scope) error {
	w.write("(")
	w.depth++
	w.newline()
	if err := w.selectBody(s, sc); err != nil {
		return err
	}
	w.depth--
	w.newline()
	w.write(")")
	return nil
}

// source renders a FROM source: a table, an aliased subquery or a join.
func (w *writer) source(src ir.Expr, sc scope) error {
	switch n := src.(type) {
	case *ir.Table:
		w.write(w.d.QuoteName(n.Name))
		if n.Alias != "" {
			w.write(" AS ")
			w.write(w.d.QuoteName(n.Alias))
		}
		return nil
	case *ir.Select:
		if err := w.subquery(n, sc); err != nil {
			return err
		}
		if n.Alias != "" {
			w.write(" AS ")
			w.write(w.d.QuoteName(n.Alias))
		}
		return nil
	case *ir.Join:
		return w.join(n, sc)
	default:
		return ir.NewUnsupportedError(src.Kind(), "", "invalid select source; expected Table, Select or Join")
	}
}

var joinTokens = map[ir.JoinKind]string{
	ir.JoinCross: "CROSS JOIN ",
	ir.JoinInner: "INNER JOIN ",
	ir.JoinLeft:  "LEFT JOIN ",
	ir.JoinRight: "RIGHT JOIN ",
	ir.JoinOuter: "FULL OUTER JOIN ",
}

func (w *writer) join(j *ir.Join, sc scope) error {
	token, ok := joinTokens[j.JoinKind]
	if !ok {
		return ir.NewUnsupportedError(ir.KindJoin, j.JoinKind.String(), "unknown join kind")
	}
	if j.Condition == nil && j.JoinKind != ir.JoinCross {
		return ir.NewUnsupportedError(ir.KindJoin, j.JoinKind.String(), "join requires a condition")
	}

	if err := w.source(j.Left, sc); err != nil {
		return err
	}
	w.newline()
	w.write(token)
	if err := w.source(j.Right, sc); err != nil {
		return err
	}
	if j.Condition != nil {
		w.depth++
		w.newline()
		w.write("ON ")
		err := w.visit(j.Condition, sc)
		w.depth--
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) column(c *ir.Column, sc scope) {
	if c.SelectAlias != "" {
		owner := c.SelectAlias
		if sc.deleteAlias != "" && owner == sc.deleteAlias {
			owner = sc.deleteTable
		}
		w.write(w.d.QuoteName(owner))
		w.write(".")
	}
	w.write(w.d.QuoteName(c.Name))
}

// constant renders an inline value. Strings, enums and finite numbers are
// written as literals; booleans, GUIDs, timespans, timestamps and bytes are
// always bound as fixed parameters; collections inline as a tuple and make
// the result single-use.
func (w *writer) constant(v ir.Value) error {
	switch val := v.(type) {
	case nil, ir.Null:
		w.write(w.d.Null)
	case ir.Int:
		w.write(strconv.FormatInt(int64(val), 10))
	case ir.Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			w.param(ir.TypedValue{Type: ir.TypeFloat, Value: f}, -1)
			return nil
		}
		text, _ := ir.FormatNumber(val)
		w.write(text)
	case ir.String:
		w.write(w.d.QuoteString(string(val)))
	case ir.Enum:
		w.write(w.d.QuoteString(val.Name))
	case ir.Collection:
		w.reusable = false
		w.write("(")
		for i, item := range val.Items {
			if i > 0 {
				w.write(", ")
			}
			if _, nested := item.(ir.Collection); nested {
				return ir.NewUnsupportedError(ir.KindConstant, string(ir.TypeCollection), "nested collections cannot be inlined")
			}
			if err := w.constant(item); err != nil {
				return err
			}
		}
		w.write(")")
	default:
		tv, err := ir.Bind(v)
		if err != nil {
			return ir.NewUnsupportedError(ir.KindConstant, string(v.DataType()), err.Error())
		}
		w.param(tv, -1)
	}
	return nil
}

func (w *writer) placeholder(p *ir.ConstantPlaceholder) error {
	if w.mode == ModeTokens {
		w.write("$$" + strconv.Itoa(p.Index))
		return nil
	}
	if p.Index < 0 || p.Index >= len(w.constants) {
		return ir.NewPlaceholderError(p.Index, len(w.constants))
	}
	v := w.constants[p.Index]

	if w.mode == ModeEvaluate {
		return w.constant(v)
	}
	if _, ok := v.(ir.Collection); ok {
		// A tuple literal is not addressable as one parameter.
		return w.constant(v)
	}
	tv, err := bindPlaceholder(p.Index, p.Type, v)
	if err != nil {
		return err
	}
	w.param(tv, p.Index)
	return nil
}

var comparisonTokens = map[ir.BinaryOp]string{
	ir.OpEqual:          " = ",
	ir.OpNotEqual:       " <> ",
	ir.OpLess:           " < ",
	ir.OpLessOrEqual:    " <= ",
	ir.OpGreater:        " > ",
	ir.OpGreaterOrEqual: " >= ",
}

var groupedTokens = map[ir.BinaryOp]string{
	ir.OpAnd:      " AND ",
	ir.OpOr:       " OR ",
	ir.OpAdd:      " + ",
	ir.OpSubtract: " - ",
	ir.OpMultiply: " * ",
	ir.OpDivide:   " / ",
	ir.OpModulo:   " % ",
}

func (w *writer) binary(b *ir.Binary, sc scope) error {
	if ir.IsEntity(b.Left) || ir.IsEntity(b.Right) {
		entity, _ := ir.EntityName(b.Left)
		if entity == "" {
			entity, _ = ir.EntityName(b.Right)
		}
		return ir.NewUnsupportedError(ir.KindBinary, b.Op.String(),
			fmt.Sprintf("operator not supported on entity operand %s", entity))
	}

	if token, ok := comparisonTokens[b.Op]; ok {
		if err := w.comparisonOperand(b.Left, sc); err != nil {
			return err
		}
		w.write(token)
		return w.comparisonOperand(b.Right, sc)
	}

	token, ok := groupedTokens[b.Op]
	if !ok {
		return ir.NewUnsupportedError(ir.KindBinary, b.Op.String(), "unknown binary operator")
	}
	w.write("(")
	if err := w.visit(b.Left, sc); err != nil {
		return err
	}
	w.write(token)
	if err := w.visit(b.Right, sc); err != nil {
		return err
	}
	w.write(")")
	return nil
}

// comparisonOperand parenthesizes operands that are themselves
// comparisons.
func (w *writer) comparisonOperand(e ir.Expr, sc scope) error {
	if b, ok := e.(*ir.Binary); ok && b.Op.IsComparison() {
		w.write("(")
		if err := w.visit(e, sc); err != nil {
			return err
		}
		w.write(")")
		return nil
	}
	return w.visit(e, sc)
}

func (w *writer) unary(u *ir.Unary, sc scope) error {
	switch u.Op {
	case ir.OpNot:
		w.write("NOT (")
	case ir.OpNegate:
		w.write("-(")
	default:
		return ir.NewUnsupportedError(ir.KindUnary, u.Op.String(), "unknown unary operator")
	}
	if err := w.visit(u.Operand, sc); err != nil {
		return err
	}
	w.write(")")
	return nil
}

func (w *writer) conditional(c *ir.Conditional, sc scope) error {
	w.write("CASE WHEN ")
	if err := w.visit(c.Test, sc); err != nil {
		return err
	}
	w.write(" THEN ")
	if err := w.visit(c.IfTrue, sc); err != nil {
		return err
	}
	if c.IfFalse != nil {
		w.write(" ELSE ")
		if err := w.visit(c.IfFalse, sc); err != nil {
			return err
		}
	}
	w.write(" END")
	return nil
}

var aggregateNames = map[ir.AggregateKind]string{
	ir.AggregateCount:   "COUNT",
	ir.AggregateMin:     "MIN",
	ir.AggregateMax:     "MAX",
	ir.AggregateSum:     "SUM",
	ir.AggregateAverage: "AVG",
}

func (w *writer) aggregate(a *ir.Aggregate, sc scope) error {
	name, ok := aggregateNames[a.AggregateKind]
	if !ok {
		return ir.NewUnsupportedError(ir.KindAggregate, a.AggregateKind.String(), "unknown aggregate")
	}
	if a.Arg == nil && a.AggregateKind != ir.AggregateCount {
		return ir.NewUnsupportedError(ir.KindAggregate, a.AggregateKind.String(), "aggregate requires an argument")
	}
	w.write(name)
	w.write("(")
	if a.Distinct {
		w.write("DISTINCT ")
	}
	if a.Arg == nil {
		w.write("*")
	} else if err := w.visit(a.Arg, sc); err != nil {
		return err
	}
	w.write(")")
	return nil
}

func (w *writer) function(call *ir.FunctionCall, sc scope) error {
	arity, known := ir.FunctionArity(call.Function)
	if !known {
		return ir.NewUnsupportedError(ir.KindFunctionCall, string(call.Function), "unknown function")
	}
	if !arity.Accepts(len(call.Args)) {
		return ir.NewArityError(call.Function, len(call.Args), arity)
	}
	args := call.Args

	switch call.Function {
	case ir.FuncIsNull:
		return w.suffix(args[0], " IS NULL", sc)
	case ir.FuncIsNotNull:
		return w.suffix(args[0], " IS NOT NULL", sc)
	case ir.FuncIn:
		return w.infix(args, "IN", sc)
	case ir.FuncNotIn:
		return w.infix(args, "NOT IN", sc)
	case ir.FuncLike:
		return w.infix(args, w.d.Like, sc)
	case ir.FuncNotLike:
		return w.infix(args, "NOT "+w.d.Like, sc)
	case ir.FuncStartsWith, ir.FuncEndsWith, ir.FuncContainsString:
		lowered, _ := rewrite.LowerPattern(call)
		simplified, err := rewrite.RemoveRedundantCalls(lowered)
		if err != nil {
			return err
		}
		return w.visit(simplified, sc)
	case ir.FuncConcat:
		if w.d.ConcatOperator != "" {
			if len(args) == 1 {
				return w.visit(args[0], sc)
			}
			return w.infix(args, w.d.ConcatOperator, sc)
		}
		return w.call("CONCAT", args, sc)
	case ir.FuncServerDateTime:
		w.write(w.d.CurrentTimestamp)
		return nil
	case ir.FuncExists:
		sub, ok := args[0].(*ir.Select)
		if !ok {
			return ir.NewUnsupportedError(ir.KindFunctionCall, string(call.Function), "EXISTS requires a subquery")
		}
		w.write("EXISTS ")
		return w.subquery(sub, sc)
	default:
		return w.call(cases.Upper(language.Und).String(string(call.Function)), args, sc)
	}
}

// suffix renders (x SUFFIX).
func (w *writer) suffix(arg ir.Expr, suffix string, sc scope) error {
	w.write("(")
	if err := w.visit(arg, sc); err != nil {
		return err
	}
	w.write(suffix)
	w.write(")")
	return nil
}

// infix renders (a OP b OP c).
func (w *writer) infix(args []ir.Expr, op string, sc scope) error {
	return w.list("(", args, " "+op+" ", ")", sc)
}

// call renders NAME(a, b).
func (w *writer) call(name string, args []ir.Expr, sc scope) error {
	w.write(name)
	return w.list("(", args, ", ", ")", sc)
}

func (w *writer) delete(d *ir.Delete) error {
	w.write("DELETE FROM ")
	w.write(w.d.QuoteName(d.Table))
	if d.Where == nil {
		return nil
	}
	w.newline()
	w.write("WHERE ")
	return w.visit(d.Where, scope{deleteAlias: d.Alias, deleteTable: d.Table})
}

func (w *writer) createTable(t *ir.CreateTable) error {
	w.write("CREATE TABLE ")
	if t.IfNotExists {
		w.write("IF NOT EXISTS ")
	}
	w.write(w.d.QuoteName(t.Name))
	w.newline()
	w.write("(")
	w.depth++

	items := len(t.Columns) + len(t.Constraints)
	n := 0
	next := func() {
		n++
		if n < items {
			w.write(",")
		}
	}
	for _, c := range t.Columns {
		w.newline()
		if err := w.columnDefinition(c); err != nil {
			return err
		}
		next()
	}
	for _, c := range t.Constraints {
		w.newline()
		if err := w.tableConstraint(c); err != nil {
			return err
		}
		next()
	}

	w.depth--
	w.newline()
	w.write(");")
	return nil
}

func (w *writer) columnDefinition(c *ir.ColumnDefinition) error {
	typeName, ok := w.d.TypeName(c.Type)
	if !ok {
		return ir.NewUnsupportedError(ir.KindColumnDefinition, string(c.Type),
			fmt.Sprintf("no column type for %q in dialect %s", c.Type, w.d.Name))
	}
	w.write(w.d.QuoteName(c.Name))
	w.write(" ")
	w.write(typeName)
	for _, con := range c.Constraints {
		w.write(" ")
		if err := w.columnConstraint(con); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) columnConstraint(c *ir.SimpleConstraint) error {
	switch c.Constraint {
	case ir.ConstraintNotNull:
		w.write("NOT NULL")
	case ir.ConstraintPrimaryKey:
		w.write("PRIMARY KEY")
	case ir.ConstraintUnique:
		w.write("UNIQUE")
	case ir.ConstraintAutoIncrement:
		w.write(w.d.AutoIncrement)
	case ir.ConstraintDefault:
		if c.Value == nil {
			return ir.NewUnsupportedError(ir.KindSimpleConstraint, c.Constraint.String(), "DEFAULT requires a value")
		}
		w.write("DEFAULT ")
		return w.defaultValue(c.Value)
	default:
		return ir.NewUnsupportedError(ir.KindSimpleConstraint, c.Constraint.String(), "unknown constraint")
	}
	return nil
}

// defaultValue renders a DEFAULT expression. DDL cannot carry bound
// parameters, so constants are written as literals.
func (w *writer) defaultValue(e ir.Expr) error {
	c, ok := e.(*ir.Constant)
	if !ok {
		return w.visit(e, scope{})
	}
	switch val := c.Value.(type) {
	case ir.Bool:
		if val {
			w.write(w.d.True)
		} else {
			w.write(w.d.False)
		}
	case ir.GUID, ir.Timestamp:
		tv, err := ir.Bind(val)
		if err != nil {
			return err
		}
		w.write(w.d.QuoteString(tv.Value.(string)))
	case ir.TimeSpan:
		w.write(strconv.FormatInt(int64(val), 10))
	case ir.Bytes, ir.Collection:
		return ir.NewUnsupportedError(ir.KindSimpleConstraint, string(val.DataType()), "value cannot be a column default")
	default:
		return w.constant(val)
	}
	return nil
}

func (w *writer) tableConstraint(c *ir.SimpleConstraint) error {
	var keyword string
	switch c.Constraint {
	case ir.ConstraintPrimaryKey:
		keyword = "PRIMARY KEY("
	case ir.ConstraintUnique:
		keyword = "UNIQUE("
	default:
		return ir.NewUnsupportedError(ir.KindSimpleConstraint, c.Constraint.String(), "not a table constraint")
	}
	if len(c.Columns) == 0 {
		return ir.NewUnsupportedError(ir.KindSimpleConstraint, c.Constraint.String(), "table constraint requires columns")
	}
	w.write(keyword)
	for i, col := range c.Columns {
		if i > 0 {
			w.write(", ")
		}
		w.write(w.d.QuoteName(col))
	}
	w.write(")")
	return nil
}
