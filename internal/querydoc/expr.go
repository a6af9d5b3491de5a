package querydoc

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/plansql/internal/ir"
	"github.com/roach88/plansql/internal/model"
)

// decoder turns expression nodes into IR. model may be nil when the
// document uses no entity-valued nodes.
type decoder struct {
	model *model.Model
}

var joinKinds = map[string]ir.JoinKind{
	"cross": ir.JoinCross,
	"inner": ir.JoinInner,
	"left":  ir.JoinLeft,
	"right": ir.JoinRight,
	"outer": ir.JoinOuter,
}

var aggregateKinds = map[string]ir.AggregateKind{
	"count":   ir.AggregateCount,
	"min":     ir.AggregateMin,
	"max":     ir.AggregateMax,
	"sum":     ir.AggregateSum,
	"average": ir.AggregateAverage,
	"avg":     ir.AggregateAverage,
}

var columnConstraints = map[string]ir.ConstraintKind{
	"not_null":       ir.ConstraintNotNull,
	"primary_key":    ir.ConstraintPrimaryKey,
	"unique":         ir.ConstraintUnique,
	"auto_increment": ir.ConstraintAutoIncrement,
}

func (d *decoder) expr(n *yaml.Node, path string) (ir.Expr, error) {
	key, body, err := single(n, path)
	if err != nil {
		return nil, err
	}
	path += "." + key

	if op, ok := ir.ParseBinaryOp(key); ok {
		return d.binary(op, body, path)
	}

	switch key {
	case "select":
		return d.selectExpr(body, path)
	case "table":
		return d.table(body, path)
	case "join":
		return d.join(body, path)
	case "column":
		return column(body, path)
	case "const":
		v, err := decodeValue(body, path)
		if err != nil {
			return nil, err
		}
		return ir.NewConstant(v), nil
	case "param":
		return param(body, path)
	case "call":
		return d.call(body, path)
	case "agg":
		return d.aggregate(body, path)
	case "not":
		operand, err := d.expr(body, path)
		if err != nil {
			return nil, err
		}
		return ir.Not(operand), nil
	case "neg":
		operand, err := d.expr(body, path)
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Op: ir.OpNegate, Operand: operand}, nil
	case "case":
		return d.conditional(body, path)
	case "tuple":
		items, err := d.exprList(body, path)
		if err != nil {
			return nil, err
		}
		return ir.NewTuple(items...), nil
	case "delete":
		return d.delete(body, path)
	case "create_table":
		return d.createTable(body, path)
	case "ref", "related", "key":
		return d.entity(key, body, path)
	default:
		return nil, nodeError(n, path, "unknown expression kind %q", key)
	}
}

// optional decodes an expression field that may be absent.
func (d *decoder) optional(f *fieldSet, name string) (ir.Expr, error) {
	n, ok := f.get(name)
	if !ok {
		return nil, nil
	}
	return d.expr(n, f.path+"."+name)
}

func (d *decoder) requiredExpr(f *fieldSet, name string) (ir.Expr, error) {
	n, err := f.required(name)
	if err != nil {
		return nil, err
	}
	return d.expr(n, f.path+"."+name)
}

func (d *decoder) exprList(n *yaml.Node, path string) ([]ir.Expr, error) {
	items, err := sequence(n, path)
	if err != nil {
		return nil, err
	}
	out := make([]ir.Expr, len(items))
	for i, item := range items {
		if out[i], err = d.expr(item, indexPath(path, i)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// binary decodes [left, right]. And/Or accept more operands and nest to
// the left.
func (d *decoder) binary(op ir.BinaryOp, n *yaml.Node, path string) (ir.Expr, error) {
	operands, err := d.exprList(n, path)
	if err != nil {
		return nil, err
	}
	if len(operands) < 2 || (len(operands) > 2 && !op.IsLogical()) {
		return nil, nodeError(n, path, "%s takes 2 operands, got %d", op, len(operands))
	}
	result := operands[0]
	for _, o := range operands[1:] {
		result = ir.NewBinary(op, result, o)
	}
	return result, nil
}

func (d *decoder) selectExpr(n *yaml.Node, path string) (ir.Expr, error) {
	f, err := fields(n, path, "alias", "distinct", "columns", "from", "where",
		"group_by", "order_by", "skip", "take", "for_update")
	if err != nil {
		return nil, err
	}
	alias, err := f.str("alias")
	if err != nil {
		return nil, err
	}
	from, err := d.optional(f, "from")
	if err != nil {
		return nil, err
	}

	colNodes, err := f.list("columns")
	if err != nil {
		return nil, err
	}
	cols := make([]ir.ColumnDeclaration, len(colNodes))
	for i, cn := range colNodes {
		if cols[i], err = d.columnDeclaration(cn, indexPath(path+".columns", i)); err != nil {
			return nil, err
		}
	}

	s := ir.NewSelect(alias, from, cols...)

	where, err := d.optional(f, "where")
	if err != nil {
		return nil, err
	}
	if where != nil {
		s = s.WithWhere(where)
	}

	if gn, ok := f.get("group_by"); ok {
		groups, err := d.exprList(gn, path+".group_by")
		if err != nil {
			return nil, err
		}
		s = s.WithGroupBy(groups...)
	}

	orderNodes, err := f.list("order_by")
	if err != nil {
		return nil, err
	}
	if len(orderNodes) > 0 {
		terms := make([]ir.OrderBy, len(orderNodes))
		for i, on := range orderNodes {
			if terms[i], err = d.orderBy(on, indexPath(path+".order_by", i)); err != nil {
				return nil, err
			}
		}
		s = s.WithOrderBy(terms...)
	}

	skip, err := d.optional(f, "skip")
	if err != nil {
		return nil, err
	}
	take, err := d.optional(f, "take")
	if err != nil {
		return nil, err
	}
	if skip != nil || take != nil {
		s = s.WithLimit(skip, take)
	}

	distinct, err := f.flag("distinct")
	if err != nil {
		return nil, err
	}
	forUpdate, err := f.flag("for_update")
	if err != nil {
		return nil, err
	}
	if distinct {
		s = s.WithDistinct(true)
	}
	if forUpdate {
		s = s.WithForUpdate(true)
	}
	return s, nil
}

// columnDeclaration decodes {name, expr}. The name defaults to the column
// name when expr is a column.
func (d *decoder) columnDeclaration(n *yaml.Node, path string) (ir.ColumnDeclaration, error) {
	f, err := fields(n, path, "name", "expr")
	if err != nil {
		return ir.ColumnDeclaration{}, err
	}
	e, err := d.requiredExpr(f, "expr")
	if err != nil {
		return ir.ColumnDeclaration{}, err
	}
	name, err := f.str("name")
	if err != nil {
		return ir.ColumnDeclaration{}, err
	}
	if name == "" {
		c, ok := e.(*ir.Column)
		if !ok {
			return ir.ColumnDeclaration{}, nodeError(n, path, "name is required for computed columns")
		}
		name = c.Name
	}
	return ir.Col(name, e), nil
}

func (d *decoder) orderBy(n *yaml.Node, path string) (ir.OrderBy, error) {
	f, err := fields(n, path, "expr", "desc")
	if err != nil {
		return ir.OrderBy{}, err
	}
	e, err := d.requiredExpr(f, "expr")
	if err != nil {
		return ir.OrderBy{}, err
	}
	desc, err := f.flag("desc")
	if err != nil {
		return ir.OrderBy{}, err
	}
	if desc {
		return ir.Desc(e), nil
	}
	return ir.Asc(e), nil
}

func (d *decoder) table(n *yaml.Node, path string) (ir.Expr, error) {
	f, err := fields(n, path, "name", "alias")
	if err != nil {
		return nil, err
	}
	name, err := f.requiredString("name")
	if err != nil {
		return nil, err
	}
	alias, err := f.str("alias")
	if err != nil {
		return nil, err
	}
	return ir.NewTable(name, alias), nil
}

func (d *decoder) join(n *yaml.Node, path string) (ir.Expr, error) {
	f, err := fields(n, path, "kind", "left", "right", "on")
	if err != nil {
		return nil, err
	}
	kindName, err := f.requiredString("kind")
	if err != nil {
		return nil, err
	}
	kind, ok := joinKinds[kindName]
	if !ok {
		return nil, nodeError(n, path+".kind", "unknown join kind %q", kindName)
	}
	left, err := d.requiredExpr(f, "left")
	if err != nil {
		return nil, err
	}
	right, err := d.requiredExpr(f, "right")
	if err != nil {
		return nil, err
	}
	on, err := d.optional(f, "on")
	if err != nil {
		return nil, err
	}
	return ir.NewJoin(kind, left, right, on), nil
}

// column decodes "alias.name" or "name".
func column(n *yaml.Node, path string) (ir.Expr, error) {
	if n.Kind != yaml.ScalarNode || n.Value == "" {
		return nil, nodeError(n, path, "expected alias.name or name")
	}
	if alias, name, ok := strings.Cut(n.Value, "."); ok {
		return ir.NewColumn(alias, name), nil
	}
	return ir.NewColumn("", n.Value), nil
}

// param decodes an index scalar or {index, type}.
func param(n *yaml.Node, path string) (ir.Expr, error) {
	if n.Kind == yaml.ScalarNode {
		var index int
		if err := n.Decode(&index); err != nil {
			return nil, nodeError(n, path, "expected a placeholder index")
		}
		return ir.Placeholder(index, ir.TypeUnknown), nil
	}
	f, err := fields(n, path, "index", "type")
	if err != nil {
		return nil, err
	}
	index, ok, err := f.integer("index")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nodeError(n, path, "index is required")
	}
	typeName, err := f.str("type")
	if err != nil {
		return nil, err
	}
	typ, err := ir.ParseDataType(typeName)
	if err != nil {
		return nil, nodeError(n, path+".type", "%v", err)
	}
	return ir.Placeholder(index, typ), nil
}

func (d *decoder) call(n *yaml.Node, path string) (ir.Expr, error) {
	f, err := fields(n, path, "fn", "args")
	if err != nil {
		return nil, err
	}
	fn, err := f.requiredString("fn")
	if err != nil {
		return nil, err
	}
	var args []ir.Expr
	if an, ok := f.get("args"); ok {
		if args, err = d.exprList(an, path+".args"); err != nil {
			return nil, err
		}
	}
	return ir.Call(ir.Function(fn), args...), nil
}

func (d *decoder) aggregate(n *yaml.Node, path string) (ir.Expr, error) {
	f, err := fields(n, path, "kind", "arg", "distinct")
	if err != nil {
		return nil, err
	}
	kindName, err := f.requiredString("kind")
	if err != nil {
		return nil, err
	}
	kind, ok := aggregateKinds[kindName]
	if !ok {
		return nil, nodeError(n, path+".kind", "unknown aggregate %q", kindName)
	}
	arg, err := d.optional(f, "arg")
	if err != nil {
		return nil, err
	}
	distinct, err := f.flag("distinct")
	if err != nil {
		return nil, err
	}
	return ir.NewAggregate(kind, arg, distinct), nil
}

func (d *decoder) conditional(n *yaml.Node, path string) (ir.Expr, error) {
	f, err := fields(n, path, "when", "then", "else")
	if err != nil {
		return nil, err
	}
	test, err := d.requiredExpr(f, "when")
	if err != nil {
		return nil, err
	}
	ifTrue, err := d.requiredExpr(f, "then")
	if err != nil {
		return nil, err
	}
	ifFalse, err := d.optional(f, "else")
	if err != nil {
		return nil, err
	}
	return ir.NewConditional(test, ifTrue, ifFalse), nil
}

func (d *decoder) delete(n *yaml.Node, path string) (ir.Expr, error) {
	f, err := fields(n, path, "table", "alias", "where")
	if err != nil {
		return nil, err
	}
	table, err := f.requiredString("table")
	if err != nil {
		return nil, err
	}
	alias, err := f.str("alias")
	if err != nil {
		return nil, err
	}
	where, err := d.optional(f, "where")
	if err != nil {
		return nil, err
	}
	return ir.NewDelete(table, alias, where), nil
}

// createTable decodes {entity} against the model, or an explicit
// {name, if_not_exists, columns, constraints}.
func (d *decoder) createTable(n *yaml.Node, path string) (ir.Expr, error) {
	f, err := fields(n, path, "entity", "name", "if_not_exists", "columns", "constraints")
	if err != nil {
		return nil, err
	}
	ifNotExists, err := f.flag("if_not_exists")
	if err != nil {
		return nil, err
	}

	if en, ok := f.get("entity"); ok {
		if _, named := f.get("name"); named {
			return nil, nodeError(n, path, "entity and name are mutually exclusive")
		}
		if d.model == nil {
			return nil, nodeError(en, path+".entity", "create_table from an entity requires a model")
		}
		ct, err := d.model.CreateTable(en.Value)
		if err != nil {
			return nil, nodeError(en, path+".entity", "%v", err)
		}
		ct.IfNotExists = ifNotExists
		return ct, nil
	}

	name, err := f.requiredString("name")
	if err != nil {
		return nil, err
	}
	colNodes, err := f.list("columns")
	if err != nil {
		return nil, err
	}
	cols := make([]*ir.ColumnDefinition, len(colNodes))
	for i, cn := range colNodes {
		if cols[i], err = d.columnDefinition(cn, indexPath(path+".columns", i)); err != nil {
			return nil, err
		}
	}
	conNodes, err := f.list("constraints")
	if err != nil {
		return nil, err
	}
	cons := make([]*ir.SimpleConstraint, len(conNodes))
	for i, cn := range conNodes {
		if cons[i], err = tableConstraint(cn, indexPath(path+".constraints", i)); err != nil {
			return nil, err
		}
	}
	ct := ir.NewCreateTable(name, cols, cons)
	ct.IfNotExists = ifNotExists
	return ct, nil
}

func (d *decoder) columnDefinition(n *yaml.Node, path string) (*ir.ColumnDefinition, error) {
	f, err := fields(n, path, "name", "type", "constraints")
	if err != nil {
		return nil, err
	}
	name, err := f.requiredString("name")
	if err != nil {
		return nil, err
	}
	typeName, err := f.requiredString("type")
	if err != nil {
		return nil, err
	}
	typ, err := ir.ParseDataType(typeName)
	if err != nil {
		return nil, nodeError(n, path+".type", "%v", err)
	}
	conNodes, err := f.list("constraints")
	if err != nil {
		return nil, err
	}
	cons := make([]*ir.SimpleConstraint, len(conNodes))
	for i, cn := range conNodes {
		cpath := indexPath(path+".constraints", i)
		if cn.Kind == yaml.ScalarNode {
			kind, ok := columnConstraints[cn.Value]
			if !ok {
				return nil, nodeError(cn, cpath, "unknown constraint %q", cn.Value)
			}
			cons[i] = ir.NewConstraint(kind)
			continue
		}
		key, body, err := single(cn, cpath)
		if err != nil {
			return nil, err
		}
		if key != "default" {
			return nil, nodeError(cn, cpath, "unknown constraint %q", key)
		}
		value, err := d.expr(body, cpath+".default")
		if err != nil {
			return nil, err
		}
		cons[i] = ir.DefaultValue(value)
	}
	return ir.NewColumnDefinition(name, typ, cons...), nil
}

// tableConstraint decodes {primary_key: [cols]} or {unique: [cols]}.
func tableConstraint(n *yaml.Node, path string) (*ir.SimpleConstraint, error) {
	key, body, err := single(n, path)
	if err != nil {
		return nil, err
	}
	var kind ir.ConstraintKind
	switch key {
	case "primary_key":
		kind = ir.ConstraintPrimaryKey
	case "unique":
		kind = ir.ConstraintUnique
	default:
		return nil, nodeError(n, path, "unknown table constraint %q", key)
	}
	var cols []string
	if err := body.Decode(&cols); err != nil {
		return nil, nodeError(body, path+"."+key, "expected a list of column names")
	}
	return ir.NewConstraint(kind, cols...), nil
}

// entity decodes the entity-valued nodes:
//
//	ref:     {entity, alias}            key of the row read through alias
//	related: {entity, property, alias}  relationship property of that row
//	key:     {entity, first}            key bound to placeholders from first
//	key:     {entity, values: [...]}    key built from explicit values
func (d *decoder) entity(kind string, n *yaml.Node, path string) (ir.Expr, error) {
	if d.model == nil {
		return nil, nodeError(n, path, "%s requires an entity model", kind)
	}
	f, err := fields(n, path, "entity", "alias", "property", "first", "values")
	if err != nil {
		return nil, err
	}
	entity, err := f.requiredString("entity")
	if err != nil {
		return nil, err
	}

	var result ir.Expr
	switch kind {
	case "ref":
		alias, err := f.requiredString("alias")
		if err != nil {
			return nil, err
		}
		result, err = d.model.KeyReference(entity, alias)
		if err != nil {
			return nil, nodeError(n, path, "%v", err)
		}
	case "related":
		alias, err := f.requiredString("alias")
		if err != nil {
			return nil, err
		}
		property, err := f.requiredString("property")
		if err != nil {
			return nil, err
		}
		result, err = d.model.RelatedReference(entity, property, alias)
		if err != nil {
			return nil, nodeError(n, path, "%v", err)
		}
	default:
		if vn, ok := f.get("values"); ok {
			values, err := d.exprList(vn, path+".values")
			if err != nil {
				return nil, err
			}
			result, err = d.model.KeyInit(entity, values)
			if err != nil {
				return nil, nodeError(n, path, "%v", err)
			}
			break
		}
		first, _, err := f.integer("first")
		if err != nil {
			return nil, err
		}
		result, _, err = d.model.KeyPlaceholders(entity, first)
		if err != nil {
			return nil, nodeError(n, path, "%v", err)
		}
	}
	return result, nil
}
