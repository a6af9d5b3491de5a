package querydoc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/plansql/internal/ir"
	"github.com/roach88/plansql/internal/model"
)

func testModel(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.New(
		&model.TypeDescriptor{Name: "Region", Properties: []model.PropertyDescriptor{
			{Name: "Id", Type: ir.TypeInt, PrimaryKey: true},
			{Name: "Name", Type: ir.TypeString, PrimaryKey: true},
		}},
		&model.TypeDescriptor{Name: "Address", Properties: []model.PropertyDescriptor{
			{Name: "Id", Type: ir.TypeInt, PrimaryKey: true, AutoIncrement: true},
			{Name: "Region", ReferencedType: "Region"},
		}},
	)
	require.NoError(t, err)
	return m
}

func decode(t *testing.T, src string, m *model.Model) *Query {
	t.Helper()
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	q, err := doc.Decode(m)
	require.NoError(t, err)
	return q
}

func TestDecodeSelect(t *testing.T) {
	q := decode(t, `
name: people-by-name
projector: Person
dialect: sqlite
query:
  select:
    alias: p
    distinct: true
    from: {table: {name: people, alias: p}}
    columns:
      - {expr: {column: p.id}}
      - {name: n, expr: {agg: {kind: count}}}
    where:
      and:
        - eq: [{column: p.name}, {param: {index: 0, type: string}}]
        - ge: [{column: p.age}, {const: {int: 18}}]
        - not: {call: {fn: IsNull, args: [{column: p.email}]}}
    group_by: [{column: p.id}]
    order_by:
      - {expr: {column: p.id}, desc: true}
    skip: {param: 1}
    take: {const: {int: 10}}
    for_update: true
constants:
  - {string: ann}
  - {int: 20}
`, nil)

	p := func(name string) *ir.Column { return ir.NewColumn("p", name) }
	want := ir.NewSelect("p", ir.NewTable("people", "p"),
		ir.Col("id", p("id")),
		ir.Col("n", ir.NewAggregate(ir.AggregateCount, nil, false)),
	).WithWhere(ir.And(
		ir.And(
			ir.Eq(p("name"), ir.Placeholder(0, ir.TypeString)),
			ir.NewBinary(ir.OpGreaterOrEqual, p("age"), ir.NewConstant(ir.Int(18))),
		),
		ir.Not(ir.Call(ir.FuncIsNull, p("email"))),
	)).WithGroupBy(p("id")).
		WithOrderBy(ir.Desc(p("id"))).
		WithLimit(ir.Placeholder(1, ir.TypeUnknown), ir.NewConstant(ir.Int(10))).
		WithDistinct(true).
		WithForUpdate(true)

	assert.True(t, ir.Equal(want, q.Expr), "got %#v", q.Expr)
	assert.Equal(t, "people-by-name", q.Name)
	assert.Equal(t, "Person", q.Projector)
	assert.Equal(t, "sqlite", q.Dialect)
	assert.Equal(t, []ir.Value{ir.String("ann"), ir.Int(20)}, q.Constants)
}

func TestDecodeJoinAndSubquery(t *testing.T) {
	q := decode(t, `
name: join
query:
  select:
    from:
      join:
        kind: left
        left: {table: {name: people, alias: p}}
        right:
          select:
            alias: o
            from: {table: {name: orders, alias: x}}
            columns: [{expr: {column: x.person_id}}]
        on: {eq: [{column: p.id}, {column: o.person_id}]}
`, nil)

	inner := ir.NewSelect("o", ir.NewTable("orders", "x"), ir.Col("person_id", ir.NewColumn("x", "person_id")))
	want := ir.NewSelect("", ir.NewJoin(ir.JoinLeft, ir.NewTable("people", "p"), inner,
		ir.Eq(ir.NewColumn("p", "id"), ir.NewColumn("o", "person_id"))))
	assert.True(t, ir.Equal(want, q.Expr), "got %#v", q.Expr)
}

func TestDecodeExpressions(t *testing.T) {
	a := ir.NewColumn("t", "a")

	tests := []struct {
		name string
		src  string
		want ir.Expr
	}{
		{"unqualified column", `{column: a}`, ir.NewColumn("", "a")},
		{"arithmetic", `{mul: [{add: [{column: t.a}, {const: {int: 1}}]}, {const: {float: 2.5}}]}`,
			ir.NewBinary(ir.OpMultiply, ir.NewBinary(ir.OpAdd, a, ir.NewConstant(ir.Int(1))), ir.NewConstant(ir.Float(2.5)))},
		{"negate", `{neg: {column: t.a}}`, &ir.Unary{Op: ir.OpNegate, Operand: a}},
		{"case", `{case: {when: {column: t.a}, then: {const: {string: y}}, else: {const: {null: string}}}}`,
			ir.NewConditional(a, ir.NewConstant(ir.String("y")), ir.NewConstant(ir.Null{Type: ir.TypeString}))},
		{"tuple", `{tuple: [{const: {int: 1}}, {const: {int: 2}}]}`,
			ir.NewTuple(ir.NewConstant(ir.Int(1)), ir.NewConstant(ir.Int(2)))},
		{"in collection", `{call: {fn: In, args: [{column: t.a}, {const: {collection: {elem: int, items: [{int: 1}, {int: 2}]}}}]}}`,
			ir.Call(ir.FuncIn, a, ir.NewConstant(ir.Collection{Elem: ir.TypeInt, Items: []ir.Value{ir.Int(1), ir.Int(2)}}))},
		{"distinct sum", `{agg: {kind: sum, arg: {column: t.a}, distinct: true}}`,
			ir.NewAggregate(ir.AggregateSum, a, true)},
		{"delete", `{delete: {table: people, alias: p, where: {eq: [{column: p.id}, {param: 0}]}}}`,
			ir.NewDelete("people", "p", ir.Eq(ir.NewColumn("p", "id"), ir.Placeholder(0, ir.TypeUnknown)))},
		{"server time", `{call: {fn: ServerDateTime}}`, ir.Call(ir.FuncServerDateTime)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n yaml.Node
			require.NoError(t, yaml.Unmarshal([]byte(tt.src), &n))
			got, err := DecodeExpr(n.Content[0], nil)
			require.NoError(t, err)
			assert.True(t, ir.Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestDecodeValues(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		src  string
		want ir.Value
	}{
		{`{bool: true}`, ir.Bool(true)},
		{`{int: -3}`, ir.Int(-3)},
		{`{float: 0.25}`, ir.Float(0.25)},
		{`{string: "O'Brien"}`, ir.String("O'Brien")},
		{`{enum: Color.Red}`, ir.Enum{TypeName: "Color", Name: "Red"}},
		{`{guid: 6ba7b810-9dad-11d1-80b4-00c04fd430c8}`, ir.GUID(id)},
		{`{timespan: 1m30s}`, ir.TimeSpan(90 * time.Second)},
		{`{timestamp: "2024-01-02T03:04:05Z"}`, ir.Timestamp(ts)},
		{`{bytes: AQI=}`, ir.Bytes{0x01, 0x02}},
		{`{null: guid}`, ir.Null{Type: ir.TypeGUID}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			var n yaml.Node
			require.NoError(t, yaml.Unmarshal([]byte(tt.src), &n))
			got, err := DecodeValue(n.Content[0])
			require.NoError(t, err)
			if ts, ok := tt.want.(ir.Timestamp); ok {
				assert.True(t, time.Time(ts).Equal(time.Time(got.(ir.Timestamp))))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEntityNodes(t *testing.T) {
	m := testModel(t)
	q := decode(t, `
name: by-region
query:
  select:
    alias: a
    from: {table: {name: address, alias: a}}
    where:
      eq:
        - related: {entity: Address, property: Region, alias: a}
        - key: {entity: Region, first: 0}
constants: [{int: 1}, {string: north}]
`, m)

	left, err := m.RelatedReference("Address", "Region", "a")
	require.NoError(t, err)
	right, _, err := m.KeyPlaceholders("Region", 0)
	require.NoError(t, err)
	want := ir.NewSelect("a", ir.NewTable("address", "a")).WithWhere(ir.Eq(left, right))
	assert.True(t, ir.Equal(want, q.Expr), "got %#v", q.Expr)

	q = decode(t, `
name: ref
query:
  ne:
    - ref: {entity: Region, alias: r}
    - key: {entity: Region, values: [{const: {int: 1}}, {const: {string: x}}]}
`, m)
	ref, err := m.KeyReference("Region", "r")
	require.NoError(t, err)
	init, err := m.KeyInit("Region", []ir.Expr{ir.NewConstant(ir.Int(1)), ir.NewConstant(ir.String("x"))})
	require.NoError(t, err)
	assert.True(t, ir.Equal(ir.Ne(ref, init), q.Expr))
}

func TestDecodeCreateTable(t *testing.T) {
	m := testModel(t)

	q := decode(t, `
name: ddl
query: {create_table: {entity: Address, if_not_exists: true}}
`, m)
	ct, ok := q.Expr.(*ir.CreateTable)
	require.True(t, ok)
	assert.True(t, ct.IfNotExists)
	assert.Equal(t, "address", ct.Name)

	q = decode(t, `
name: ddl
query:
  create_table:
    name: t
    columns:
      - {name: id, type: int, constraints: [not_null, primary_key]}
      - {name: n, type: int, constraints: [{default: {const: {int: 0}}}]}
    constraints:
      - {unique: [id, n]}
`, nil)
	want := ir.NewCreateTable("t", []*ir.ColumnDefinition{
		ir.NewColumnDefinition("id", ir.TypeInt, ir.NewConstraint(ir.ConstraintNotNull), ir.NewConstraint(ir.ConstraintPrimaryKey)),
		ir.NewColumnDefinition("n", ir.TypeInt, ir.DefaultValue(ir.NewConstant(ir.Int(0)))),
	}, []*ir.SimpleConstraint{ir.NewConstraint(ir.ConstraintUnique, "id", "n")})
	assert.True(t, ir.Equal(want, q.Expr), "got %#v", q.Expr)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains string
	}{
		{"unknown kind", "name: x\nquery: {frobnicate: 1}", `unknown expression kind "frobnicate"`},
		{"two keys", "name: x\nquery: {column: a, const: {int: 1}}", "exactly one key"},
		{"unknown field", "name: x\nquery:\n  select: {alais: p}", `unknown field "alais"`},
		{"binary arity", "name: x\nquery: {eq: [{column: a}]}", "eq takes 2 operands, got 1"},
		{"comparison chain", "name: x\nquery: {lt: [{column: a}, {column: b}, {column: c}]}", "lt takes 2 operands, got 3"},
		{"bad int", "name: x\nquery: {const: {int: ten}}", `invalid int "ten"`},
		{"bad type", "name: x\nquery: {param: {index: 0, type: decimal}}", "query.param.type"},
		{"mixed collection", "name: x\nquery: {const: {collection: {elem: int, items: [{string: a}]}}}", "item is string, collection holds int"},
		{"entity without model", "name: x\nquery: {ref: {entity: Region, alias: r}}", "requires an entity model"},
		{"join kind", "name: x\nquery: {join: {kind: sideways, left: {table: {name: a}}, right: {table: {name: b}}}}", `unknown join kind "sideways"`},
		{"computed column name", "name: x\nquery:\n  select:\n    columns: [{expr: {const: {int: 1}}}]", "name is required for computed columns"},
		{"bad constant", "name: x\nquery: {column: a}\nconstants: [{int: x}]", "constants[0].int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.src))
			require.NoError(t, err)
			_, err = doc.Decode(nil)
			require.Error(t, err)
			assert.True(t, IsDocumentError(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestDecodeErrorPosition(t *testing.T) {
	doc, err := Parse([]byte("name: x\nquery:\n  select:\n    where:\n      bogus: 1\n"))
	require.NoError(t, err)
	_, err = doc.Decode(nil)

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 5, de.Line)
	assert.Equal(t, "query.select.where.bogus", de.Path)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("query: {column: a}"))
	assert.ErrorContains(t, err, "name is required")

	_, err = Parse([]byte("name: x"))
	assert.ErrorContains(t, err, "query is required")

	_, err = Parse([]byte("name: x\nquery: {column: a}\nprojektor: y"))
	assert.ErrorContains(t, err, "projektor")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: q\nquery: {column: t.a}\n"), 0o644))

	q, err := Load(path, nil)
	require.NoError(t, err)
	assert.True(t, ir.Equal(ir.NewColumn("t", "a"), q.Expr))
	assert.Empty(t, q.Constants)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "failed to read query document")
}
