package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plansql/internal/ir"
)

func str(s string) *ir.Constant { return ir.NewConstant(ir.String(s)) }

func TestRemoveRedundantCalls(t *testing.T) {
	name := ir.NewColumn("p", "name")
	city := ir.NewColumn("p", "city")

	tests := []struct {
		name string
		in   ir.Expr
		want ir.Expr
	}{
		{
			name: "drops empty concat operands",
			in:   ir.Call(ir.FuncConcat, name, str(""), city),
			want: ir.Call(ir.FuncConcat, name, city),
		},
		{
			name: "flattens nested concat",
			in:   ir.Call(ir.FuncConcat, name, ir.Call(ir.FuncConcat, str("-"), city)),
			want: ir.Call(ir.FuncConcat, name, str("-"), city),
		},
		{
			name: "merges adjacent literals",
			in:   ir.Call(ir.FuncConcat, str("%"), str("abc"), str("%")),
			want: str("%abc%"),
		},
		{
			name: "single operand concat",
			in:   ir.Call(ir.FuncConcat, str(""), name),
			want: name,
		},
		{
			name: "all empty concat",
			in:   ir.Call(ir.FuncConcat, str(""), str("")),
			want: str(""),
		},
		{
			name: "single argument coalesce",
			in:   ir.Call(ir.FuncCoalesce, name),
			want: name,
		},
		{
			name: "double negation",
			in:   ir.Not(ir.Not(ir.Eq(name, str("x")))),
			want: ir.Eq(name, str("x")),
		},
		{
			name: "equal null",
			in:   ir.Eq(name, ir.NewConstant(nil)),
			want: ir.Call(ir.FuncIsNull, name),
		},
		{
			name: "null not equal",
			in:   ir.Ne(ir.NewConstant(ir.Null{Type: ir.TypeString}), name),
			want: ir.Call(ir.FuncIsNotNull, name),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RemoveRedundantCalls(tt.in)
			require.NoError(t, err)
			assert.True(t, ir.Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestRemoveRedundantCallsKeepsIdentity(t *testing.T) {
	in := ir.NewSelect("p", ir.NewTable("people", "p"),
		ir.Col("label", ir.Call(ir.FuncConcat, ir.NewColumn("p", "first"), str(" "), ir.NewColumn("p", "last"))),
	).WithWhere(ir.And(
		ir.Eq(ir.NewColumn("p", "id"), ir.Placeholder(0, ir.TypeInt)),
		ir.Call(ir.FuncCoalesce, ir.NewColumn("p", "a"), ir.NewColumn("p", "b")),
	))

	got, err := RemoveRedundantCalls(in)
	require.NoError(t, err)
	assert.Same(t, in, got)
}

func TestRemoveRedundantCallsRebuildsOnlyChangedPath(t *testing.T) {
	untouched := ir.Eq(ir.NewColumn("p", "id"), ir.Placeholder(0, ir.TypeInt))
	in := ir.And(untouched, ir.Not(ir.Not(ir.NewColumn("p", "active"))))

	got, err := RemoveRedundantCalls(in)
	require.NoError(t, err)

	b, ok := got.(*ir.Binary)
	require.True(t, ok)
	assert.NotSame(t, in, got)
	assert.Same(t, untouched, b.Left)
	assert.True(t, ir.Equal(ir.NewColumn("p", "active"), b.Right))
}

func TestLowerStringPatterns(t *testing.T) {
	name := ir.NewColumn("p", "name")

	tests := []struct {
		fn   ir.Function
		want string
	}{
		{ir.FuncStartsWith, "abc%"},
		{ir.FuncEndsWith, "%abc"},
		{ir.FuncContainsString, "%abc%"},
	}

	for _, tt := range tests {
		t.Run(string(tt.fn), func(t *testing.T) {
			lowered, err := LowerStringPatterns(ir.Call(tt.fn, name, str("abc")))
			require.NoError(t, err)

			got, err := RemoveRedundantCalls(lowered)
			require.NoError(t, err)
			assert.True(t, ir.Equal(ir.Call(ir.FuncLike, name, str(tt.want)), got), "got %#v", got)
		})
	}
}

func TestLowerStringPatternsWithPlaceholder(t *testing.T) {
	name := ir.NewColumn("p", "name")
	term := ir.Placeholder(0, ir.TypeString)

	got, err := Run(ir.Call(ir.FuncContainsString, name, term), Passes(nil)...)
	require.NoError(t, err)

	want := ir.Call(ir.FuncLike, name, ir.Call(ir.FuncConcat, str("%"), term, str("%")))
	assert.True(t, ir.Equal(want, got))
}

func TestLowerPatternIgnoresOtherCalls(t *testing.T) {
	_, ok := LowerPattern(ir.Call(ir.FuncLower, ir.NewColumn("", "x")))
	assert.False(t, ok)

	_, ok = LowerPattern(ir.Call(ir.FuncStartsWith, ir.NewColumn("", "x")))
	assert.False(t, ok, "wrong arity is left for the formatter to reject")
}
