package dialect

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plansql/internal/ir"
)

func TestPresetsValidate(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			d, err := Lookup(name)
			require.NoError(t, err)
			assert.Equal(t, name, d.Name)
			assert.NoError(t, d.Validate())
		})
	}
}

func TestNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"mysql", "postgres", "sql92", "sqlite"}, Names())
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dialect")
}

func TestLookupReturnsFreshCopies(t *testing.T) {
	a, err := Lookup("sqlite")
	require.NoError(t, err)
	a.TypeNames[ir.TypeInt] = "changed"
	a.NameQuote = "`"

	b, err := Lookup("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "INTEGER", b.TypeNames[ir.TypeInt])
	assert.Equal(t, `"`, b.NameQuote)
}

func TestCloneIsDeep(t *testing.T) {
	a := SQL92()
	b := a.Clone()
	b.TypeNames[ir.TypeInt] = "INT"
	assert.Equal(t, "BIGINT", a.TypeNames[ir.TypeInt])
}

func TestQuoting(t *testing.T) {
	d := SQL92()
	assert.Equal(t, `"people"`, d.QuoteName("people"))
	assert.Equal(t, `"we""ird"`, d.QuoteName(`we"ird`))
	assert.Equal(t, `'O''Brien'`, d.QuoteString("O'Brien"))
	assert.Equal(t, `''''''`, d.QuoteString("''"))

	m := MySQL()
	assert.Equal(t, "`people`", m.QuoteName("people"))
}

func TestParameter(t *testing.T) {
	assert.Equal(t, "@param0", SQL92().Parameter(0))
	assert.Equal(t, "@param12", SQLite().Parameter(12))
	assert.Equal(t, "$1", Postgres().Parameter(0))
	assert.Equal(t, "?", MySQL().Parameter(3))
	assert.Equal(t, "param4", ParameterName(4))
}

func TestTypeName(t *testing.T) {
	name, ok := SQLite().TypeName(ir.TypeInt)
	assert.True(t, ok)
	assert.Equal(t, "INTEGER", name)

	_, ok = SQLite().TypeName(ir.TypeCollection)
	assert.False(t, ok)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Dialect)
		want   string
	}{
		{"missing tokens", func(d *Dialect) { d.NameQuote = ""; d.Null = "" }, "missing name_quote, null"},
		{"unknown limit style", func(d *Dialect) { d.LimitStyle = "top" }, `unknown limit_style "top"`},
		{"offset without unbounded", func(d *Dialect) { d.LimitStyle = LimitOffset; d.UnboundedLimit = "" }, "requires unbounded_limit"},
		{"unknown parameter style", func(d *Dialect) { d.ParameterStyle = "colon" }, `unknown parameter_style "colon"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := SQL92()
			tt.mutate(d)
			err := d.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadStandalone(t *testing.T) {
	src := `
name: tiny
name_quote: "["
string_quote: "'"
string_escape: "'"
parameter_prefix: ":"
null: NULL
true_literal: "1"
false_literal: "0"
like: LIKE
current_timestamp: GETDATE()
limit_style: offset
unbounded_limit: "-1"
type_names:
  int: INT
`
	d, err := Load(strings.NewReader(src), nil)
	require.NoError(t, err)
	assert.Equal(t, "tiny", d.Name)
	assert.Equal(t, "NULL", d.Null)
	assert.Equal(t, "[", d.NameQuote)
	assert.Equal(t, ":param0", d.Parameter(0))
	assert.Equal(t, LimitOffset, d.LimitStyle)
	assert.False(t, d.SupportsForUpdate)
	assert.Equal(t, map[ir.DataType]string{ir.TypeInt: "INT"}, d.TypeNames)
}

func TestLoadExtendsPreset(t *testing.T) {
	d, err := LoadFile(filepath.Join("testdata", "duckdb.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "duckdb", d.Name)
	assert.Equal(t, "postgres", d.Extends)
	assert.Equal(t, "LIKE", d.Like, "overridden")
	assert.Equal(t, "$", d.ParameterPrefix, "inherited")
	assert.Equal(t, "ALL", d.UnboundedLimit, "inherited")
	assert.Equal(t, "TIMESTAMPTZ", d.TypeNames[ir.TypeTimestamp], "merged key")
	assert.Equal(t, "BIGINT", d.TypeNames[ir.TypeInt], "inherited key")

	p, err := Lookup("postgres")
	require.NoError(t, err)
	assert.Equal(t, "TIMESTAMP", p.TypeNames[ir.TypeTimestamp], "preset untouched")
}

func TestLoadCustomResolver(t *testing.T) {
	resolve := func(name string) (*Dialect, error) {
		d := SQLite()
		d.Name = name
		return d, nil
	}
	d, err := Load(strings.NewReader("name: child\nextends: house\nsupports_for_update: true\n"), resolve)
	require.NoError(t, err)
	assert.True(t, d.SupportsForUpdate)
	assert.Equal(t, "house", d.Extends)
	assert.Equal(t, "INTEGER", d.TypeNames[ir.TypeInt])
}

func TestLoadKeepsNullSpellings(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"null: NULL", "NULL"},
		{"null: null", "null"},
		{"null: Null", "Null"},
		{`null: "NULL"`, "NULL"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			d, err := Load(strings.NewReader("name: x\nextends: sql92\n"+tt.src+"\n"), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Null)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown base", "name: x\nextends: oracle\n", `extends "oracle"`},
		{"unknown field", "name: x\nextends: sql92\nquote: x\n", "field quote not found"},
		{"missing name", "extends: sql92\n", `missing name`},
		{"bad yaml", "name: [", "parse dialect"},
		{"empty", "", "empty document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open dialect")
}
