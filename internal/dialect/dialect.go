// Package dialect describes per-database SQL syntax for the formatter.
//
// A Dialect is a plain value: quote characters, tokens and feature flags.
// Presets are constructed fresh on every lookup, so callers may modify the
// returned value without affecting anyone else. Dialect files are YAML and
// may extend a preset or another file's dialect by name.
package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/plansql/internal/ir"
)

// LimitStyle selects how Skip/Take render.
type LimitStyle string

const (
	// LimitComma renders "LIMIT skip, take".
	LimitComma LimitStyle = "comma"

	// LimitOffset renders "LIMIT take OFFSET skip".
	LimitOffset LimitStyle = "offset"
)

// ParameterStyle selects how parameter N renders.
type ParameterStyle string

const (
	// ParamNamed renders prefix + "param" + N, e.g. @param0.
	ParamNamed ParameterStyle = "named"

	// ParamNumbered renders prefix + (N+1), e.g. $1.
	ParamNumbered ParameterStyle = "numbered"

	// ParamPositional renders the bare prefix, e.g. ?.
	ParamPositional ParameterStyle = "positional"
)

// MaxTake is the take written by LimitComma when only Skip is set.
const MaxTake = "9223372036854775807"

// Dialect is the set of syntax tokens and feature flags distinguishing one
// target database's SQL from another.
type Dialect struct {
	Name    string `yaml:"name"`
	Extends string `yaml:"extends,omitempty"`

	NameQuote       string         `yaml:"name_quote"`
	StringQuote     string         `yaml:"string_quote"`
	StringEscape    string         `yaml:"string_escape"`
	ParameterPrefix string         `yaml:"parameter_prefix"`
	ParameterStyle  ParameterStyle `yaml:"parameter_style"`

	Null             string `yaml:"null"`
	True             string `yaml:"true_literal"`  // DDL defaults only; DML binds booleans
	False            string `yaml:"false_literal"`
	Like             string `yaml:"like"`
	ConcatOperator   string `yaml:"concat_operator"` // empty: CONCAT(a, b)
	CurrentTimestamp string `yaml:"current_timestamp"`
	AutoIncrement    string `yaml:"auto_increment"`

	LimitStyle     LimitStyle `yaml:"limit_style"`
	UnboundedLimit string     `yaml:"unbounded_limit"` // LimitOffset take when only Skip is set

	SupportsForUpdate bool `yaml:"supports_for_update"`

	// TypeNames maps declared data types to column type names for DDL.
	TypeNames map[ir.DataType]string `yaml:"type_names"`
}

// Clone returns a deep copy of d.
func (d *Dialect) Clone() *Dialect {
	c := *d
	c.TypeNames = make(map[ir.DataType]string, len(d.TypeNames))
	for k, v := range d.TypeNames {
		c.TypeNames[k] = v
	}
	return &c
}

// QuoteName wraps an identifier in the name quote, doubling any embedded
// quote character.
func (d *Dialect) QuoteName(name string) string {
	q := d.NameQuote
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// QuoteString renders s as a string literal with every embedded quote
// escaped.
func (d *Dialect) QuoteString(s string) string {
	q := d.StringQuote
	return q + strings.ReplaceAll(s, q, d.StringEscape+q) + q
}

// Parameter renders the marker for the n-th (0-based) bound parameter.
func (d *Dialect) Parameter(n int) string {
	switch d.ParameterStyle {
	case ParamNumbered:
		return d.ParameterPrefix + strconv.Itoa(n+1)
	case ParamPositional:
		return d.ParameterPrefix
	default:
		return d.ParameterPrefix + "param" + strconv.Itoa(n)
	}
}

// ParameterName returns the name bound for parameter n under ParamNamed.
func ParameterName(n int) string {
	return "param" + strconv.Itoa(n)
}

// TypeName returns the column type name for t.
func (d *Dialect) TypeName(t ir.DataType) (string, bool) {
	name, ok := d.TypeNames[t]
	return name, ok && name != ""
}

// Validate checks that every token the formatter needs is present.
func (d *Dialect) Validate() error {
	var missing []string
	required := []struct {
		field, value string
	}{
		{"name", d.Name},
		{"name_quote", d.NameQuote},
		{"string_quote", d.StringQuote},
		{"string_escape", d.StringEscape},
		{"parameter_prefix", d.ParameterPrefix},
		{"null", d.Null},
		{"true_literal", d.True},
		{"false_literal", d.False},
		{"like", d.Like},
		{"current_timestamp", d.CurrentTimestamp},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("dialect %q: missing %s", d.Name, strings.Join(missing, ", "))
	}

	switch d.LimitStyle {
	case LimitComma:
	case LimitOffset:
		if d.UnboundedLimit == "" {
			return fmt.Errorf("dialect %q: limit_style offset requires unbounded_limit", d.Name)
		}
	default:
		return fmt.Errorf("dialect %q: unknown limit_style %q", d.Name, d.LimitStyle)
	}

	switch d.ParameterStyle {
	case ParamNamed, ParamNumbered, ParamPositional:
	default:
		return fmt.Errorf("dialect %q: unknown parameter_style %q", d.Name, d.ParameterStyle)
	}
	return nil
}
