package dialect

import (
	"fmt"
	"sort"

	"github.com/roach88/plansql/internal/ir"
)

// SQL92 returns the ANSI baseline every other preset extends.
func SQL92() *Dialect {
	return &Dialect{
		Name:              "sql92",
		NameQuote:         `"`,
		StringQuote:       "'",
		StringEscape:      "'",
		ParameterPrefix:   "@",
		ParameterStyle:    ParamNamed,
		Null:              "NULL",
		True:              "TRUE",
		False:             "FALSE",
		Like:              "LIKE",
		ConcatOperator:    "||",
		CurrentTimestamp:  "CURRENT_TIMESTAMP",
		AutoIncrement:     "AUTOINCREMENT",
		LimitStyle:        LimitComma,
		SupportsForUpdate: true,
		TypeNames: map[ir.DataType]string{
			ir.TypeBool:      "BOOLEAN",
			ir.TypeInt:       "BIGINT",
			ir.TypeFloat:     "DOUBLE PRECISION",
			ir.TypeString:    "VARCHAR(4096)",
			ir.TypeEnum:      "VARCHAR(256)",
			ir.TypeGUID:      "CHAR(36)",
			ir.TypeTimeSpan:  "BIGINT",
			ir.TypeTimestamp: "TIMESTAMP",
			ir.TypeBytes:     "BLOB",
		},
	}
}

// SQLite returns the SQLite dialect. INTEGER is required for
// INTEGER PRIMARY KEY AUTOINCREMENT.
func SQLite() *Dialect {
	d := SQL92()
	d.Name = "sqlite"
	d.Extends = "sql92"
	d.SupportsForUpdate = false
	d.True = "1"
	d.False = "0"
	d.TypeNames = map[ir.DataType]string{
		ir.TypeBool:      "INTEGER",
		ir.TypeInt:       "INTEGER",
		ir.TypeFloat:     "REAL",
		ir.TypeString:    "TEXT",
		ir.TypeEnum:      "TEXT",
		ir.TypeGUID:      "TEXT",
		ir.TypeTimeSpan:  "INTEGER",
		ir.TypeTimestamp: "TEXT",
		ir.TypeBytes:     "BLOB",
	}
	return d
}

// Postgres returns the PostgreSQL dialect.
func Postgres() *Dialect {
	d := SQL92()
	d.Name = "postgres"
	d.Extends = "sql92"
	d.ParameterPrefix = "$"
	d.ParameterStyle = ParamNumbered
	d.Like = "ILIKE"
	d.CurrentTimestamp = "NOW()"
	d.AutoIncrement = "GENERATED BY DEFAULT AS IDENTITY"
	d.LimitStyle = LimitOffset
	d.UnboundedLimit = "ALL"
	d.TypeNames[ir.TypeString] = "TEXT"
	d.TypeNames[ir.TypeEnum] = "TEXT"
	d.TypeNames[ir.TypeGUID] = "UUID"
	d.TypeNames[ir.TypeBytes] = "BYTEA"
	return d
}

// MySQL returns the MySQL dialect.
func MySQL() *Dialect {
	d := SQL92()
	d.Name = "mysql"
	d.Extends = "sql92"
	d.NameQuote = "`"
	d.ParameterPrefix = "?"
	d.ParameterStyle = ParamPositional
	d.ConcatOperator = ""
	d.AutoIncrement = "AUTO_INCREMENT"
	d.TypeNames[ir.TypeBool] = "TINYINT(1)"
	d.TypeNames[ir.TypeFloat] = "DOUBLE"
	d.TypeNames[ir.TypeString] = "TEXT"
	d.TypeNames[ir.TypeEnum] = "VARCHAR(255)"
	d.TypeNames[ir.TypeTimestamp] = "DATETIME(6)"
	return d
}

var presets = map[string]func() *Dialect{
	"sql92":    SQL92,
	"sqlite":   SQLite,
	"postgres": Postgres,
	"mysql":    MySQL,
}

// Lookup returns a fresh copy of the named preset.
func Lookup(name string) (*Dialect, error) {
	ctor, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %v)", name, Names())
	}
	return ctor(), nil
}

// Names returns the preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
