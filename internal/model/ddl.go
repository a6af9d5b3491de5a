package model

import (
	"github.com/roach88/plansql/internal/ir"
)

// CreateTable builds the CREATE TABLE statement for entity.
//
// Key columns are NOT NULL. A single auto-increment key is declared inline
// as PRIMARY KEY AUTOINCREMENT; any other key becomes a table-level
// PRIMARY KEY over the flattened key columns. Non-key columns are NOT NULL
// unless nullable, and carry UNIQUE and DEFAULT when declared.
func (m *Model) CreateTable(entity string) (*ir.CreateTable, error) {
	t, ok := m.Type(entity)
	if !ok {
		return nil, &ModelError{Entity: entity, Message: "unknown entity"}
	}
	columns, err := m.Columns(entity)
	if err != nil {
		return nil, err
	}
	keys, err := m.KeyColumns(entity)
	if err != nil {
		return nil, err
	}

	isKey := make(map[string]bool, len(keys))
	keyNames := make([]string, len(keys))
	for i, k := range keys {
		isKey[k.Column] = true
		keyNames[i] = k.Column
	}
	inlineKey := len(keys) == 1 && keys[0].AutoIncrement

	defs := make([]*ir.ColumnDefinition, 0, len(columns))
	autoIncrements := 0
	for _, c := range columns {
		var constraints []*ir.SimpleConstraint
		switch {
		case isKey[c.Column] && inlineKey:
			constraints = append(constraints,
				ir.NewConstraint(ir.ConstraintPrimaryKey),
				ir.NewConstraint(ir.ConstraintAutoIncrement))
			autoIncrements++
		case isKey[c.Column]:
			constraints = append(constraints, ir.NewConstraint(ir.ConstraintNotNull))
		default:
			if !c.Nullable {
				constraints = append(constraints, ir.NewConstraint(ir.ConstraintNotNull))
			}
			if c.Unique {
				constraints = append(constraints, ir.NewConstraint(ir.ConstraintUnique))
			}
		}
		if c.Default != nil {
			constraints = append(constraints, ir.DefaultValue(ir.NewConstant(c.Default)))
		}
		defs = append(defs, ir.NewColumnDefinition(c.Column, c.Type, constraints...))
	}
	if autoIncrements == 0 {
		for _, k := range keys {
			if k.AutoIncrement {
				return nil, &ModelError{Entity: entity, Property: k.Path[0],
					Message: "auto-increment requires a single-column primary key"}
			}
		}
	}

	var tableConstraints []*ir.SimpleConstraint
	if !inlineKey {
		tableConstraints = append(tableConstraints, ir.NewConstraint(ir.ConstraintPrimaryKey, keyNames...))
	}
	return ir.NewCreateTable(t.Table(), defs, tableConstraints), nil
}
