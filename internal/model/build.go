package model

import (
	"fmt"

	"github.com/roach88/plansql/internal/ir"
)

// KeyReference builds the entity-typed operand for the row of entity read
// through alias: an ObjectReference binding each primary-key member to its
// column. Composite foreign keys become nested ObjectReferences over the
// prefixed foreign-key columns.
func (m *Model) KeyReference(entity, alias string) (*ir.ObjectReference, error) {
	return m.reference(entity, alias, "", nil)
}

// RelatedReference builds the operand for a relationship property of the
// row read through alias, e.g. address.Region: an ObjectReference of the
// referenced type over the owning table's foreign-key columns.
func (m *Model) RelatedReference(entity, property, alias string) (*ir.ObjectReference, error) {
	props, err := m.Properties(entity)
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		if p.Name != property {
			continue
		}
		if !p.IsRelationship() {
			return nil, &ModelError{Entity: entity, Property: property, Message: "not a relationship property"}
		}
		return m.reference(p.ReferencedType, alias, p.Column()+"_", nil)
	}
	return nil, &ModelError{Entity: entity, Property: property, Message: "unknown property"}
}

func (m *Model) reference(entity, alias, prefix string, visiting []string) (*ir.ObjectReference, error) {
	for _, v := range visiting {
		if v == entity {
			return nil, &ModelError{Entity: entity, Message: "primary key references itself"}
		}
	}
	keys, err := m.PrimaryKey(entity)
	if err != nil {
		return nil, err
	}
	bindings := make([]ir.MemberBinding, 0, len(keys))
	for _, p := range keys {
		if p.IsRelationship() {
			nested, err := m.reference(p.ReferencedType, alias, prefix+p.Column()+"_", append(visiting, entity))
			if err != nil {
				return nil, err
			}
			bindings = append(bindings, ir.BindMember(p.Name, true, nested))
			continue
		}
		bindings = append(bindings, ir.BindMember(p.Name, true, ir.NewColumn(alias, prefix+p.Column())))
	}
	return ir.NewObjectReference(entity, bindings...), nil
}

// KeyInit builds a MemberInit of entity whose primary key is initialized
// from values, given in flattened key order. It fails unless exactly one
// value is supplied per key column.
func (m *Model) KeyInit(entity string, values []ir.Expr) (*ir.MemberInit, error) {
	cols, err := m.KeyColumns(entity)
	if err != nil {
		return nil, err
	}
	if len(cols) != len(values) {
		return nil, &ModelError{Entity: entity,
			Message: fmt.Sprintf("key has %d columns, got %d values", len(cols), len(values))}
	}
	init, _, err := m.keyInit(entity, values)
	if err != nil {
		return nil, err
	}
	return init, nil
}

func (m *Model) keyInit(entity string, values []ir.Expr) (*ir.MemberInit, int, error) {
	keys, err := m.PrimaryKey(entity)
	if err != nil {
		return nil, 0, err
	}
	used := 0
	bindings := make([]ir.MemberBinding, 0, len(keys))
	for _, p := range keys {
		if p.IsRelationship() {
			nested, n, err := m.keyInit(p.ReferencedType, values[used:])
			if err != nil {
				return nil, 0, err
			}
			used += n
			bindings = append(bindings, ir.BindMember(p.Name, true, nested))
			continue
		}
		if used >= len(values) {
			return nil, 0, &ModelError{Entity: entity, Message: "too few key values"}
		}
		bindings = append(bindings, ir.BindMember(p.Name, true, values[used]))
		used++
	}
	return ir.NewMemberInit(entity, bindings...), used, nil
}

// KeyPlaceholders builds a MemberInit of entity whose key columns are
// constant placeholders numbered from first. It returns the next unused
// placeholder index.
func (m *Model) KeyPlaceholders(entity string, first int) (*ir.MemberInit, int, error) {
	types, err := m.KeyTypes(entity)
	if err != nil {
		return nil, 0, err
	}
	values := make([]ir.Expr, len(types))
	for i, t := range types {
		values[i] = ir.Placeholder(first+i, t)
	}
	init, err := m.KeyInit(entity, values)
	if err != nil {
		return nil, 0, err
	}
	return init, first + len(types), nil
}
