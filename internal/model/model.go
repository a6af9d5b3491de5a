package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/plansql/internal/ir"
)

// ModelError reports an inconsistency in entity metadata.
type ModelError struct {
	Entity   string
	Property string
	Message  string
}

func (e *ModelError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("entity %s.%s: %s", e.Entity, e.Property, e.Message)
	}
	return fmt.Sprintf("entity %s: %s", e.Entity, e.Message)
}

// IsModelError returns true if err is a ModelError.
// Uses errors.As to handle wrapped errors.
func IsModelError(err error) bool {
	var me *ModelError
	return errors.As(err, &me)
}

// Model is an immutable registry of entity types.
// It is safe for concurrent use.
type Model struct {
	types map[string]*TypeDescriptor
	order []string
}

// New builds a Model from descriptors. It checks that entity names are
// unique, that base and referenced types exist, that inheritance is
// acyclic, and that every entity's key flattens to at least one column.
func New(types ...*TypeDescriptor) (*Model, error) {
	m := &Model{types: make(map[string]*TypeDescriptor, len(types))}
	for _, t := range types {
		if t == nil || t.Name == "" {
			return nil, &ModelError{Message: "entity name is required"}
		}
		if _, dup := m.types[t.Name]; dup {
			return nil, &ModelError{Entity: t.Name, Message: "entity declared more than once"}
		}
		m.types[t.Name] = t
		m.order = append(m.order, t.Name)
	}

	for _, name := range m.order {
		t := m.types[name]
		if t.BaseType != "" {
			if _, ok := m.types[t.BaseType]; !ok {
				return nil, &ModelError{Entity: name, Message: fmt.Sprintf("unknown base type %q", t.BaseType)}
			}
			if err := m.checkInheritance(name); err != nil {
				return nil, err
			}
		}
		for _, p := range t.Properties {
			if p.IsRelationship() {
				if _, ok := m.types[p.ReferencedType]; !ok {
					return nil, &ModelError{Entity: name, Property: p.Name,
						Message: fmt.Sprintf("unknown referenced type %q", p.ReferencedType)}
				}
			}
		}
	}

	for _, name := range m.order {
		cols, err := m.KeyColumns(name)
		if err != nil {
			return nil, err
		}
		if len(cols) == 0 {
			return nil, &ModelError{Entity: name, Message: "entity has no primary key"}
		}
	}
	return m, nil
}

func (m *Model) checkInheritance(name string) error {
	seen := map[string]bool{}
	for cur := name; cur != ""; cur = m.types[cur].BaseType {
		if seen[cur] {
			return &ModelError{Entity: name, Message: "inheritance cycle"}
		}
		seen[cur] = true
	}
	return nil
}

// Type returns the descriptor for name.
func (m *Model) Type(name string) (*TypeDescriptor, bool) {
	t, ok := m.types[name]
	return t, ok
}

// Types returns all descriptors in registration order.
func (m *Model) Types() []*TypeDescriptor {
	out := make([]*TypeDescriptor, len(m.order))
	for i, name := range m.order {
		out[i] = m.types[name]
	}
	return out
}

// Properties returns the properties of entity including inherited ones,
// base type first.
func (m *Model) Properties(entity string) ([]PropertyDescriptor, error) {
	t, ok := m.types[entity]
	if !ok {
		return nil, &ModelError{Entity: entity, Message: "unknown entity"}
	}
	if t.BaseType == "" {
		return t.Properties, nil
	}
	base, err := m.Properties(t.BaseType)
	if err != nil {
		return nil, err
	}
	return append(slices.Clone(base), t.Properties...), nil
}

// PrimaryKey returns the primary-key properties of entity in declared order.
func (m *Model) PrimaryKey(entity string) ([]PropertyDescriptor, error) {
	props, err := m.Properties(entity)
	if err != nil {
		return nil, err
	}
	var keys []PropertyDescriptor
	for _, p := range props {
		if p.PrimaryKey {
			keys = append(keys, p)
		}
	}
	return keys, nil
}

// IsAssignable reports whether a value of type from can be used where to
// is expected: from is to or derives from it.
func (m *Model) IsAssignable(from, to string) bool {
	for cur := from; cur != ""; {
		if cur == to {
			return true
		}
		t, ok := m.types[cur]
		if !ok {
			return false
		}
		cur = t.BaseType
	}
	return false
}

// KeyColumns returns the flattened primary-key columns of entity in
// declared order. Composite foreign keys are flattened transitively.
func (m *Model) KeyColumns(entity string) ([]KeyColumn, error) {
	return m.flatten(entity, nil, "", true, nil)
}

// Columns returns every persisted column of entity in declared order.
// Relationship properties contribute the referenced entity's key columns;
// computed members contribute nothing.
func (m *Model) Columns(entity string) ([]KeyColumn, error) {
	return m.flatten(entity, nil, "", false, nil)
}

func (m *Model) flatten(entity string, path []string, prefix string, keysOnly bool, visiting []string) ([]KeyColumn, error) {
	if slices.Contains(visiting, entity) {
		return nil, &ModelError{Entity: entity,
			Message: fmt.Sprintf("primary key references itself via %s", strings.Join(append(visiting, entity), " -> "))}
	}
	props, err := m.Properties(entity)
	if err != nil {
		return nil, err
	}

	var cols []KeyColumn
	for _, p := range props {
		if p.Computed || keysOnly && !p.PrimaryKey {
			continue
		}
		memberPath := append(slices.Clone(path), p.Name)
		if p.IsRelationship() {
			// Key cycles only matter along key paths; a non-key reference
			// contributes the referenced key, which is checked separately.
			nextVisiting := visiting
			if keysOnly {
				nextVisiting = append(slices.Clone(visiting), entity)
			}
			nested, err := m.flatten(p.ReferencedType, memberPath, prefix+p.Column()+"_", true, nextVisiting)
			if err != nil {
				return nil, err
			}
			if !keysOnly {
				for i := range nested {
					nested[i].Nullable = p.Nullable
					nested[i].AutoIncrement = false
				}
			}
			cols = append(cols, nested...)
			continue
		}
		cols = append(cols, KeyColumn{
			Path:          memberPath,
			Column:        prefix + p.Column(),
			Type:          p.Type,
			AutoIncrement: p.AutoIncrement && len(path) == 0,
			Nullable:      p.Nullable,
			Unique:        p.Unique && len(path) == 0,
			Default:       p.Default,
		})
	}
	return cols, nil
}

// KeyTypes returns the primitive types of entity's flattened key.
func (m *Model) KeyTypes(entity string) ([]ir.DataType, error) {
	cols, err := m.KeyColumns(entity)
	if err != nil {
		return nil, err
	}
	types := make([]ir.DataType, len(cols))
	for i, c := range cols {
		types[i] = c.Type
	}
	return types, nil
}
