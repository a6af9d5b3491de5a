package model

import (
	"strings"
	"unicode"

	"github.com/roach88/plansql/internal/ir"
)

// PropertyDescriptor describes one member of an entity type.
type PropertyDescriptor struct {
	// Name is the member name, e.g. "RegionName".
	Name string

	// PersistedName is the column name. Defaults to the snake_case of Name.
	PersistedName string

	// Type is the primitive type. Empty for relationship properties.
	Type ir.DataType

	// ReferencedType names the entity a relationship property points to.
	ReferencedType string

	PrimaryKey    bool
	AutoIncrement bool
	Unique        bool
	Nullable      bool

	// Computed members are derived and never persisted.
	Computed bool

	// Default is the column default, or nil.
	Default ir.Value
}

// IsRelationship reports whether p references another entity.
func (p PropertyDescriptor) IsRelationship() bool {
	return p.ReferencedType != ""
}

// Column returns the persisted column name of p.
func (p PropertyDescriptor) Column() string {
	if p.PersistedName != "" {
		return p.PersistedName
	}
	return SnakeCase(p.Name)
}

// TypeDescriptor describes one entity type.
type TypeDescriptor struct {
	// Name is the entity name, e.g. "Address".
	Name string

	// TableName is the persisted table name. Defaults to the snake_case of Name.
	TableName string

	// BaseType names the entity this type extends. Properties of the base
	// type come first.
	BaseType string

	// Properties in declared order.
	Properties []PropertyDescriptor
}

// Table returns the persisted table name of t.
func (t *TypeDescriptor) Table() string {
	if t.TableName != "" {
		return t.TableName
	}
	return SnakeCase(t.Name)
}

// KeyColumn is one flattened primary-key (or persisted) column.
type KeyColumn struct {
	// Path is the member path from the entity to the primitive member,
	// e.g. ["Region", "Name"].
	Path []string

	// Column is the persisted column name, e.g. "region_name".
	Column string

	// Type is the primitive type of the column.
	Type ir.DataType

	// AutoIncrement is set on the entity's own auto-increment key column.
	AutoIncrement bool

	// Nullable, Unique and Default mirror the source property.
	Nullable bool
	Unique   bool
	Default  ir.Value
}

// SnakeCase converts a member name such as "RegionName" or "HTTPHost" to
// "region_name" or "http_host".
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			if i > 0 && (prevLower || prevUpper && nextLower) && runes[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
