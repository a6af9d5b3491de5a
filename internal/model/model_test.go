package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plansql/internal/ir"
)

// testModel is a small model with composite keys nested three deep.
func testModel(t *testing.T) *Model {
	t.Helper()
	m, err := New(
		&TypeDescriptor{Name: "Region", Properties: []PropertyDescriptor{
			{Name: "Id", Type: ir.TypeInt, PrimaryKey: true},
			{Name: "Name", Type: ir.TypeString, PrimaryKey: true},
		}},
		&TypeDescriptor{Name: "Address", Properties: []PropertyDescriptor{
			{Name: "Id", Type: ir.TypeInt, PrimaryKey: true},
			{Name: "Region", ReferencedType: "Region", PrimaryKey: true},
			{Name: "Street", Type: ir.TypeString, Nullable: true},
		}},
		&TypeDescriptor{Name: "Shop", TableName: "shops", Properties: []PropertyDescriptor{
			{Name: "Address", ReferencedType: "Address", PrimaryKey: true},
			{Name: "Name", Type: ir.TypeString, PrimaryKey: true},
			{Name: "Label", Type: ir.TypeString, Computed: true},
		}},
		&TypeDescriptor{Name: "Person", Properties: []PropertyDescriptor{
			{Name: "Id", Type: ir.TypeInt, PrimaryKey: true, AutoIncrement: true},
			{Name: "Email", Type: ir.TypeString, Unique: true},
			{Name: "Age", Type: ir.TypeInt, Default: ir.Int(0)},
		}},
		&TypeDescriptor{Name: "Employee", BaseType: "Person", Properties: []PropertyDescriptor{
			{Name: "Salary", Type: ir.TypeFloat, Nullable: true},
		}},
	)
	require.NoError(t, err)
	return m
}

func TestKeyColumnsFlattensTransitively(t *testing.T) {
	m := testModel(t)

	cols, err := m.KeyColumns("Shop")
	require.NoError(t, err)

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Column
	}
	assert.Equal(t, []string{"address_id", "address_region_id", "address_region_name", "name"}, names)
	assert.Equal(t, []string{"Address", "Region", "Name"}, cols[2].Path)
	assert.Equal(t, ir.TypeString, cols[2].Type)
}

func TestColumnsSkipsComputedMembers(t *testing.T) {
	m := testModel(t)

	cols, err := m.Columns("Shop")
	require.NoError(t, err)
	for _, c := range cols {
		assert.NotEqual(t, "label", c.Column)
	}
	assert.Len(t, cols, 4)
}

func TestInheritance(t *testing.T) {
	m := testModel(t)

	assert.True(t, m.IsAssignable("Employee", "Person"))
	assert.True(t, m.IsAssignable("Person", "Person"))
	assert.False(t, m.IsAssignable("Person", "Employee"))
	assert.False(t, m.IsAssignable("Region", "Person"))

	props, err := m.Properties("Employee")
	require.NoError(t, err)
	assert.Equal(t, "Id", props[0].Name)
	assert.Equal(t, "Salary", props[len(props)-1].Name)

	keys, err := m.KeyColumns("Employee")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "id", keys[0].Column)
}

func TestNewRejectsInconsistentMetadata(t *testing.T) {
	tests := []struct {
		name  string
		types []*TypeDescriptor
		msg   string
	}{
		{"duplicate", []*TypeDescriptor{
			{Name: "A", Properties: []PropertyDescriptor{{Name: "Id", Type: ir.TypeInt, PrimaryKey: true}}},
			{Name: "A", Properties: []PropertyDescriptor{{Name: "Id", Type: ir.TypeInt, PrimaryKey: true}}},
		}, "declared more than once"},
		{"unknown reference", []*TypeDescriptor{
			{Name: "A", Properties: []PropertyDescriptor{{Name: "B", ReferencedType: "B", PrimaryKey: true}}},
		}, `unknown referenced type "B"`},
		{"unknown base", []*TypeDescriptor{
			{Name: "A", BaseType: "Z", Properties: []PropertyDescriptor{{Name: "Id", Type: ir.TypeInt, PrimaryKey: true}}},
		}, `unknown base type "Z"`},
		{"no key", []*TypeDescriptor{
			{Name: "A", Properties: []PropertyDescriptor{{Name: "Id", Type: ir.TypeInt}}},
		}, "no primary key"},
		{"key cycle", []*TypeDescriptor{
			{Name: "A", Properties: []PropertyDescriptor{{Name: "B", ReferencedType: "B", PrimaryKey: true}}},
			{Name: "B", Properties: []PropertyDescriptor{{Name: "A", ReferencedType: "A", PrimaryKey: true}}},
		}, "primary key references itself"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.types...)
			require.Error(t, err)
			assert.True(t, IsModelError(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestSelfReferenceOutsideKeyIsAllowed(t *testing.T) {
	m, err := New(&TypeDescriptor{Name: "Node", Properties: []PropertyDescriptor{
		{Name: "Id", Type: ir.TypeInt, PrimaryKey: true},
		{Name: "Parent", ReferencedType: "Node", Nullable: true},
	}})
	require.NoError(t, err)

	cols, err := m.Columns("Node")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "parent_id", cols[1].Column)
	assert.True(t, cols[1].Nullable)
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Id":         "id",
		"RegionName": "region_name",
		"HTTPHost":   "http_host",
		"already_ok": "already_ok",
		"Address2":   "address2",
		"userID":     "user_id",
	}
	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}
