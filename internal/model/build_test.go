package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plansql/internal/ir"
)

func TestKeyReferenceNestsCompositeForeignKeys(t *testing.T) {
	m := testModel(t)

	ref, err := m.KeyReference("Address", "a")
	require.NoError(t, err)

	want := ir.NewObjectReference("Address",
		ir.BindMember("Id", true, ir.NewColumn("a", "id")),
		ir.BindMember("Region", true, ir.NewObjectReference("Region",
			ir.BindMember("Id", true, ir.NewColumn("a", "region_id")),
			ir.BindMember("Name", true, ir.NewColumn("a", "region_name")),
		)),
	)
	assert.True(t, ir.Equal(want, ref))
}

func TestRelatedReference(t *testing.T) {
	m := testModel(t)

	ref, err := m.RelatedReference("Address", "Region", "a")
	require.NoError(t, err)
	assert.Equal(t, "Region", ref.Entity)
	require.Len(t, ref.Bindings, 2)
	assert.Equal(t, ir.NewColumn("a", "region_id"), ref.Bindings[0].Value)
	assert.Equal(t, ir.NewColumn("a", "region_name"), ref.Bindings[1].Value)

	_, err = m.RelatedReference("Address", "Street", "a")
	assert.ErrorContains(t, err, "not a relationship property")

	_, err = m.RelatedReference("Address", "Nope", "a")
	assert.ErrorContains(t, err, "unknown property")
}

func TestKeyInit(t *testing.T) {
	m := testModel(t)

	values := []ir.Expr{
		ir.NewConstant(ir.Int(1)),
		ir.NewConstant(ir.Int(2)),
		ir.NewConstant(ir.String("north")),
	}
	init, err := m.KeyInit("Address", values)
	require.NoError(t, err)
	assert.Equal(t, "Address", init.Entity)
	require.Len(t, init.Bindings, 2)
	region := init.Bindings[1].Value.(*ir.MemberInit)
	assert.Equal(t, "Region", region.Entity)
	assert.Same(t, values[2], region.Bindings[1].Value)

	_, err = m.KeyInit("Address", values[:2])
	assert.EqualError(t, err, "entity Address: key has 3 columns, got 2 values")
	assert.True(t, IsModelError(err))

	_, err = m.KeyInit("Region", values)
	assert.ErrorContains(t, err, "key has 2 columns, got 3 values")
}

func TestKeyPlaceholders(t *testing.T) {
	m := testModel(t)

	init, next, err := m.KeyPlaceholders("Region", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, next)
	assert.Equal(t, ir.Placeholder(3, ir.TypeInt), init.Bindings[0].Value)
	assert.Equal(t, ir.Placeholder(4, ir.TypeString), init.Bindings[1].Value)
}

func TestCreateTableCompositeKey(t *testing.T) {
	m := testModel(t)

	table, err := m.CreateTable("Address")
	require.NoError(t, err)
	assert.Equal(t, "address", table.Name)
	require.Len(t, table.Columns, 4)
	assert.Equal(t, "region_name", table.Columns[2].Name)
	assert.Equal(t, ir.TypeString, table.Columns[2].Type)
	assert.Equal(t, ir.ConstraintNotNull, table.Columns[0].Constraints[0].Constraint)
	assert.Empty(t, table.Columns[3].Constraints, "nullable street has no constraints")

	require.Len(t, table.Constraints, 1)
	assert.Equal(t, ir.ConstraintPrimaryKey, table.Constraints[0].Constraint)
	assert.Equal(t, []string{"id", "region_id", "region_name"}, table.Constraints[0].Columns)
}

func TestCreateTableAutoIncrementKey(t *testing.T) {
	m := testModel(t)

	table, err := m.CreateTable("Person")
	require.NoError(t, err)
	assert.Empty(t, table.Constraints)

	id := table.Columns[0]
	require.Len(t, id.Constraints, 2)
	assert.Equal(t, ir.ConstraintPrimaryKey, id.Constraints[0].Constraint)
	assert.Equal(t, ir.ConstraintAutoIncrement, id.Constraints[1].Constraint)

	email := table.Columns[1]
	assert.Equal(t, ir.ConstraintUnique, email.Constraints[1].Constraint)

	age := table.Columns[2]
	assert.Equal(t, ir.ConstraintDefault, age.Constraints[1].Constraint)
	assert.True(t, ir.Equal(ir.NewConstant(ir.Int(0)), age.Constraints[1].Value))
}

func TestCreateTableRejectsCompositeAutoIncrement(t *testing.T) {
	m, err := New(&TypeDescriptor{Name: "A", Properties: []PropertyDescriptor{
		{Name: "Id", Type: ir.TypeInt, PrimaryKey: true, AutoIncrement: true},
		{Name: "Part", Type: ir.TypeInt, PrimaryKey: true},
	}})
	require.NoError(t, err)

	_, err = m.CreateTable("A")
	assert.ErrorContains(t, err, "auto-increment requires a single-column primary key")
}
