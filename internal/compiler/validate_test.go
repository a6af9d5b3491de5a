package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plansql/internal/ir"
	"github.com/roach88/plansql/internal/model"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	types := []*model.TypeDescriptor{
		{Name: "Region", Properties: []model.PropertyDescriptor{
			{Name: "Id", Type: ir.TypeInt, PrimaryKey: true, AutoIncrement: true},
			{Name: "Name", Type: ir.TypeString},
		}},
		{Name: "Address", Properties: []model.PropertyDescriptor{
			{Name: "Id", Type: ir.TypeInt, PrimaryKey: true},
			{Name: "Region", ReferencedType: "Region"},
		}},
		{Name: "Office", BaseType: "Address"},
	}

	errs := Validate(types)
	assert.Empty(t, errs, "valid model should have no errors")
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		types []*model.TypeDescriptor
		code  string
		field string
	}{
		{
			name:  "no properties",
			types: []*model.TypeDescriptor{{Name: "Empty"}},
			code:  ErrEntityNoProperties,
			field: "entity.Empty.properties",
		},
		{
			name: "no primary key",
			types: []*model.TypeDescriptor{{Name: "Loose", Properties: []model.PropertyDescriptor{
				{Name: "Name", Type: ir.TypeString},
			}}},
			code:  ErrEntityNoPrimaryKey,
			field: "entity.Loose",
		},
		{
			name: "duplicate property",
			types: []*model.TypeDescriptor{{Name: "Dup", Properties: []model.PropertyDescriptor{
				{Name: "Id", Type: ir.TypeInt, PrimaryKey: true},
				{Name: "Id", Type: ir.TypeString, PersistedName: "other"},
			}}},
			code:  ErrDuplicateName,
			field: "entity.Dup.properties[1].name",
		},
		{
			name: "duplicate column",
			types: []*model.TypeDescriptor{{Name: "Dup", Properties: []model.PropertyDescriptor{
				{Name: "Id", Type: ir.TypeInt, PrimaryKey: true},
				{Name: "Other", Type: ir.TypeInt, PersistedName: "id"},
			}}},
			code:  ErrDuplicateName,
			field: "entity.Dup.properties[1].column",
		},
		{
			name: "missing type",
			types: []*model.TypeDescriptor{{Name: "T", Properties: []model.PropertyDescriptor{
				{Name: "Id", PrimaryKey: true},
			}}},
			code:  ErrInvalidFieldType,
			field: "entity.T.properties[0].type",
		},
		{
			name: "type and reference",
			types: []*model.TypeDescriptor{
				{Name: "T", Properties: []model.PropertyDescriptor{
					{Name: "Id", Type: ir.TypeInt, PrimaryKey: true},
					{Name: "U", Type: ir.TypeInt, ReferencedType: "T"},
				}},
			},
			code:  ErrInvalidFieldType,
			field: "entity.T.properties[1].type",
		},
		{
			name: "unknown reference",
			types: []*model.TypeDescriptor{{Name: "T", Properties: []model.PropertyDescriptor{
				{Name: "Id", Type: ir.TypeInt, PrimaryKey: true},
				{Name: "Owner", ReferencedType: "Ghost"},
			}}},
			code:  ErrUnknownReference,
			field: "entity.T.properties[1].references",
		},
		{
			name:  "unknown base",
			types: []*model.TypeDescriptor{{Name: "T", BaseType: "Ghost"}},
			code:  ErrUnknownReference,
			field: "entity.T.extends",
		},
		{
			name: "computed key",
			types: []*model.TypeDescriptor{{Name: "T", Properties: []model.PropertyDescriptor{
				{Name: "Id", Type: ir.TypeInt, PrimaryKey: true, Computed: true},
			}}},
			code:  ErrComputedKey,
			field: "entity.T.properties[0].computed",
		},
		{
			name: "auto-increment on non-key",
			types: []*model.TypeDescriptor{{Name: "T", Properties: []model.PropertyDescriptor{
				{Name: "Id", Type: ir.TypeInt, PrimaryKey: true},
				{Name: "Seq", Type: ir.TypeInt, AutoIncrement: true},
			}}},
			code:  ErrInvalidAutoIncrement,
			field: "entity.T.properties[1].auto_increment",
		},
		{
			name: "multiple auto-increment",
			types: []*model.TypeDescriptor{{Name: "T", Properties: []model.PropertyDescriptor{
				{Name: "A", Type: ir.TypeInt, PrimaryKey: true, AutoIncrement: true},
				{Name: "B", Type: ir.TypeInt, PrimaryKey: true, AutoIncrement: true},
			}}},
			code:  ErrMultipleAutoInc,
			field: "entity.T",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.types)
			require.NotEmpty(t, errs)
			assert.Contains(t, codes(errs), tt.code)

			var fields []string
			for _, e := range errs {
				if e.Code == tt.code {
					fields = append(fields, e.Field)
				}
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidate_KeyCycle(t *testing.T) {
	types := []*model.TypeDescriptor{
		{Name: "A", Properties: []model.PropertyDescriptor{{Name: "B", ReferencedType: "B", PrimaryKey: true}}},
		{Name: "B", Properties: []model.PropertyDescriptor{{Name: "A", ReferencedType: "A", PrimaryKey: true}}},
	}

	errs := Validate(types)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrKeyCycle, errs[0].Code)
	assert.Equal(t, "entity.A", errs[0].Field)
	assert.Contains(t, errs[0].Message, "A -> B -> A")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	types := []*model.TypeDescriptor{
		{Name: "T", Properties: []model.PropertyDescriptor{
			{Name: "Name"},
			{Name: "Name", Type: ir.TypeString},
		}},
	}

	errs := Validate(types)
	assert.ElementsMatch(t, []string{ErrInvalidFieldType, ErrDuplicateName, ErrDuplicateName, ErrEntityNoPrimaryKey}, codes(errs))
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "entity.T", Message: "bad", Code: "E102"}
	assert.Equal(t, "[E102] entity.T: bad", e.Error())

	e.Line = 7
	assert.Equal(t, "[E102] line 7: entity.T: bad", e.Error())
}
