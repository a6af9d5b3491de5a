package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/plansql/internal/ir"
	"github.com/roach88/plansql/internal/model"
)

// CompileEntity parses a CUE value into a TypeDescriptor.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: Region: { properties: [...] }`)
//	td, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Region")))
//
// Entity fields:
//
//	table:      optional persisted table name
//	extends:    optional base entity name
//	properties: list of {name, type | references, column?, primary_key?,
//	            auto_increment?, unique?, nullable?, computed?, default?}
func CompileEntity(v cue.Value) (*model.TypeDescriptor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	td := &model.TypeDescriptor{}

	// Entity name is the struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		td.Name = labels[len(labels)-1].String()
	}

	var err error
	if td.TableName, err = optionalString(v, "table"); err != nil {
		return nil, err
	}
	if td.BaseType, err = optionalString(v, "extends"); err != nil {
		return nil, err
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return nil, &CompileError{
			Field:   "properties",
			Message: "properties is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := propsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		prop, err := parseProperty(iter.Value())
		if err != nil {
			return nil, err
		}
		td.Properties = append(td.Properties, prop)
	}

	return td, nil
}

// CompileModel compiles every entity under the top-level "entity" field and
// builds a Model from them. Entities are registered in CUE field order.
func CompileModel(v cue.Value) (*model.Model, error) {
	types, err := CompileEntities(v)
	if err != nil {
		return nil, err
	}
	return model.New(types...)
}

// CompileEntities compiles every entity under the top-level "entity" field.
func CompileEntities(v cue.Value) ([]*model.TypeDescriptor, error) {
	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &CompileError{
			Field:   "entity",
			Message: "no entities defined",
			Pos:     v.Pos(),
		}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var types []*model.TypeDescriptor
	for iter.Next() {
		td, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", iter.Label(), err)
		}
		types = append(types, td)
	}
	return types, nil
}

// parseProperty parses one element of an entity's properties list.
func parseProperty(v cue.Value) (model.PropertyDescriptor, error) {
	var p model.PropertyDescriptor

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return p, &CompileError{Field: "name", Message: "property name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return p, formatCUEError(err)
	}
	p.Name = name

	if p.PersistedName, err = optionalString(v, "column"); err != nil {
		return p, err
	}
	if p.ReferencedType, err = optionalString(v, "references"); err != nil {
		return p, err
	}

	typeName, err := optionalString(v, "type")
	if err != nil {
		return p, err
	}
	if typeName != "" {
		typ, err := ir.ParseDataType(typeName)
		if err != nil {
			return p, &CompileError{Field: "type", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("type")).Pos()}
		}
		p.Type = typ
	}

	flags := []struct {
		field string
		dst   *bool
	}{
		{"primary_key", &p.PrimaryKey},
		{"auto_increment", &p.AutoIncrement},
		{"unique", &p.Unique},
		{"nullable", &p.Nullable},
		{"computed", &p.Computed},
	}
	for _, f := range flags {
		fv := v.LookupPath(cue.ParsePath(f.field))
		if !fv.Exists() {
			continue
		}
		b, err := fv.Bool()
		if err != nil {
			return p, formatCUEError(err)
		}
		*f.dst = b
	}

	defaultVal := v.LookupPath(cue.ParsePath("default"))
	if defaultVal.Exists() {
		def, err := parseDefault(defaultVal, p.Type)
		if err != nil {
			return p, err
		}
		p.Default = def
	}

	return p, nil
}

// parseDefault converts a CUE literal into a typed default value.
func parseDefault(v cue.Value, typ ir.DataType) (ir.Value, error) {
	var (
		val ir.Value
		err error
	)
	switch typ {
	case ir.TypeInt:
		var n int64
		n, err = v.Int64()
		val = ir.Int(n)
	case ir.TypeFloat:
		var f float64
		f, err = v.Float64()
		val = ir.Float(f)
	case ir.TypeString:
		var s string
		s, err = v.String()
		val = ir.String(s)
	case ir.TypeBool:
		var b bool
		b, err = v.Bool()
		val = ir.Bool(b)
	default:
		return nil, &CompileError{
			Field:   "default",
			Message: fmt.Sprintf("defaults are not supported for type %q", typ),
			Pos:     v.Pos(),
		}
	}
	if err != nil {
		return nil, formatCUEError(err)
	}
	return val, nil
}

// optionalString returns the string at field, or "" when absent.
func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
