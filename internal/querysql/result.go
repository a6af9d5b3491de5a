package querysql

import (
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/plansql/internal/dialect"
	"github.com/roach88/plansql/internal/ir"
)

// ErrNotReusable is returned when rebinding a single-use result.
var ErrNotReusable = errors.New("result is not reusable")

// Result is formatted SQL text with its ordered parameters.
//
// ParameterIndexes maps a parameter position to the placeholder index it
// was rendered from. It is non-nil only when the result may be reused with
// different constants; parameters absent from the map are fixed values of
// the tree itself.
type Result struct {
	SQL              string
	Parameters       []ir.TypedValue
	ParameterIndexes map[int]int

	// Style is the parameter style the SQL was rendered with.
	Style dialect.ParameterStyle
}

// Reusable reports whether the result can be rebound to new constants.
func (r *Result) Reusable() bool {
	return r.ParameterIndexes != nil
}

// Rebind returns a copy of r whose mapped parameters are re-encoded from
// constants. Each new constant must match the type of the parameter it
// replaces; a typed null is accepted for any type.
func (r *Result) Rebind(constants []ir.Value) (*Result, error) {
	if !r.Reusable() {
		return nil, ErrNotReusable
	}
	params := slices.Clone(r.Parameters)
	for paramIdx, placeholderIdx := range r.ParameterIndexes {
		if placeholderIdx < 0 || placeholderIdx >= len(constants) {
			return nil, ir.NewPlaceholderError(placeholderIdx, len(constants))
		}
		tv, err := bindPlaceholder(placeholderIdx, params[paramIdx].Type, constants[placeholderIdx])
		if err != nil {
			return nil, err
		}
		params[paramIdx] = tv
	}
	return &Result{
		SQL:              r.SQL,
		Parameters:       params,
		ParameterIndexes: maps.Clone(r.ParameterIndexes),
		Style:            r.Style,
	}, nil
}

// Args returns the parameters as database/sql arguments: sql.Named values
// for named styles, plain values in order otherwise.
func (r *Result) Args() []any {
	args := make([]any, len(r.Parameters))
	for i, p := range r.Parameters {
		if r.Style == dialect.ParamNamed {
			args[i] = sql.Named(dialect.ParameterName(i), p.Value)
		} else {
			args[i] = p.Value
		}
	}
	return args
}

// bindPlaceholder encodes the constant for placeholder index against the
// declared type of its slot.
func bindPlaceholder(index int, declared ir.DataType, v ir.Value) (ir.TypedValue, error) {
	if v == nil {
		return ir.TypedValue{}, placeholderError(index, "no constant bound")
	}
	if _, ok := v.(ir.Null); ok {
		return ir.TypedValue{Type: declared, Value: nil}, nil
	}
	if declared != ir.TypeUnknown && v.DataType() != declared {
		return ir.TypedValue{}, placeholderError(index, fmt.Sprintf("declared %s, got %s", declared, v.DataType()))
	}
	tv, err := ir.Bind(v)
	if err != nil {
		return ir.TypedValue{}, placeholderError(index, err.Error())
	}
	return tv, nil
}

func placeholderError(index int, message string) *ir.TranslationError {
	return &ir.TranslationError{
		Code:      ir.ErrCodePlaceholder,
		Kind:      ir.KindConstantPlaceholder,
		Construct: fmt.Sprintf("$$%d", index),
		Message:   message,
	}
}
