package compiler

import (
	"fmt"

	"github.com/roach88/plansql/internal/model"
)

// Validation error codes (E100-E199)
const (
	ErrEntityNoProperties   = "E101" // entity declares no properties
	ErrEntityNoPrimaryKey   = "E102" // entity has no primary key
	ErrDuplicateName        = "E105" // duplicate property or column name
	ErrInvalidFieldType     = "E104" // property type missing or conflicting
	ErrComputedKey          = "E106" // computed member marked as key
	ErrMultipleAutoInc      = "E107" // more than one auto-increment property
	ErrInvalidAutoIncrement = "E108" // auto-increment on a non-key or non-int property
	ErrUnknownReference     = "E110" // references or extends an unknown entity
	ErrKeyCycle             = "E111" // primary keys reference each other cyclically
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates entity descriptors against schema rules.
// Returns all errors found (does not fail-fast), including key cycles
// across entities.
func Validate(types []*model.TypeDescriptor) []ValidationError {
	known := make(map[string]bool, len(types))
	for _, td := range types {
		known[td.Name] = true
	}

	var errs []ValidationError
	for _, td := range types {
		errs = append(errs, validateEntity(td, known)...)
	}
	for _, cycle := range AnalyzeKeyCycles(types) {
		errs = append(errs, ValidationError{
			Field:   "entity." + cycle.Path[0],
			Message: cycle.Message,
			Code:    ErrKeyCycle,
		})
	}
	return errs
}

// validateEntity validates one entity descriptor.
func validateEntity(td *model.TypeDescriptor, known map[string]bool) []ValidationError {
	var errs []ValidationError
	prefix := "entity." + td.Name

	if td.BaseType != "" && !known[td.BaseType] {
		errs = append(errs, ValidationError{
			Field:   prefix + ".extends",
			Message: fmt.Sprintf("unknown base entity %q", td.BaseType),
			Code:    ErrUnknownReference,
		})
	}

	// E101: at least one property, unless inherited
	if len(td.Properties) == 0 && td.BaseType == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".properties",
			Message: "at least one property is required",
			Code:    ErrEntityNoProperties,
		})
		return errs
	}

	names := make(map[string]bool)
	columns := make(map[string]bool)
	hasKey := false
	autoIncrements := 0

	for i, p := range td.Properties {
		field := fmt.Sprintf("%s.properties[%d]", prefix, i)

		// E105: duplicate names
		if names[p.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate property name: %q", p.Name),
				Code:    ErrDuplicateName,
			})
		}
		names[p.Name] = true
		if !p.Computed && !p.IsRelationship() {
			if columns[p.Column()] {
				errs = append(errs, ValidationError{
					Field:   field + ".column",
					Message: fmt.Sprintf("duplicate column name: %q", p.Column()),
					Code:    ErrDuplicateName,
				})
			}
			columns[p.Column()] = true
		}

		// E104: exactly one of type / references
		switch {
		case p.IsRelationship() && p.Type != "":
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("property %q declares both type and references", p.Name),
				Code:    ErrInvalidFieldType,
			})
		case !p.IsRelationship() && p.Type == "":
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("property %q needs a type or a reference", p.Name),
				Code:    ErrInvalidFieldType,
			})
		}

		if p.IsRelationship() && !known[p.ReferencedType] {
			errs = append(errs, ValidationError{
				Field:   field + ".references",
				Message: fmt.Sprintf("unknown entity %q", p.ReferencedType),
				Code:    ErrUnknownReference,
			})
		}

		if p.Computed && p.PrimaryKey {
			errs = append(errs, ValidationError{
				Field:   field + ".computed",
				Message: fmt.Sprintf("computed member %q cannot be part of the primary key", p.Name),
				Code:    ErrComputedKey,
			})
		}

		if p.AutoIncrement {
			autoIncrements++
			if !p.PrimaryKey || p.Type != "int" {
				errs = append(errs, ValidationError{
					Field:   field + ".auto_increment",
					Message: fmt.Sprintf("auto-increment property %q must be an int primary key", p.Name),
					Code:    ErrInvalidAutoIncrement,
				})
			}
		}

		if p.PrimaryKey {
			hasKey = true
		}
	}

	// E102: a key, unless inherited
	if !hasKey && td.BaseType == "" {
		errs = append(errs, ValidationError{
			Field:   prefix,
			Message: "at least one primary key property is required",
			Code:    ErrEntityNoPrimaryKey,
		})
	}

	// E107: at most one auto-increment property per type
	if autoIncrements > 1 {
		errs = append(errs, ValidationError{
			Field:   prefix,
			Message: fmt.Sprintf("%d auto-increment properties declared, at most one is allowed", autoIncrements),
			Code:    ErrMultipleAutoInc,
		})
	}

	return errs
}
