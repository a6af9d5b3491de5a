package ir

import (
	"errors"
	"fmt"
)

// TranslationError reports a construct that cannot be lowered to SQL.
//
// Translation errors include:
//   - Unsupported construct: unknown node kind, operator or function tag
//   - Metadata inconsistency: entity operands whose elemental keys disagree
//   - Invalid placeholder: placeholder index outside the constant list
//   - Invalid arity: function called with the wrong number of arguments
//
// Translation errors are never retried and no partial output accompanies them.
type TranslationError struct {
	// Code identifies the error category.
	Code TranslationErrorCode

	// Kind is the node kind of the offending construct.
	Kind Kind

	// Construct names the operator, function or entity involved, if any.
	Construct string

	// Message is a human-readable description.
	Message string
}

// TranslationErrorCode categorizes translation errors.
type TranslationErrorCode string

const (
	// ErrCodeUnsupported indicates a node, operator or function with no lowering.
	ErrCodeUnsupported TranslationErrorCode = "UNSUPPORTED_CONSTRUCT"

	// ErrCodeMetadata indicates entity metadata that contradicts the tree.
	ErrCodeMetadata TranslationErrorCode = "METADATA_INCONSISTENCY"

	// ErrCodePlaceholder indicates a placeholder with no bound constant.
	ErrCodePlaceholder TranslationErrorCode = "INVALID_PLACEHOLDER"

	// ErrCodeArity indicates a function argument count outside its arity.
	ErrCodeArity TranslationErrorCode = "INVALID_ARITY"
)

// Error implements the error interface.
func (e *TranslationError) Error() string {
	if e.Construct != "" {
		return fmt.Sprintf("%s: %s (%s %s)", e.Code, e.Message, e.Kind, e.Construct)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Kind)
}

// IsUnsupportedError returns true if err is an unsupported-construct error.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedError(err error) bool {
	return hasCode(err, ErrCodeUnsupported)
}

// IsMetadataError returns true if err is a metadata inconsistency.
func IsMetadataError(err error) bool {
	return hasCode(err, ErrCodeMetadata)
}

// IsPlaceholderError returns true if err is an invalid placeholder error.
func IsPlaceholderError(err error) bool {
	return hasCode(err, ErrCodePlaceholder)
}

// IsArityError returns true if err is an invalid arity error.
func IsArityError(err error) bool {
	return hasCode(err, ErrCodeArity)
}

func hasCode(err error, code TranslationErrorCode) bool {
	var te *TranslationError
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// NewUnsupportedError creates a TranslationError for a construct with no lowering.
func NewUnsupportedError(kind Kind, construct, message string) *TranslationError {
	return &TranslationError{Code: ErrCodeUnsupported, Kind: kind, Construct: construct, Message: message}
}

// NewMetadataError creates a TranslationError for inconsistent entity metadata.
func NewMetadataError(kind Kind, entity, message string) *TranslationError {
	return &TranslationError{Code: ErrCodeMetadata, Kind: kind, Construct: entity, Message: message}
}

// NewPlaceholderError creates a TranslationError for an unbound placeholder.
func NewPlaceholderError(index, available int) *TranslationError {
	return &TranslationError{
		Code:      ErrCodePlaceholder,
		Kind:      KindConstantPlaceholder,
		Construct: fmt.Sprintf("$$%d", index),
		Message:   fmt.Sprintf("placeholder index %d out of range (%d constants)", index, available),
	}
}

// NewArityError creates a TranslationError for a function arity violation.
func NewArityError(fn Function, got int, want Arity) *TranslationError {
	bound := fmt.Sprintf("%d..%d", want.Min, want.Max)
	if want.Max < 0 {
		bound = fmt.Sprintf("at least %d", want.Min)
	} else if want.Min == want.Max {
		bound = fmt.Sprintf("%d", want.Min)
	}
	return &TranslationError{
		Code:      ErrCodeArity,
		Kind:      KindFunctionCall,
		Construct: string(fn),
		Message:   fmt.Sprintf("expected %s arguments, got %d", bound, got),
	}
}
