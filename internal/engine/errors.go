package engine

import (
	"errors"
	"fmt"
	"strings"
)

// CompileError is an error detected by the engine before formatting.
//
// Compile errors include:
//   - Invalid tree: structural validation found problems
//   - Invalid query: the query itself is incomplete
//
// Translation errors raised by rewrite passes and the formatter are
// returned as *ir.TranslationError, wrapped with the pass name.
type CompileError struct {
	// Code identifies the error category.
	Code CompileErrorCode

	// Message is a human-readable description.
	Message string

	// Fingerprint identifies the query shape, when known.
	Fingerprint string

	// Problems lists the individual validation findings.
	Problems []string
}

// CompileErrorCode categorizes compile errors.
type CompileErrorCode string

const (
	// ErrCodeInvalidTree indicates the tree failed structural validation.
	ErrCodeInvalidTree CompileErrorCode = "INVALID_TREE"

	// ErrCodeInvalidQuery indicates a query with no expression.
	ErrCodeInvalidQuery CompileErrorCode = "INVALID_QUERY"
)

// Error implements the error interface.
func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(e.Problems) > 0 {
		msg += ": " + strings.Join(e.Problems, "; ")
	}
	if e.Fingerprint != "" {
		msg += fmt.Sprintf(" (fingerprint=%.12s)", e.Fingerprint)
	}
	return msg
}

// IsInvalidTreeError returns true if the error is a validation failure.
// Uses errors.As to handle wrapped errors.
func IsInvalidTreeError(err error) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeInvalidTree
	}
	return false
}

// NewInvalidTreeError creates a CompileError for validation problems.
func NewInvalidTreeError(fingerprint string, problems []string) *CompileError {
	return &CompileError{
		Code:        ErrCodeInvalidTree,
		Message:     fmt.Sprintf("tree has %d structural problem(s)", len(problems)),
		Fingerprint: fingerprint,
		Problems:    problems,
	}
}
