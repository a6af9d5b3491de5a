package querydoc

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Error reports a malformed document node.
type Error struct {
	// Path locates the node, e.g. "query.select.where.eq[1]".
	Path string

	// Line and Column are 1-based source positions, 0 if unknown.
	Line   int
	Column int

	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d:%d: %s: %s", e.Line, e.Column, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// IsDocumentError returns true if err is a malformed document error.
// Uses errors.As to handle wrapped errors.
func IsDocumentError(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

func nodeError(n *yaml.Node, path, format string, args ...any) *Error {
	e := &Error{Path: path, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line, e.Column = n.Line, n.Column
	}
	return e
}
