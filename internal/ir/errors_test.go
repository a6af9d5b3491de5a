package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslationErrorMessages(t *testing.T) {
	err := NewUnsupportedError(KindBinary, "lt", "relational operator on entity operands")
	assert.Equal(t, "UNSUPPORTED_CONSTRUCT: relational operator on entity operands (Binary lt)", err.Error())

	err = NewPlaceholderError(4, 2)
	assert.Equal(t, "INVALID_PLACEHOLDER: placeholder index 4 out of range (2 constants) (ConstantPlaceholder $$4)", err.Error())
}

func TestTranslationErrorHelpersUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("format: %w", NewMetadataError(KindBinary, "Region", "key length mismatch"))

	assert.True(t, IsMetadataError(wrapped))
	assert.False(t, IsUnsupportedError(wrapped))
	assert.False(t, IsPlaceholderError(wrapped))
	assert.False(t, IsArityError(fmt.Errorf("plain")))
	assert.True(t, IsArityError(NewArityError(FuncRound, 3, Arity{1, 2})))
}

func TestArityErrorBounds(t *testing.T) {
	assert.Contains(t, NewArityError(FuncConcat, 0, Arity{1, -1}).Message, "at least 1")
	assert.Contains(t, NewArityError(FuncLower, 2, Arity{1, 1}).Message, "expected 1 arguments")
	assert.Contains(t, NewArityError(FuncRound, 3, Arity{1, 2}).Message, "expected 1..2 arguments")
}
