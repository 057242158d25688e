package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(New(KindNotFound, "missing")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOf_WrappedChain(t *testing.T) {
	inner := New(KindConflict, "already completed")
	outer := fmt.Errorf("save answer: %w", inner)

	assert.Equal(t, KindConflict, KindOf(outer))
	assert.True(t, IsKind(outer, KindConflict))
	assert.False(t, IsKind(outer, KindNotFound))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindUnknown, "query users", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "query users")
	assert.Contains(t, err.Error(), "connection reset")
}
