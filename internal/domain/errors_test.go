package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_DirectCoreError(t *testing.T) {
	err := NewError(ErrZeroAmount, "amount must be positive")
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, ErrZeroAmount, kind)
}

func TestKindOf_WrappedCoreError(t *testing.T) {
	cause := errors.New("rpc dial failed")
	wrapped := WrapError(ErrRPCError, "submit reveal", cause)
	outer := fmt.Errorf("executor: %w", wrapped)

	kind, ok := KindOf(outer)
	assert.True(t, ok)
	assert.Equal(t, ErrRPCError, kind)
	assert.ErrorIs(t, outer, cause)
}

func TestKindOf_NonCoreError(t *testing.T) {
	kind, ok := KindOf(errors.New("plain error"))
	assert.False(t, ok)
	assert.Equal(t, ErrorKind(""), kind)
}

func TestCoreError_ErrorString(t *testing.T) {
	withCause := WrapError(ErrNetworkTimeout, "dial", errors.New("i/o timeout"))
	assert.Contains(t, withCause.Error(), "NETWORK_TIMEOUT")
	assert.Contains(t, withCause.Error(), "i/o timeout")

	withoutCause := NewError(ErrZeroAmount, "amount must be positive")
	assert.NotContains(t, withoutCause.Error(), "<nil>")
}
