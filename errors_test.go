package gdbstub

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError(t *testing.T) {
	err := NewError("SetBreakpoint", ErrCodeValidation, "invalid length")

	assert.Equal(t, "SetBreakpoint", err.Op)
	assert.Equal(t, ErrCodeValidation, err.Code)
	assert.Equal(t, "gdbstub: SetBreakpoint: validation: invalid length", err.Error())
}

func TestWrapErrorPreservesInnerCode(t *testing.T) {
	inner := NewError("ReadMemory", ErrCodeTarget, "unmapped address")
	wrapped := WrapError("m", ErrCodeFatal, inner)

	assert.Equal(t, ErrCodeTarget, wrapped.Code)
	assert.ErrorIs(t, wrapped, &Error{Code: ErrCodeTarget})
}

func TestWrapErrorNil(t *testing.T) {
	assert.Nil(t, WrapError("op", ErrCodeFatal, nil))
}

func TestWrapErrorClassifiesPlainError(t *testing.T) {
	plain := fmt.Errorf("connection reset")
	wrapped := WrapError("Recv", ErrCodeTransport, plain)

	assert.Equal(t, ErrCodeTransport, wrapped.Code)
	assert.Equal(t, plain, wrapped.Inner)
}

func TestIsCode(t *testing.T) {
	err := NewError("SetWatchpoint", ErrCodeResource, "table full")
	assert.True(t, IsCode(err, ErrCodeResource))
	assert.False(t, IsCode(err, ErrCodeValidation))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeResource))
}

func TestSentinelErrorsDistinguishableByCode(t *testing.T) {
	assert.True(t, IsCode(ErrBreakpointTableFull, ErrCodeResource))
	assert.True(t, IsCode(ErrMisalignedWatch, ErrCodeValidation))
	assert.True(t, IsCode(ErrUnknownCommand, ErrCodeProtocol))
}
