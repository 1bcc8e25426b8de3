package gdbapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRegistersZeroUsesWildcard(t *testing.T) {
	var ctx ThreadContext
	out := EncodeRegisters(nil, &ctx, true)

	// First register (x0) is zero -> "0*," wildcard, not 16 hex zeroes.
	assert.True(t, len(out) > 0)
	assert.Equal(t, byte('0'), out[0])
	assert.Equal(t, byte('*'), out[1])
	assert.Equal(t, byte(','), out[2])
}

func TestEncodeDecodeRegistersRoundTrip64(t *testing.T) {
	var ctx ThreadContext
	for i := range ctx.R {
		ctx.R[i] = uint64(i + 1)
	}
	ctx.FP = 0x41
	ctx.LR = 0x42
	ctx.SP = 0x43
	ctx.PC = 0x44
	ctx.PState = 0x20

	encoded := EncodeRegisters(nil, &ctx, true)

	var decoded ThreadContext
	DecodeRegisters(encoded, &decoded, true)

	assert.Equal(t, ctx.R, decoded.R)
	assert.Equal(t, ctx.FP, decoded.FP)
	assert.Equal(t, ctx.LR, decoded.LR)
	assert.Equal(t, ctx.SP, decoded.SP)
	assert.Equal(t, ctx.PC, decoded.PC)
	assert.Equal(t, ctx.PState, decoded.PState)
}

func TestEncodeDecodeRegisterSingle(t *testing.T) {
	var ctx ThreadContext
	ctx.PC = 0xdeadbeef

	encoded := EncodeRegister(nil, &ctx, 32, true)
	require.NotEmpty(t, encoded)

	var decoded ThreadContext
	DecodeRegister(encoded, &decoded, 32, true)
	assert.Equal(t, ctx.PC, decoded.PC)
}

func TestAarch32RegisterTranslation(t *testing.T) {
	var ctx ThreadContext
	ctx.PC = 0x1000

	// reg 15 is pc in the 32-bit numbering.
	encoded := EncodeRegister(nil, &ctx, 15, false)
	require.NotEmpty(t, encoded)

	var decoded ThreadContext
	DecodeRegister(encoded, &decoded, 15, false)
	assert.Equal(t, ctx.PC, decoded.PC)
}

func TestBreakPatternClassification(t *testing.T) {
	assert.True(t, IsSdkBreakPoint(0xE7FFFFFF))
	assert.True(t, IsBreakInstruction(0xE7FFFFFF))
	assert.True(t, IsBreakInstruction(0xE7FFDEFE))
	assert.True(t, IsBreakInstruction(0xD4200000))
	assert.True(t, IsBreakInstruction(0xD4400000))
	assert.True(t, IsBreakInstruction(0xE1200070))
	assert.False(t, IsBreakInstruction(0x12345678))
}

func TestThumbBreakPatternClassification(t *testing.T) {
	assert.True(t, IsThumbBreakInstruction(0xBE00))
	assert.True(t, IsThumbBreakInstruction(0xBE42))
	assert.False(t, IsThumbBreakInstruction(0x4770))
}

func TestSvcBreakClassification(t *testing.T) {
	assert.True(t, IsSvcBreak(aarch64SvcBreakValue, true))
	assert.False(t, IsSvcBreak(0x12345678, true))
	assert.True(t, IsSvcBreak(aarch32SvcBreakValue, false))
}
