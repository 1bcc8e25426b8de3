package faketarget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

func TestManagerAttachUnknownProcessFails(t *testing.T) {
	m := NewManager()
	_, err := m.Attach(context.Background(), 99)
	assert.Error(t, err)
}

func TestManagerAttachKnownProcessSucceeds(t *testing.T) {
	m := NewManager()
	m.AddProcess(interfaces.ProcessInfo{ProcessID: 7, Name: "test.elf"}, true, nil, []uint64{1}, nil)

	target, err := m.Attach(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), target.ProcessID())

	threads, err := m.ListThreads(target)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, threads)
}

func TestTargetMemoryReadWriteRoundTrip(t *testing.T) {
	target := NewTarget(1, true)
	require.NoError(t, target.WriteMemory(0x1000, []byte{1, 2, 3, 4}))

	out := make([]byte, 4)
	require.NoError(t, target.ReadMemory(0x1000, out))
	assert.Equal(t, []byte{1, 2, 3, 4}, out)
}

func TestTargetReadMemoryOutOfRangeFails(t *testing.T) {
	target := NewTarget(1, true)
	out := make([]byte, 4)
	err := target.ReadMemory(uint64(len(target.mem)), out)
	assert.Error(t, err)
}

func TestTargetInjectExceptionDeliveredByWaitEvent(t *testing.T) {
	target := NewTarget(1, true)
	target.InjectException(1, 0x2000)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := target.WaitEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, interfaces.DebugEventException, ev.Kind)
	assert.Equal(t, uint64(0x2000), ev.Address)
}

func TestTargetBreakProcessPostsDebuggerBreak(t *testing.T) {
	target := NewTarget(1, true)
	target.SetPC(1, 0x3000)
	require.NoError(t, target.BreakProcess())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := target.WaitEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, interfaces.DebugEventDebuggerBreak, ev.Kind)
	assert.Equal(t, uint64(0x3000), ev.Address)

	var insn [4]byte
	require.NoError(t, target.ReadMemory(0x3000, insn[:]))
	assert.Equal(t, [4]byte{}, insn, "BreakProcess leaves memory untouched")
}

func TestTargetNumCoresAndHardwareRegisterWrite(t *testing.T) {
	target := NewTarget(1, true)
	require.Equal(t, DefaultCores, target.NumCores())

	require.NoError(t, target.SetHardwareBreakPointOnCore(0, 3, 0xABCD, 0x4000))
	ctrl, value := target.HardwareRegister(0, 3)
	assert.Equal(t, uint64(0xABCD), ctrl)
	assert.Equal(t, uint64(0x4000), value)

	assert.Error(t, target.SetHardwareBreakPointOnCore(99, 0, 0, 0))
}
