package breakpoint

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/gdbapi"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTarget is a minimal in-memory interfaces.DebugTarget stand-in,
// enough to exercise breakpoint instruction patching and hardware
// breakpoint register bookkeeping without a real kernel debug handle.
type fakeTarget struct {
	mu      sync.Mutex
	mem     map[uint64]byte
	hwRegs  map[uint32]hwWrite
	ctx     map[uint64]gdbapi.ThreadContext
	cores   int
	is64Bit bool
	pid     uint64
}

type hwWrite struct {
	ctrl  uint64
	value uint64
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{mem: make(map[uint64]byte), hwRegs: make(map[uint32]hwWrite), ctx: make(map[uint64]gdbapi.ThreadContext), cores: 4, is64Bit: true, pid: 0x1234}
}

func (f *fakeTarget) WaitEvent(ctx context.Context) (interfaces.DebugEvent, error) {
	<-ctx.Done()
	return interfaces.DebugEvent{}, ctx.Err()
}

func (f *fakeTarget) ReadMemory(addr uint64, out []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range out {
		out[i] = f.mem[addr+uint64(i)]
	}
	return nil
}

func (f *fakeTarget) WriteMemory(addr uint64, in []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range in {
		f.mem[addr+uint64(i)] = b
	}
	return nil
}

func (f *fakeTarget) SetHardwareBreakPointOnCore(core int, reg uint32, ctrl uint64, value uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hwRegs[reg] = hwWrite{ctrl: ctrl, value: value}
	return nil
}

func (f *fakeTarget) NumCores() int { return f.cores }

func (f *fakeTarget) CurrentCore(uint64) uint32 { return 0 }

func (f *fakeTarget) GetThreadContext(threadID uint64, out []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ctx := f.ctx[threadID]
	if ctx.PC == 0 {
		ctx.PC = 0x1000
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &ctx); err != nil {
		return err
	}
	copy(out, buf.Bytes())
	return nil
}

func (f *fakeTarget) SetThreadContext(threadID uint64, in []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ctx gdbapi.ThreadContext
	if err := binary.Read(bytes.NewReader(in), binary.LittleEndian, &ctx); err != nil {
		return err
	}
	f.ctx[threadID] = ctx
	return nil
}

func (f *fakeTarget) ContinueThread(uint64, bool) error { return nil }
func (f *fakeTarget) BreakProcess() error                    { return nil }
func (f *fakeTarget) TerminateProcess() error                { return nil }
func (f *fakeTarget) Is64Bit() bool                          { return f.is64Bit }
func (f *fakeTarget) ProcessID() uint64                      { return f.pid }

func TestSoftwareBreakpointSetClearRoundTrip(t *testing.T) {
	target := newFakeTarget()
	target.WriteMemory(0x2000, []byte{0x01, 0x02, 0x03, 0x04})

	var bp SoftwareBreakpoint
	require.NoError(t, bp.Set(target, 0x2000, 4))
	assert.True(t, bp.InUse())

	var patched [4]byte
	target.ReadMemory(0x2000, patched[:])
	assert.EqualValues(t, gdbapi.Aarch64BreakInstruction, patched)

	require.NoError(t, bp.Clear(target))
	assert.False(t, bp.InUse())

	var restored [4]byte
	target.ReadMemory(0x2000, restored[:])
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, restored[:])
}

func TestSoftwareBreakpointTableAllocFull(t *testing.T) {
	tbl := NewSoftwareBreakpointTable(1)
	target := newFakeTarget()

	bp := tbl.Alloc()
	require.NotNil(t, bp)
	require.NoError(t, bp.Set(target, 0x3000, 4))

	assert.Nil(t, tbl.Alloc())
	assert.Same(t, bp, tbl.Find(0x3000))
}

func TestIsValidWatchpoint(t *testing.T) {
	assert.True(t, IsValidWatchpoint(0x1000, 4))
	assert.True(t, IsValidWatchpoint(0x1004, 4))
	assert.False(t, IsValidWatchpoint(0x1000, 0))
	assert.False(t, IsValidWatchpoint(0x1006, 4), "crosses an 8-byte boundary")
	assert.True(t, IsValidWatchpoint(0x2000, 16))
	assert.False(t, IsValidWatchpoint(0x2000, 12), "not a power of two")
	assert.False(t, IsValidWatchpoint(0x2004, 16), "not size-aligned")
}

func TestHardwareBreakpointTableProgramsContextRegister(t *testing.T) {
	target := newFakeTarget()
	hw, err := NewHardwareBreakpointTable(target, 16, 4)
	require.NoError(t, err)
	defer hw.Close()

	ctxWrite, ok := target.hwRegs[16]
	require.True(t, ok)
	assert.Equal(t, target.pid, ctxWrite.value)

	bp := hw.Alloc()
	require.NotNil(t, bp)
	require.NoError(t, bp.Set(0x4000, false))
	assert.True(t, bp.InUse())

	write, ok := target.hwRegs[0]
	require.True(t, ok)
	assert.Equal(t, uint64(0x4000), write.value)

	require.NoError(t, bp.Clear())
	assert.False(t, bp.InUse())
}

func TestWatchpointTableSetRejectsInvalidRange(t *testing.T) {
	target := newFakeTarget()
	engine, err := NewEngine(target, Config{SoftwareSlots: 2, HardwareSlots: 2, WatchSlots: 2, ExecutionContextReg: 14, WatchContextReg: 15})
	require.NoError(t, err)
	defer engine.Close()

	err = engine.SetBreakpoint(KindWatchWrite, 0x1006, 4, false, true)
	assert.ErrorIs(t, err, ErrMisalignedWatch)

	require.NoError(t, engine.SetBreakpoint(KindWatchWrite, 0x1000, 4, false, true))
	read, write, ok := engine.WatchpointInfoAt(0x1000)
	assert.True(t, ok)
	assert.False(t, read)
	assert.True(t, write)
}

func TestEngineSoftwareBreakpointLifecycle(t *testing.T) {
	target := newFakeTarget()
	engine, err := NewEngine(target, Config{SoftwareSlots: 1, HardwareSlots: 1, WatchSlots: 1, ExecutionContextReg: 14, WatchContextReg: 15})
	require.NoError(t, err)
	defer engine.Close()

	require.NoError(t, engine.SetBreakpoint(KindSoftware, 0x5000, 4, false, false))
	assert.True(t, engine.IsBreakpointAt(0x5000))

	require.NoError(t, engine.ClearBreakpoint(KindSoftware, 0x5000))
	assert.False(t, engine.IsBreakpointAt(0x5000))
}

func TestBranchTargetUnconditionalBranch(t *testing.T) {
	target := newFakeTarget()
	// b #0x20 at pc=0x1000: imm26 = 0x20>>2 = 8, encoding 0x14000008.
	var insn [4]byte
	binary.LittleEndian.PutUint32(insn[:], 0x14000008)
	target.WriteMemory(0x1000, insn[:])

	current, branch, err := branchTarget(target, 1, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), current, "unconditional branch has no fall-through")
	assert.Equal(t, uint64(0x1020), branch)
}

func TestSignExtend(t *testing.T) {
	assert.Equal(t, int64(-1), signExtend(0x1FFFFF, 21))
	assert.Equal(t, int64(1), signExtend(0x1, 21))
}

func TestStepperHardwareSingleStepSetsSingleStepBit(t *testing.T) {
	target := newFakeTarget()
	target.ctx[1] = gdbapi.ThreadContext{PC: 0x1000}

	stepper := NewStepper(target, true)
	require.NoError(t, stepper.Step(1, 0x1000))
	assert.True(t, stepper.Active())

	assert.NotEqual(t, uint32(0), target.ctx[1].PState&aarch64SingleStepBit, "hardware step must set PSTATE.SS")
}

func TestStepperSoftwareSingleStepPlantsBranchBreakpoints(t *testing.T) {
	target := newFakeTarget()
	// b #0x20 at pc=0x1000: imm26 = 0x20>>2 = 8, encoding 0x14000008.
	var insn [4]byte
	binary.LittleEndian.PutUint32(insn[:], 0x14000008)
	target.WriteMemory(0x1000, insn[:])

	stepper := NewStepper(target, false)
	require.NoError(t, stepper.Step(1, 0x1000))
	assert.True(t, stepper.Active())

	var planted [4]byte
	target.ReadMemory(0x1020, planted[:])
	assert.EqualValues(t, gdbapi.Aarch64BreakInstruction, planted, "unconditional branch has no fall-through, only the predicted target is patched")

	require.NoError(t, stepper.Clear())
	assert.False(t, stepper.Active())
}
