// Package faketarget provides an in-memory simulated DebugTarget and
// ProcessManager: a flat byte-addressable memory space, per-thread register
// files, and a synthetic debug-event queue a test (or the demo binary) can
// feed by calling the Inject* methods. It stands in for a real OS debug API
// the way backend/mem.go stands in for a real block device.
package faketarget

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/gdbapi"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// DefaultMemorySize is the flat address space a Target simulates when no
// explicit size is given.
const DefaultMemorySize = 8 << 20

// DefaultCores is the simulated hardware-breakpoint-register bank count.
const DefaultCores = 2

// hwReg records one core's view of a hardware breakpoint/watchpoint
// register, for tests that want to assert what the engine programmed.
type hwReg struct {
	ctrl  uint64
	value uint64
}

// Target simulates one attached process: flat memory, per-thread register
// files, and a channel of pending debug events.
type Target struct {
	mu      sync.Mutex
	pid     uint64
	is64Bit bool
	mem     []byte
	ctx     map[uint64]gdbapi.ThreadContext
	cores   [][]hwReg
	core    map[uint64]uint32

	events chan interfaces.DebugEvent
}

// NewTarget builds a simulated target for pid with a DefaultMemorySize flat
// address space and DefaultCores hardware register banks.
func NewTarget(pid uint64, is64Bit bool) *Target {
	cores := make([][]hwReg, DefaultCores)
	for i := range cores {
		cores[i] = make([]hwReg, 32)
	}
	return &Target{
		pid:     pid,
		is64Bit: is64Bit,
		mem:     make([]byte, DefaultMemorySize),
		ctx:     make(map[uint64]gdbapi.ThreadContext),
		cores:   cores,
		core:    make(map[uint64]uint32),
		events:  make(chan interfaces.DebugEvent, 16),
	}
}

// WaitEvent blocks until an injected event is available or ctx is canceled.
func (t *Target) WaitEvent(ctx context.Context) (interfaces.DebugEvent, error) {
	select {
	case ev, ok := <-t.events:
		if !ok {
			return interfaces.DebugEvent{}, unix.ESRCH
		}
		return ev, nil
	case <-ctx.Done():
		return interfaces.DebugEvent{}, ctx.Err()
	}
}

// GetThreadContext marshals threadID's register file the way a real debug
// handle would: the raw little-endian struct layout, not GDB hex.
func (t *Target) GetThreadContext(threadID uint64, out []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx := t.ctx[threadID]
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &ctx); err != nil {
		return err
	}
	copy(out, buf.Bytes())
	return nil
}

// SetThreadContext unmarshals threadID's register file.
func (t *Target) SetThreadContext(threadID uint64, in []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ctx gdbapi.ThreadContext
	if err := binary.Read(bytes.NewReader(in), binary.LittleEndian, &ctx); err != nil {
		return err
	}
	t.ctx[threadID] = ctx
	return nil
}

// ReadMemory copies out of the flat address space, returning EFAULT for any
// byte outside it.
func (t *Target) ReadMemory(addr uint64, out []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if addr+uint64(len(out)) > uint64(len(t.mem)) {
		return unix.EFAULT
	}
	copy(out, t.mem[addr:addr+uint64(len(out))])
	return nil
}

// WriteMemory writes into the flat address space, returning EFAULT for any
// byte outside it.
func (t *Target) WriteMemory(addr uint64, in []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if addr+uint64(len(in)) > uint64(len(t.mem)) {
		return unix.EFAULT
	}
	copy(t.mem[addr:addr+uint64(len(in))], in)
	return nil
}

// SetHardwareBreakPointOnCore records the register write for core; reports
// ENODEV if core is out of the simulated bank's range.
func (t *Target) SetHardwareBreakPointOnCore(core int, reg uint32, ctrl uint64, value uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if core < 0 || core >= len(t.cores) || int(reg) >= len(t.cores[core]) {
		return unix.ENODEV
	}
	t.cores[core][reg] = hwReg{ctrl: ctrl, value: value}
	return nil
}

// NumCores reports the simulated hardware register bank count.
func (t *Target) NumCores() int {
	return len(t.cores)
}

// CurrentCore reports which simulated core threadID last ran on,
// defaulting to 0 until SetCurrentCore records otherwise.
func (t *Target) CurrentCore(threadID uint64) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.core[threadID]
}

// SetCurrentCore records which core threadID is scheduled on, a
// convenience for tests that want to assert a non-default `core:N` field.
func (t *Target) SetCurrentCore(threadID uint64, core uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.core[threadID] = core
}

// ContinueThread is a no-op: the simulated target has no real scheduler to
// resume, only the event queue a test drives directly.
func (t *Target) ContinueThread(threadID uint64, allThreads bool) error {
	return nil
}

// BreakProcess simulates GDB's ctrl-C: it posts a DebuggerBreak event at
// threadID 1's current PC, distinct from a UserBreak the target's own
// code raises by executing an svc break instruction.
func (t *Target) BreakProcess() error {
	t.mu.Lock()
	pc := t.ctx[1].PC
	t.mu.Unlock()

	select {
	case t.events <- interfaces.DebugEvent{Kind: interfaces.DebugEventDebuggerBreak, ThreadID: 1, Address: pc}:
	default:
	}
	return nil
}

// TerminateProcess posts a clean ExitProcess event.
func (t *Target) TerminateProcess() error {
	select {
	case t.events <- interfaces.DebugEvent{Kind: interfaces.DebugEventExitProcess, ExitCode: 0}:
	default:
	}
	return nil
}

// Is64Bit reports the simulated execution mode.
func (t *Target) Is64Bit() bool { return t.is64Bit }

// ProcessID returns the simulated process id.
func (t *Target) ProcessID() uint64 { return t.pid }

// InjectException posts a DebugEventException at address on threadID, the
// way a real hardware breakpoint or watchpoint trap would.
func (t *Target) InjectException(threadID, address uint64) {
	t.events <- interfaces.DebugEvent{Kind: interfaces.DebugEventException, ThreadID: threadID, Address: address}
}

// InjectUndefinedInstruction posts a DebugEventUndefinedInstruction at
// address, the way a software breakpoint trap would.
func (t *Target) InjectUndefinedInstruction(threadID, address uint64) {
	t.events <- interfaces.DebugEvent{Kind: interfaces.DebugEventUndefinedInstruction, ThreadID: threadID, Address: address}
}

// InjectLoadModule posts a DebugEventLoadModule notification.
func (t *Target) InjectLoadModule(threadID uint64, name string) {
	t.events <- interfaces.DebugEvent{Kind: interfaces.DebugEventLoadModule, ThreadID: threadID, ModuleName: name}
}

// InjectExit posts a DebugEventExitProcess with the given exit code.
func (t *Target) InjectExit(code int32) {
	t.events <- interfaces.DebugEvent{Kind: interfaces.DebugEventExitProcess, ExitCode: code}
}

// SetPC sets threadID's PC directly, a convenience for test setup that
// doesn't want to round-trip through SetThreadContext's raw byte layout.
func (t *Target) SetPC(threadID, pc uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx := t.ctx[threadID]
	ctx.PC = pc
	t.ctx[threadID] = ctx
}

// HardwareRegister returns what was last programmed into core's reg slot,
// for assertions in tests.
func (t *Target) HardwareRegister(core int, reg uint32) (ctrl, value uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.cores[core][reg]
	return r.ctrl, r.value
}

var _ interfaces.DebugTarget = (*Target)(nil)
