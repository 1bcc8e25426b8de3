// Package interfaces defines the capability boundaries the rest of the
// daemon is built against, kept separate from the top-level package to
// avoid import cycles between it and the internal packages that implement
// these interfaces.
package interfaces

import "context"

// Transport is a single bidirectional byte stream: a GDB connection over
// TCP, or a local "tunnel" Unix-domain socket. Session owns exactly one
// Transport for its lifetime.
type Transport interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	RemoteAddr() string
}

// Listener accepts Transports, one per incoming debugger connection.
type Listener interface {
	Accept(ctx context.Context) (Transport, error)
	Close() error
	Addr() string
}

// DebugTarget is the opaque capability wrapping one attached process's
// debug handle: exception/event delivery, register and memory access, and
// hardware breakpoint/watchpoint register programming.
type DebugTarget interface {
	// WaitEvent blocks until a debug event is available or ctx is
	// canceled.
	WaitEvent(ctx context.Context) (DebugEvent, error)

	// GetThreadContext/SetThreadContext exchange the target's raw
	// register layout (the same field order as gdbapi.ThreadContext,
	// little-endian) — not the GDB hex wire format, which gdbapi's
	// Encode/DecodeRegisters produce from a decoded ThreadContext value.
	GetThreadContext(threadID uint64, out []byte) error
	SetThreadContext(threadID uint64, in []byte) error

	ReadMemory(addr uint64, out []byte) error
	WriteMemory(addr uint64, in []byte) error

	// SetHardwareBreakPointOnCore programs one breakpoint register on a
	// single core. The BreakpointEngine is responsible for fanning a
	// logical set-on-every-core request out across NumCores calls.
	SetHardwareBreakPointOnCore(core int, reg uint32, ctrl uint64, value uint64) error

	// NumCores reports how many cores SetHardwareBreakPointOnCore accepts.
	NumCores() int

	// CurrentCore reports which core threadID is (or was last) scheduled
	// on, mirroring GetDebugThreadParam(handle, tid, CurrentCore); used
	// for the `core:N` stop-reply field and the threads qXfer document.
	CurrentCore(threadID uint64) uint32

	ContinueThread(threadID uint64, allThreads bool) error
	BreakProcess() error
	TerminateProcess() error

	Is64Bit() bool
	ProcessID() uint64
}

// ProcessManager discovers and attaches to target processes, and answers
// static queries (module list, thread list, memory map) that do not need a
// live debug event.
type ProcessManager interface {
	ListProcesses() ([]ProcessInfo, error)
	Attach(ctx context.Context, processID uint64) (DebugTarget, error)
	Detach(target DebugTarget) error

	ListModules(target DebugTarget) ([]ModuleInfo, error)
	ListThreads(target DebugTarget) ([]uint64, error)
	MemoryMap(target DebugTarget) ([]MemoryRegion, error)
}

// DebugEvent is a single exception/notification delivered by a DebugTarget.
type DebugEvent struct {
	Kind      DebugEventKind
	ThreadID  uint64
	Address   uint64
	ExitCode  int32
	ModuleName string
}

// DebugEventKind mirrors the exception categories a DebugTarget can raise.
type DebugEventKind int

const (
	DebugEventAttachProcess DebugEventKind = iota
	DebugEventAttachThread
	DebugEventExitProcess
	DebugEventExitThread
	DebugEventException
	DebugEventUserBreak
	DebugEventUndefinedInstruction
	DebugEventLoadModule
	DebugEventUnloadModule
	// DebugEventDebuggerBreak is raised by BreakProcess itself: the
	// debugger asked the target to stop, distinct from a UserBreak the
	// target's own code triggers by executing an svc break instruction.
	DebugEventDebuggerBreak
)

// ProcessInfo is a candidate attach target.
type ProcessInfo struct {
	ProcessID uint64
	Name      string

	// IsHomebrew mirrors GetOverrideStatus().IsHbl(): whether this
	// process was launched through the homebrew loader, gating the
	// post-load-DLL auto-break hook on its entry point.
	IsHomebrew bool
}

// ModuleInfo is one entry of a loaded-module table.
type ModuleInfo struct {
	Name    string
	Base    uint64
	Size    uint64
	BuildID [20]byte
}

// MemoryRegion is one entry of a process memory map.
type MemoryRegion struct {
	Address    uint64
	Size       uint64
	Permission string
	State      string
	Attributes string
}

// Logger is the logging capability every package above takes, so that
// swapping in a silent or test logger never needs an import of the
// concrete logging package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Observer collects session-level metrics. Implementations must be
// thread-safe: methods are called from the receive, dispatch, and event
// pump goroutines concurrently.
type Observer interface {
	ObservePacketSent(bytes int)
	ObservePacketReceived(bytes int)
	ObserveBreakpointSet(kind string)
	ObserveBreakpointCleared(kind string)
	ObserveStopReply(signal int)
	ObserveError(code string)
}
