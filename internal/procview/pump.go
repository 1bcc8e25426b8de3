package procview

import (
	"context"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/breakpoint"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/gdbapi"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// StopKind classifies a StopEvent for the dispatcher's stop-reply
// composer; each maps to one AppendStopReplyPacket shape from the
// original.
type StopKind int

const (
	// StopSignal is a plain "T<signal>thread:..." reply with no
	// swbreak/hwbreak/watch tag.
	StopSignal StopKind = iota
	// StopSoftwareBreak adds the "swbreak:;" tag.
	StopSoftwareBreak
	// StopHardwareBreak adds the "hwbreak:;" tag.
	StopHardwareBreak
	// StopWatch adds a "watch:"/"rwatch:"/"awatch:" tag with an address.
	StopWatch
	// StopExit is a "W<code>" reply; the process has exited normally.
	StopExit
	// StopKilled is an "X<signal>" reply; the process was terminated.
	StopKilled
)

// StopEvent is a single translated debug event, ready for the dispatcher
// to format into a GDB stop-reply packet.
type StopEvent struct {
	Kind      StopKind
	Signal    gdbapi.Signal
	ThreadID  uint64
	ProcessID uint64

	WatchAddress uint64
	WatchRead    bool
	WatchWrite   bool

	ExitCode int32
}

// EventPump translates a DebugTarget's raw debug events into StopEvents,
// auto-continuing past events GDB never needs to see (thread create/
// exit, module load/unload notifications, non-SvcBreak UserBreak
// exceptions) the way ProcessDebugEvents does before it ever reaches
// AppendStopReplyPacket.
type EventPump struct {
	target    interfaces.DebugTarget
	engine    *breakpoint.Engine
	view      *ProcessView
	log       interfaces.Logger
	processID uint64

	// pendingHomebrewAddr/Insn track the automatic breakpoint the
	// original plants on a freshly loaded homebrew NRO's entry point,
	// restoring the original instruction once that breakpoint fires.
	pendingHomebrewAddr uint64
	pendingHomebrewInsn uint32
}

// NewEventPump builds a pump over target, consulting engine for
// breakpoint/watchpoint classification and view for module-table
// refreshes on load/unload notifications.
func NewEventPump(target interfaces.DebugTarget, engine *breakpoint.Engine, view *ProcessView, log interfaces.Logger, processID uint64) *EventPump {
	return &EventPump{target: target, engine: engine, view: view, log: log, processID: processID}
}

// Next blocks until a StopEvent is ready, auto-continuing past any
// number of events that don't produce one.
func (p *EventPump) Next(ctx context.Context) (StopEvent, error) {
	for {
		ev, err := p.target.WaitEvent(ctx)
		if err != nil {
			return StopEvent{}, err
		}

		_ = p.engine.ClearStep()

		switch ev.Kind {
		case interfaces.DebugEventException:
			return p.classifyException(ev), nil

		case interfaces.DebugEventUserBreak:
			stop, ok := p.classifyUserBreak(ev)
			if !ok {
				p.debug("UserBreak from non-SvcBreak", "thread", ev.ThreadID, "address", ev.Address)
				if err := p.target.ContinueThread(ev.ThreadID, true); err != nil {
					return StopEvent{}, err
				}
				continue
			}
			return stop, nil

		case interfaces.DebugEventUndefinedInstruction:
			return p.classifyUndefinedInstruction(ev), nil

		case interfaces.DebugEventDebuggerBreak:
			return StopEvent{Kind: StopSignal, Signal: gdbapi.SignalInterrupt, ThreadID: ev.ThreadID, ProcessID: p.processID}, nil

		case interfaces.DebugEventLoadModule:
			if p.view.IsHomebrew() {
				p.armHomebrewEntryBreak(ev)
			}
			_ = p.view.RefreshModules()
			if err := p.target.ContinueThread(ev.ThreadID, true); err != nil {
				return StopEvent{}, err
			}
			continue

		case interfaces.DebugEventUnloadModule:
			_ = p.view.RefreshModules()
			if err := p.target.ContinueThread(ev.ThreadID, true); err != nil {
				return StopEvent{}, err
			}
			continue

		case interfaces.DebugEventAttachThread, interfaces.DebugEventExitThread:
			_ = p.view.RefreshThreads()
			if err := p.target.ContinueThread(ev.ThreadID, true); err != nil {
				return StopEvent{}, err
			}
			continue

		case interfaces.DebugEventExitProcess:
			p.debug("ExitProcess", "pid", p.processID, "code", ev.ExitCode)
			if ev.ExitCode == 0 {
				return StopEvent{Kind: StopExit, ProcessID: p.processID, ExitCode: ev.ExitCode}, nil
			}
			return StopEvent{Kind: StopKilled, Signal: gdbapi.SignalKilled, ProcessID: p.processID}, nil

		default:
			if err := p.target.ContinueThread(ev.ThreadID, true); err != nil {
				return StopEvent{}, err
			}
			continue
		}
	}
}

// classifyException handles a hardware breakpoint or watchpoint trap:
// the engine's tables say which one fired at this address.
func (p *EventPump) classifyException(ev interfaces.DebugEvent) StopEvent {
	if read, write, ok := p.engine.WatchpointInfoAt(ev.Address); ok {
		return StopEvent{
			Kind: StopWatch, Signal: gdbapi.SignalBreakpointTrap,
			ThreadID: ev.ThreadID, ProcessID: p.processID,
			WatchAddress: ev.Address, WatchRead: read, WatchWrite: write,
		}
	}
	return StopEvent{Kind: StopHardwareBreak, Signal: gdbapi.SignalBreakpointTrap, ThreadID: ev.ThreadID, ProcessID: p.processID}
}

// classifyUserBreak validates an svc::Break exception's instruction
// before surfacing it: anything that isn't the debugger's own well-known
// SvcBreak encoding is rejected and auto-continued, matching the
// original's "UserBreak from non-SvcBreak" guard.
func (p *EventPump) classifyUserBreak(ev interfaces.DebugEvent) (StopEvent, bool) {
	var insnBytes [4]byte
	if err := p.target.ReadMemory(ev.Address, insnBytes[:]); err != nil {
		return StopEvent{}, false
	}
	insn := uint32(insnBytes[0]) | uint32(insnBytes[1])<<8 | uint32(insnBytes[2])<<16 | uint32(insnBytes[3])<<24

	if !gdbapi.IsSvcBreak(insn, p.target.Is64Bit()) {
		return StopEvent{}, false
	}

	return StopEvent{Kind: StopSignal, Signal: gdbapi.SignalBreakpointTrap, ThreadID: ev.ThreadID, ProcessID: p.processID}, true
}

// classifyUndefinedInstruction recognizes a trap planted by our own
// software breakpoint table (or another debugger's) versus a genuine
// illegal instruction.
func (p *EventPump) classifyUndefinedInstruction(ev interfaces.DebugEvent) StopEvent {
	address := ev.Address

	if savedInsn, ok := p.ResolveHomebrewEntryBreak(address); ok {
		var insnBytes [4]byte
		insnBytes[0] = byte(savedInsn)
		insnBytes[1] = byte(savedInsn >> 8)
		insnBytes[2] = byte(savedInsn >> 16)
		insnBytes[3] = byte(savedInsn >> 24)
		if err := p.target.WriteMemory(address, insnBytes[:]); err != nil {
			p.debug("failed to restore homebrew entry instruction", "address", address, "error", err)
		}
		return StopEvent{Kind: StopSoftwareBreak, Signal: gdbapi.SignalBreakpointTrap, ThreadID: ev.ThreadID, ProcessID: p.processID}
	}

	var isBreak bool

	var b [4]byte
	if err := p.target.ReadMemory(address, b[:2]); err == nil {
		insn16 := uint32(b[0]) | uint32(b[1])<<8
		if gdbapi.IsThumbBreakInstruction(insn16) {
			isBreak = true
		}
	}
	if !isBreak {
		if err := p.target.ReadMemory(address, b[:]); err == nil {
			insn32 := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
			if gdbapi.IsBreakInstruction(insn32) {
				isBreak = true
			}
		}
	}

	if !isBreak {
		return StopEvent{Kind: StopSignal, Signal: gdbapi.SignalIllegalInstruction, ThreadID: ev.ThreadID, ProcessID: p.processID}
	}
	return StopEvent{Kind: StopSoftwareBreak, Signal: gdbapi.SignalBreakpointTrap, ThreadID: ev.ThreadID, ProcessID: p.processID}
}

// armHomebrewEntryBreak plants the SDK break pattern over the just-loaded
// module's entry point and records the original instruction, mirroring
// the original's "Set automatic break on new homebrew NRO" path: on a
// homebrew-loaded process, every PostLoadDll notification's address is
// the freshly mapped NRO's entry point.
func (p *EventPump) armHomebrewEntryBreak(ev interfaces.DebugEvent) {
	var saved [4]byte
	if err := p.target.ReadMemory(ev.Address, saved[:]); err != nil {
		p.debug("failed to read first insn on new homebrew NRO", "address", ev.Address, "error", err)
		return
	}
	savedInsn := uint32(saved[0]) | uint32(saved[1])<<8 | uint32(saved[2])<<16 | uint32(saved[3])<<24

	if err := p.target.WriteMemory(ev.Address, gdbapi.Aarch64BreakInstruction[:]); err != nil {
		p.debug("failed to set automatic break on new homebrew NRO", "address", ev.Address, "error", err)
		return
	}
	p.ArmHomebrewEntryBreak(ev.Address, savedInsn)
	p.debug("set automatic break on new homebrew NRO", "address", ev.Address)
}

func (p *EventPump) debug(msg string, args ...any) {
	if p.log != nil {
		p.log.Debug(msg, args...)
	}
}

// ArmHomebrewEntryBreak records the (address, saved instruction) pair
// for a just-loaded homebrew NRO's entry point, so the instruction can
// be restored once the automatic breakpoint there fires.
func (p *EventPump) ArmHomebrewEntryBreak(address uint64, savedInsn uint32) {
	p.pendingHomebrewAddr = address
	p.pendingHomebrewInsn = savedInsn
}

// ResolveHomebrewEntryBreak returns the saved instruction and clears the
// pending state if address matches the armed homebrew entry point; it
// does not write memory, so the caller restores the instruction.
func (p *EventPump) ResolveHomebrewEntryBreak(address uint64) (savedInsn uint32, ok bool) {
	if p.pendingHomebrewAddr == 0 || address != p.pendingHomebrewAddr {
		return 0, false
	}
	savedInsn = p.pendingHomebrewInsn
	p.pendingHomebrewAddr = 0
	p.pendingHomebrewInsn = 0
	return savedInsn, true
}
