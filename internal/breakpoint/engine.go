package breakpoint

import (
	"errors"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// Sentinel errors an Engine can return. The top-level package classifies
// these into its own *Error taxonomy via errors.Is when composing a GDB
// error reply.
var (
	ErrBreakpointTableFull = errors.New("breakpoint: table full")
	ErrWatchpointTableFull = errors.New("breakpoint: watchpoint table full")
	ErrMisalignedWatch     = errors.New("breakpoint: watchpoint address/length not a power-of-two-aligned range")
	ErrUnknownCommand      = errors.New("breakpoint: unsupported kind")
)

// Kind identifies which Z/z sub-command a request names.
type Kind int

const (
	KindSoftware Kind = iota
	KindHardware
	KindWatchWrite
	KindWatchRead
	KindWatchAccess
)

// Engine owns every breakpoint table for one attached process and
// dispatches Z/z insert/remove requests by Kind.
type Engine struct {
	target interfaces.DebugTarget

	software *SoftwareBreakpointTable
	hardware *HardwareBreakpointTable
	watch    *WatchpointTable
	stepper  *Stepper
}

// Config selects the register counts and context register numbers an
// Engine is built with. These come from probing the target the way
// CountBreakPointRegisters does: trying registers until one fails and
// recording where the valid range ends.
type Config struct {
	SoftwareSlots         int
	HardwareSlots         int
	WatchSlots            int
	ExecutionContextReg   uint32
	WatchContextReg       uint32
	UseHardwareSingleStep bool
}

// NewEngine builds an Engine with the given register layout, programming
// both context registers up front.
func NewEngine(target interfaces.DebugTarget, cfg Config) (*Engine, error) {
	hw, err := NewHardwareBreakpointTable(target, cfg.ExecutionContextReg, cfg.HardwareSlots)
	if err != nil {
		return nil, err
	}

	wp, err := NewWatchpointTable(target, cfg.WatchContextReg, cfg.WatchSlots)
	if err != nil {
		_ = hw.Close()
		return nil, err
	}

	return &Engine{
		target:   target,
		software: NewSoftwareBreakpointTable(cfg.SoftwareSlots),
		hardware: hw,
		watch:    wp,
		stepper:  NewStepper(target, cfg.UseHardwareSingleStep),
	}, nil
}

// Close releases the hardware context registers and stops their
// multicore workers. Software breakpoints are cleared individually by
// the caller (they carry no background state to release).
func (e *Engine) Close() error {
	err1 := e.hardware.Close()
	err2 := e.watch.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// SetBreakpoint implements Z<kind>,<address>,<length>. read/write are
// only meaningful for watchpoint kinds.
func (e *Engine) SetBreakpoint(kind Kind, address, length uint64, read, write bool) error {
	switch kind {
	case KindSoftware:
		bp := e.software.Alloc()
		if bp == nil {
			return ErrBreakpointTableFull
		}
		if err := bp.Set(e.target, address, int(length)); err != nil {
			return err
		}
		return nil

	case KindHardware:
		bp := e.hardware.Alloc()
		if bp == nil {
			return ErrBreakpointTableFull
		}
		return bp.Set(address, false)

	case KindWatchWrite:
		return e.setWatch(address, length, false, true)
	case KindWatchRead:
		return e.setWatch(address, length, true, false)
	case KindWatchAccess:
		return e.setWatch(address, length, true, true)
	default:
		return ErrUnknownCommand
	}
}

func (e *Engine) setWatch(address, length uint64, read, write bool) error {
	if !IsValidWatchpoint(address, length) {
		return ErrMisalignedWatch
	}
	wp := e.watch.Alloc()
	if wp == nil {
		return ErrWatchpointTableFull
	}
	return wp.Set(address, length, read, write)
}

// ClearBreakpoint implements z<kind>,<address>,<length>.
func (e *Engine) ClearBreakpoint(kind Kind, address uint64) error {
	switch kind {
	case KindSoftware:
		if bp := e.software.Find(address); bp != nil {
			return bp.Clear(e.target)
		}
		return nil
	case KindHardware:
		if bp := e.hardware.Find(address); bp != nil {
			return bp.Clear()
		}
		return nil
	case KindWatchWrite, KindWatchRead, KindWatchAccess:
		if wp := e.watch.Find(address); wp != nil {
			return wp.Clear()
		}
		return nil
	default:
		return ErrUnknownCommand
	}
}

// WatchpointInfoAt reports the access type recorded for the watchpoint
// covering address, for composing a "watch:"/"rwatch:"/"awatch:" stop
// reply.
func (e *Engine) WatchpointInfoAt(address uint64) (read, write, ok bool) {
	wp := e.watch.Find(address)
	if wp == nil {
		return false, false, false
	}
	return wp.IsRead(), wp.IsWrite(), true
}

// IsBreakpointAt reports whether address holds a software or hardware
// breakpoint this engine placed.
func (e *Engine) IsBreakpointAt(address uint64) bool {
	if bp := e.software.Find(address); bp != nil {
		return true
	}
	if bp := e.hardware.Find(address); bp != nil {
		return true
	}
	return false
}

// Step arms a single step for threadID at pc.
func (e *Engine) Step(threadID, pc uint64) error {
	return e.stepper.Step(threadID, pc)
}

// ClearStep removes any armed single-step breakpoints.
func (e *Engine) ClearStep() error {
	return e.stepper.Clear()
}
