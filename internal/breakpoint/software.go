// Package breakpoint implements the software, hardware, and watchpoint
// tables a Session uses to answer Z/z and single-step requests, plus the
// per-core worker that fans hardware breakpoint programming out across
// every CPU core.
package breakpoint

import (
	"errors"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/gdbapi"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

var errInvalidBreakSize = errors.New("breakpoint: size does not match a known break instruction width")

// SoftwareBreakpoint patches the target instruction stream with a break
// instruction, remembering the original bytes so Clear can restore them.
type SoftwareBreakpoint struct {
	inUse   bool
	address uint64
	saved   []byte
}

// Set reads and saves the size bytes at address, then overwrites them with
// the execution mode's break instruction. size must match one of the
// known break instruction widths for the target's execution mode.
func (b *SoftwareBreakpoint) Set(target interfaces.DebugTarget, address uint64, size int) error {
	saved := make([]byte, size)
	if err := target.ReadMemory(address, saved); err != nil {
		return err
	}

	pattern, err := breakInstructionFor(target.Is64Bit(), size)
	if err != nil {
		return err
	}

	if err := target.WriteMemory(address, pattern); err != nil {
		return err
	}

	b.inUse = true
	b.address = address
	b.saved = saved
	return nil
}

// Clear restores the original instruction bytes saved by Set.
func (b *SoftwareBreakpoint) Clear(target interfaces.DebugTarget) error {
	if !b.inUse {
		return nil
	}
	err := target.WriteMemory(b.address, b.saved)
	b.inUse = false
	b.address = 0
	b.saved = nil
	return err
}

// InUse reports whether this slot holds a live breakpoint.
func (b *SoftwareBreakpoint) InUse() bool { return b.inUse }

// Address returns the breakpoint's address, valid only while InUse.
func (b *SoftwareBreakpoint) Address() uint64 { return b.address }

func breakInstructionFor(is64Bit bool, size int) ([]byte, error) {
	if is64Bit {
		if size != 4 {
			return nil, errInvalidBreakSize
		}
		return gdbapi.Aarch64BreakInstruction[:], nil
	}
	switch size {
	case 4:
		return gdbapi.Aarch32BreakInstruction[:], nil
	case 2:
		return gdbapi.Aarch32ThumbBreakInstruction[:], nil
	default:
		return nil, errInvalidBreakSize
	}
}

// SoftwareBreakpointTable owns a fixed-capacity set of software
// breakpoint slots, matching the original's SoftwareBreakPointManager.
type SoftwareBreakpointTable struct {
	slots []SoftwareBreakpoint
}

// NewSoftwareBreakpointTable allocates a table with the given capacity.
func NewSoftwareBreakpointTable(capacity int) *SoftwareBreakpointTable {
	return &SoftwareBreakpointTable{slots: make([]SoftwareBreakpoint, capacity)}
}

// Find returns the slot holding a breakpoint at address, or nil.
func (t *SoftwareBreakpointTable) Find(address uint64) *SoftwareBreakpoint {
	for i := range t.slots {
		if t.slots[i].InUse() && t.slots[i].Address() == address {
			return &t.slots[i]
		}
	}
	return nil
}

// Alloc returns a free slot, or nil if the table is full.
func (t *SoftwareBreakpointTable) Alloc() *SoftwareBreakpoint {
	for i := range t.slots {
		if !t.slots[i].InUse() {
			return &t.slots[i]
		}
	}
	return nil
}

// IsBreakAt reads the instruction at address and reports whether it
// matches a recognized break pattern (used when classifying an
// UndefinedInstruction trap whose address isn't in our own table — e.g.
// a breakpoint set by another debugger instance, or the SDK's own abort).
func IsBreakAt(target interfaces.DebugTarget, address uint64, thumb bool) (bool, error) {
	if thumb {
		var b [2]byte
		if err := target.ReadMemory(address, b[:]); err != nil {
			return false, err
		}
		insn := uint32(b[0]) | uint32(b[1])<<8
		return gdbapi.IsThumbBreakInstruction(insn), nil
	}

	var b [4]byte
	if err := target.ReadMemory(address, b[:]); err != nil {
		return false, err
	}
	insn := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return gdbapi.IsBreakInstruction(insn), nil
}
