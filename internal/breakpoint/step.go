package breakpoint

import (
	"bytes"
	"encoding/binary"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/gdbapi"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// rawThreadContextSize is binary.Size of gdbapi.ThreadContext: 29 uint64
// general registers + FP/LR/SP/PC (4 uint64) + PState (uint32) + 32
// 128-bit vector registers + FPSR/FPCR (2 uint32).
const rawThreadContextSize = (29+4)*8 + 4 + 32*16 + 4 + 4

// signExtend sign-extends the low bits-wide field of value to a full
// int64, matching the original's SignExtend helper used for AArch64
// branch immediates.
func signExtend(value uint32, bits uint) int64 {
	shift := 32 - bits
	return int64(int32(value<<shift)) >> shift
}

// branchTarget decodes the AArch64 instruction at pc and predicts where
// execution goes next: the fall-through address (pc+4) for non-branching
// or conditional instructions, and/or the taken-branch destination. A
// software step plants a breakpoint at every address this function
// returns, so a single step always lands regardless of whether a branch
// is taken. The target's thread context is only fetched when decoding an
// indirect branch (br/blr/ret) that needs a register value, mirroring
// the original's second GetThreadContext call for that case alone.
func branchTarget(target interfaces.DebugTarget, threadID uint64, pc uint64) (currentPC uint64, branch uint64, err error) {
	var insnBytes [4]byte
	if err := target.ReadMemory(pc, insnBytes[:]); err != nil {
		return 0, 0, err
	}
	insn := uint32(insnBytes[0]) | uint32(insnBytes[1])<<8 | uint32(insnBytes[2])<<16 | uint32(insnBytes[3])<<24

	currentPC = pc + 4

	switch {
	case insn&0x7C000000 == 0x14000000:
		// Unconditional branch (b/bl), excluding 0x14000001 (b to pc+4,
		// which lands where linear execution would anyway).
		if insn != 0x14000001 {
			currentPC = 0
			branch = uint64(int64(pc) + signExtend((insn&0x03FFFFFF)<<2, 28))
		}

	case insn&0x7E000000 == 0x34000000:
		// cbz/cbnz
		branch = uint64(int64(pc) + signExtend((insn&0x00FFFFE0)>>3, 21))

	case insn&0x7E000000 == 0x36000000:
		// tbz/tbnz
		branch = uint64(int64(pc) + signExtend((insn&0x0007FFE0)>>3, 16))

	case insn&0xFF000010 == 0x54000000:
		// b.cond
		if insn&0xF == 0xE {
			currentPC = 0
		}
		branch = uint64(int64(pc) + signExtend((insn&0x00FFFFE0)>>3, 21))

	case insn&0xFF8FFC1F == 0xD60F0000:
		// br/blr/ret (register-indirect branch)
		isCall := insn&0x00F00000 == 0x00300000
		if !isCall {
			currentPC = 0
		}

		// GetThreadContext's buffer is the target's raw register layout
		// (the same field order as gdbapi.ThreadContext), not the GDB hex
		// wire format produced by EncodeRegisters/DecodeRegisters, which
		// only applies to the RSP-facing g/G commands.
		var ctxBuf [rawThreadContextSize]byte
		if err := target.GetThreadContext(threadID, ctxBuf[:]); err != nil {
			return 0, 0, err
		}
		var ctx gdbapi.ThreadContext
		if err := binary.Read(bytes.NewReader(ctxBuf[:]), binary.LittleEndian, &ctx); err != nil {
			return 0, 0, err
		}

		reg := int((insn & 0x03E0) >> 5)
		switch {
		case reg < 29:
			branch = ctx.R[reg]
		case reg == 29:
			branch = ctx.FP
		case reg == 30:
			branch = ctx.LR
		case reg == 31:
			branch = ctx.SP
		}
	}

	return currentPC, branch, nil
}

// Stepper drives one thread's single-step, using a hardware single-step
// bit when the target exposes one, falling back to a pair of step-only
// software breakpoints at the fall-through and predicted branch target
// otherwise.
type Stepper struct {
	target       interfaces.DebugTarget
	useHardware  bool
	stepCurrent  SoftwareBreakpoint
	stepBranch   SoftwareBreakpoint
	active       bool
}

// NewStepper builds a Stepper for target. useHardwareSingleStep should
// reflect whether the kernel exposes a per-thread single-step flag; when
// false, stepping falls back to the branch-prediction software
// breakpoint pair.
func NewStepper(target interfaces.DebugTarget, useHardwareSingleStep bool) *Stepper {
	return &Stepper{target: target, useHardware: useHardwareSingleStep}
}

// aarch64SingleStepBit is PSTATE.SS (bit 21): the architectural
// "software step enabled" bit DebugProcess::Step sets via
// SetThreadContext(..., ThreadContextFlag_SetSingleStep) before
// resuming, so the next instruction traps instead of running freely.
const aarch64SingleStepBit = 1 << 21

// Step arms single-stepping for threadID at its current pc. The caller
// is responsible for resuming the thread after Step returns.
func (s *Stepper) Step(threadID uint64, pc uint64) error {
	if s.useHardware {
		var ctxBuf [rawThreadContextSize]byte
		if err := s.target.GetThreadContext(threadID, ctxBuf[:]); err != nil {
			return err
		}
		var ctx gdbapi.ThreadContext
		if err := binary.Read(bytes.NewReader(ctxBuf[:]), binary.LittleEndian, &ctx); err != nil {
			return err
		}

		ctx.PState |= aarch64SingleStepBit

		var out bytes.Buffer
		if err := binary.Write(&out, binary.LittleEndian, &ctx); err != nil {
			return err
		}
		if err := s.target.SetThreadContext(threadID, out.Bytes()); err != nil {
			return err
		}

		s.active = true
		return nil
	}

	current, branch, err := branchTarget(s.target, threadID, pc)
	if err != nil {
		return err
	}

	if current != 0 {
		if err := s.stepCurrent.Set(s.target, current, 4); err != nil {
			return err
		}
	}
	if branch != 0 {
		if err := s.stepBranch.Set(s.target, branch, 4); err != nil {
			_ = s.stepCurrent.Clear(s.target)
			return err
		}
	}
	s.active = true
	return nil
}

// Clear removes any step breakpoints planted by Step. Safe to call
// whether or not Step is active.
func (s *Stepper) Clear() error {
	if !s.active {
		return nil
	}
	s.active = false
	if s.useHardware {
		return nil
	}
	err1 := s.stepCurrent.Clear(s.target)
	err2 := s.stepBranch.Clear(s.target)
	if err1 != nil {
		return err1
	}
	return err2
}

// Active reports whether a step is currently armed.
func (s *Stepper) Active() bool { return s.active }
