package gdbapi

// Software breakpoint instruction encodings written in place of the
// original instruction, one per execution mode.
var (
	Aarch64BreakInstruction      = [4]byte{0xFF, 0xFF, 0xFF, 0xE7}
	Aarch32BreakInstruction      = [4]byte{0xFE, 0xDE, 0xFF, 0xE7}
	Aarch32ThumbBreakInstruction = [2]byte{0x80, 0xB6}
)

// maskedPattern is a (value, mask) pair used to recognize a class of break
// instruction inside an UndefinedInstruction exception, independent of
// which breakpoint manager placed it.
type maskedPattern struct {
	value uint32
	mask  uint32
}

func (p maskedPattern) matches(insn uint32) bool {
	return insn&p.mask == p.value
}

var (
	// sdkBreakPoint is the undefined-instruction break pattern this
	// daemon itself writes for software breakpoints and the homebrew
	// auto-break hook (an "svc break" is recognized by IsSvcBreak instead).
	sdkBreakPoint = maskedPattern{value: 0xE7FFFFFF, mask: 0xFFFFFFFF}
	armBreakPoint = maskedPattern{value: 0xE7FFDEFE, mask: 0xFFFFFFFF}
	a64BreakPoint = maskedPattern{value: 0xD4200000, mask: 0xFFE0001F}
	a64Halt       = maskedPattern{value: 0xD4400000, mask: 0xFFE0001F}
	a32BreakPoint = maskedPattern{value: 0xE1200070, mask: 0xFFF000F0}
	t16BreakPoint = maskedPattern{value: 0x0000BE00, mask: 0x0000FF00}
)

// IsSdkBreakPoint reports whether insn is the exact pattern this daemon
// itself writes for a software breakpoint (and the homebrew-load hook
// plants).
func IsSdkBreakPoint(insn uint32) bool {
	return sdkBreakPoint.matches(insn)
}

// IsBreakInstruction classifies a 32-bit non-Thumb undefined-instruction
// trap as one of the recognized break patterns (any debugger's SDK break,
// a raw ARM/AArch64 break, or a halt instruction).
func IsBreakInstruction(insn uint32) bool {
	return sdkBreakPoint.matches(insn) ||
		armBreakPoint.matches(insn) ||
		a64BreakPoint.matches(insn) ||
		a32BreakPoint.matches(insn) ||
		a64Halt.matches(insn)
}

// IsThumbBreakInstruction classifies a 16-bit Thumb undefined-instruction
// trap as a break.
func IsThumbBreakInstruction(insn16 uint32) bool {
	return t16BreakPoint.matches(insn16)
}

// aarch64SvcBreakValue / aarch32SvcBreakValue are the exact "svc break"
// encodings UserBreak exceptions are expected to originate from; anything
// else reaching UserBreak is not a breakpoint trap.
const (
	svcIDBreak           = 0x26 // Horizon's svc::SvcId_Break
	aarch64SvcBreakValue = 0xD4000001 | (svcIDBreak << 5)
	aarch32SvcBreakValue = 0xEF000000 | svcIDBreak
)

// IsSvcBreak reports whether insn is the "svc break" instruction for the
// given execution mode, gating whether a non-notification UserBreak event
// should be treated as a breakpoint trap at all.
func IsSvcBreak(insn uint32, is64Bit bool) bool {
	if is64Bit {
		return insn == aarch64SvcBreakValue
	}
	return insn == aarch32SvcBreakValue
}
