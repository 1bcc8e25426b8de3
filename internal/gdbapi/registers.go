package gdbapi

import "encoding/binary"

// ThreadContext is the register file of one thread, wide enough to hold
// either execution mode. Aarch32 callers use only the first 15 general
// registers and the low half of the vector bank.
type ThreadContext struct {
	R      [29]uint64  // x0-x28 (64-bit) / r0-r14 (32-bit, first 15 slots)
	FP     uint64      // x29
	LR     uint64      // x30
	SP     uint64
	PC     uint64
	PState uint32
	V      [32][16]byte // v0-v31 (128-bit), or d0-d31 packed two-per-slot in 32-bit mode
	FPSR   uint32
	FPCR   uint32
}

// appendGdbRegister32/64/128 append one register's big-endian hex, or the
// GDB run-length "value is all zero" escape when the register is zero —
// the original's SetGdbRegister{32,64,128} do the same, and real GDB
// clients parse the escape transparently.
func appendGdbRegister32(dst []byte, v uint32) []byte {
	if v == 0 {
		return append(dst, '0', '*', '"', '0', '0')
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return appendHex(dst, b[:])
}

func appendGdbRegister64(dst []byte, v uint64) []byte {
	if v == 0 {
		return append(dst, '0', '*', ',')
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return appendHex(dst, b[:])
}

func appendGdbRegister128(dst []byte, v [16]byte) []byte {
	zero := true
	for _, b := range v {
		if b != 0 {
			zero = false
			break
		}
	}
	if zero {
		return append(dst, '0', '*', '<')
	}
	// The vector is already stored little-endian-by-half as the target
	// wrote it; the original swaps each 64-bit half to big-endian before
	// hex-encoding, so mirror that here.
	hi := binary.LittleEndian.Uint64(v[8:16])
	lo := binary.LittleEndian.Uint64(v[0:8])
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], hi)
	binary.BigEndian.PutUint64(b[8:16], lo)
	return appendHex(dst, b[:])
}

const hexDigits = "0123456789abcdef"

func appendHex(dst []byte, src []byte) []byte {
	for _, b := range src {
		dst = append(dst, hexDigits[b>>4], hexDigits[b&0xF])
	}
	return dst
}

// EncodeRegisters appends the full `g`-reply register packet for ctx in
// the given execution mode.
func EncodeRegisters(dst []byte, ctx *ThreadContext, is64Bit bool) []byte {
	if is64Bit {
		for i := 0; i < len(ctx.R); i++ {
			dst = appendGdbRegister64(dst, ctx.R[i])
		}
		dst = appendGdbRegister64(dst, ctx.FP)
		dst = appendGdbRegister64(dst, ctx.LR)
		dst = appendGdbRegister64(dst, ctx.SP)
		dst = appendGdbRegister64(dst, ctx.PC)
		dst = appendGdbRegister32(dst, ctx.PState)
		for i := range ctx.V {
			dst = appendGdbRegister128(dst, ctx.V[i])
		}
		dst = appendGdbRegister32(dst, ctx.FPSR)
		dst = appendGdbRegister32(dst, ctx.FPCR)
		return dst
	}

	for i := 0; i < 15; i++ {
		dst = appendGdbRegister32(dst, uint32(ctx.R[i]))
	}
	dst = appendGdbRegister32(dst, uint32(ctx.PC))
	dst = appendGdbRegister32(dst, ctx.PState)
	for i := 0; i < len(ctx.V)/2; i++ {
		dst = appendGdbRegister128(dst, ctx.V[i])
	}
	fpscr := (ctx.FPSR & 0xF80000FF) | (ctx.FPCR & 0x07FFFF00)
	dst = appendGdbRegister32(dst, fpscr)
	return dst
}

// decodeHexNibble decodes one hex character c, or returns ok=false if c
// is not hex.
func decodeHexNibble(c byte) (int, bool) {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0'), true
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10, true
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

// parseGdbHex reads n bytes worth of big-endian hex (2n hex characters)
// from src, returning the consumed byte slice (still big-endian) and the
// remaining input. ok is false on a short read or a non-hex character.
func parseGdbHex(src []byte, n int) (value []byte, rest []byte, ok bool) {
	if len(src) < n*2 {
		return nil, src, false
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		hi, okHi := decodeHexNibble(src[2*i])
		lo, okLo := decodeHexNibble(src[2*i+1])
		if !okHi || !okLo {
			return nil, src, false
		}
		out[i] = byte(hi<<4 | lo)
	}
	return out, src[n*2:], true
}

// DecodeRegisters parses a `G`-command register packet into ctx, mirroring
// ParseGdbRegisterPacket: it fills in as many registers as the packet has
// data for and stops silently at the first short field, matching the
// original's partial-update tolerance.
func DecodeRegisters(src []byte, ctx *ThreadContext, is64Bit bool) {
	if is64Bit {
		for i := 0; i < len(ctx.R); i++ {
			b, rest, ok := parseGdbHex(src, 8)
			if !ok {
				return
			}
			ctx.R[i] = binary.BigEndian.Uint64(b)
			src = rest
		}
		for _, dst := range []*uint64{&ctx.FP, &ctx.LR, &ctx.SP, &ctx.PC} {
			b, rest, ok := parseGdbHex(src, 8)
			if !ok {
				return
			}
			*dst = binary.BigEndian.Uint64(b)
			src = rest
		}
		if b, rest, ok := parseGdbHex(src, 4); ok {
			ctx.PState = binary.BigEndian.Uint32(b)
			src = rest
		} else {
			return
		}
		for i := range ctx.V {
			b, rest, ok := parseGdbHex(src, 16)
			if !ok {
				return
			}
			copy(ctx.V[i][:], b)
			src = rest
		}
		if b, rest, ok := parseGdbHex(src, 4); ok {
			ctx.FPSR = binary.BigEndian.Uint32(b)
			src = rest
		} else {
			return
		}
		if b, _, ok := parseGdbHex(src, 4); ok {
			ctx.FPCR = binary.BigEndian.Uint32(b)
		}
		return
	}

	for i := 0; i < 15; i++ {
		b, rest, ok := parseGdbHex(src, 4)
		if !ok {
			return
		}
		ctx.R[i] = uint64(binary.BigEndian.Uint32(b))
		src = rest
	}
	if b, rest, ok := parseGdbHex(src, 4); ok {
		ctx.PC = uint64(binary.BigEndian.Uint32(b))
		src = rest
	} else {
		return
	}
	if b, rest, ok := parseGdbHex(src, 4); ok {
		ctx.PState = binary.BigEndian.Uint32(b)
		src = rest
	} else {
		return
	}
	for i := 0; i < len(ctx.V)/2; i++ {
		b, rest, ok := parseGdbHex(src, 16)
		if !ok {
			return
		}
		copy(ctx.V[i][:], b)
		src = rest
	}
	if b, _, ok := parseGdbHex(src, 4); ok {
		fpscr := binary.BigEndian.Uint32(b)
		ctx.FPSR = fpscr & 0xF80000FF
		ctx.FPCR = fpscr & 0x07FFFF00
	}
}

// aarch32ToAarch64RegNum translates a GDB `arm.core`/`arm.vfp` register
// index into the equivalent `aarch64.core`/`aarch64.fpu` index, so a
// single-register read/write (`p`/`P`) can share one lookup table across
// both execution modes.
func aarch32ToAarch64RegNum(reg uint64) uint64 {
	switch {
	case reg < 15:
		return reg
	case reg == 15:
		return 32 // pc
	case reg == 25:
		return 33 // cpsr
	case reg >= 26 && reg <= 57:
		return 34 + (reg - 26)
	case reg == 58:
		return 66 // fpscr
	default:
		return reg
	}
}

// EncodeRegister appends the `p`-reply for a single register number,
// translating reg from the 32-bit numbering space first when !is64Bit.
func EncodeRegister(dst []byte, ctx *ThreadContext, reg uint64, is64Bit bool) []byte {
	if !is64Bit {
		reg = aarch32ToAarch64RegNum(reg)
	}
	switch {
	case reg < 29:
		return appendGdbRegister64(dst, ctx.R[reg])
	case reg == 29:
		return appendGdbRegister64(dst, ctx.FP)
	case reg == 30:
		return appendGdbRegister64(dst, ctx.LR)
	case reg == 31:
		return appendGdbRegister64(dst, ctx.SP)
	case reg == 32:
		return appendGdbRegister64(dst, ctx.PC)
	case reg == 33:
		return appendGdbRegister32(dst, ctx.PState)
	case reg < 66:
		return appendGdbRegister128(dst, ctx.V[reg-34])
	case reg == 66:
		return appendGdbRegister32(dst, ctx.FPSR)
	case reg == 67:
		return appendGdbRegister32(dst, ctx.FPCR)
	default:
		return dst
	}
}

// DecodeRegister parses a `P`-command single-register packet and writes it
// into ctx, translating reg first when !is64Bit.
func DecodeRegister(src []byte, ctx *ThreadContext, reg uint64, is64Bit bool) {
	if !is64Bit {
		reg = aarch32ToAarch64RegNum(reg)
	}
	switch {
	case reg < 29:
		if b, _, ok := parseGdbHex(src, 8); ok {
			ctx.R[reg] = binary.BigEndian.Uint64(b)
		}
	case reg == 29:
		if b, _, ok := parseGdbHex(src, 8); ok {
			ctx.FP = binary.BigEndian.Uint64(b)
		}
	case reg == 30:
		if b, _, ok := parseGdbHex(src, 8); ok {
			ctx.LR = binary.BigEndian.Uint64(b)
		}
	case reg == 31:
		if b, _, ok := parseGdbHex(src, 8); ok {
			ctx.SP = binary.BigEndian.Uint64(b)
		}
	case reg == 32:
		if b, _, ok := parseGdbHex(src, 8); ok {
			ctx.PC = binary.BigEndian.Uint64(b)
		}
	case reg == 33:
		if b, _, ok := parseGdbHex(src, 4); ok {
			ctx.PState = binary.BigEndian.Uint32(b)
		}
	case reg < 66:
		if b, _, ok := parseGdbHex(src, 16); ok {
			copy(ctx.V[reg-34][:], b)
		}
	case reg == 66:
		if b, _, ok := parseGdbHex(src, 4); ok {
			ctx.FPSR = binary.BigEndian.Uint32(b)
		}
	case reg == 67:
		if b, _, ok := parseGdbHex(src, 4); ok {
			ctx.FPCR = binary.BigEndian.Uint32(b)
		}
	}
}
