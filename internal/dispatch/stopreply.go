package dispatch

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/gdbapi"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/procview"
)

// buildStopReply composes the `T`/`W`/`X` reply for ev, mirroring
// AppendStopReplyPacket's signal byte, thread-id field, and the
// swbreak/hwbreak/watch tags the original appends per StopKind.
//
// A tagged reply (swbreak/hwbreak/watch) matches the original's inline
// per-exception formatting, which stops at the `thread:` field. An
// untagged StopSignal reply instead takes AppendStopReplyPacket's own
// path — used only for `?` and vAttach in the original, and for the
// debugger-break/plain-signal case here — which additionally carries the
// big-endian fp (0x1d), sp (0x1f), pc (0x20) register subset and the
// `core:` field, falling back to the "0*," RLE escape for a zero
// register the same way EncodeRegisters does.
func buildStopReply(ev procview.StopEvent, target interfaces.DebugTarget) []byte {
	switch ev.Kind {
	case procview.StopExit:
		return []byte(fmt.Sprintf("W%02x", uint8(ev.ExitCode)))

	case procview.StopKilled:
		return []byte(fmt.Sprintf("X%02x", int(ev.Signal)))

	case procview.StopSoftwareBreak, procview.StopHardwareBreak, procview.StopWatch:
		reply := fmt.Sprintf("T%02x", int(ev.Signal))
		switch ev.Kind {
		case procview.StopSoftwareBreak:
			reply += "swbreak:;"
		case procview.StopHardwareBreak:
			reply += "hwbreak:;"
		case procview.StopWatch:
			tag := "watch"
			switch {
			case ev.WatchRead && ev.WatchWrite:
				tag = "awatch"
			case ev.WatchRead:
				tag = "rwatch"
			}
			reply += fmt.Sprintf("%s:%x;", tag, ev.WatchAddress)
		}
		reply += fmt.Sprintf("thread:p%x.%x;", ev.ProcessID, ev.ThreadID)
		return []byte(reply)

	default:
		ctx := stopThreadContext(target, ev.ThreadID)

		reply := fmt.Sprintf("T%02x", int(ev.Signal))
		reply += fmt.Sprintf("1d:%s;1f:%s;20:%s;", formatStopRegister(ctx.FP), formatStopRegister(ctx.SP), formatStopRegister(ctx.PC))
		reply += fmt.Sprintf("thread:p%x.%x;", ev.ProcessID, ev.ThreadID)

		var core uint32
		if target != nil {
			core = target.CurrentCore(ev.ThreadID)
		}
		reply += fmt.Sprintf("core:%d;", core)
		return []byte(reply)
	}
}

// formatStopRegister renders one register value the way
// AppendStopReplyPacket does: big-endian hex, or the "0*," GDB
// run-length escape for an all-zero register.
func formatStopRegister(v uint64) string {
	if v == 0 {
		return "0*,"
	}
	return fmt.Sprintf("%016x", v)
}

// stopThreadContext fetches threadID's register file for the stop-reply
// register subset, returning a zero-value context (rendered as the "0*,"
// escape for every field) if target is nil or the fetch fails.
func stopThreadContext(target interfaces.DebugTarget, threadID uint64) gdbapi.ThreadContext {
	var ctx gdbapi.ThreadContext
	if target == nil {
		return ctx
	}
	buf := make([]byte, binary.Size(ctx))
	if err := target.GetThreadContext(threadID, buf); err != nil {
		return gdbapi.ThreadContext{}
	}
	_ = binary.Read(bytes.NewReader(buf), binary.LittleEndian, &ctx)
	return ctx
}
