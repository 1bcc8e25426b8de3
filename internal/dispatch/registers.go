package dispatch

import (
	"bytes"
	"encoding/binary"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/gdbapi"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// rawThreadContextSize is binary.Size of gdbapi.ThreadContext, the raw
// layout GetThreadContext/SetThreadContext exchange.
const rawThreadContextSize = (29+4)*8 + 4 + 32*16 + 4 + 4

// readContext fetches threadID's raw register buffer and decodes it into
// a gdbapi.ThreadContext, the shape g/G/p/P encode against.
func readContext(target interfaces.DebugTarget, threadID uint64) (gdbapi.ThreadContext, error) {
	var buf [rawThreadContextSize]byte
	if err := target.GetThreadContext(threadID, buf[:]); err != nil {
		return gdbapi.ThreadContext{}, err
	}
	var ctx gdbapi.ThreadContext
	if err := binary.Read(bytes.NewReader(buf[:]), binary.LittleEndian, &ctx); err != nil {
		return gdbapi.ThreadContext{}, err
	}
	return ctx, nil
}

// writeContext re-encodes ctx into the raw layout and writes it back to
// threadID. The original only rewrites the register groups named by a
// ThreadContextFlag mask (general/control/fpu); this daemon's
// DebugTarget always exchanges the whole context, so G and P both read-
// modify-write the full buffer instead of a partial group.
func writeContext(target interfaces.DebugTarget, threadID uint64, ctx gdbapi.ThreadContext) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &ctx); err != nil {
		return err
	}
	return target.SetThreadContext(threadID, buf.Bytes())
}
