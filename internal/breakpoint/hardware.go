package breakpoint

import (
	"sync"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// hwRequest is one "program this register on every core" job handed to
// the multicore worker.
type hwRequest struct {
	reg   uint32
	ctrl  uint64
	value uint64
	reply chan error
}

// multiCoreWorker serializes hardware breakpoint register writes across
// every core of the target, one core at a time, the same shape as the
// original's dedicated MultiCoreThread + message queue: every logical
// "set this register everywhere" request is a single job on a channel,
// processed by one goroutine so concurrent Z/z commands from the
// dispatcher can never interleave a partial multi-core write.
type multiCoreWorker struct {
	target interfaces.DebugTarget
	reqs   chan hwRequest

	startOnce sync.Once
	stop      chan struct{}
}

func newMultiCoreWorker(target interfaces.DebugTarget) *multiCoreWorker {
	return &multiCoreWorker{
		target: target,
		reqs:   make(chan hwRequest),
		stop:   make(chan struct{}),
	}
}

func (w *multiCoreWorker) ensureStarted() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

func (w *multiCoreWorker) run() {
	for {
		select {
		case req := <-w.reqs:
			req.reply <- w.setOnEveryCore(req.reg, req.ctrl, req.value)
		case <-w.stop:
			return
		}
	}
}

func (w *multiCoreWorker) setOnEveryCore(reg uint32, ctrl uint64, value uint64) error {
	for core := 0; core < w.target.NumCores(); core++ {
		if err := w.target.SetHardwareBreakPointOnCore(core, reg, ctrl, value); err != nil {
			return err
		}
	}
	return nil
}

// Set submits a register write to the worker and waits for it to
// complete on every core.
func (w *multiCoreWorker) Set(reg uint32, ctrl uint64, value uint64) error {
	w.ensureStarted()
	reply := make(chan error, 1)
	w.reqs <- hwRequest{reg: reg, ctrl: ctrl, value: value, reply: reply}
	return <-reply
}

func (w *multiCoreWorker) Close() {
	close(w.stop)
}

// Hardware breakpoint register control-word field layout (AArch64 DBGBCR):
// bits [23:20] BT (breakpoint type), [19:16] linked context register, [8:5] BAS,
// [0] E (enable). Values below mirror the original's exact encodings.
const (
	ctxBreakpointType    = 0x3 << 20 // linked context ID match
	execBreakpointType   = 0x1 << 20 // linked context-aware instruction address match
	byteAddressSelectAll = 0xF << 5  // BAS: match all four bytes
	controlEnable        = 1
)

// HardwareBreakpoint is one execution breakpoint register, permanently
// linked to a shared context register that restricts the match to a
// single process.
type HardwareBreakpoint struct {
	reg      uint32
	ctxReg   uint32
	worker   *multiCoreWorker
	inUse    bool
	address  uint64
	isStep   bool
}

// Clear disables the execution breakpoint (writes a zero control word).
func (h *HardwareBreakpoint) Clear() error {
	if !h.inUse {
		return nil
	}
	err := h.worker.Set(h.reg, 0, 0)
	h.inUse = false
	h.address = 0
	h.isStep = false
	return err
}

// Set programs the breakpoint to trap execution at address.
func (h *HardwareBreakpoint) Set(address uint64, isStep bool) error {
	ctrl := uint64(execBreakpointType) | uint64(h.ctxReg)<<16 | uint64(byteAddressSelectAll)
	if address != 0 {
		ctrl |= controlEnable
	}
	if err := h.worker.Set(h.reg, ctrl, address); err != nil {
		return err
	}
	h.inUse = true
	h.address = address
	h.isStep = isStep
	return nil
}

func (h *HardwareBreakpoint) InUse() bool     { return h.inUse }
func (h *HardwareBreakpoint) Address() uint64 { return h.address }
func (h *HardwareBreakpoint) IsStep() bool    { return h.isStep }

// HardwareBreakpointTable manages the shared context register and the
// fixed bank of execution breakpoint registers that share it, one per
// attached process.
type HardwareBreakpointTable struct {
	worker *multiCoreWorker
	ctxReg uint32
	slots  []HardwareBreakpoint
}

// NewHardwareBreakpointTable programs the context register for target's
// process handle and prepares capacity breakpoint slots linked to it.
func NewHardwareBreakpointTable(target interfaces.DebugTarget, ctxReg uint32, capacity int) (*HardwareBreakpointTable, error) {
	worker := newMultiCoreWorker(target)

	ctrl := uint64(ctxBreakpointType) | uint64(byteAddressSelectAll) | controlEnable
	if err := worker.Set(ctxReg, ctrl, target.ProcessID()); err != nil {
		return nil, err
	}

	t := &HardwareBreakpointTable{worker: worker, ctxReg: ctxReg, slots: make([]HardwareBreakpoint, capacity)}
	for i := range t.slots {
		t.slots[i] = HardwareBreakpoint{reg: uint32(i), ctxReg: ctxReg, worker: worker}
	}
	return t, nil
}

// Alloc returns a free execution breakpoint slot, or nil if the table is
// full.
func (t *HardwareBreakpointTable) Alloc() *HardwareBreakpoint {
	for i := range t.slots {
		if !t.slots[i].InUse() {
			return &t.slots[i]
		}
	}
	return nil
}

// Find returns the slot holding a breakpoint at address, or nil.
func (t *HardwareBreakpointTable) Find(address uint64) *HardwareBreakpoint {
	for i := range t.slots {
		if t.slots[i].InUse() && t.slots[i].Address() == address {
			return &t.slots[i]
		}
	}
	return nil
}

// Close releases the context register and stops the multicore worker.
func (t *HardwareBreakpointTable) Close() error {
	err := t.worker.Set(t.ctxReg, 0, 0)
	t.worker.Close()
	return err
}
