package breakpoint

import (
	"math/bits"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// Watchpoint is one data access breakpoint register, sharing a second
// context register (distinct from the execution breakpoints' context
// register) so it too only fires within the attached process.
type Watchpoint struct {
	reg    uint32
	ctxReg uint32
	worker *multiCoreWorker

	inUse   bool
	address uint64
	size    uint64
	read    bool
	write   bool
}

// Clear disables the watchpoint.
func (w *Watchpoint) Clear() error {
	if !w.inUse {
		return nil
	}
	err := w.worker.Set(w.reg, 0, 0)
	w.inUse = false
	w.address = 0
	w.size = 0
	w.read = false
	w.write = false
	return err
}

// Set programs the watchpoint for the given address range and access
// type. Callers must validate the range with IsValidWatchpoint first.
func (w *Watchpoint) Set(address, size uint64, read, write bool) error {
	lsc := uint64(0)
	if read {
		lsc |= 1
	}
	if write {
		lsc |= 2
	}

	var bas, mask uint64
	alignedAddress := address
	if size <= 8 {
		bas = (uint64(1)<<size - 1) << (address & 7)
		alignedAddress = address &^ 7
	} else {
		bas = 0xFF
		mask = uint64(bits.Len64(size - 1))
	}

	ctrl := mask<<24 | uint64(w.ctxReg)<<16 | bas<<5 | lsc<<3
	if lsc != 0 {
		ctrl |= controlEnable
	}

	if err := w.worker.Set(w.reg, ctrl, alignedAddress); err != nil {
		return err
	}

	w.inUse = true
	w.address = address
	w.size = size
	w.read = read
	w.write = write
	return nil
}

func (w *Watchpoint) InUse() bool     { return w.inUse }
func (w *Watchpoint) Address() uint64 { return w.address }
func (w *Watchpoint) Size() uint64    { return w.size }
func (w *Watchpoint) IsRead() bool    { return w.read }
func (w *Watchpoint) IsWrite() bool   { return w.write }

// WatchpointTable manages the shared data-access context register and the
// fixed bank of watchpoint registers that share it.
type WatchpointTable struct {
	worker *multiCoreWorker
	ctxReg uint32
	slots  []Watchpoint
}

// NewWatchpointTable programs the watchpoint context register for the
// target's process handle and prepares capacity watchpoint slots linked
// to it. ctxReg must differ from the hardware execution breakpoint
// table's context register: the original reserves one context register
// per breakpoint kind.
func NewWatchpointTable(target interfaces.DebugTarget, ctxReg uint32, capacity int) (*WatchpointTable, error) {
	worker := newMultiCoreWorker(target)

	ctrl := uint64(ctxBreakpointType) | uint64(byteAddressSelectAll) | controlEnable
	if err := worker.Set(ctxReg, ctrl, target.ProcessID()); err != nil {
		return nil, err
	}

	t := &WatchpointTable{worker: worker, ctxReg: ctxReg, slots: make([]Watchpoint, capacity)}
	for i := range t.slots {
		t.slots[i] = Watchpoint{reg: uint32(i), ctxReg: ctxReg, worker: worker}
	}
	return t, nil
}

// Alloc returns a free watchpoint slot, or nil if the table is full.
func (t *WatchpointTable) Alloc() *Watchpoint {
	for i := range t.slots {
		if !t.slots[i].InUse() {
			return &t.slots[i]
		}
	}
	return nil
}

// Find returns the watchpoint slot whose range covers address, or nil.
func (t *WatchpointTable) Find(address uint64) *Watchpoint {
	for i := range t.slots {
		s := &t.slots[i]
		if s.InUse() && s.Address() <= address && address < s.Address()+s.Size() {
			return s
		}
	}
	return nil
}

// Close releases the context register and stops the multicore worker.
func (t *WatchpointTable) Close() error {
	err := t.worker.Set(t.ctxReg, 0, 0)
	t.worker.Close()
	return err
}

// IsValidWatchpoint reports whether address/size is a legal watchpoint
// range: non-zero size, and either entirely within one aligned 8-byte
// word, or a power-of-two size (up to 0x80000000) whose address is
// naturally aligned to it.
func IsValidWatchpoint(address, size uint64) bool {
	if size == 0 {
		return false
	}

	if size <= 8 {
		return (address &^ 7) == ((address + size - 1) &^ 7)
	}

	if size > 0x80000000 {
		return false
	}
	if size&(size-1) != 0 {
		return false
	}
	return address%size == 0
}
