package dispatch

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/breakpoint"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/gdbapi"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/procview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	mu      sync.Mutex
	mem     map[uint64]byte
	ctx     map[uint64]gdbapi.ThreadContext
	core    map[uint64]uint32
	is64Bit bool
	pid     uint64
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{mem: make(map[uint64]byte), ctx: make(map[uint64]gdbapi.ThreadContext), core: make(map[uint64]uint32), is64Bit: true, pid: 7}
}

func (f *fakeTarget) WaitEvent(ctx context.Context) (interfaces.DebugEvent, error) {
	<-ctx.Done()
	return interfaces.DebugEvent{}, ctx.Err()
}

func (f *fakeTarget) ReadMemory(addr uint64, out []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range out {
		out[i] = f.mem[addr+uint64(i)]
	}
	return nil
}

func (f *fakeTarget) WriteMemory(addr uint64, in []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range in {
		f.mem[addr+uint64(i)] = b
	}
	return nil
}

func (f *fakeTarget) SetHardwareBreakPointOnCore(int, uint32, uint64, uint64) error { return nil }
func (f *fakeTarget) NumCores() int                                                { return 1 }

func (f *fakeTarget) CurrentCore(threadID uint64) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.core[threadID]
}

func (f *fakeTarget) GetThreadContext(threadID uint64, out []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ctx := f.ctx[threadID]
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &ctx); err != nil {
		return err
	}
	copy(out, buf.Bytes())
	return nil
}

func (f *fakeTarget) SetThreadContext(threadID uint64, in []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ctx gdbapi.ThreadContext
	if err := binary.Read(bytes.NewReader(in), binary.LittleEndian, &ctx); err != nil {
		return err
	}
	f.ctx[threadID] = ctx
	return nil
}

func (f *fakeTarget) ContinueThread(uint64, bool) error { return nil }
func (f *fakeTarget) BreakProcess() error               { return nil }
func (f *fakeTarget) TerminateProcess() error           { return nil }
func (f *fakeTarget) Is64Bit() bool                      { return f.is64Bit }
func (f *fakeTarget) ProcessID() uint64                  { return f.pid }

type fakeProcessManager struct {
	target  *fakeTarget
	modules []interfaces.ModuleInfo
	threads []uint64
}

func (pm *fakeProcessManager) ListProcesses() ([]interfaces.ProcessInfo, error) {
	return []interfaces.ProcessInfo{{ProcessID: pm.target.pid, Name: "test.elf"}}, nil
}
func (pm *fakeProcessManager) Attach(context.Context, uint64) (interfaces.DebugTarget, error) {
	return pm.target, nil
}
func (pm *fakeProcessManager) Detach(interfaces.DebugTarget) error { return nil }
func (pm *fakeProcessManager) ListModules(interfaces.DebugTarget) ([]interfaces.ModuleInfo, error) {
	return pm.modules, nil
}
func (pm *fakeProcessManager) ListThreads(interfaces.DebugTarget) ([]uint64, error) {
	return pm.threads, nil
}
func (pm *fakeProcessManager) MemoryMap(interfaces.DebugTarget) ([]interfaces.MemoryRegion, error) {
	return nil, nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeProcessManager, *fakeTarget) {
	t.Helper()
	target := newFakeTarget()
	pm := &fakeProcessManager{target: target, threads: []uint64{1, 2}}
	view := procview.NewProcessView(pm)
	require.NoError(t, view.Attach(context.Background(), target.pid))

	engine, err := breakpoint.NewEngine(target, breakpoint.Config{SoftwareSlots: 2, HardwareSlots: 2, WatchSlots: 2, ExecutionContextReg: 14, WatchContextReg: 15})
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	d := NewDispatcher(pm, view, engine, nil, nil)
	d.lastThreadID = 1
	return d, pm, target
}

func TestQSupportedAdvertisesExpectedFeatures(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	reply := string(d.Dispatch([]byte("qSupported:multiprocess+")))
	assert.Contains(t, reply, "PacketSize=")
	assert.Contains(t, reply, "qXfer:features:read+")
	assert.Contains(t, reply, "swbreak+")
	assert.Contains(t, reply, "vContSupported+")
}

func TestDispatchRegisterRoundTrip(t *testing.T) {
	d, _, target := newTestDispatcher(t)
	target.ctx[1] = gdbapi.ThreadContext{PC: 0x1000}

	reply := d.Dispatch([]byte("p20"))
	assert.NotEmpty(t, reply)

	ok := d.Dispatch([]byte("P20=0000000000002000"))
	assert.Equal(t, replyOK, string(ok))

	assert.Equal(t, uint64(0x2000), target.ctx[1].PC)
}

func TestDispatchSoftwareBreakpointSetClear(t *testing.T) {
	d, _, target := newTestDispatcher(t)
	target.mem[0x1000] = 0xAA

	reply := d.Dispatch([]byte("Z0,1000,4"))
	assert.Equal(t, replyOK, string(reply))
	assert.NotEqual(t, byte(0xAA), target.mem[0x1000], "software breakpoint patches the break instruction in")

	reply = d.Dispatch([]byte("z0,1000,4"))
	assert.Equal(t, replyOK, string(reply))
	assert.Equal(t, byte(0xAA), target.mem[0x1000], "clearing restores the original instruction")
}

func TestDispatchMemoryReadWrite(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ok := d.Dispatch([]byte("M1000,2:aabb"))
	assert.Equal(t, replyOK, string(ok))

	reply := d.Dispatch([]byte("m1000,2"))
	assert.Equal(t, "aabb", string(reply))
}

func TestDispatchQRcmdHelp(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	// "help" hex-encoded.
	reply := d.Dispatch([]byte("qRcmd,68656c70"))
	assert.NotEmpty(t, reply)
}

func TestVContStepAndDefaultContinue(t *testing.T) {
	modes, def := parseVCont("s:1;c")
	assert.Equal(t, vContStep, modes[1])
	assert.Equal(t, vContContinue, def)
}

func TestParseZDecodesTypeAddressLength(t *testing.T) {
	kind, address, length, ok := parseZ("2,1000,8")
	assert.True(t, ok)
	assert.Equal(t, breakpoint.KindWatchWrite, kind)
	assert.Equal(t, uint64(0x1000), address)
	assert.Equal(t, uint64(8), length)
}
