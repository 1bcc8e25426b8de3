package faketarget

import (
	"context"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// process is one attachable candidate a Manager knows about.
type process struct {
	info    interfaces.ProcessInfo
	is64Bit bool
	modules []interfaces.ModuleInfo
	threads []uint64
	regions []interfaces.MemoryRegion
}

// Manager is a ProcessManager over a fixed, in-memory process table. Tests
// and the demo build it with AddProcess, then hand it to a Session the way
// a real platform's ProcessManager would be.
type Manager struct {
	mu        sync.Mutex
	processes map[uint64]*process
	targets   map[uint64]*Target
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		processes: make(map[uint64]*process),
		targets:   make(map[uint64]*Target),
	}
}

// AddProcess registers a candidate process and its static module/thread/
// memory-map tables, returned verbatim by ListModules/ListThreads/
// MemoryMap once attached. info.IsHomebrew gates the post-load-DLL
// auto-break hook the EventPump arms on this process's module loads.
func (m *Manager) AddProcess(info interfaces.ProcessInfo, is64Bit bool, modules []interfaces.ModuleInfo, threads []uint64, regions []interfaces.MemoryRegion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processes[info.ProcessID] = &process{info: info, is64Bit: is64Bit, modules: modules, threads: threads, regions: regions}
}

// ListProcesses returns every registered candidate.
func (m *Manager) ListProcesses() ([]interfaces.ProcessInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]interfaces.ProcessInfo, 0, len(m.processes))
	for _, p := range m.processes {
		out = append(out, p.info)
	}
	return out, nil
}

// Attach builds a fresh simulated Target for processID, failing with ESRCH
// if it was never registered via AddProcess.
func (m *Manager) Attach(ctx context.Context, processID uint64) (interfaces.DebugTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.processes[processID]
	if !ok {
		return nil, unix.ESRCH
	}

	target := NewTarget(processID, p.is64Bit)
	m.targets[processID] = target
	return target, nil
}

// Detach drops the Manager's record of target; the simulated memory and
// register state is discarded with it.
func (m *Manager) Detach(target interfaces.DebugTarget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.targets, target.ProcessID())
	return nil
}

// ListModules returns the module table registered for target's process.
func (m *Manager) ListModules(target interfaces.DebugTarget) ([]interfaces.ModuleInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.processes[target.ProcessID()]
	if !ok {
		return nil, unix.ESRCH
	}
	return p.modules, nil
}

// ListThreads returns the thread table registered for target's process.
func (m *Manager) ListThreads(target interfaces.DebugTarget) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.processes[target.ProcessID()]
	if !ok {
		return nil, unix.ESRCH
	}
	return p.threads, nil
}

// MemoryMap returns the memory region table registered for target's
// process.
func (m *Manager) MemoryMap(target interfaces.DebugTarget) ([]interfaces.MemoryRegion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.processes[target.ProcessID()]
	if !ok {
		return nil, unix.ESRCH
	}
	return p.regions, nil
}

var _ interfaces.ProcessManager = (*Manager)(nil)
