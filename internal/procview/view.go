// Package procview manages the lifecycle of one attached debug target:
// attach/detach, the loaded-module and thread tables, and the event pump
// that turns kernel debug events into GDB stop replies.
package procview

import (
	"context"
	"sync"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// ProcessView owns the single attached DebugTarget for a session,
// mirroring DebugProcess's Attach/Detach/CollectModules role: module and
// thread tables are snapshotted on attach and refreshed on request
// rather than tracked incrementally.
type ProcessView struct {
	pm interfaces.ProcessManager

	mu         sync.RWMutex
	target     interfaces.DebugTarget
	processID  uint64
	modules    []interfaces.ModuleInfo
	threads    []uint64
	isHomebrew bool
}

// NewProcessView builds a ProcessView with no process attached.
func NewProcessView(pm interfaces.ProcessManager) *ProcessView {
	return &ProcessView{pm: pm}
}

// Attach attaches to processID, then collects its module and thread
// tables the way DebugProcess::Attach does immediately after
// DebugActiveProcess succeeds.
func (v *ProcessView) Attach(ctx context.Context, processID uint64) error {
	target, err := v.pm.Attach(ctx, processID)
	if err != nil {
		return err
	}

	modules, err := v.pm.ListModules(target)
	if err != nil {
		_ = v.pm.Detach(target)
		return err
	}
	threads, err := v.pm.ListThreads(target)
	if err != nil {
		_ = v.pm.Detach(target)
		return err
	}

	// GetOverrideStatus().IsHbl() in the original is a property of the
	// attach handle itself; ProcessManager only exposes it through the
	// candidate table ListProcesses already returns.
	var isHomebrew bool
	if candidates, err := v.pm.ListProcesses(); err == nil {
		for _, c := range candidates {
			if c.ProcessID == processID {
				isHomebrew = c.IsHomebrew
				break
			}
		}
	}

	v.mu.Lock()
	v.target = target
	v.processID = processID
	v.modules = modules
	v.threads = threads
	v.isHomebrew = isHomebrew
	v.mu.Unlock()
	return nil
}

// Detach releases the attached target. Safe to call when nothing is
// attached.
func (v *ProcessView) Detach() error {
	v.mu.Lock()
	target := v.target
	v.target = nil
	v.processID = 0
	v.modules = nil
	v.threads = nil
	v.isHomebrew = false
	v.mu.Unlock()

	if target == nil {
		return nil
	}
	return v.pm.Detach(target)
}

// Attached reports whether a process is currently attached.
func (v *ProcessView) Attached() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.target != nil
}

// Target returns the attached DebugTarget, or nil if none is attached.
func (v *ProcessView) Target() interfaces.DebugTarget {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.target
}

// ProcessID returns the attached process's ID, or 0 if none is attached.
func (v *ProcessView) ProcessID() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.processID
}

// IsHomebrew reports whether the attached process was launched through
// the homebrew loader, gating the EventPump's post-load-DLL auto-break
// hook.
func (v *ProcessView) IsHomebrew() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.isHomebrew
}

// RefreshModules re-collects the module table, the way the original
// re-runs CollectModules after a PostLoadDll/PostUnloadDll notification.
func (v *ProcessView) RefreshModules() error {
	v.mu.Lock()
	target := v.target
	v.mu.Unlock()
	if target == nil {
		return nil
	}

	modules, err := v.pm.ListModules(target)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.modules = modules
	v.mu.Unlock()
	return nil
}

// RefreshThreads re-collects the thread table.
func (v *ProcessView) RefreshThreads() error {
	v.mu.Lock()
	target := v.target
	v.mu.Unlock()
	if target == nil {
		return nil
	}

	threads, err := v.pm.ListThreads(target)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.threads = threads
	v.mu.Unlock()
	return nil
}

// Modules returns the last-collected module table.
func (v *ProcessView) Modules() []interfaces.ModuleInfo {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.modules
}

// Threads returns the last-collected thread table.
func (v *ProcessView) Threads() []uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.threads
}

// MemoryMap returns the attached process's memory region table.
func (v *ProcessView) MemoryMap() ([]interfaces.MemoryRegion, error) {
	v.mu.RLock()
	target := v.target
	v.mu.RUnlock()
	if target == nil {
		return nil, nil
	}
	return v.pm.MemoryMap(target)
}
