package gdbstub

import (
	"github.com/ehrlich-b/go-dmnt2gdb/internal/breakpoint"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/constants"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// Options configures a Session (or a Serve loop handing out one Session
// per accepted connection), mirroring the teacher's top-level
// ublk.Options: a logger, an observer, and nothing else required.
type Options struct {
	// Logger receives debug/info/warn/error records; nil disables
	// logging.
	Logger interfaces.Logger

	// Observer collects wire/breakpoint/stop-reply metrics; nil installs
	// NoOpObserver.
	Observer interfaces.Observer

	// RegisterLayout selects the register counts and context register
	// numbers a freshly attached target's breakpoint.Engine is built
	// with. DefaultRegisterLayout is used when the zero value is passed.
	RegisterLayout RegisterLayout
}

// RegisterLayout mirrors breakpoint.Config, exported at the top level so
// callers configuring a daemon never need to import internal/breakpoint
// directly.
type RegisterLayout struct {
	SoftwareSlots         int
	HardwareSlots         int
	WatchSlots            int
	ExecutionContextReg   uint32
	WatchContextReg       uint32
	UseHardwareSingleStep bool
}

// DefaultRegisterLayout returns the register layout used when Options is
// left at its zero value: the table capacities from internal/constants,
// and context registers one slot past the platform's most common 15
// hardware breakpoint / 15 watchpoint register banks.
func DefaultRegisterLayout() RegisterLayout {
	return RegisterLayout{
		SoftwareSlots:       constants.MaxSoftwareBreakpoints,
		HardwareSlots:       constants.MaxHardwareBreakpoints,
		WatchSlots:          constants.MaxWatchpoints,
		ExecutionContextReg: constants.MaxHardwareBreakpoints,
		WatchContextReg:     constants.MaxWatchpoints,
	}
}

func (o Options) logger() interfaces.Logger {
	return o.Logger
}

func (o Options) observer() interfaces.Observer {
	if o.Observer != nil {
		return o.Observer
	}
	return NoOpObserver{}
}

func (o Options) registerLayout() RegisterLayout {
	layout := o.RegisterLayout
	if layout.HardwareSlots == 0 && layout.WatchSlots == 0 && layout.SoftwareSlots == 0 {
		return DefaultRegisterLayout()
	}
	return layout
}

// engineConfig translates the exported RegisterLayout into
// breakpoint.Config, the shape NewEngine actually takes.
func (l RegisterLayout) engineConfig() breakpoint.Config {
	return breakpoint.Config{
		SoftwareSlots:         l.SoftwareSlots,
		HardwareSlots:         l.HardwareSlots,
		WatchSlots:            l.WatchSlots,
		ExecutionContextReg:   l.ExecutionContextReg,
		WatchContextReg:       l.WatchContextReg,
		UseHardwareSingleStep: l.UseHardwareSingleStep,
	}
}
