// Package gdbapi holds the wire-level vocabulary shared between the
// breakpoint, process-view, and dispatch packages: GDB signal numbers,
// instruction break-pattern recognition, and register (de)serialization.
package gdbapi

// Signal is a POSIX-style signal number as GDB's stop-reply packets
// express them (the `T%02X` byte in a `T`/`S` reply).
type Signal int

const (
	SignalNone                Signal = 0
	SignalInterrupt           Signal = 2
	SignalIllegalInstruction  Signal = 4
	SignalBreakpointTrap      Signal = 5
	SignalEmulationTrap       Signal = 7
	SignalArithmeticException Signal = 8
	SignalKilled              Signal = 9
	SignalBusError            Signal = 10
	SignalSegmentationFault   Signal = 11
	SignalBadSystemCall       Signal = 12
)
