// Package constants centralizes sizing and timing constants for the gdbstub core.
package constants

import "time"

// Wire buffer sizes
const (
	// ReceiveBufferSize is the single-slot staging area between the
	// transport receive goroutine and the packet reader (spec.md §4.2).
	ReceiveBufferSize = 4 * 1024

	// PacketBufferSize is the scratch buffer a Session uses to assemble
	// one RSP payload; qSupported advertises PacketSize as one less.
	PacketBufferSize = 0x4000

	// MemoryScratchSize bounds a single m/M command's data.
	MemoryScratchSize = PacketBufferSize / 2

	// AnnexBufferSize bounds the shared qXfer scratch document.
	AnnexBufferSize = 32 * 1024

	// ModuleNameMax is the longest module path name retained.
	ModuleNameMax = 0x200
)

// Table capacities (spec.md §3)
const (
	MaxModules             = 96
	MaxThreads             = 256
	MaxSoftwareBreakpoints = 128
	MaxHardwareBreakpoints = 16
	MaxWatchpoints         = 16
	MaxHardwareCores       = 4
)

// Timeouts
const (
	// DebugEventPollInterval is how long the event pump waits on the
	// debug handle before re-checking the kill flag (spec.md §4.4).
	DebugEventPollInterval = 20 * time.Millisecond

	// AttachTimeout bounds how long vAttach waits for the event pump to
	// finish attaching before replying E01 (spec.md §4.5).
	AttachTimeout = 2 * time.Second
)

// Default transport ports (spec.md §6)
const (
	DefaultGdbServerPort   = 22225
	DefaultGdbDebugLogPort = 22227
)

// TunnelGdbEndpoint is the named local-tunnel endpoint the GDB port binds to
// when the transport is the local tunnel rather than TCP.
const TunnelGdbEndpoint = "iywys@$gdb"
