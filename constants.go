package gdbstub

import "github.com/ehrlich-b/go-dmnt2gdb/internal/constants"

// Re-exported for callers that only need the sizing/port defaults and
// don't want to import internal/constants directly.
const (
	DefaultGdbServerPort   = constants.DefaultGdbServerPort
	DefaultGdbDebugLogPort = constants.DefaultGdbDebugLogPort
	TunnelGdbEndpoint      = constants.TunnelGdbEndpoint

	PacketBufferSize  = constants.PacketBufferSize
	ReceiveBufferSize = constants.ReceiveBufferSize
	AnnexBufferSize   = constants.AnnexBufferSize

	MaxSoftwareBreakpoints = constants.MaxSoftwareBreakpoints
	MaxHardwareBreakpoints = constants.MaxHardwareBreakpoints
	MaxWatchpoints         = constants.MaxWatchpoints
)
