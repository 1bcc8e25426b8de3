package dispatch

import "strings"

// vContMode is one thread's resume action, mirroring
// DebugProcess::ContinueMode.
type vContMode int

const (
	vContStopped vContMode = iota
	vContContinue
	vContStep
)

// parseVCont decodes a vCont packet's semicolon-separated action list
// into a per-thread mode map plus a default mode for threads no token
// names explicitly, mirroring vCont()/ParseVCont's two-pass behavior:
// apply every token's explicit thread id first, then let a thread-less
// token set the default for everyone else.
func parseVCont(payload string) (modes map[uint64]vContMode, def vContMode) {
	modes = make(map[uint64]vContMode)
	def = vContStopped

	for _, token := range strings.Split(payload, ";") {
		if token == "" {
			continue
		}

		action := token[0]
		rest := token[1:]

		threadID, hasThread := parseVContThread(rest)

		var mode vContMode
		switch action {
		case 'c', 'C':
			mode = vContContinue
		case 's', 'S':
			mode = vContStep
		default:
			continue
		}

		if hasThread {
			modes[threadID] = mode
		} else {
			def = mode
		}
	}

	return modes, def
}

// parseVContThread extracts the ":pPID.TID" (or ":TID") suffix some
// vCont action tokens carry, returning the thread id and whether one was
// present at all.
func parseVContThread(rest string) (uint64, bool) {
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return 0, false
	}
	spec := rest[colon+1:]
	if dot := strings.IndexByte(spec, '.'); dot >= 0 {
		spec = spec[dot+1:]
	}
	if spec == "-1" {
		return ^uint64(0), true
	}
	return decodeHex(spec), true
}
