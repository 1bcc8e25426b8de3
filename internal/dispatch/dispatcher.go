package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/breakpoint"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/constants"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/gdbapi"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/procview"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/xfer"
)

const replyOK = "OK"
const replyErr = "E01"

// noThreadOverride is the sentinel "no override set" value, matching the
// original's 0/-1 special-casing of thread id 0.
const noThreadOverride = 0

// allThreads is the wire encoding of thread id -1 ("any/all threads").
const allThreads = ^uint64(0)

// Dispatcher is the command table behind one GDB session: it answers
// each RSP command against the attached process's ProcessView and
// Engine, mirroring ProcessPacket's single-character switch.
type Dispatcher struct {
	pm     interfaces.ProcessManager
	view   *procview.ProcessView
	engine *breakpoint.Engine
	log    interfaces.Logger
	obs    interfaces.Observer
	annex  xfer.AnnexBuffer

	lastThreadID     uint64
	threadIDOverride uint64

	// SetNoAckMode is invoked for QStartNoAckMode; wired by the session
	// to the owning PacketCodec.
	SetNoAckMode func(bool)

	// EngineFactory builds a fresh Engine against the just-attached
	// target, probing register counts the way CountBreakPointRegisters
	// does. The session wires this in; vAttach calls it after a
	// successful attach and replaces the placeholder Engine passed to
	// NewDispatcher, closing whatever Engine was previously installed.
	EngineFactory func(target interfaces.DebugTarget) (*breakpoint.Engine, error)
}

// NewDispatcher builds a Dispatcher with no process attached. engine may
// be nil when EngineFactory will install one on attach, as the session
// does; breakpoint commands reply with an error until then.
func NewDispatcher(pm interfaces.ProcessManager, view *procview.ProcessView, engine *breakpoint.Engine, log interfaces.Logger, obs interfaces.Observer) *Dispatcher {
	return &Dispatcher{pm: pm, view: view, engine: engine, log: log, obs: obs}
}

// Engine returns the Dispatcher's current Engine, so a session can hand
// the same instance to a procview.EventPump after attach.
func (d *Dispatcher) Engine() *breakpoint.Engine {
	return d.engine
}

// HandleStopEvent records ev's thread as the current stop thread and
// formats it into a stop-reply packet, the single entry point the
// session's DebugEventPump goroutine uses to turn a procview.StopEvent
// into wire bytes without reaching into dispatch's unexported
// buildStopReply directly.
func (d *Dispatcher) HandleStopEvent(ev procview.StopEvent) []byte {
	d.NotifyStop(ev)
	if d.obs != nil {
		d.obs.ObserveStopReply(int(ev.Signal))
	}
	return buildStopReply(ev, d.view.Target())
}

// NotifyStop records the thread a stop reply names, the way the original
// tracks GetLastThreadId from the debug event loop; g/G/p/P/c/vCont all
// default to this thread when no Hg/thread-suffix override is active.
func (d *Dispatcher) NotifyStop(ev procview.StopEvent) {
	d.lastThreadID = ev.ThreadID
}

// currentThread resolves the thread id a register/continue command
// without an explicit suffix should act on.
func (d *Dispatcher) currentThread() uint64 {
	if d.threadIDOverride == noThreadOverride || d.threadIDOverride == allThreads {
		return d.lastThreadID
	}
	return d.threadIDOverride
}

// Dispatch answers one decoded command packet, returning the reply
// payload (unframed — the caller's PacketCodec handles `$...#cc`
// encoding).
func (d *Dispatcher) Dispatch(packet []byte) []byte {
	s := string(packet)
	if s == "" {
		return nil
	}

	switch s[0] {
	case '?':
		return d.questionMark()
	case '!':
		return []byte(replyOK)
	case 'D':
		return d.detach()
	case 'G':
		return d.setAllRegisters(s[1:])
	case 'g':
		return d.getAllRegisters()
	case 'H':
		return d.h(s[1:])
	case 'T':
		return d.threadAlive(s[1:])
	case 'Z':
		return d.setBreak(s[1:])
	case 'z':
		return d.clearBreak(s[1:])
	case 'c':
		return d.cont()
	case 'k':
		return d.kill()
	case 'm':
		return d.readMemory(s[1:])
	case 'M':
		return d.writeMemory(s[1:])
	case 'p':
		return d.readRegister(s[1:])
	case 'P':
		return d.writeRegister(s[1:])
	case 'v':
		return d.v(s[1:])
	case 'q':
		return d.q(s[1:])
	case 'Q':
		return d.qUpper(s[1:])
	default:
		if d.log != nil {
			d.log.Debug("unimplemented command", "packet", s)
		}
		return nil
	}
}

func (d *Dispatcher) questionMark() []byte {
	if !d.view.Attached() {
		return []byte(replyErr)
	}
	return buildStopReply(procview.StopEvent{Kind: procview.StopSignal, Signal: gdbapi.SignalBreakpointTrap, ThreadID: d.lastThreadID, ProcessID: d.view.ProcessID()}, d.view.Target())
}

func (d *Dispatcher) detach() []byte {
	if d.engine != nil {
		_ = d.engine.Close()
	}
	_ = d.view.Detach()
	return []byte(replyOK)
}

func (d *Dispatcher) getAllRegisters() []byte {
	target := d.view.Target()
	if target == nil {
		return []byte(replyErr)
	}
	ctx, err := readContext(target, d.currentThread())
	if err != nil {
		return []byte(replyErr)
	}
	return gdbapi.EncodeRegisters(nil, &ctx, target.Is64Bit())
}

func (d *Dispatcher) setAllRegisters(payload string) []byte {
	target := d.view.Target()
	if target == nil {
		return []byte(replyErr)
	}
	threadID := d.currentThread()
	ctx, err := readContext(target, threadID)
	if err != nil {
		return []byte(replyErr)
	}
	gdbapi.DecodeRegisters([]byte(payload), &ctx, target.Is64Bit())
	if err := writeContext(target, threadID, ctx); err != nil {
		return []byte(replyErr)
	}
	return []byte(replyOK)
}

func (d *Dispatcher) readRegister(payload string) []byte {
	target := d.view.Target()
	if target == nil {
		return []byte(replyErr)
	}
	reg := decodeHex(payload)
	ctx, err := readContext(target, d.currentThread())
	if err != nil {
		return []byte(replyErr)
	}
	return gdbapi.EncodeRegister(nil, &ctx, reg, target.Is64Bit())
}

func (d *Dispatcher) writeRegister(payload string) []byte {
	target := d.view.Target()
	if target == nil {
		return []byte(replyErr)
	}
	eq := strings.IndexByte(payload, '=')
	if eq < 0 {
		return []byte(replyErr)
	}
	reg := decodeHex(payload[:eq])

	threadID := d.currentThread()
	ctx, err := readContext(target, threadID)
	if err != nil {
		return []byte(replyErr)
	}
	gdbapi.DecodeRegister([]byte(payload[eq+1:]), &ctx, reg, target.Is64Bit())
	if err := writeContext(target, threadID, ctx); err != nil {
		return []byte(replyErr)
	}
	return []byte(replyOK)
}

// h implements H: only Hg/HG (set the thread used by subsequent g/G/p/P)
// is supported, matching the original.
func (d *Dispatcher) h(payload string) []byte {
	if !d.view.Attached() {
		return []byte(replyErr)
	}
	if rest, ok := parsePrefix(payload, "g"); ok {
		return d.hg(rest)
	}
	if rest, ok := parsePrefix(payload, "G"); ok {
		return d.hg(rest)
	}
	return []byte(replyErr)
}

func (d *Dispatcher) hg(payload string) []byte {
	dot := strings.IndexByte(payload, '.')
	if dot < 0 {
		return []byte(replyErr)
	}
	spec := payload[dot+1:]

	var threadID uint64
	if spec == "-1" {
		threadID = allThreads
	} else {
		threadID = decodeHex(spec)
	}

	threads := d.view.Threads()
	if len(threads) == 0 {
		return []byte(replyErr)
	}
	if threadID == noThreadOverride {
		threadID = threads[0]
	}

	found := false
	for _, tid := range threads {
		if threadID == allThreads || tid == threadID {
			found = true
			if threadID != allThreads {
				d.threadIDOverride = tid
			}
		}
	}
	if !found {
		return []byte(replyErr)
	}
	return []byte(replyOK)
}

func (d *Dispatcher) threadAlive(payload string) []byte {
	dot := strings.IndexByte(payload, '.')
	if dot < 0 {
		return []byte(replyErr)
	}
	threadID := decodeHex(payload[dot+1:])
	for _, tid := range d.view.Threads() {
		if tid == threadID {
			return []byte(replyOK)
		}
	}
	return []byte(replyErr)
}

func (d *Dispatcher) readMemory(payload string) []byte {
	comma := strings.IndexByte(payload, ',')
	if comma < 0 {
		return []byte(replyErr)
	}
	address := decodeHex(payload[:comma])
	length := decodeHex(payload[comma+1:])
	if length >= constants.MemoryScratchSize {
		return []byte(replyErr)
	}

	target := d.view.Target()
	if target == nil {
		return []byte(replyErr)
	}
	buf := make([]byte, length)
	if err := target.ReadMemory(address, buf); err != nil {
		return []byte(replyErr)
	}
	return appendHex(nil, buf)
}

func (d *Dispatcher) writeMemory(payload string) []byte {
	comma := strings.IndexByte(payload, ',')
	if comma < 0 {
		return []byte(replyErr)
	}
	colon := strings.IndexByte(payload[comma+1:], ':')
	if colon < 0 {
		return []byte(replyErr)
	}
	colon += comma + 1

	address := decodeHex(payload[:comma])
	length := decodeHex(payload[comma+1 : colon])
	if length >= constants.MemoryScratchSize {
		return []byte(replyErr)
	}

	target := d.view.Target()
	if target == nil {
		return []byte(replyErr)
	}
	data := hexToMemory(payload[colon+1:])
	if uint64(len(data)) < length {
		return []byte(replyErr)
	}
	if err := target.WriteMemory(address, data[:length]); err != nil {
		return []byte(replyErr)
	}
	return []byte(replyOK)
}

func (d *Dispatcher) setBreak(payload string) []byte {
	if d.engine == nil {
		return []byte(replyErr)
	}
	kind, address, length, ok := parseZ(payload)
	if !ok {
		return []byte(replyErr)
	}

	read, write := watchFlags(kind)
	if err := d.engine.SetBreakpoint(kind, address, length, read, write); err != nil {
		if d.obs != nil {
			d.obs.ObserveError("breakpoint_set")
		}
		return []byte(replyErr)
	}
	if d.obs != nil {
		d.obs.ObserveBreakpointSet(breakpointKindName(kind))
	}
	return []byte(replyOK)
}

func (d *Dispatcher) clearBreak(payload string) []byte {
	if d.engine == nil {
		return []byte(replyErr)
	}
	kind, address, _, ok := parseZ(payload)
	if !ok {
		return []byte(replyErr)
	}
	if err := d.engine.ClearBreakpoint(kind, address); err != nil {
		return []byte(replyErr)
	}
	if d.obs != nil {
		d.obs.ObserveBreakpointCleared(breakpointKindName(kind))
	}
	return []byte(replyOK)
}

// watchFlags maps a Z/z kind to the read/write flags Engine.SetBreakpoint
// expects; non-watch kinds ignore both.
func watchFlags(kind breakpoint.Kind) (read, write bool) {
	switch kind {
	case breakpoint.KindWatchWrite:
		return false, true
	case breakpoint.KindWatchRead:
		return true, false
	case breakpoint.KindWatchAccess:
		return true, true
	default:
		return false, false
	}
}

func breakpointKindName(kind breakpoint.Kind) string {
	switch kind {
	case breakpoint.KindSoftware:
		return "software"
	case breakpoint.KindHardware:
		return "hardware"
	case breakpoint.KindWatchWrite:
		return "watch-write"
	case breakpoint.KindWatchRead:
		return "watch-read"
	case breakpoint.KindWatchAccess:
		return "watch-access"
	default:
		return "unknown"
	}
}

// parseZ decodes the shared Z/z payload shape "<type>,<addr>,<len>".
func parseZ(payload string) (kind breakpoint.Kind, address, length uint64, ok bool) {
	if len(payload) < 3 || payload[0] < '0' || payload[0] > '4' || payload[1] != ',' {
		return 0, 0, 0, false
	}
	kind = breakpoint.Kind(payload[0] - '0')
	rest := payload[2:]

	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return 0, 0, 0, false
	}
	address = decodeHex(rest[:comma])
	length = decodeHex(rest[comma+1:])
	return kind, address, length, true
}

func (d *Dispatcher) cont() []byte {
	target := d.view.Target()
	if target == nil {
		return []byte(replyErr)
	}
	threadID := d.currentThread()
	if err := target.ContinueThread(threadID, threadID != d.lastThreadID); err != nil {
		return []byte(replyErr)
	}
	// Acknowledge the continue itself; the later stop is reported
	// separately by the debug event pump's own stop-reply packet.
	return []byte(replyOK)
}

func (d *Dispatcher) kill() []byte {
	target := d.view.Target()
	if target != nil {
		_ = target.TerminateProcess()
	}
	return nil
}

func (d *Dispatcher) v(payload string) []byte {
	if rest, ok := parsePrefix(payload, "Attach;"); ok {
		return d.vAttach(rest)
	}
	if rest, ok := parsePrefix(payload, "Cont"); ok {
		return d.vCont(rest)
	}
	if d.log != nil {
		d.log.Debug("unimplemented v command", "packet", payload)
	}
	return nil
}

func (d *Dispatcher) vAttach(payload string) []byte {
	if d.view.Attached() {
		return []byte(replyErr)
	}
	processID := decodeHex(payload)
	if processID == 0 {
		return []byte(replyErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.AttachTimeout)
	defer cancel()
	if err := d.view.Attach(ctx, processID); err != nil {
		return []byte(replyErr)
	}

	if d.EngineFactory != nil {
		engine, err := d.EngineFactory(d.view.Target())
		if err != nil {
			_ = d.view.Detach()
			return []byte(replyErr)
		}
		if d.engine != nil {
			_ = d.engine.Close()
		}
		d.engine = engine
	}

	// GetLastThreadId defaults to whichever thread the just-attached
	// process's thread table lists first; 0 only if the table is empty.
	d.lastThreadID = 0
	if threads := d.view.Threads(); len(threads) > 0 {
		d.lastThreadID = threads[0]
	}
	d.threadIDOverride = noThreadOverride
	return buildStopReply(procview.StopEvent{Kind: procview.StopSignal, Signal: gdbapi.SignalBreakpointTrap, ThreadID: d.lastThreadID, ProcessID: processID}, d.view.Target())
}

func (d *Dispatcher) vCont(payload string) []byte {
	if _, ok := parsePrefix(payload, "?"); ok {
		return []byte("vCont;c;C;s;S;")
	}

	rest, ok := parsePrefix(payload, ";")
	if !ok {
		return nil
	}

	modes, def := parseVCont(rest)
	threads := d.view.Threads()
	target := d.view.Target()
	if target == nil {
		return []byte(replyErr)
	}
	if d.engine == nil {
		return []byte(replyErr)
	}

	lastThread := d.lastThreadID
	var steppedThread uint64
	var stepped bool

	for _, tid := range threads {
		mode, explicit := modes[tid]
		if !explicit {
			mode = def
		}
		if mode != vContStep {
			continue
		}

		ctx, err := readContext(target, tid)
		if err != nil {
			continue
		}
		if err := d.engine.Step(tid, ctx.PC); err != nil {
			return []byte(replyErr)
		}
		steppedThread, stepped = tid, true
	}

	var err error
	if stepped && steppedThread == lastThread && def != vContContinue {
		err = target.ContinueThread(steppedThread, false)
	} else {
		err = target.ContinueThread(lastThread, true)
	}
	if err != nil {
		return []byte(replyErr)
	}
	// Acknowledge the continue itself, same as cont(): the event pump
	// reports the eventual stop in its own packet.
	return []byte(replyOK)
}

func (d *Dispatcher) q(payload string) []byte {
	if rest, ok := parsePrefix(payload, "Attached:"); ok {
		_ = rest
		return d.qAttached()
	}
	if _, ok := parsePrefix(payload, "C"); ok {
		return d.qC()
	}
	if rest, ok := parsePrefix(payload, "Rcmd,"); ok {
		return d.qRcmd(rest)
	}
	if rest, ok := parsePrefix(payload, "Supported:"); ok {
		_ = rest
		return d.qSupported()
	}
	if rest, ok := parsePrefix(payload, "Xfer:"); ok {
		return d.qXfer(rest)
	}
	if d.log != nil {
		d.log.Debug("unimplemented q command", "packet", payload)
	}
	return nil
}

func (d *Dispatcher) qAttached() []byte {
	if !d.view.Attached() {
		return []byte(replyErr)
	}
	return []byte("1")
}

func (d *Dispatcher) qC() []byte {
	if !d.view.Attached() {
		return []byte(replyErr)
	}
	return []byte(fmt.Sprintf("QCp%x.%x", d.view.ProcessID(), d.lastThreadID))
}

func (d *Dispatcher) qRcmd(payload string) []byte {
	command := string(hexToMemory(payload))
	reply := runMonitorCommand(d.view, command)
	return appendHex(nil, []byte(reply))
}

func (d *Dispatcher) qSupported() []byte {
	return []byte(fmt.Sprintf("PacketSize=%x;multiprocess+;qXfer:osdata:read+;qXfer:features:read+;qXfer:libraries:read+;qXfer:threads:read+;qXfer:exec-file:read+;swbreak+;hwbreak+;vContSupported+", constants.PacketBufferSize-1))
}

func (d *Dispatcher) qUpper(payload string) []byte {
	if _, ok := parsePrefix(payload, "StartNoAckMode"); ok {
		if d.SetNoAckMode != nil {
			d.SetNoAckMode(true)
		}
		return []byte(replyOK)
	}
	if d.log != nil {
		d.log.Debug("unimplemented Q command", "packet", payload)
	}
	return nil
}

func (d *Dispatcher) qXfer(payload string) []byte {
	if rest, ok := parsePrefix(payload, "osdata:read:"); ok {
		return d.qXferOsdataRead(rest)
	}
	if !d.view.Attached() {
		return []byte(replyErr)
	}
	if rest, ok := parsePrefix(payload, "features:read:"); ok {
		return d.qXferFeaturesRead(rest)
	}
	if rest, ok := parsePrefix(payload, "threads:read::"); ok {
		return d.qXferThreadsRead(rest)
	}
	if rest, ok := parsePrefix(payload, "libraries:read::"); ok {
		return d.qXferLibrariesRead(rest)
	}
	if _, ok := parsePrefix(payload, "exec-file:read:"); ok {
		return []byte("lprogram")
	}
	if d.log != nil {
		d.log.Debug("unimplemented qXfer", "packet", payload)
	}
	return []byte(replyErr)
}

func parseOffsetLength(payload string) (offset, length uint32, ok bool) {
	comma := strings.IndexByte(payload, ',')
	if comma < 0 {
		return 0, 0, false
	}
	return uint32(decodeHex(payload[:comma])), uint32(decodeHex(payload[comma+1:])), true
}

func (d *Dispatcher) qXferFeaturesRead(payload string) []byte {
	colon := strings.IndexByte(payload, ':')
	if colon < 0 {
		return []byte(replyErr)
	}
	name := payload[:colon]
	offset, length, ok := parseOffsetLength(payload[colon+1:])
	if !ok {
		return []byte(replyErr)
	}

	target := d.view.Target()
	is64Bit := target == nil || target.Is64Bit()
	doc, ok := xfer.FeatureDocument(name, is64Bit)
	if !ok {
		return []byte(replyErr)
	}
	if offset >= uint32(len(doc)) {
		return nil
	}
	end := offset + length
	if end > uint32(len(doc)) {
		end = uint32(len(doc))
	}
	return []byte(doc[offset:end])
}

func (d *Dispatcher) qXferThreadsRead(payload string) []byte {
	offset, length, ok := parseOffsetLength(payload)
	if !ok {
		return []byte(replyErr)
	}
	return d.annex.Read(xfer.AnnexThreads, offset, length, func() string {
		return xfer.ThreadsDocument(d.view.ProcessID(), d.view.Threads(), d.view.Target())
	})
}

func (d *Dispatcher) qXferLibrariesRead(payload string) []byte {
	offset, length, ok := parseOffsetLength(payload)
	if !ok {
		return []byte(replyErr)
	}
	return d.annex.Read(xfer.AnnexLibraries, offset, length, func() string {
		return xfer.LibrariesDocument(d.view.Modules())
	})
}

func (d *Dispatcher) qXferOsdataRead(payload string) []byte {
	rest, ok := parsePrefix(payload, "processes:")
	if !ok {
		return []byte(replyErr)
	}
	offset, length, ok := parseOffsetLength(rest)
	if !ok {
		return []byte(replyErr)
	}
	processes, err := d.pm.ListProcesses()
	if err != nil {
		processes = nil
	}
	return d.annex.Read(xfer.AnnexProcesses, offset, length, func() string {
		return xfer.ProcessesDocument(processes)
	})
}
