// Package gdbstub implements a GDB Remote Serial Protocol debug server: one
// Session per accepted connection, dispatching commands against a
// ProcessView/breakpoint.Engine pair and pumping asynchronous stop-reply
// packets out of a DebugTarget's event stream. The top-level Serve loop
// mirrors the teacher's CreateAndServe entry point (backend.go): it accepts
// from one Listener and hands each connection its own independent worker.
package gdbstub

import (
	"context"
	"sync"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/breakpoint"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/constants"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/dispatch"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/procview"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/rsp"
)

// Session owns one GDB connection end to end: the transport, the RSP wire
// codec, the command dispatcher, and (once a target is attached) the
// background event pump translating debug events into stop replies.
//
// One Session serves exactly one client, matching spec.md's explicit
// single-client-at-a-time Non-goal; Serve starts a fresh Session per
// accepted connection but never runs two concurrently against the same
// ProcessManager's attach state in a way this package arbitrates — the
// caller's ProcessManager is responsible for rejecting a second Attach
// while the first is live, the same division of labor backend.go leaves to
// its control plane.
type Session struct {
	transport  interfaces.Transport
	buf        *rsp.ReceiveBuffer
	codec      *rsp.PacketCodec
	view       *procview.ProcessView
	dispatcher *dispatch.Dispatcher
	log        interfaces.Logger
	observer   interfaces.Observer
	layout     RegisterLayout

	pumpMu     sync.Mutex
	pumpCancel context.CancelFunc

	wg sync.WaitGroup
}

// NewSession builds a Session over transport, with pm supplying attach/
// module/thread/memory-map queries for whatever process the client later
// names via vAttach.
func NewSession(transport interfaces.Transport, pm interfaces.ProcessManager, opts Options) *Session {
	buf := rsp.NewReceiveBuffer()
	codec := rsp.NewPacketCodec(buf, func(p []byte) error {
		_, err := transport.Write(p)
		return err
	})
	view := procview.NewProcessView(pm)
	disp := dispatch.NewDispatcher(pm, view, nil, opts.logger(), opts.observer())
	disp.SetNoAckMode = codec.SetNoAckMode

	s := &Session{
		transport:  transport,
		buf:        buf,
		codec:      codec,
		view:       view,
		dispatcher: disp,
		log:        opts.logger(),
		observer:   opts.observer(),
		layout:     opts.registerLayout(),
	}
	disp.EngineFactory = s.buildEngine
	return s
}

// buildEngine is the Dispatcher's EngineFactory: it builds a
// breakpoint.Engine against the just-attached target, starting from the
// Session's configured RegisterLayout and backing off to smaller register
// counts if the target rejects it — the same "try until one fails" shape
// CountBreakPointRegisters uses against the real kernel, generalized over
// whatever DebugTarget.SetHardwareBreakPointOnCore/NewWatchpointTable
// reports.
func (s *Session) buildEngine(target interfaces.DebugTarget) (*breakpoint.Engine, error) {
	cfg := s.layout.engineConfig()

	var lastErr error
	for {
		engine, err := breakpoint.NewEngine(target, cfg)
		if err == nil {
			return engine, nil
		}
		lastErr = err

		shrunk := false
		if cfg.HardwareSlots > 1 {
			cfg.HardwareSlots /= 2
			shrunk = true
		}
		if cfg.WatchSlots > 1 {
			cfg.WatchSlots /= 2
			shrunk = true
		}
		if !shrunk {
			return nil, lastErr
		}
	}
}

// Run drives the Session until the transport closes or ctx is canceled:
// one goroutine pumping raw bytes off the transport into the receive
// buffer, and the calling goroutine running the command loop. Run blocks
// until both finish.
func (s *Session) Run(ctx context.Context) error {
	s.wg.Add(1)
	go s.receiveLoop()

	err := s.commandLoop(ctx)

	_ = s.transport.Close()
	s.buf.Invalidate()
	s.stopEventPump()
	s.wg.Wait()
	return err
}

// receiveLoop copies raw bytes from the transport into the ReceiveBuffer,
// the single writer side of the rendezvous the PacketCodec reads from.
func (s *Session) receiveLoop() {
	defer s.wg.Done()

	chunk := make([]byte, constants.ReceiveBufferSize)
	for {
		n, err := s.transport.Read(chunk)
		if n > 0 {
			if !s.buf.Write(chunk[:n]) {
				return
			}
			if !s.buf.WaitWritable() {
				return
			}
		}
		if err != nil {
			s.buf.Invalidate()
			return
		}
	}
}

// commandLoop is the main per-session loop: read one command, dispatch it,
// write the reply, and start/stop the debug event pump whenever Dispatch's
// call crosses an attach/detach boundary.
func (s *Session) commandLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, payload, err := s.codec.ReadCommand()
		switch result {
		case rsp.ReadEOF:
			return err

		case rsp.ReadBreak:
			if target := s.view.Target(); target != nil {
				if err := target.BreakProcess(); err != nil {
					s.debugError("protocol", err)
				}
			}
			continue
		}

		if payload == nil {
			continue
		}
		s.observer.ObservePacketReceived(len(payload))

		wasAttached := s.view.Attached()
		reply := s.dispatcher.Dispatch(payload)
		nowAttached := s.view.Attached()

		switch {
		case !wasAttached && nowAttached:
			s.startEventPump(ctx)
		case wasAttached && !nowAttached:
			s.stopEventPump()
		}

		if reply == nil {
			continue
		}
		if err := s.codec.WriteReply(reply); err != nil {
			return err
		}
		s.observer.ObservePacketSent(len(reply))
	}
}

// startEventPump launches the background goroutine translating target's
// debug events into stop-reply packets, canceled by stopEventPump on
// detach or session teardown.
func (s *Session) startEventPump(ctx context.Context) {
	target := s.view.Target()
	if target == nil {
		return
	}

	pumpCtx, cancel := context.WithCancel(ctx)

	s.pumpMu.Lock()
	s.pumpCancel = cancel
	s.pumpMu.Unlock()

	pump := procview.NewEventPump(target, s.dispatcher.Engine(), s.view, s.log, s.view.ProcessID())
	s.wg.Add(1)
	go s.runEventPump(pumpCtx, pump)
}

func (s *Session) stopEventPump() {
	s.pumpMu.Lock()
	cancel := s.pumpCancel
	s.pumpCancel = nil
	s.pumpMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// runEventPump drains pump until it errors (context canceled, transport
// gone) or the target exits, writing each translated stop reply straight
// through the Session's PacketCodec so it never interleaves with a
// concurrent command reply.
func (s *Session) runEventPump(ctx context.Context, pump *procview.EventPump) {
	defer s.wg.Done()

	for {
		ev, err := pump.Next(ctx)
		if err != nil {
			return
		}

		reply := s.dispatcher.HandleStopEvent(ev)
		if err := s.codec.WriteReply(reply); err != nil {
			return
		}
		s.observer.ObservePacketSent(len(reply))

		if ev.Kind == procview.StopExit || ev.Kind == procview.StopKilled {
			_ = s.view.Detach()
			return
		}
	}
}

func (s *Session) debugError(code string, err error) {
	s.observer.ObserveError(code)
	if s.log != nil {
		s.log.Warn("session error", "code", code, "error", err)
	}
}

// Serve accepts connections from ln until ctx is canceled or Accept
// returns a non-context error, running one Session per connection on its
// own goroutine. It never returns nil; ctx cancellation surfaces as
// ctx.Err().
func Serve(ctx context.Context, ln interfaces.Listener, pm interfaces.ProcessManager, opts Options) error {
	for {
		transport, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		session := NewSession(transport, pm, opts)
		go func() {
			if err := session.Run(ctx); err != nil && opts.Logger != nil {
				opts.Logger.Debug("session ended", "remote", transport.RemoteAddr(), "error", err)
			}
		}()
	}
}
