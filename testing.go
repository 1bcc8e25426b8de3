package gdbstub

import (
	"context"
	"net"
	"time"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/faketarget"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/rsp"
)

// pipeTransport adapts one end of a net.Pipe to interfaces.Transport, the
// connection a Harness hands a Session in place of a real socket.
type pipeTransport struct {
	net.Conn
}

func (p pipeTransport) RemoteAddr() string { return p.Conn.RemoteAddr().String() }

// Harness wires a Session over an in-process pipe against a
// faketarget.Manager, so a test can drive a complete GDB session — attach,
// breakpoints, memory, stop replies — without a real socket or a real OS
// debug API. Mirrors the role the teacher's MockBackend plays for queue
// runner tests, one level up the stack.
type Harness struct {
	// Manager is the faketarget.Manager backing vAttach; call AddProcess
	// on it before sending "vAttach;<hex pid>".
	Manager *faketarget.Manager

	// Session is the live Session under test, exposed for assertions
	// against its ProcessView/Dispatcher state.
	Session *Session

	client net.Conn
	cancel context.CancelFunc
	done   chan error
}

// NewHarness builds a Harness around a fresh Session.Run goroutine, with
// pm supplying attach targets and opts governing the logger/observer/
// register layout.
func NewHarness(pm *faketarget.Manager, opts Options) *Harness {
	clientConn, serverConn := net.Pipe()
	session := NewSession(pipeTransport{serverConn}, pm, opts)

	ctx, cancel := context.WithCancel(context.Background())
	h := &Harness{
		Manager: pm,
		Session: session,
		client:  clientConn,
		cancel:  cancel,
		done:    make(chan error, 1),
	}
	go func() { h.done <- session.Run(ctx) }()
	return h
}

// SendRaw writes raw bytes straight to the session's transport, for tests
// exercising framing/checksum/ack behavior below the command layer.
func (h *Harness) SendRaw(frame []byte) error {
	_, err := h.client.Write(frame)
	return err
}

// SendCommand frames payload as a valid `$payload#cc` packet and sends it.
func (h *Harness) SendCommand(payload string) error {
	return h.SendRaw(rsp.EncodePacket(nil, []byte(payload)))
}

// Break sends the out-of-band ctrl-C byte GDB uses to request a stop.
func (h *Harness) Break() error {
	_, err := h.client.Write([]byte{rsp.BreakByte})
	return err
}

// ReadRaw reads whatever the session has written so far (an ack byte, a
// framed reply, or both), blocking until at least one byte arrives.
func (h *Harness) ReadRaw(buf []byte) (int, error) {
	return h.client.Read(buf)
}

// ReadReply reads and unframes exactly one `$...#cc` reply packet,
// discarding any leading ack/nack bytes.
func (h *Harness) ReadReply() (string, error) {
	buf := make([]byte, 4096)
	var acc []byte
	for {
		n, err := h.client.Read(buf)
		if err != nil {
			return "", err
		}
		acc = append(acc, buf[:n]...)
		if payload, ok := extractFramedPayload(acc); ok {
			return payload, nil
		}
	}
}

// extractFramedPayload scans buf for one complete `$...#cc` frame and
// returns its unescaped payload, ignoring any leading ack/nack bytes and
// any bytes after the frame.
func extractFramedPayload(buf []byte) (string, bool) {
	start := -1
	for i, b := range buf {
		if b == '$' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	for i := start + 1; i < len(buf); i++ {
		if buf[i] == '#' && i+2 < len(buf) {
			payload := buf[start+1 : i]
			return unescapePayload(payload), true
		}
	}
	return "", false
}

func unescapePayload(payload []byte) string {
	out := make([]byte, 0, len(payload))
	for i := 0; i < len(payload); i++ {
		if payload[i] == '}' && i+1 < len(payload) {
			i++
			out = append(out, payload[i]^0x20)
			continue
		}
		out = append(out, payload[i])
	}
	return string(out)
}

// Close shuts down the harness's client connection and waits (up to two
// seconds) for the Session to finish.
func (h *Harness) Close() error {
	h.cancel()
	_ = h.client.Close()
	select {
	case err := <-h.done:
		return err
	case <-time.After(2 * time.Second):
		return nil
	}
}
