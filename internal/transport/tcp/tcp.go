// Package tcp implements the GDB transport over a plain TCP listener, the
// default binding for both the GdbServer and GdbDebugLog endpoints
// (spec.md §6).
package tcp

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// Transport wraps one accepted *net.TCPConn as an interfaces.Transport.
type Transport struct {
	conn *net.TCPConn
}

// NewTransport wraps conn, disabling Nagle's algorithm so small RSP
// packets aren't held back waiting to coalesce — GDB expects ack bytes
// and replies to arrive promptly.
func NewTransport(conn *net.TCPConn) *Transport {
	_ = conn.SetNoDelay(true)
	return &Transport{conn: conn}
}

func (t *Transport) Read(p []byte) (int, error)  { return t.conn.Read(p) }
func (t *Transport) Write(p []byte) (int, error) { return t.conn.Write(p) }
func (t *Transport) Close() error                { return t.conn.Close() }
func (t *Transport) RemoteAddr() string          { return t.conn.RemoteAddr().String() }

// Listener wraps a *net.TCPListener bound with SO_REUSEADDR, so a restarted
// daemon doesn't fail to rebind a port still draining TIME_WAIT
// connections from a prior session.
type Listener struct {
	ln *net.TCPListener
}

// Listen binds addr (e.g. "0.0.0.0:22225") with SO_REUSEADDR set on the
// listening socket before bind(2), the way a long-running daemon needs to
// in order to survive a quick restart.
func Listen(addr string) (*Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln.(*net.TCPListener)}, nil
}

// Accept blocks for the next incoming connection, honoring ctx
// cancellation by closing the listener out from under a blocked
// AcceptTCP.
func (l *Listener) Accept(ctx context.Context) (interfaces.Transport, error) {
	type result struct {
		conn *net.TCPConn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := l.ln.AcceptTCP()
		ch <- result{conn, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return NewTransport(r.conn), nil
	case <-ctx.Done():
		_ = l.ln.Close()
		<-ch
		return nil, ctx.Err()
	}
}

func (l *Listener) Close() error { return l.ln.Close() }
func (l *Listener) Addr() string { return l.ln.Addr().String() }

var (
	_ interfaces.Transport = (*Transport)(nil)
	_ interfaces.Listener  = (*Listener)(nil)
)
