// Package tunnel implements the GDB transport over a local Unix-domain
// "tunnel" socket — the original's inter-process channel to a co-located
// client instead of raw TCP, named by a fixed endpoint string such as
// constants.TunnelGdbEndpoint (spec.md §6). A name beginning with "@" binds
// in Linux's abstract socket namespace rather than the filesystem.
package tunnel

import (
	"context"
	"net"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
)

// Transport wraps one accepted *net.UnixConn as an interfaces.Transport.
type Transport struct {
	conn *net.UnixConn
}

// NewTransport wraps conn.
func NewTransport(conn *net.UnixConn) *Transport {
	return &Transport{conn: conn}
}

func (t *Transport) Read(p []byte) (int, error)  { return t.conn.Read(p) }
func (t *Transport) Write(p []byte) (int, error) { return t.conn.Write(p) }
func (t *Transport) Close() error                { return t.conn.Close() }
func (t *Transport) RemoteAddr() string {
	if addr := t.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "tunnel"
}

// Listener wraps a *net.UnixListener bound to a named tunnel endpoint.
type Listener struct {
	ln   *net.UnixListener
	name string
}

// Listen binds name (e.g. constants.TunnelGdbEndpoint) as a Unix-domain
// socket. A leading "@" selects Linux's abstract namespace, avoiding a
// stale socket file left behind by a crashed prior daemon.
func Listen(name string) (*Listener, error) {
	addr, err := net.ResolveUnixAddr("unix", name)
	if err != nil {
		return nil, err
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, name: name}, nil
}

// Accept blocks for the next incoming connection, honoring ctx
// cancellation by closing the listener out from under a blocked
// AcceptUnix.
func (l *Listener) Accept(ctx context.Context) (interfaces.Transport, error) {
	type result struct {
		conn *net.UnixConn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := l.ln.AcceptUnix()
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
func (l *Listener) Addr() string { return l.name }

var (
	_ interfaces.Transport = (*Transport)(nil)
	_ interfaces.Listener  = (*Listener)(nil)
)
