package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(addr string) (net.Conn, error) {
	return net.Dial("tcp", addr)
}

func TestListenAcceptRoundTrip(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	acceptErr := make(chan error, 1)
	var serverSide interface {
		Read([]byte) (int, error)
		Write([]byte) (int, error)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		conn, err := ln.Accept(ctx)
		if err != nil {
			acceptErr <- err
			return
		}
		serverSide = conn
		acceptErr <- nil
	}()

	clientConn, err := dial(ln.Addr())
	require.NoError(t, err)
	defer clientConn.Close()

	require.NoError(t, <-acceptErr)
	require.NotNil(t, serverSide)

	_, err = clientConn.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := serverSide.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
}

func TestAcceptHonorsContextCancellation(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ln.Accept(ctx)
	assert.Error(t, err)
}
