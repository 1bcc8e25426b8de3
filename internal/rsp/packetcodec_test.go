package rsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePacketChecksum(t *testing.T) {
	out := EncodePacket(nil, []byte("OK"))
	assert.Equal(t, "$OK#9a", string(out))
}

func TestEncodePacketEscapesSpecialBytes(t *testing.T) {
	out := EncodePacket(nil, []byte{'}'})
	// '}' (0x7d) escapes to 0x7d 0x5d ('}' then ']'), checksum over both
	// escape bytes.
	assert.Equal(t, byte('$'), out[0])
	assert.Equal(t, byte('}'), out[1])
	assert.Equal(t, byte(']'), out[2])
	assert.Equal(t, byte('#'), out[3])
}

func feedString(t *testing.T, r *PacketReader, buf *ReceiveBuffer, s string) {
	t.Helper()
	go func() {
		buf.Write([]byte(s))
	}()
}

func TestPacketReaderSimplePacket(t *testing.T) {
	buf := NewReceiveBuffer()
	r := NewPacketReader(buf)

	feedString(t, r, buf, "$OK#9a")

	result, err := r.NextPacket()
	require.NoError(t, err)
	assert.Equal(t, ReadPacket, result)
	assert.Equal(t, "OK", string(r.Payload()))
}

func TestPacketReaderBreakByte(t *testing.T) {
	buf := NewReceiveBuffer()
	r := NewPacketReader(buf)

	feedString(t, r, buf, string([]byte{BreakByte}))

	result, err := r.NextPacket()
	require.NoError(t, err)
	assert.Equal(t, ReadBreak, result)
}

func TestPacketReaderChecksumMismatch(t *testing.T) {
	buf := NewReceiveBuffer()
	r := NewPacketReader(buf)

	feedString(t, r, buf, "$OK#00")

	_, err := r.NextPacket()
	assert.Error(t, err)
}

func TestPacketReaderEscapedByte(t *testing.T) {
	buf := NewReceiveBuffer()
	r := NewPacketReader(buf)

	// Payload is a single escaped '$' (0x24): escape byte 0x7d ('}'),
	// then 0x24^0x20=0x04. checksum = '}'+0x04 = 0x7d+0x04 = 0x81 -> "81"
	feedString(t, r, buf, "$}\x04#81")

	result, err := r.NextPacket()
	require.NoError(t, err)
	assert.Equal(t, ReadPacket, result)
	assert.Equal(t, []byte{'$'}, r.Payload())
}

func TestPacketReaderRunLength(t *testing.T) {
	buf := NewReceiveBuffer()
	r := NewPacketReader(buf)

	// "a*#" repeat: 'a' then run-length byte '#'->count = '#'(0x23)-29=6,
	// so payload is "a" + 6 copies of 'a' = "aaaaaaa" (7 chars).
	// checksum = 'a'(0x61) + '*'(0x2a) + '#'(0x23) = 0xae
	feedString(t, r, buf, "$a*##ae")

	result, err := r.NextPacket()
	require.NoError(t, err)
	assert.Equal(t, ReadPacket, result)
	assert.Equal(t, "aaaaaaa", string(r.Payload()))
}

func TestReceiveBufferReadWrite(t *testing.T) {
	buf := NewReceiveBuffer()

	done := make(chan struct{})
	go func() {
		buf.Write([]byte("hello"))
		close(done)
	}()

	assert.True(t, buf.WaitReadable())
	dst := make([]byte, 16)
	n, ok := buf.Read(dst)
	require.True(t, ok)
	assert.Equal(t, "hello", string(dst[:n]))
	<-done
}

func TestReceiveBufferInvalidate(t *testing.T) {
	buf := NewReceiveBuffer()
	buf.Invalidate()

	assert.False(t, buf.WaitReadable())
	assert.False(t, buf.Write([]byte("x")))
}
