package rsp

import "sync"

// PacketCodec owns one Session's framing state in both directions: it
// reads complete packets via an embedded PacketReader, and serializes
// outgoing replies and asynchronous stop-reply notifications through a
// shared mutex so the two never interleave mid-frame on the wire.
type PacketCodec struct {
	reader *PacketReader
	write  func([]byte) error

	mu        sync.Mutex
	noAckMode bool
}

// NewPacketCodec builds a codec reading from buf and writing through
// write. write is typically Transport.Write wrapped to return a plain
// error.
func NewPacketCodec(buf *ReceiveBuffer, write func([]byte) error) *PacketCodec {
	return &PacketCodec{reader: NewPacketReader(buf), write: write}
}

// SetNoAckMode disables the per-packet `+`/`-` acknowledgment handshake,
// as negotiated by `QStartNoAckMode`.
func (c *PacketCodec) SetNoAckMode(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noAckMode = enabled
}

// ReadCommand blocks for the next complete command packet, acking it
// immediately (unless no-ack mode is active) before returning its
// payload. A returned ReadBreak means GDB sent ctrl-C; ReadEOF means the
// transport closed. A framing or checksum error is nacked and returned as
// ReadPacket with a nil payload alongside the error.
func (c *PacketCodec) ReadCommand() (ReadResult, []byte, error) {
	result, err := c.reader.NextPacket()
	if err != nil {
		// A checksum error gets a nack, not a connection teardown: GDB
		// will retransmit.
		c.mu.Lock()
		noAck := c.noAckMode
		c.mu.Unlock()
		if !noAck {
			_ = c.write([]byte{nackByte})
		}
		return ReadPacket, nil, err
	}

	if result != ReadPacket {
		return result, nil, nil
	}

	c.mu.Lock()
	noAck := c.noAckMode
	c.mu.Unlock()
	if !noAck {
		if err := c.write([]byte{ackByte}); err != nil {
			return ReadEOF, nil, err
		}
	}

	return ReadPacket, c.reader.Payload(), nil
}

// WriteReply frames and sends one command reply or asynchronous
// stop-reply packet. Safe to call from multiple goroutines (the command
// dispatcher and the debug event pump both send packets).
func (c *PacketCodec) WriteReply(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf := EncodePacket(make([]byte, 0, len(payload)+8), payload)
	return c.write(buf)
}
