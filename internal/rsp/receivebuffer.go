// Package rsp implements the GDB Remote Serial Protocol wire layer: the
// single-slot staging buffer between a Transport's receive goroutine and
// the packet reader, and the packet codec (framing, checksum, ack/no-ack,
// escape handling) built on top of it.
package rsp

import "sync"

// ReceiveBuffer is a single-slot rendezvous between one writer (the
// Transport's receive goroutine, which reads raw bytes off the wire as
// soon as they arrive) and one reader (the packet codec, which consumes a
// chunk at a time while reassembling packets). Write overwrites the slot
// and wakes any waiting reader; Read drains it and wakes any waiting
// writer. Only one chunk is ever buffered at a time, matching the
// transport's physical single read-ahead.
type ReceiveBuffer struct {
	mu       sync.Mutex
	readable *sync.Cond
	writable *sync.Cond

	data   []byte
	offset int
	valid  bool
}

// NewReceiveBuffer returns an empty, valid ReceiveBuffer.
func NewReceiveBuffer() *ReceiveBuffer {
	b := &ReceiveBuffer{valid: true}
	b.readable = sync.NewCond(&b.mu)
	b.writable = sync.NewCond(&b.mu)
	return b
}

// Write stages src as the buffer's sole readable chunk, replacing
// whatever was there. Returns false if the buffer has been invalidated.
func (b *ReceiveBuffer) Write(src []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.valid {
		return false
	}

	b.data = append(b.data[:0], src...)
	b.offset = 0
	b.readable.Signal()
	return true
}

// WaitWritable blocks until the slot has been fully drained (or the
// buffer is invalidated), so the caller can safely Write again without
// clobbering unread data.
func (b *ReceiveBuffer) WaitWritable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.valid && b.offset < len(b.data) {
		b.writable.Wait()
	}
	return b.valid
}

// Read copies up to len(dst) bytes out of the staged chunk, advancing the
// internal offset. Returns 0, false if nothing is staged or the buffer
// has been invalidated — callers should WaitReadable first.
func (b *ReceiveBuffer) Read(dst []byte) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.valid {
		return 0, false
	}

	remaining := len(b.data) - b.offset
	if remaining <= 0 {
		return 0, false
	}

	n := copy(dst, b.data[b.offset:])
	b.offset += n

	if b.offset >= len(b.data) {
		b.data = b.data[:0]
		b.offset = 0
		b.writable.Signal()
	}

	return n, true
}

// WaitReadable blocks until a chunk is staged (or the buffer is
// invalidated).
func (b *ReceiveBuffer) WaitReadable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.valid && b.offset >= len(b.data) {
		b.readable.Wait()
	}
	return b.valid
}

// Invalidate permanently closes the buffer and wakes any blocked
// Read/Write/Wait* callers, which then observe valid=false.
func (b *ReceiveBuffer) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.valid = false
	b.readable.Broadcast()
	b.writable.Broadcast()
}
