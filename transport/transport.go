// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package transport declares the external-memory transport collaborator
// contract (spec §6) and a sequential-read abstraction built on top of
// it: address seek followed by a byte stream with ACK/NACK control of the
// last byte.
package transport

// Device is implemented by the two-wire transport to the external memory
// holding the descriptor and firmware body.
type Device interface {
	// Probe reports whether a device acknowledges addr on the bus.
	Probe(addr uint8) bool
	// BeginRead addresses the device and leaves the bus in reading mode
	// at memOffset.
	BeginRead(addr uint8, memOffset uint32)
	// ReadByte returns the next byte, sending ACK (ack=true, continue) or
	// NACK (ack=false, this is the last byte the caller wants).
	ReadByte(ack bool) byte
	// Stop releases the bus at the end of a read.
	Stop()
	// BlockRead is a convenience wrapping BeginRead/ReadByte/Stop that
	// NACKs the last byte of out.
	BlockRead(addr uint8, memOffset uint32, out []byte)
	// Release disables the transport peripheral before the application
	// starts.
	Release()
}

// Reader streams bytes sequentially from a Device starting at a given
// address, tracking how many bytes remain so it can NACK the final byte
// as the protocol requires.
type Reader struct {
	dev       Device
	addr      uint8
	remaining int
	started   bool
}

// NewReader begins a sequential read of n bytes from dev at addr,
// starting at memOffset. It calls dev.BeginRead immediately, so the bus
// is already in reading mode when NewReader returns.
func NewReader(dev Device, addr uint8, memOffset uint32, n int) *Reader {
	r := &Reader{dev: dev, addr: addr, remaining: n}
	dev.BeginRead(addr, memOffset)
	r.started = true
	return r
}

// ReadByte returns the next byte of the stream, NACKing automatically
// when it is the last byte requested at construction time.
func (r *Reader) ReadByte() byte {
	if r.remaining <= 0 {
		panic("transport: ReadByte called past end of stream")
	}

	ack := r.remaining > 1
	r.remaining--

	return r.dev.ReadByte(ack)
}

// Remaining reports how many bytes are left to read.
func (r *Reader) Remaining() int {
	return r.remaining
}

// Stop releases the bus. Safe to call even if bytes remain unread.
func (r *Reader) Stop() {
	if r.started {
		r.dev.Stop()
		r.started = false
	}
}
