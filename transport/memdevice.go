// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package transport

// MemDevice is an in-memory Device, standing in for the external serial
// memory in tests and host-side tooling (e.g. package pack).
type MemDevice struct {
	Addr    uint8
	Data    []byte
	Present bool

	pos      uint32
	released bool
}

// NewMemDevice creates a present MemDevice answering at addr, backed by
// data.
func NewMemDevice(addr uint8, data []byte) *MemDevice {
	return &MemDevice{Addr: addr, Data: data, Present: true}
}

// Probe implements Device.
func (m *MemDevice) Probe(addr uint8) bool {
	return m.Present && addr == m.Addr
}

// BeginRead implements Device.
func (m *MemDevice) BeginRead(addr uint8, memOffset uint32) {
	m.pos = memOffset
}

// ReadByte implements Device. The ack argument is ignored: every call
// returns the byte at the current position and advances it. Past the
// end of Data it returns 0xFF and the position stays put.
func (m *MemDevice) ReadByte(ack bool) byte {
	if int(m.pos) >= len(m.Data) {
		return 0xFF
	}

	b := m.Data[m.pos]
	m.pos++

	return b
}

// Stop implements Device.
func (m *MemDevice) Stop() {}

// BlockRead implements Device.
func (m *MemDevice) BlockRead(addr uint8, memOffset uint32, out []byte) {
	m.BeginRead(addr, memOffset)

	for i := range out {
		last := i == len(out)-1
		out[i] = m.ReadByte(!last)
	}

	m.Stop()
}

// Release implements Device.
func (m *MemDevice) Release() {
	m.released = true
}

// Released reports whether Release has been called.
func (m *MemDevice) Released() bool {
	return m.released
}
