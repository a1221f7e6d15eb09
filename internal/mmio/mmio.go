// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package mmio provides the same Get/Set/Clear/SetN register-access
// shape as tamago's internal/reg, but backed by an injected byte-wide
// register file instead of unsafe.Pointer memory-mapped I/O. The
// hardware collaborator packages (twi, flash, resetcause) use it so
// they stay unit-testable on a hosted GOOS, the way tamago's own
// register helpers are only exercisable when cross-compiled for actual
// silicon.
package mmio

import "time"

// Bus is a flat array of 8-bit registers addressed by offset, standing
// in for a peripheral's register block.
type Bus struct {
	regs []byte
}

// NewBus allocates a Bus with n addressable registers, all zeroed.
func NewBus(n int) *Bus {
	return &Bus{regs: make([]byte, n)}
}

// Get reads the mask-wide field at bit position pos of register addr.
func (b *Bus) Get(addr uint32, pos int, mask int) byte {
	return (b.regs[addr] >> uint(pos)) & byte(mask)
}

// Set sets bit pos of register addr.
func (b *Bus) Set(addr uint32, pos int) {
	b.regs[addr] |= 1 << uint(pos)
}

// Clear clears bit pos of register addr.
func (b *Bus) Clear(addr uint32, pos int) {
	b.regs[addr] &^= 1 << uint(pos)
}

// SetN writes val into the mask-wide field at bit position pos of
// register addr, leaving the other bits untouched.
func (b *Bus) SetN(addr uint32, pos int, mask int, val byte) {
	b.regs[addr] = (b.regs[addr] &^ (byte(mask) << uint(pos))) | ((val & byte(mask)) << uint(pos))
}

// Read returns the raw byte at addr.
func (b *Bus) Read(addr uint32) byte {
	return b.regs[addr]
}

// Write stores val at addr.
func (b *Bus) Write(addr uint32, val byte) {
	b.regs[addr] = val
}

// WaitFor polls register addr until the mask-wide field at pos equals
// val, or timeout elapses, matching reg.WaitFor16's busy-wait contract.
// With a zero timeout it returns after the first poll if the field
// already matches, and otherwise polls once more and returns as soon as
// the clock has passed the start time.
func (b *Bus) WaitFor(timeout time.Duration, addr uint32, pos int, mask int, val byte) bool {
	deadline := time.Now().Add(timeout)

	for {
		if b.Get(addr, pos, mask) == val {
			return true
		}
		if time.Now().After(deadline) {
			return b.Get(addr, pos, mask) == val
		}
	}
}
