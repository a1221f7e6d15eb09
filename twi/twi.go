// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package twi implements transport.Device over an AVR-style two-wire
// (TWI/I2C) controller, adapted from twi_1.c's register sequencing to
// the mmio.Bus indirection so it runs on a hosted GOOS, the way
// tamago's soc/nxp/i2c.I2C only runs cross-compiled for real silicon.
package twi

import (
	"sync"
	"time"

	"github.com/michpro/cryptboot/internal/mmio"
)

// TWI0 register offsets and status bits, named after twi_1.c/twi_1.h.
const (
	MCTRLA = 0
	MCTRLB = 1
	MSTATUS = 2
	MADDR   = 3
	MDATA   = 4

	ctrlaEnable = 0

	ctrlbFlush   = 3
	ctrlbAckAct  = 2
	ctrlbCmdStop = 0 // MCMD field bit 0, written alongside bit 1 for STOP

	statusBusState  = 0 // 2-bit field, bits 0-1
	statusBusOwner  = 1
	statusRIF       = 7
	statusWIF       = 6
	statusRXACK     = 4
)

const (
	busStateIdle  = 0x01
	busStateOwner = 0x02
	busStateBusy  = 0x03
)

// Timeout bounds every busy-wait loop this driver performs.
const Timeout = 100 * time.Millisecond

// Controller is a two-wire bus master addressing one external memory
// device at a time.
type Controller struct {
	sync.Mutex

	bus *mmio.Bus
}

// NewController wires a Controller to bus.
func NewController(bus *mmio.Bus) *Controller {
	c := &Controller{bus: bus}
	c.bus.Write(MCTRLB, 1<<ctrlbFlush)
	c.bus.Write(MSTATUS, (1<<statusRIF)|(1<<statusWIF))
	c.bus.SetN(MSTATUS, statusBusState, 0x03, busStateIdle)
	c.bus.Set(MCTRLA, ctrlaEnable)
	return c
}

func (c *Controller) start(addr uint8) byte {
	if c.bus.Get(MSTATUS, statusBusState, 0x03) != busStateBusy {
		c.bus.Clear(MCTRLB, ctrlbAckAct)
		c.bus.Write(MADDR, addr)

		bit := statusWIF
		if addr&0x01 != 0 {
			bit = statusRIF
		}
		c.bus.WaitFor(Timeout, MSTATUS, bit, 1, 1)
	}

	return c.bus.Read(MSTATUS)
}

func (c *Controller) stop() {
	c.bus.Set(MCTRLB, ctrlbCmdStop)
	c.bus.Set(MCTRLB, ctrlbCmdStop+1)
}

func (c *Controller) write(data byte) {
	c.bus.WaitFor(Timeout, MSTATUS, statusWIF, 1, 1)
	c.bus.Write(MDATA, data)
}

func (c *Controller) read(sendACK bool) byte {
	c.bus.WaitFor(Timeout, MSTATUS, statusRIF, 1, 1)

	if sendACK {
		c.bus.Clear(MCTRLB, ctrlbAckAct)
	} else {
		c.bus.Set(MCTRLB, ctrlbAckAct)
	}

	return c.bus.Read(MDATA)
}

// Probe reports whether a device at addr acknowledges a start
// condition, matching isDeviceOnBus.
func (c *Controller) Probe(addr uint8) bool {
	c.Lock()
	defer c.Unlock()

	status := c.start(addr << 1)
	c.stop()

	return status&(1<<statusRXACK) == 0
}

// BeginRead starts a sequential read at memOffset on addr, matching
// twiBeginRead: a write phase selecting the memory address, followed
// by a repeated start into read mode.
func (c *Controller) BeginRead(addr uint8, memOffset uint32) {
	c.Lock()
	defer c.Unlock()

	c.start(addr << 1)
	c.write(byte(memOffset >> 8))
	c.write(byte(memOffset))
	c.start((addr << 1) | 0x01)
}

// ReadByte returns the next byte, matching twiRead's ACK/NACK control.
func (c *Controller) ReadByte(ack bool) byte {
	c.Lock()
	defer c.Unlock()

	return c.read(ack)
}

// Stop releases the bus, matching twiStop.
func (c *Controller) Stop() {
	c.Lock()
	defer c.Unlock()

	c.stop()
}

// BlockRead reads len(out) bytes starting at memOffset, NACKing the
// final byte, matching twiEepromRead.
func (c *Controller) BlockRead(addr uint8, memOffset uint32, out []byte) {
	c.BeginRead(addr, memOffset)

	for i := range out {
		out[i] = c.ReadByte(i < len(out)-1)
	}

	c.Stop()
}

// Release disables the TWI peripheral, matching twiRelease.
func (c *Controller) Release() {
	c.Lock()
	defer c.Unlock()

	c.bus.Clear(MCTRLA, ctrlaEnable)
}
