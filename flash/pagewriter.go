// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package flash

import (
	"time"

	"github.com/michpro/cryptboot/internal/mmio"
)

// NVMCTRL register offsets and bits, named after processFirmwareData's
// NVMCTRL.STATUS/NVMCTRL.CTRLA handling.
const (
	ctrlAddr   = 0
	statusAddr = 1

	fbusy          = 0
	cmdPageEraseWrite = 1
)

// Timeout bounds the busy-wait this driver performs before issuing a
// new page command.
const Timeout = 50 * time.Millisecond

// PageWriter implements Writer over an injected mmio.Bus standing in
// for the internal program-memory controller: it busy-waits for the
// "not busy" status before every command, matching `while
// (NVMCTRL.STATUS & NVMCTRL_FBUSY_bm);` preceding the protected write
// to CTRLA in processFirmwareData.
type PageWriter struct {
	bus *mmio.Bus
	mem []byte
}

// NewPageWriter creates a PageWriter backed by bus, committing pages
// into a flat memory image of size bytes.
func NewPageWriter(bus *mmio.Bus, size int) *PageWriter {
	return &PageWriter{bus: bus, mem: make([]byte, size)}
}

// Commit implements Writer.
func (w *PageWriter) Commit(addr uint32, page []byte) {
	w.bus.WaitFor(Timeout, statusAddr, fbusy, 1, 0)

	w.bus.Set(statusAddr, fbusy)
	copy(w.mem[addr:int(addr)+len(page)], page)
	w.bus.SetN(ctrlAddr, 0, 0xFF, cmdPageEraseWrite)
	w.bus.Clear(statusAddr, fbusy)
}

// Image returns the committed flat memory image, for tests and
// host-side verification tooling.
func (w *PageWriter) Image() []byte {
	return w.mem
}
