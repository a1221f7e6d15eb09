// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package flash models the internal program-memory page-erase-write
// peripheral and the page-buffered commit discipline the install
// pipeline relies on: fill the page buffer, then erase-write the whole
// page, waiting for the "not busy" flag both before issuing a new command
// and after the previous one completes.
package flash

// Writer is implemented by the internal page-erase-write peripheral.
// Commit must not return until the peripheral has cleared its busy flag.
type Writer interface {
	// Commit erases and writes the page containing addr using the
	// contents of page (len(page) == page size), then busy-waits for
	// completion.
	Commit(addr uint32, page []byte)
}

// PageBuffer accumulates bytes at sequentially increasing addresses and
// commits a page through a Writer whenever a page boundary is crossed or
// Flush is called. Bytes of a page that are never written keep the fill
// byte passed to NewPageBuffer on the first page, and 0xFF (erased
// flash) on every later page.
type PageBuffer struct {
	w        Writer
	pageSize int
	base     uint32 // address of the first byte of the current page
	buf      []byte
	filled   int // bytes written into buf so far
	next     uint32
}

// NewPageBuffer creates a PageBuffer writing through w, with pages of
// pageSize bytes, starting at startAddr. fill sets the buffer's initial
// contents (commonly 0xFF, matching erased flash) before any data is
// written into it.
func NewPageBuffer(w Writer, pageSize int, startAddr uint32, fill byte) *PageBuffer {
	pb := &PageBuffer{
		w:        w,
		pageSize: pageSize,
		base:     startAddr - startAddr%uint32(pageSize),
		buf:      make([]byte, pageSize),
		next:     startAddr,
	}

	for i := range pb.buf {
		pb.buf[i] = fill
	}

	pb.filled = int(startAddr - pb.base)

	return pb
}

// Write appends data at the current address, committing the page to the
// Writer whenever the write crosses a page boundary. It does not flush a
// trailing partial page; call Flush for that.
func (pb *PageBuffer) Write(data []byte) {
	for len(data) > 0 {
		offset := int(pb.next-pb.base) % pb.pageSize
		n := pb.pageSize - offset

		if n > len(data) {
			n = len(data)
		}

		copy(pb.buf[offset:offset+n], data[:n])

		pb.next += uint32(n)
		if offset+n > pb.filled {
			pb.filled = offset + n
		}

		data = data[n:]

		if offset+n == pb.pageSize {
			pb.commit()
		}
	}
}

// Flush commits the current page even if it is only partially filled,
// covering the case where firmwareSize is not a multiple of the flash
// page size (spec §4.7 step 5, §8 boundary behavior).
func (pb *PageBuffer) Flush() {
	if pb.filled > 0 {
		pb.commit()
	}
}

func (pb *PageBuffer) commit() {
	pb.w.Commit(pb.base, pb.buf)

	pb.base += uint32(pb.pageSize)
	pb.filled = 0

	for i := range pb.buf {
		pb.buf[i] = 0xFF
	}
}

// NextAddress returns the address the next Write call will start at.
func (pb *PageBuffer) NextAddress() uint32 {
	return pb.next
}
