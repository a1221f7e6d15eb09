// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package nvstore declares the persistent-store collaborator contract:
// the small internal non-volatile record that carries the master key and
// the last-accepted timestamp. All offsets are measured from the end of
// the store, matching the original firmware's
// "MAPPED_EEPROM_SIZE - sizeof(...)" addressing.
package nvstore

// Store is implemented by the persistent non-volatile storage
// peripheral. Every method busy-waits internally until the operation
// completes; none of them are cancellable, matching §5's single-threaded,
// no-timeout model.
type Store interface {
	// ReadBlock reads length(out) bytes ending offsetFromEnd bytes before
	// the end of the store.
	ReadBlock(out []byte, offsetFromEnd uint32)
	// UpdateBlock writes in, ending offsetFromEnd bytes before the end of
	// the store, and waits for completion before returning.
	UpdateBlock(in []byte, offsetFromEnd uint32)
	// UpdateDword writes a single 32-bit word, ending offsetFromEnd bytes
	// before the end of the store, and waits for completion before
	// returning.
	UpdateDword(word uint32, offsetFromEnd uint32)
}
