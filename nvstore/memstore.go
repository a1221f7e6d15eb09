// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package nvstore

import "encoding/binary"

// MemStore is an in-memory Store, standing in for the microcontroller's
// internal non-volatile storage in tests and host-side tooling.
type MemStore struct {
	data []byte
}

// NewMemStore allocates a MemStore of the given total size.
func NewMemStore(size int) *MemStore {
	return &MemStore{data: make([]byte, size)}
}

func (s *MemStore) window(length int, offsetFromEnd uint32) []byte {
	end := len(s.data) - int(offsetFromEnd)
	start := end - length

	if start < 0 || end > len(s.data) {
		panic("nvstore: access out of range")
	}

	return s.data[start:end]
}

// ReadBlock implements Store.
func (s *MemStore) ReadBlock(out []byte, offsetFromEnd uint32) {
	copy(out, s.window(len(out), offsetFromEnd))
}

// UpdateBlock implements Store.
func (s *MemStore) UpdateBlock(in []byte, offsetFromEnd uint32) {
	copy(s.window(len(in), offsetFromEnd), in)
}

// UpdateDword implements Store.
func (s *MemStore) UpdateDword(word uint32, offsetFromEnd uint32) {
	binary.LittleEndian.PutUint32(s.window(4, offsetFromEnd), word)
}
