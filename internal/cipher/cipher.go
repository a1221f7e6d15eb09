// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package cipher implements the stateful XTEA cipher modes used by the
// bootloader: a plain ECB block transform, CFB with full-block feedback,
// and OFB with an independent keystream. All three operate in place on an
// 8-byte block and share a single State, mirroring the original firmware's
// xteaCipherCtx_t.
package cipher

import "github.com/michpro/cryptboot/internal/xtea"

// Operation selects whether a State encrypts or decrypts.
type Operation uint8

const (
	Encrypt Operation = iota
	Decrypt
)

// State is the stack-local state of one cipher instance: key, round count,
// direction, and the chaining IV for CFB/OFB. It carries no heap allocation
// and has no zero-value meaning beyond "zero key, zero IV".
type State struct {
	Key    xtea.Key
	Rounds int
	Op     Operation
	IV     xtea.Block
}

// New builds a cipher state from a raw 16-byte key.
func New(key []byte, iv xtea.Block, rounds int, op Operation) State {
	return State{
		Key:    xtea.UnpackKey(key),
		Rounds: rounds,
		Op:     op,
		IV:     iv,
	}
}

// ECBBlock encrypts or decrypts data in place according to s.Op, with no
// chaining: identical inputs always produce identical outputs.
func (s *State) ECBBlock(data *xtea.Block) {
	if s.Op == Encrypt {
		*data = xtea.Encrypt(s.Key, *data, s.Rounds)
	} else {
		*data = xtea.Decrypt(s.Key, *data, s.Rounds)
	}
}

// CFBBlock encrypts or decrypts one block in Cipher Feedback mode. The
// keystream block is always produced by encrypting the current IV
// regardless of s.Op; after the XOR, the IV becomes the ciphertext block
// just produced (on encrypt) or just consumed (on decrypt), so a chain of
// calls with the same initial IV and opposite Op values is self-inverting.
func (s *State) CFBBlock(data *xtea.Block) {
	s.IV = xtea.Encrypt(s.Key, s.IV, s.Rounds)

	for i := 0; i < xtea.BlockSize; i++ {
		tmp := data[i]
		data[i] ^= s.IV[i]

		if s.Op == Encrypt {
			s.IV[i] = data[i]
		} else {
			s.IV[i] = tmp
		}
	}
}

// OFBBlock encrypts or decrypts one block in Output Feedback mode. The IV
// advances independently of the data, so OFBBlock is its own inverse when
// called twice with the same key and initial IV.
func (s *State) OFBBlock(data *xtea.Block) {
	s.IV = xtea.Encrypt(s.Key, s.IV, s.Rounds)

	for i := 0; i < xtea.BlockSize; i++ {
		data[i] ^= s.IV[i]
	}
}
