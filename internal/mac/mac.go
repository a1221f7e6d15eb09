// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package mac implements the CFB-MAC construction: a streaming, keyed
// authentication code built on top of the CFB cipher mode, reusing a
// single master key for both encryption and authentication by deriving
// two sub-keys through an ipad/opad xor split (as in HMAC, but applied to
// a block cipher's key schedule rather than a hash).
package mac

import (
	"crypto/subtle"

	"github.com/michpro/cryptboot/internal/cipher"
	"github.com/michpro/cryptboot/internal/xtea"
)

const (
	ipad = 0x36
	opad = 0x5c
)

// Size is the MAC output size in bytes.
const Size = xtea.BlockSize

// MAC accumulates input through Write and produces an 8-byte tag through
// Sum, in the shape of hash.Hash (BlockSize/Size are fixed constants here
// rather than methods, since there is exactly one configuration).
type MAC struct {
	cipher    cipher.State
	secondKey xtea.Key
	buf       xtea.Block
	n         int
	done      bool
}

// New initializes a MAC instance: the cipher key is set to key XOR ipad,
// the second-stage (finishing) key is recorded as key XOR opad, and the
// IV and accumulator both start zeroed.
func New(key []byte, rounds int) *MAC {
	if len(key) != xtea.KeySize {
		panic("mac: invalid key size")
	}

	var ipadKey, opadKey [xtea.KeySize]byte

	for i := 0; i < xtea.KeySize; i++ {
		ipadKey[i] = key[i] ^ ipad
		opadKey[i] = key[i] ^ opad
	}

	return &MAC{
		cipher: cipher.State{
			Key:    xtea.UnpackKey(ipadKey[:]),
			Rounds: rounds,
			Op:     cipher.Encrypt,
		},
		secondKey: xtea.UnpackKey(opadKey[:]),
	}
}

// Write appends data to the MAC computation, applying one CFB block
// encryption each time the internal 8-byte accumulator fills. It never
// returns an error.
func (m *MAC) Write(data []byte) (int, error) {
	if m.done {
		panic("mac: Write after Sum")
	}

	for _, b := range data {
		m.buf[m.n] = b
		m.n++

		if m.n == xtea.BlockSize {
			m.cipher.CFBBlock(&m.buf)
			m.n = 0
		}
	}

	return len(data), nil
}

// Sum applies 10*-style padding to whatever remains in the accumulator,
// finishes the construction with the second-stage key, and returns the
// 8-byte tag. Calling Sum is idempotent: repeated calls return the same
// value without re-padding.
func (m *MAC) Sum() [Size]byte {
	if !m.done {
		m.buf[m.n] = 0x80
		for i := m.n + 1; i < xtea.BlockSize; i++ {
			m.buf[i] = 0
		}

		m.cipher.CFBBlock(&m.buf)

		m.cipher.Key = m.secondKey
		m.cipher.CFBBlock(&m.buf)

		m.done = true
	}

	return m.buf
}

// Verify reports whether want (the first Size bytes of it) matches the
// computed MAC, using a constant-time comparison.
func (m *MAC) Verify(want []byte) bool {
	sum := m.Sum()

	if len(want) < Size {
		return false
	}

	return subtle.ConstantTimeCompare(sum[:], want[:Size]) == 1
}
