// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cipher

import (
	"testing"

	"github.com/michpro/cryptboot/internal/xtea"
)

var testKey = []byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
}

func TestECBRoundTrip(t *testing.T) {
	enc := New(testKey, xtea.Block{}, 32, Encrypt)
	dec := New(testKey, xtea.Block{}, 32, Decrypt)

	block := xtea.Block{1, 2, 3, 4, 5, 6, 7, 8}
	orig := block

	enc.ECBBlock(&block)
	dec.ECBBlock(&block)

	if block != orig {
		t.Fatalf("ECB round trip failed: got %x, want %x", block, orig)
	}
}

func TestCFBRoundTrip(t *testing.T) {
	iv := xtea.Block{9, 9, 9, 9, 9, 9, 9, 9}
	plaintext := [][8]byte{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{10, 20, 30, 40, 50, 60, 70, 80},
		{0, 0, 0, 0, 0, 0, 0, 0},
	}

	enc := New(testKey, iv, 32, Encrypt)

	var cipherBlocks []xtea.Block
	for _, p := range plaintext {
		b := xtea.Block(p)
		enc.CFBBlock(&b)
		cipherBlocks = append(cipherBlocks, b)
	}

	dec := New(testKey, iv, 32, Decrypt)

	for i, c := range cipherBlocks {
		b := c
		dec.CFBBlock(&b)

		if b != xtea.Block(plaintext[i]) {
			t.Fatalf("block %d: decrypt(encrypt(p)) = %x, want %x", i, b, plaintext[i])
		}
	}
}

func TestCFBFeedbackIsCiphertext(t *testing.T) {
	iv := xtea.Block{1, 1, 1, 1, 1, 1, 1, 1}
	enc := New(testKey, iv, 32, Encrypt)

	block := xtea.Block{5, 5, 5, 5, 5, 5, 5, 5}
	enc.CFBBlock(&block)

	if enc.IV != block {
		t.Fatalf("encrypt: new IV = %x, want ciphertext %x", enc.IV, block)
	}
}

func TestOFBIsInvolution(t *testing.T) {
	iv := xtea.Block{3, 1, 4, 1, 5, 9, 2, 6}
	block := xtea.Block{42, 42, 42, 42, 42, 42, 42, 42}
	orig := block

	s1 := New(testKey, iv, 32, Encrypt)
	s1.OFBBlock(&block)

	s2 := New(testKey, iv, 32, Encrypt)
	s2.OFBBlock(&block)

	if block != orig {
		t.Fatalf("OFB applied twice with same key/IV = %x, want %x", block, orig)
	}
}

func TestOFBEncryptDecryptIdentical(t *testing.T) {
	iv := xtea.Block{7, 7, 7, 7, 7, 7, 7, 7}
	block := xtea.Block{1, 2, 3, 4, 5, 6, 7, 8}

	enc := New(testKey, iv, 32, Encrypt)
	dec := New(testKey, iv, 32, Decrypt)

	b1, b2 := block, block
	enc.OFBBlock(&b1)
	dec.OFBBlock(&b2)

	if b1 != b2 {
		t.Fatalf("OFB encrypt/decrypt diverged: %x vs %x", b1, b2)
	}
}
