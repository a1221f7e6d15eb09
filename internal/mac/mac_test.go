// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mac

import "testing"

var testKey = []byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
}

func TestDeterministicAcrossSplits(t *testing.T) {
	msg := []byte("the quick brown fox jumps over the lazy dog, 1234567890")

	whole := New(testKey, 32)
	whole.Write(msg)
	want := whole.Sum()

	splits := [][]int{
		{len(msg)},
		{1, len(msg) - 1},
		{8, 8, len(msg) - 16},
		{3, 5, 7, 11, len(msg) - 26},
	}

	for _, split := range splits {
		m := New(testKey, 32)

		pos := 0
		for _, n := range split {
			m.Write(msg[pos : pos+n])
			pos += n
		}

		got := m.Sum()

		if got != want {
			t.Fatalf("split %v: Sum() = %x, want %x", split, got, want)
		}
	}
}

func TestSumIsIdempotent(t *testing.T) {
	m := New(testKey, 32)
	m.Write([]byte("hello"))

	a := m.Sum()
	b := m.Sum()

	if a != b {
		t.Fatalf("Sum() not idempotent: %x != %x", a, b)
	}
}

func TestVerify(t *testing.T) {
	m := New(testKey, 32)
	m.Write([]byte("firmware bytes go here"))
	sum := m.Sum()

	m2 := New(testKey, 32)
	m2.Write([]byte("firmware bytes go here"))

	if !m2.Verify(sum[:]) {
		t.Fatal("Verify rejected a matching MAC")
	}

	bad := sum
	bad[0] ^= 0x01

	m3 := New(testKey, 32)
	m3.Write([]byte("firmware bytes go here"))

	if m3.Verify(bad[:]) {
		t.Fatal("Verify accepted a forged MAC")
	}
}

func TestVerifyOnlyUsesFirstBlock(t *testing.T) {
	m := New(testKey, 32)
	m.Write([]byte("data"))
	sum := m.Sum()

	wide := append(append([]byte{}, sum[:]...), 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x11, 0x22)

	m2 := New(testKey, 32)
	m2.Write([]byte("data"))

	if !m2.Verify(wide) {
		t.Fatal("Verify should ignore bytes beyond the first 8")
	}
}

func TestEmptyInput(t *testing.T) {
	m1 := New(testKey, 32)
	s1 := m1.Sum()

	m2 := New(testKey, 32)
	m2.Write(nil)
	s2 := m2.Sum()

	if s1 != s2 {
		t.Fatalf("empty-input MAC not stable: %x != %x", s1, s2)
	}
}
