// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package provision

import (
	"path/filepath"
	"testing"

	"github.com/michpro/cryptboot/bootcfg"
)

const recordSize = bootcfg.KeySize + 4

func TestOpenFileStoreCreatesBlankRecordWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bin")

	s, err := OpenFileStore(path, recordSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := bootcfg.Load(s)
	if c.TimeStamp != 0 {
		t.Fatalf("TimeStamp = %d, want 0 on a blank store", c.TimeStamp)
	}
}

func TestOpenFileStoreRejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bin")
	s, err := OpenFileStore(path, recordSize)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenFileStore(path, recordSize+1); err == nil {
		t.Fatal("expected an error when the on-disk record size does not match")
	}
}

func TestRotateKeyPreservesTimeStamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bin")
	s, err := OpenFileStore(path, recordSize)
	if err != nil {
		t.Fatal(err)
	}

	var k0 [16]byte
	for i := range k0 {
		k0[i] = byte(i)
	}
	bootcfg.PersistKeyAndTimeStamp(s, bootcfg.Config{Key: k0, TimeStamp: 42})

	var k1 [16]byte
	for i := range k1 {
		k1[i] = byte(0xA0 + i)
	}
	RotateKey(s, k1)

	got := bootcfg.Load(s)
	if got.Key != k1 {
		t.Fatalf("Key = %v, want %v", got.Key, k1)
	}
	if got.TimeStamp != 42 {
		t.Fatalf("TimeStamp = %d, want unchanged 42", got.TimeStamp)
	}
}

func TestKeyFromPassphraseIsDeterministic(t *testing.T) {
	a := KeyFromPassphrase([]byte("correct horse battery staple"))
	b := KeyFromPassphrase([]byte("correct horse battery staple"))
	c := KeyFromPassphrase([]byte("different"))

	if a != b {
		t.Fatal("same passphrase must derive the same key")
	}
	if a == c {
		t.Fatal("different passphrases must derive different keys")
	}
}

func TestSaveAndReopenRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bin")
	s, err := OpenFileStore(path, recordSize)
	if err != nil {
		t.Fatal(err)
	}

	var k [16]byte
	for i := range k {
		k[i] = byte(i)
	}
	bootcfg.PersistKeyAndTimeStamp(s, bootcfg.Config{Key: k, TimeStamp: 7})
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenFileStore(path, recordSize)
	if err != nil {
		t.Fatal(err)
	}
	got := bootcfg.Load(reopened)
	if got.Key != k || got.TimeStamp != 7 {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}
