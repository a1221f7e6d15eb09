// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package provision implements host-side master-key rotation against a
// bootcfg.Config record kept in a local file, standing in for the
// device's persistent store during bring-up: a lab bench has no way to
// reach into a microcontroller's internal non-volatile memory, so the
// same record shape is mirrored to disk and edited there instead.
package provision

import (
	"crypto/sha256"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/michpro/cryptboot/bootcfg"
	"github.com/michpro/cryptboot/nvstore"
)

// FileStore is an nvstore.Store backed by a flat file, used in place of
// a device's internal non-volatile storage when provisioning happens on
// a host rather than over the wire.
type FileStore struct {
	path string
	data []byte
}

// OpenFileStore loads path into memory, zero-filling a fresh record of
// size bytes if the file does not yet exist.
func OpenFileStore(path string, size int) (*FileStore, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &FileStore{path: path, data: make([]byte, size)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("provision: open store: %w", err)
	}
	if len(content) != size {
		return nil, fmt.Errorf("provision: store %s has size %d, want %d", path, len(content), size)
	}
	return &FileStore{path: path, data: content}, nil
}

// Save writes the store's current contents back to its file.
func (s *FileStore) Save() error {
	if err := os.WriteFile(s.path, s.data, 0o600); err != nil {
		return fmt.Errorf("provision: save store: %w", err)
	}
	return nil
}

func (s *FileStore) window(length int, offsetFromEnd uint32) []byte {
	end := len(s.data) - int(offsetFromEnd)
	start := end - length
	if start < 0 || end > len(s.data) {
		panic("provision: access out of range")
	}
	return s.data[start:end]
}

// ReadBlock implements nvstore.Store.
func (s *FileStore) ReadBlock(out []byte, offsetFromEnd uint32) {
	copy(out, s.window(len(out), offsetFromEnd))
}

// UpdateBlock implements nvstore.Store.
func (s *FileStore) UpdateBlock(in []byte, offsetFromEnd uint32) {
	copy(s.window(len(in), offsetFromEnd), in)
}

// UpdateDword implements nvstore.Store.
func (s *FileStore) UpdateDword(word uint32, offsetFromEnd uint32) {
	buf := s.window(4, offsetFromEnd)
	buf[0] = byte(word)
	buf[1] = byte(word >> 8)
	buf[2] = byte(word >> 16)
	buf[3] = byte(word >> 24)
}

var _ nvstore.Store = (*FileStore)(nil)

// KeyFromPassphrase derives a 16-byte master key from an operator
// passphrase. This is bring-up convenience, not a hardened KDF: a
// single SHA-256 pass is enough entropy stretching for a key that is
// about to be written straight to a provisioning fixture, and matching
// the original's expectation of an opaque 16-byte key is all that
// matters downstream.
func KeyFromPassphrase(passphrase []byte) [16]byte {
	sum := sha256.Sum256(passphrase)
	var key [16]byte
	copy(key[:], sum[:16])
	return key
}

// PromptPassphrase reads a passphrase from the terminal without local
// echo, confirming it against a second entry.
func PromptPassphrase() ([]byte, error) {
	fmt.Print("New master key passphrase: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("provision: read passphrase: %w", err)
	}

	fmt.Print("Confirm: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("provision: read passphrase confirmation: %w", err)
	}

	if string(first) != string(second) {
		return nil, fmt.Errorf("provision: passphrases did not match")
	}
	return first, nil
}

// RotateKey overwrites store's key while leaving TimeStamp untouched,
// mirroring the device-side rollback bookkeeping: a provisioned key
// change is not itself a firmware acceptance, so it must never reset
// the anti-rollback counter.
func RotateKey(store *FileStore, newKey [16]byte) {
	current := bootcfg.Load(store)
	bootcfg.PersistKeyAndTimeStamp(store, bootcfg.Config{Key: newKey, TimeStamp: current.TimeStamp})
}
