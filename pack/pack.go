// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package pack builds the external-memory image a device reads at
// boot: a 64-byte descriptor followed by the (optionally encrypted)
// firmware body, the exact inverse of what install.Run consumes.
// It is host-side tooling, so it goes through an afero.Fs rather than
// the filesystem directly, which lets its tests run against an
// in-memory filesystem.
package pack

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/michpro/cryptboot/firmware"
	"github.com/michpro/cryptboot/internal/cipher"
	"github.com/michpro/cryptboot/internal/mac"
	"github.com/michpro/cryptboot/internal/xtea"
)

// Options describes one image to build.
type Options struct {
	InputPath  string // plaintext firmware image
	OutputPath string // destination: descriptor followed by body

	Key          [16]byte // current master key, used for both cipher and MAC
	IV           xtea.Block
	CipherRounds uint8
	MACRounds    uint8
	TimeStamp    uint32
	Encrypt      bool // false produces a CipherPlain image

	// NewKey, when non-nil, is chained into the descriptor as a
	// replacement key: it is encrypted with the same state that then
	// encrypts the body, exactly mirroring install.Run's decrypt side.
	NewKey *[16]byte
}

// Build reads Options.InputPath from fs, assembles the descriptor, and
// writes the descriptor followed by the (possibly encrypted) body to
// Options.OutputPath.
func Build(fs afero.Fs, opt Options) error {
	plain, err := afero.ReadFile(fs, opt.InputPath)
	if err != nil {
		return fmt.Errorf("pack: read input: %w", err)
	}
	if len(plain) == 0 {
		return fmt.Errorf("pack: input image is empty")
	}

	desc := firmware.Descriptor{
		Version:      1,
		CipherRounds: opt.CipherRounds,
		MACRounds:    opt.MACRounds,
		TimeStamp:    opt.TimeStamp,
		FirmwareSize: uint32(len(plain)),
	}
	copy(desc.CipherIV[:], opt.IV[:])

	if opt.Encrypt {
		desc.Mode |= firmware.CipherCFB
	}

	st := cipher.New(opt.Key[:], opt.IV, int(opt.CipherRounds), cipher.Encrypt)

	if opt.NewKey != nil {
		desc.Mode |= firmware.NewKeyPresent

		var first, second xtea.Block
		copy(first[:], opt.NewKey[:xtea.BlockSize])
		copy(second[:], opt.NewKey[xtea.BlockSize:])
		st.CFBBlock(&first)
		st.CFBBlock(&second)
		copy(desc.NewKey[:xtea.BlockSize], first[:])
		copy(desc.NewKey[xtea.BlockSize:], second[:])
	}

	body := append([]byte{}, plain...)
	if opt.Encrypt {
		encryptInPlace(&st, body)
	}

	m := mac.New(opt.Key[:], int(opt.MACRounds))
	m.Write(desc.MACInput())
	m.Write(body)
	sum := m.Sum()
	copy(desc.FirmwareMAC[:], sum[:])

	raw, err := desc.MarshalBinary()
	if err != nil {
		return fmt.Errorf("pack: marshal descriptor: %w", err)
	}

	out := append(raw, body...)
	if err := afero.WriteFile(fs, opt.OutputPath, out, 0o644); err != nil {
		return fmt.Errorf("pack: write output: %w", err)
	}

	return nil
}

func encryptInPlace(st *cipher.State, data []byte) {
	for off := 0; off < len(data); off += xtea.BlockSize {
		end := off + xtea.BlockSize
		if end > len(data) {
			end = len(data)
		}
		var blk xtea.Block
		copy(blk[:], data[off:end])
		st.CFBBlock(&blk)
		copy(data[off:end], blk[:end-off])
	}
}
