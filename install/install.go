// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package install implements MAC verification and the decrypt-and-flash
// pipeline run once a descriptor has cleared policy.Accept: recompute
// the CFB-MAC over the wire bytes, then stream the body a second time,
// decrypting and committing it to program memory page by page.
package install

import (
	"github.com/michpro/cryptboot/firmware"
	"github.com/michpro/cryptboot/flash"
	"github.com/michpro/cryptboot/internal/cipher"
	"github.com/michpro/cryptboot/internal/mac"
	"github.com/michpro/cryptboot/internal/xtea"
	"github.com/michpro/cryptboot/transport"
)

// VerifyMAC recomputes the CFB-MAC over the descriptor fields (from
// Version onward, excluding FirmwareMAC itself) followed by the
// firmware body streamed from dev, and reports whether it matches
// desc.FirmwareMAC. The key used is always the one currently on
// record, never the replacement key the body may carry: a forged
// replacement key cannot be used to authenticate itself.
func VerifyMAC(dev transport.Device, addr uint8, bodyOffset uint32, desc firmware.Descriptor, key [16]byte) bool {
	m := mac.New(key[:], int(desc.MACRounds))
	m.Write(desc.MACInput())

	r := transport.NewReader(dev, addr, bodyOffset, int(desc.FirmwareSize))
	defer r.Stop()

	body := make([]byte, desc.FirmwareSize)
	for i := range body {
		body[i] = r.ReadByte()
	}
	m.Write(body)

	return m.Verify(desc.FirmwareMAC[:])
}

// Run streams the firmware body a second time, decrypting it (when
// desc.Mode indicates a cipher is in use) and committing it to program
// memory through w, one flash page at a time. When the descriptor
// carries a replacement key it is decrypted first, chained into the
// same cipher state that goes on to decrypt the body, and returned so
// the caller can persist it alongside the new timestamp (spec §4.7
// step 3). Run never re-checks the MAC; callers must call VerifyMAC
// first.
func Run(dev transport.Device, w flash.Writer, addr uint8, bodyOffset, appStart uint32, pageSize int, desc firmware.Descriptor, key [16]byte) (newKey [16]byte, hasNewKey bool) {
	st := cipher.New(key[:], desc.IV(), int(desc.CipherRounds), cipher.Decrypt)

	r := transport.NewReader(dev, addr, bodyOffset, int(desc.FirmwareSize))
	defer r.Stop()

	if desc.Mode.NewKeyMode() == firmware.NewKeyPresent {
		var first, second xtea.Block
		copy(first[:], desc.NewKey[:xtea.BlockSize])
		copy(second[:], desc.NewKey[xtea.BlockSize:])

		st.CFBBlock(&first)
		st.CFBBlock(&second)

		copy(newKey[:xtea.BlockSize], first[:])
		copy(newKey[xtea.BlockSize:], second[:])
		hasNewKey = true
	}

	pb := flash.NewPageBuffer(w, pageSize, appStart, 0xFF)

	remaining := int(desc.FirmwareSize)
	var stage xtea.Block
	staged := 0

	for remaining > 0 {
		stage[staged] = r.ReadByte()
		staged++
		remaining--

		if staged == xtea.BlockSize || remaining == 0 {
			chunk := stage[:staged]

			if desc.Mode.CipherMode() == firmware.CipherCFB {
				var full xtea.Block
				copy(full[:], chunk)
				st.CFBBlock(&full)
				chunk = full[:staged]
			}

			pb.Write(chunk)
			staged = 0
		}
	}

	pb.Flush()

	return newKey, hasNewKey
}
