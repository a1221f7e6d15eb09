// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package firmware models the 64-byte firmware descriptor read from
// external memory immediately before the image body, and its mode
// bitfield.
package firmware

import (
	"encoding/binary"
	"errors"
)

// Size is the fixed on-wire size of a Descriptor, in bytes.
const Size = 64

// Mode bitfield layout (bits 0..1: body cipher mode, bits 2..3: new-key
// presence, bits 4..7: reserved).
const (
	CipherPlain Mode = 0x00
	CipherCFB   Mode = 0x01

	NewKeyAbsent  Mode = 0x00 << 2
	NewKeyPresent Mode = 0x01 << 2

	// ReservedMask covers the bits that must be zero for a descriptor to
	// be considered well formed: bits 4..7, plus bit 1 and bit 3, which
	// rule out the unused values of the cipher-mode and new-key fields,
	// per the original firmware's "mode & 0xFA == 0" check.
	ReservedMask = 0xFA
)

// Mode is the descriptor's mode bitfield.
type Mode uint8

// CipherMode extracts the body cipher mode (bits 0..1).
func (m Mode) CipherMode() Mode { return m & 0x03 }

// NewKeyMode extracts the new-key presence field (bits 2..3).
func (m Mode) NewKeyMode() Mode { return m & 0x0C }

// HasReservedBits reports whether any bit in ReservedMask is set: a bit
// of the high nibble, or an unused cipher-mode or new-key value.
func (m Mode) HasReservedBits() bool { return m&ReservedMask != 0 }

// Descriptor is the firmware descriptor, the fixed-size header preceding
// the image body in external memory. Field order and sizes match the
// on-wire layout exactly; the struct itself is never serialized via
// reflection, only through MarshalBinary/UnmarshalBinary.
type Descriptor struct {
	// FirmwareMAC is the two-block CFB-MAC over the descriptor (minus
	// this field) concatenated with the body; only the first 8 bytes are
	// compared, the second block is reserved (see spec §9 Open Question).
	FirmwareMAC [16]byte
	Version     uint8
	Mode        Mode
	// CipherRounds is the XTEA round count used for the body cipher.
	CipherRounds uint8
	// MACRounds is the XTEA round count used for the MAC.
	MACRounds uint8
	TimeStamp uint32
	// FirmwareSize is the body length in bytes.
	FirmwareSize uint32
	// CipherIV holds two IVs; only the first 8 bytes are used as the CFB
	// IV, the remaining 8 are reserved.
	CipherIV [16]byte
	RFU      [4]byte
	// NewKey is the (possibly encrypted) replacement master key, valid
	// only when Mode.NewKeyMode() == NewKeyPresent.
	NewKey [16]byte
}

// IV returns the 8 bytes of CipherIV actually used as the CFB IV.
func (d *Descriptor) IV() (iv [8]byte) {
	copy(iv[:], d.CipherIV[:8])
	return
}

// MarshalBinary encodes the descriptor to its fixed 64-byte wire layout,
// little-endian for multi-byte integers.
func (d *Descriptor) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)

	off := 0
	off += copy(buf[off:], d.FirmwareMAC[:])
	buf[off] = d.Version
	off++
	buf[off] = byte(d.Mode)
	off++
	buf[off] = d.CipherRounds
	off++
	buf[off] = d.MACRounds
	off++
	binary.LittleEndian.PutUint32(buf[off:], d.TimeStamp)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], d.FirmwareSize)
	off += 4
	off += copy(buf[off:], d.CipherIV[:])
	off += copy(buf[off:], d.RFU[:])
	off += copy(buf[off:], d.NewKey[:])

	if off != Size {
		panic("firmware: descriptor encoder/size mismatch")
	}

	return buf, nil
}

// UnmarshalBinary decodes a 64-byte descriptor. It returns an error only
// for malformed input (wrong length) — policy decisions about whether an
// otherwise well-formed descriptor should be accepted belong to package
// policy, not here.
func (d *Descriptor) UnmarshalBinary(buf []byte) error {
	if len(buf) != Size {
		return errors.New("firmware: descriptor must be exactly 64 bytes")
	}

	off := 0
	off += copy(d.FirmwareMAC[:], buf[off:off+16])
	d.Version = buf[off]
	off++
	d.Mode = Mode(buf[off])
	off++
	d.CipherRounds = buf[off]
	off++
	d.MACRounds = buf[off]
	off++
	d.TimeStamp = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	d.FirmwareSize = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	off += copy(d.CipherIV[:], buf[off:off+16])
	off += copy(d.RFU[:], buf[off:off+4])
	off += copy(d.NewKey[:], buf[off:off+16])

	return nil
}

// MACInput returns the descriptor bytes that feed the MAC computation:
// every field except FirmwareMAC itself, in wire order.
func (d *Descriptor) MACInput() []byte {
	buf, _ := d.MarshalBinary()
	return buf[16:]
}
