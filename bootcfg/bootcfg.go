// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package bootcfg models the persistent boot configuration record: the
// master key and the timestamp of the last accepted image, stored in a
// reserved slot at the top of the microcontroller's internal non-volatile
// store.
package bootcfg

import "github.com/michpro/cryptboot/nvstore"

// NeverAccepted is the sentinel TimeStamp value meaning "no image has
// ever been accepted".
const NeverAccepted uint32 = 0xFFFFFFFF

// KeySize is the size, in bytes, of the persisted master key.
const KeySize = 16

// recordSize is the total size of the persisted record: a 16-byte key
// followed by a 4-byte timestamp, the last dword in the store.
const recordSize = KeySize + 4

// Config is the persistent boot configuration record. Exactly one
// instance exists per device; it is read once per boot and written at
// most once, between MAC verification and software reset.
type Config struct {
	Key       [KeySize]byte
	TimeStamp uint32
}

// Load reads the persistent record from s.
func Load(s nvstore.Store) Config {
	var c Config

	s.ReadBlock(c.Key[:], 4)

	var ts [4]byte
	s.ReadBlock(ts[:], 0)
	c.TimeStamp = le32(ts)

	return c
}

// PersistTimeStamp advances only the timestamp field, leaving the key
// untouched. This is used both on a successful install without a key
// rotation and on the MAC-failure memoisation path (spec §4.6 Failure
// policy).
func PersistTimeStamp(s nvstore.Store, timeStamp uint32) {
	s.UpdateDword(timeStamp, 0)
}

// PersistKeyAndTimeStamp writes both the key and the timestamp, used
// after a successful install that carried a replacement key (spec §4.7
// step 3, §4.2 PersistAndReboot).
func PersistKeyAndTimeStamp(s nvstore.Store, c Config) {
	var buf [recordSize]byte
	copy(buf[:KeySize], c.Key[:])
	putLE32(buf[KeySize:], c.TimeStamp)
	s.UpdateBlock(buf[:], 0)
}

func le32(b [4]byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
