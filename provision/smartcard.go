// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build scard

package provision

import (
	"fmt"

	"github.com/ebfe/scard"
)

// KeyFromCard pulls 16 bytes of key material off a PC/SC smart card
// inserted in the first available reader, in the style of
// barnettlynn-nfctools/ro's card access helpers: establish a context,
// connect to the first reader found, and read a GET DATA response
// rather than authenticate against any particular application.
func KeyFromCard() (key [16]byte, err error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return key, fmt.Errorf("provision: establish PC/SC context: %w", err)
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		return key, fmt.Errorf("provision: list readers: %w", err)
	}
	if len(readers) == 0 {
		return key, fmt.Errorf("provision: no PC/SC readers found")
	}

	card, err := ctx.Connect(readers[0], scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return key, fmt.Errorf("provision: connect to %s: %w", readers[0], err)
	}
	defer card.Disconnect(scard.LeaveCard)

	apdu := []byte{0xFF, 0xCA, 0x00, 0x00, 0x10} // GET DATA, Le=16
	resp, err := card.Transmit(apdu)
	if err != nil {
		return key, fmt.Errorf("provision: transmit GET DATA: %w", err)
	}
	if len(resp) < 2 {
		return key, fmt.Errorf("provision: short GET DATA response")
	}

	sw := uint16(resp[len(resp)-2])<<8 | uint16(resp[len(resp)-1])
	data := resp[:len(resp)-2]
	if sw != 0x9000 {
		return key, fmt.Errorf("provision: GET DATA failed (SW=%04X)", sw)
	}
	if len(data) < 16 {
		return key, fmt.Errorf("provision: card returned %d bytes, want 16", len(data))
	}

	copy(key[:], data[:16])
	return key, nil
}
