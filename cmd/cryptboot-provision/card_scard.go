// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build scard

package main

import "github.com/michpro/cryptboot/provision"

func readFromCard() ([16]byte, error) {
	return provision.KeyFromCard()
}
