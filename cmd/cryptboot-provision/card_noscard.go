// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !scard

package main

import "fmt"

func readFromCard() ([16]byte, error) {
	var key [16]byte
	return key, fmt.Errorf("built without the scard tag; rebuild with -tags scard to read from a smart card")
}
