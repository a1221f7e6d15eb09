// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command cryptboot-pack assembles the external-memory image a device
// reads at boot: a descriptor followed by the (optionally encrypted)
// firmware body, signed with the same master key the device holds.
package main

import (
	"encoding/hex"
	"flag"
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/michpro/cryptboot/internal/xtea"
	"github.com/michpro/cryptboot/pack"
)

func main() {
	log.SetFlags(0)

	var (
		in           = flag.String("in", "", "plaintext firmware image")
		out          = flag.String("out", "", "destination image (descriptor + body)")
		keyHex       = flag.String("key", "", "32 hex-digit master key")
		ivHex        = flag.String("iv", "", "16 hex-digit cipher IV (CFB mode only)")
		cipherRounds = flag.Uint("cipher-rounds", 32, "XTEA cipher round count")
		macRounds    = flag.Uint("mac-rounds", 32, "XTEA MAC round count")
		timeStamp    = flag.Uint("timestamp", 0, "anti-rollback timestamp to embed")
		encrypt      = flag.Bool("encrypt", false, "encrypt the body with CFB mode")
	)
	flag.Parse()

	if *in == "" || *out == "" || *keyHex == "" {
		log.Fatal("cryptboot-pack: -in, -out, and -key are required")
	}

	key, err := parseKey(*keyHex)
	if err != nil {
		log.Fatalf("cryptboot-pack: %v", err)
	}

	var iv xtea.Block
	if *ivHex != "" {
		decoded, err := hex.DecodeString(*ivHex)
		if err != nil || len(decoded) != xtea.BlockSize {
			log.Fatalf("cryptboot-pack: -iv must be %d hex-encoded bytes", xtea.BlockSize)
		}
		copy(iv[:], decoded)
	}

	opt := pack.Options{
		InputPath:    *in,
		OutputPath:   *out,
		Key:          key,
		IV:           iv,
		CipherRounds: uint8(*cipherRounds),
		MACRounds:    uint8(*macRounds),
		TimeStamp:    uint32(*timeStamp),
		Encrypt:      *encrypt,
	}

	if err := pack.Build(afero.NewOsFs(), opt); err != nil {
		log.Fatalf("cryptboot-pack: %v", errors.Wrap(err, "build image"))
	}
}

func parseKey(s string) ([16]byte, error) {
	var key [16]byte
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return key, errors.Wrap(err, "decode -key")
	}
	if len(decoded) != 16 {
		return key, errors.Errorf("-key must be 32 hex digits, got %d bytes", len(decoded))
	}
	copy(key[:], decoded)
	return key, nil
}
