// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command cryptboot-provision rotates the master key held in a
// bootcfg.Config record kept in a local file, standing in for a
// device's internal non-volatile store during bring-up.
package main

import (
	"flag"
	"log"

	"github.com/pkg/errors"

	"github.com/michpro/cryptboot/bootcfg"
	"github.com/michpro/cryptboot/provision"
)

func main() {
	log.SetFlags(0)

	store := flag.String("store", "", "path to the boot configuration record file")
	fromCard := flag.Bool("card", false, "read the new key from a PC/SC smart card (requires the scard build tag)")
	flag.Parse()

	if *store == "" {
		log.Fatal("cryptboot-provision: -store is required")
	}

	recordSize := bootcfg.KeySize + 4
	s, err := provision.OpenFileStore(*store, recordSize)
	if err != nil {
		log.Fatalf("cryptboot-provision: %v", errors.Wrap(err, "open store"))
	}

	var newKey [16]byte
	if *fromCard {
		newKey, err = readFromCard()
		if err != nil {
			log.Fatalf("cryptboot-provision: %v", errors.Wrap(err, "read key from card"))
		}
	} else {
		passphrase, err := provision.PromptPassphrase()
		if err != nil {
			log.Fatalf("cryptboot-provision: %v", errors.Wrap(err, "read passphrase"))
		}
		newKey = provision.KeyFromPassphrase(passphrase)
	}

	provision.RotateKey(s, newKey)
	if err := s.Save(); err != nil {
		log.Fatalf("cryptboot-provision: %v", errors.Wrap(err, "save store"))
	}

	log.Printf("cryptboot-provision: master key rotated in %s", *store)
}
