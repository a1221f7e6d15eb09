// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package config loads and validates the YAML build manifest that
// describes a device's provisioning constants: everything spec.md §6
// treats as compile-time, expressed here as data so the host-side
// tooling (pack, provision) and a firmware main can share one source
// of truth.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/michpro/cryptboot/policy"
)

// Constants mirrors boot.Config plus the build-time defaults pack uses
// when it has no descriptor yet to read rounds from.
type Constants struct {
	BootSectionSize  uint32 `yaml:"boot_section_size"`
	DeviceAddress    uint8  `yaml:"device_address"`
	PageSize         int    `yaml:"page_size"`
	CipherRounds     uint8  `yaml:"cipher_rounds"`
	MACRounds        uint8  `yaml:"mac_rounds"`
	DowngradeAllowed bool   `yaml:"downgrade_allowed"`
	BigFirmware      bool   `yaml:"big_firmware"`
}

// Rollback translates DowngradeAllowed into the policy package's
// runtime switch.
func (c Constants) Rollback() policy.RollbackRule {
	if c.DowngradeAllowed {
		return policy.DowngradeAllowed
	}
	return policy.DefaultRollback
}

// Load reads and validates a build manifest from path.
func Load(path string) (*Constants, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var c Constants
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks the manifest for values that would make no sense on
// any device: a non-positive page size, a zero boot section, or a
// round count of zero (the cipher would not mix at all).
func (c Constants) Validate() error {
	if c.BootSectionSize == 0 {
		return fmt.Errorf("config.boot_section_size must be > 0")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("config.page_size must be > 0")
	}
	if c.CipherRounds == 0 {
		return fmt.Errorf("config.cipher_rounds must be > 0")
	}
	if c.MACRounds == 0 {
		return fmt.Errorf("config.mac_rounds must be > 0")
	}
	return nil
}
