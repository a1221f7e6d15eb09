// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package policy implements the acceptance predicate deciding whether a
// firmware descriptor found on the external memory should be processed
// at all, before the expensive MAC verification and install pipeline
// ever run.
package policy

import (
	"github.com/michpro/cryptboot/bootcfg"
	"github.com/michpro/cryptboot/firmware"
)

// RollbackRule selects between the two timestamp-acceptance regimes the
// original firmware toggled at compile time with #ifdef
// DOWNGRADE_ALLOWED. Here it is a runtime value so a single binary (in
// particular the host-side tooling) can exercise both.
type RollbackRule uint8

const (
	// DefaultRollback only accepts a strictly newer timestamp, or any
	// timestamp at all when none has ever been accepted.
	DefaultRollback RollbackRule = iota
	// DowngradeAllowed accepts any timestamp different from the one on
	// record, including an older one, as long as it is not the
	// never-accepted sentinel.
	DowngradeAllowed
)

// MaxFirmwareSize bounds FirmwareSize against the application section's
// capacity. It is supplied by the caller (config.Constants in the
// firmware build, a fixture value in tests) rather than hardcoded, since
// it depends on the flash layout of the target device.
type MaxFirmwareSize = uint32

// Accept reports whether desc should be processed further, mirroring
// isFirmwareSchouldBeProcessed: the sentinel timestamp always marks a
// malformed descriptor, reserved mode bits must be clear, the timestamp
// must clear the rollback rule against boot, and the declared size must
// be non-zero and fit within maxFirmwareSize.
func Accept(desc firmware.Descriptor, boot bootcfg.Config, rule RollbackRule, maxFirmwareSize MaxFirmwareSize) bool {
	if desc.TimeStamp == bootcfg.NeverAccepted {
		return false
	}

	if desc.Mode.HasReservedBits() {
		return false
	}

	if !timestampAccepted(desc.TimeStamp, boot.TimeStamp, rule) {
		return false
	}

	if desc.FirmwareSize == 0 || desc.FirmwareSize > maxFirmwareSize {
		return false
	}

	return true
}

func timestampAccepted(firmwareTimeStamp, bootTimeStamp uint32, rule RollbackRule) bool {
	switch rule {
	case DowngradeAllowed:
		return firmwareTimeStamp != bootTimeStamp
	default:
		return firmwareTimeStamp > bootTimeStamp || bootTimeStamp == bootcfg.NeverAccepted
	}
}
