// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package boot implements the top-level decision sequence: probe the
// external memory, evaluate policy, verify the MAC, install if
// everything checks out, and hand off to the resident application —
// the Go shape of cryptboot.c's naked boot() entry point.
package boot

import (
	"github.com/michpro/cryptboot/bootcfg"
	"github.com/michpro/cryptboot/firmware"
	"github.com/michpro/cryptboot/flash"
	"github.com/michpro/cryptboot/install"
	"github.com/michpro/cryptboot/nvstore"
	"github.com/michpro/cryptboot/policy"
	"github.com/michpro/cryptboot/resetcause"
	"github.com/michpro/cryptboot/transport"
)

// Outcome is what Run decided to do. Neither value is an error: both
// are ordinary, expected results of evaluating the incoming image.
type Outcome uint8

const (
	// RunApp means no new image was installed; the resident
	// application should start as-is.
	RunApp Outcome = iota
	// Installed means a new image was written to program memory and
	// the persistent record was updated accordingly.
	Installed
)

// ResetController is the subset of resetcause.Controller that boot
// depends on, kept as an interface so tests can substitute a fake.
type ResetController interface {
	Read() byte
	Clear(cause byte)
	Reset()
}

// Hardware bundles every collaborator a boot decision touches.
type Hardware interface {
	Transport() transport.Device
	Store() nvstore.Store
	Flash() flash.Writer
	Reset() ResetController
	// Handoff passes control to the resident application. It is never
	// called after Run returns Installed, matching the original's
	// unconditional software reset on that path.
	Handoff()
}

// Config carries the per-device constants §6 treats as compile-time:
// transport address, the fixed offsets of the descriptor and firmware
// body on external memory, where the application section starts, the
// internal flash page size, the application section's capacity, and
// which rollback rule governs timestamp acceptance.
type Config struct {
	DeviceAddr       uint8
	DescriptorOffset uint32
	BodyOffset       uint32
	AppStart         uint32
	PageSize         int
	MaxFirmwareSize  uint32
	Rollback         policy.RollbackRule
}

// Run evaluates and, if warranted, installs a new image. It assumes
// the caller has already established that the current reset is a
// bootloader-entry candidate (resetcause.IsBootloaderCandidate); Run
// itself only decides based on what it finds on the bus.
func Run(hw Hardware, cfg Config) Outcome {
	if !hw.Transport().Probe(cfg.DeviceAddr) {
		return RunApp
	}

	var raw [firmware.Size]byte
	hw.Transport().BlockRead(cfg.DeviceAddr, cfg.DescriptorOffset, raw[:])

	var desc firmware.Descriptor
	if err := desc.UnmarshalBinary(raw[:]); err != nil {
		return RunApp
	}

	bc := bootcfg.Load(hw.Store())

	if !policy.Accept(desc, bc, cfg.Rollback, cfg.MaxFirmwareSize) {
		return RunApp
	}

	if !install.VerifyMAC(hw.Transport(), cfg.DeviceAddr, cfg.BodyOffset, desc, bc.Key) {
		// Stamp the timestamp anyway so a faulty or forged image isn't
		// re-attempted on every subsequent boot.
		bootcfg.PersistTimeStamp(hw.Store(), desc.TimeStamp)
		return RunApp
	}

	newKey, hasNewKey := install.Run(
		hw.Transport(), hw.Flash(),
		cfg.DeviceAddr, cfg.BodyOffset, cfg.AppStart, cfg.PageSize,
		desc, bc.Key,
	)

	if hasNewKey {
		bootcfg.PersistKeyAndTimeStamp(hw.Store(), bootcfg.Config{Key: newKey, TimeStamp: desc.TimeStamp})
	} else {
		bootcfg.PersistTimeStamp(hw.Store(), desc.TimeStamp)
	}

	return Installed
}

// Entry is the full boot entry sequence: read the reset cause, decide
// candidacy, run the decision sequence on a candidate reset, and
// always finish by either requesting a reset (Installed) or handing off
// to the application, mirroring cryptboot.c's single epilogue. The
// transport is released before the handoff only when Run was entered;
// a non-candidate reset never touches it.
func Entry(hw Hardware, cfg Config) {
	cause := hw.Reset().Read()

	if resetcause.IsBootloaderCandidate(cause) {
		if Run(hw, cfg) == Installed {
			hw.Reset().Reset()
			return
		}

		hw.Transport().Release()
	}

	hw.Reset().Clear(cause)
	hw.Handoff()
}
