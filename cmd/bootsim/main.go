// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command bootsim steps through boot.Run against in-memory fakes,
// one keypress at a time, to demonstrate the accept/reject scenarios
// without any actual hardware.
package main

import (
	"fmt"
	"log"

	"github.com/eiannone/keyboard"

	"github.com/michpro/cryptboot/boot"
	"github.com/michpro/cryptboot/bootcfg"
	"github.com/michpro/cryptboot/firmware"
	"github.com/michpro/cryptboot/flash"
	"github.com/michpro/cryptboot/internal/cipher"
	"github.com/michpro/cryptboot/internal/mac"
	"github.com/michpro/cryptboot/internal/mmio"
	"github.com/michpro/cryptboot/internal/xtea"
	"github.com/michpro/cryptboot/nvstore"
	"github.com/michpro/cryptboot/policy"
	"github.com/michpro/cryptboot/transport"
)

const (
	simAddr     = 0x50
	simRounds   = 32
	simPageSize = 8
	flashSize   = 256
)

var masterKey = [16]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

type scenario struct {
	name    string
	describe string
	build   func() (*transport.MemDevice, bootcfg.Config)
}

type resetStub struct{ cause byte }

func (r *resetStub) Read() byte   { return r.cause }
func (r *resetStub) Clear(byte)   {}
func (r *resetStub) Reset()       { fmt.Println("  [hardware reset requested]") }

type simHardware struct {
	dev   *transport.MemDevice
	store *nvstore.MemStore
	fw    *flash.PageWriter
	reset *resetStub
}

func (h *simHardware) Transport() transport.Device  { return h.dev }
func (h *simHardware) Store() nvstore.Store         { return h.store }
func (h *simHardware) Flash() flash.Writer          { return h.fw }
func (h *simHardware) Reset() boot.ResetController  { return h.reset }
func (h *simHardware) Handoff()                     { fmt.Println("  [jumping to resident app]") }

func main() {
	log.SetFlags(0)

	if err := keyboard.Open(); err != nil {
		log.Fatalf("bootsim: open keyboard: %v", err)
	}
	defer keyboard.Close()

	scenarios := []scenario{
		{"cold device, first image", "a clean device accepts and installs a freshly-signed image", scenarioColdStart},
		{"replay of an accepted image", "re-presenting an already-accepted timestamp is rejected", scenarioReplay},
		{"forged MAC", "an image with a tampered MAC is rejected, but the timestamp still advances", scenarioForgery},
	}

	fmt.Println("bootsim: press any key to step through a scenario, Ctrl-C to quit")

	for _, sc := range scenarios {
		fmt.Printf("\n-- %s --\n%s\n", sc.name, sc.describe)
		if !waitForKey() {
			return
		}
		run(sc)
	}

	fmt.Println("\nbootsim: done")
}

func waitForKey() bool {
	_, key, err := keyboard.GetSingleKey()
	if err != nil {
		log.Fatalf("bootsim: read key: %v", err)
	}
	return key != keyboard.KeyCtrlC
}

func run(sc scenario) {
	dev, initial := sc.build()

	store := nvstore.NewMemStore(bootcfg.KeySize + 4)
	bootcfg.PersistKeyAndTimeStamp(store, initial)

	hw := &simHardware{
		dev:   dev,
		store: store,
		fw:    flash.NewPageWriter(mmio.NewBus(8), flashSize),
		reset: &resetStub{cause: 0},
	}

	cfg := boot.Config{
		DeviceAddr:       simAddr,
		DescriptorOffset: 0,
		BodyOffset:       firmware.Size,
		AppStart:         0,
		PageSize:         simPageSize,
		MaxFirmwareSize:  flashSize,
		Rollback:         policy.DefaultRollback,
	}

	outcome := boot.Run(hw, cfg)
	switch outcome {
	case boot.Installed:
		fmt.Println("  outcome: Installed")
	case boot.RunApp:
		fmt.Println("  outcome: RunApp")
	}

	got := bootcfg.Load(store)
	fmt.Printf("  persistent record: timestamp=%d\n", got.TimeStamp)
}

func buildSignedImage(key [16]byte, iv xtea.Block, timeStamp uint32, plain []byte, tamper bool) (firmware.Descriptor, []byte) {
	st := cipher.New(key[:], iv, simRounds, cipher.Encrypt)
	body := append([]byte{}, plain...)
	for off := 0; off < len(body); off += xtea.BlockSize {
		end := off + xtea.BlockSize
		if end > len(body) {
			end = len(body)
		}
		var blk xtea.Block
		copy(blk[:], body[off:end])
		st.CFBBlock(&blk)
		copy(body[off:end], blk[:end-off])
	}

	desc := firmware.Descriptor{
		Mode:         firmware.CipherCFB,
		CipherRounds: simRounds,
		MACRounds:    simRounds,
		TimeStamp:    timeStamp,
		FirmwareSize: uint32(len(body)),
	}
	copy(desc.CipherIV[:], iv[:])

	m := mac.New(key[:], simRounds)
	m.Write(desc.MACInput())
	m.Write(body)
	sum := m.Sum()
	copy(desc.FirmwareMAC[:], sum[:])

	if tamper {
		desc.FirmwareMAC[0] ^= 0x01
	}

	return desc, body
}

func memDeviceFor(desc firmware.Descriptor, body []byte) *transport.MemDevice {
	raw, err := desc.MarshalBinary()
	if err != nil {
		log.Fatalf("bootsim: marshal descriptor: %v", err)
	}
	return transport.NewMemDevice(simAddr, append(append([]byte{}, raw...), body...))
}

func scenarioColdStart() (*transport.MemDevice, bootcfg.Config) {
	plain := []byte("demo firmware body")
	var iv xtea.Block
	for i := range iv {
		iv[i] = byte(0x10 + i)
	}
	desc, body := buildSignedImage(masterKey, iv, 1, plain, false)
	return memDeviceFor(desc, body), bootcfg.Config{Key: masterKey, TimeStamp: bootcfg.NeverAccepted}
}

func scenarioReplay() (*transport.MemDevice, bootcfg.Config) {
	plain := []byte("demo firmware body")
	var iv xtea.Block
	desc, body := buildSignedImage(masterKey, iv, 1, plain, false)
	return memDeviceFor(desc, body), bootcfg.Config{Key: masterKey, TimeStamp: 1}
}

func scenarioForgery() (*transport.MemDevice, bootcfg.Config) {
	plain := []byte("demo firmware body")
	var iv xtea.Block
	desc, body := buildSignedImage(masterKey, iv, 1, plain, true)
	return memDeviceFor(desc, body), bootcfg.Config{Key: masterKey, TimeStamp: bootcfg.NeverAccepted}
}
