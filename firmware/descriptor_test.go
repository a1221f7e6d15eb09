// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package firmware

import "testing"

func sampleDescriptor() Descriptor {
	d := Descriptor{
		Version:      1,
		Mode:         CipherCFB,
		CipherRounds: 32,
		MACRounds:    32,
		TimeStamp:    42,
		FirmwareSize: 1024,
	}
	for i := range d.FirmwareMAC {
		d.FirmwareMAC[i] = byte(i)
	}
	for i := range d.CipherIV {
		d.CipherIV[i] = byte(0x80 + i)
	}
	return d
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	want := sampleDescriptor()

	buf, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(buf) != Size {
		t.Fatalf("MarshalBinary produced %d bytes, want %d", len(buf), Size)
	}

	var got Descriptor
	if err := got.UnmarshalBinary(buf); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}

	if got != want {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestUnmarshalRejectsWrongLength(t *testing.T) {
	var d Descriptor

	if err := d.UnmarshalBinary(make([]byte, Size-1)); err == nil {
		t.Fatal("expected error for short buffer")
	}
	if err := d.UnmarshalBinary(make([]byte, Size+1)); err == nil {
		t.Fatal("expected error for long buffer")
	}
}

func TestLittleEndianWireLayout(t *testing.T) {
	d := sampleDescriptor()
	d.TimeStamp = 0x01020304
	d.FirmwareSize = 0x0A0B0C0D

	buf, _ := d.MarshalBinary()

	tsOff := 16 + 1 + 1 + 1 + 1
	if buf[tsOff] != 0x04 || buf[tsOff+3] != 0x01 {
		t.Fatalf("timeStamp not little-endian at offset %d: %x", tsOff, buf[tsOff:tsOff+4])
	}

	sizeOff := tsOff + 4
	if buf[sizeOff] != 0x0D || buf[sizeOff+3] != 0x0A {
		t.Fatalf("firmwareSize not little-endian at offset %d: %x", sizeOff, buf[sizeOff:sizeOff+4])
	}
}

func TestMACInputExcludesMACField(t *testing.T) {
	d := sampleDescriptor()

	in := d.MACInput()
	if len(in) != Size-16 {
		t.Fatalf("MACInput length = %d, want %d", len(in), Size-16)
	}

	full, _ := d.MarshalBinary()
	for i, b := range in {
		if b != full[16+i] {
			t.Fatalf("MACInput[%d] = %#x, want %#x", i, b, full[16+i])
		}
	}
}

func TestModeBitfields(t *testing.T) {
	m := CipherCFB | NewKeyPresent

	if m.CipherMode() != CipherCFB {
		t.Fatalf("CipherMode() = %v, want CipherCFB", m.CipherMode())
	}
	if m.NewKeyMode() != NewKeyPresent {
		t.Fatalf("NewKeyMode() = %v, want NewKeyPresent", m.NewKeyMode())
	}
	if m.HasReservedBits() {
		t.Fatal("unexpected reserved bits set")
	}

	bad := m | 0x10
	if !bad.HasReservedBits() {
		t.Fatal("expected reserved bit to be detected")
	}
}

func TestIVUsesFirstEightBytes(t *testing.T) {
	d := sampleDescriptor()
	iv := d.IV()

	for i := 0; i < 8; i++ {
		if iv[i] != d.CipherIV[i] {
			t.Fatalf("IV()[%d] = %#x, want %#x", i, iv[i], d.CipherIV[i])
		}
	}
}
