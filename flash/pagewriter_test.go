// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package flash

import (
	"bytes"
	"testing"

	"github.com/michpro/cryptboot/internal/mmio"
)

func TestPageWriterCommitsIntoImage(t *testing.T) {
	w := NewPageWriter(mmio.NewBus(4), 16)

	w.Commit(4, []byte{1, 2, 3, 4})

	want := []byte{0, 0, 0, 0, 1, 2, 3, 4, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(w.Image(), want) {
		t.Fatalf("got %v, want %v", w.Image(), want)
	}
}

func TestPageWriterWithPageBuffer(t *testing.T) {
	w := NewPageWriter(mmio.NewBus(4), 16)
	pb := NewPageBuffer(w, 4, 0, 0xFF)

	pb.Write([]byte{1, 2, 3, 4, 5})
	pb.Flush()

	if !bytes.Equal(w.Image()[:5], []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("got %v", w.Image()[:5])
	}
}

func TestPageWriterLeavesStatusNotBusyAfterCommit(t *testing.T) {
	bus := mmio.NewBus(4)
	w := NewPageWriter(bus, 8)

	w.Commit(0, []byte{1, 2, 3, 4})

	if bus.Get(statusAddr, fbusy, 1) != 0 {
		t.Fatal("expected FBUSY clear once Commit returns")
	}
}
