// cryptboot - secure firmware loader
// https://github.com/michpro/cryptboot
//
// Copyright (c) Michal Protasowicki
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/michpro/cryptboot/policy"
)

const sampleYAML = `
boot_section_size: 8192
device_address: 0xA0
page_size: 64
cipher_rounds: 32
mac_rounds: 32
downgrade_allowed: false
big_firmware: false
`

func writeSample(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidManifest(t *testing.T) {
	path := writeSample(t, sampleYAML)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.PageSize != 64 {
		t.Fatalf("PageSize = %d, want 64", c.PageSize)
	}
	if c.Rollback() != policy.DefaultRollback {
		t.Fatal("expected DefaultRollback when downgrade_allowed is false")
	}
}

func TestRollbackSwitchesOnDowngradeAllowed(t *testing.T) {
	path := writeSample(t, strings.Replace(sampleYAML, "downgrade_allowed: false", "downgrade_allowed: true", 1))

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Rollback() != policy.DowngradeAllowed {
		t.Fatal("expected DowngradeAllowed when downgrade_allowed is true")
	}
}

func TestLoadRejectsZeroPageSize(t *testing.T) {
	path := writeSample(t, `
boot_section_size: 8192
device_address: 0xA0
page_size: 0
cipher_rounds: 32
mac_rounds: 32
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a zero page size")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeSample(t, sampleYAML+"typo_field: true\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unrecognized manifest field")
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
