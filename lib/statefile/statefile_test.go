// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statefile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sample struct {
	Status   string    `json:"status"`
	Attempts int       `json:"attempts"`
	PolledAt time.Time `json:"polled_at"`
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.cbor")
	state := sample{
		Status:   "cooling_down",
		Attempts: 2,
		PolledAt: time.Date(2026, 2, 10, 15, 30, 0, 0, time.UTC),
	}

	if err := Write(path, state); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got sample
	if err := Read(path, &got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Status != state.Status || got.Attempts != state.Attempts {
		t.Errorf("Read = %+v, want %+v", got, state)
	}
	if !got.PolledAt.Equal(state.PolledAt) {
		t.Errorf("PolledAt = %v, want %v", got.PolledAt, state.PolledAt)
	}
}

func TestWriteOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.cbor")

	if err := Write(path, sample{Status: "running"}); err != nil {
		t.Fatalf("Write first: %v", err)
	}
	if err := Write(path, sample{Status: "exhausted", Attempts: 3}); err != nil {
		t.Fatalf("Write second: %v", err)
	}

	var got sample
	if err := Read(path, &got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Status != "exhausted" || got.Attempts != 3 {
		t.Errorf("Read = %+v, want the second write", got)
	}
}

func TestWriteFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.cbor")
	if err := Write(path, sample{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if permissions := info.Mode().Perm(); permissions != 0600 {
		t.Errorf("permissions = %04o, want 0600", permissions)
	}
}

func TestWriteNoTemporaryFileLeftBehind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.cbor")
	if err := Write(path, sample{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temporary file still exists (stat error: %v)", err)
	}
}

func TestWriteCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "keeper", "status.cbor")
	if err := Write(path, sample{Status: "running"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got sample
	if err := Read(path, &got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Status != "running" {
		t.Errorf("Status = %q, want running", got.Status)
	}
}

func TestReadNonexistent(t *testing.T) {
	var got sample
	err := Read(filepath.Join(t.TempDir(), "absent.cbor"), &got)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Read error = %v, want os.ErrNotExist", err)
	}
}

func TestReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.cbor")
	if err := os.WriteFile(path, []byte{0xFF, 0xFE, 0xFD}, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var got sample
	err := Read(path, &got)
	if err == nil {
		t.Fatal("Read of corrupt file succeeded")
	}
	if errors.Is(err, os.ErrNotExist) {
		t.Errorf("corrupt file reported as missing")
	}
}
