// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package statefile writes and reads small CBOR state files atomically.
// The supervisor publishes its status through one after every poll, and
// `keeper status` reads it from another process.
//
// Writes go to a temporary file in the same directory, are fsynced,
// and are renamed into place, so a reader never sees a partial or
// corrupt state even if the writer dies mid-write.
package statefile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/keeper/lib/codec"
)

// Write atomically replaces the file at path with the CBOR encoding of
// v. The parent directory is created (mode 0700) if missing; the file
// is created with mode 0600.
func Write(path string, v any) error {
	data, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary state file: %w", err)
	}

	// Write, sync, close, in that order. If any step fails, remove the
	// temporary file and report the first error.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary state file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary state file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary state file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming state file into place: %w", err)
	}

	// Sync the directory so the rename survives a power loss.
	parentDirectory, err := os.Open(directory)
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}

	return nil
}

// Read decodes the state file at path into v. When the file does not
// exist, the returned error wraps os.ErrNotExist (testable with
// errors.Is).
func Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing state file %s: %w", path, err)
	}
	return nil
}
