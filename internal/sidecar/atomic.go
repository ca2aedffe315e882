// SPDX-License-Identifier: Apache-2.0

package sidecar

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// BackupSuffix names the copy of the previous sidecar kept next to it.
const BackupSuffix = ".bak"

const defaultPerm fs.FileMode = 0o644

// replaceSidecar swaps the sidecar at path for data. The sidecar being
// replaced is first copied to path+BackupSuffix and its permissions are
// kept. It reports whether a backup was written.
func replaceSidecar(path string, data []byte) (backedUp bool, err error) {
	perm := defaultPerm
	previous, err := os.ReadFile(path)
	switch {
	case err == nil:
		if info, statErr := os.Stat(path); statErr == nil {
			perm = info.Mode().Perm()
		}
		if err := renameInto(path+BackupSuffix, previous, perm); err != nil {
			return false, fmt.Errorf("back up previous sidecar: %w", err)
		}
		backedUp = true
	case errors.Is(err, fs.ErrNotExist):
	default:
		return false, fmt.Errorf("read previous sidecar: %w", err)
	}

	if err := renameInto(path, data, perm); err != nil {
		return backedUp, err
	}
	return backedUp, nil
}

// renameInto writes data to a hidden temp file in the target directory and
// renames it over target. Readers see either the old or the new content.
func renameInto(target string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	done := false
	defer func() {
		if !done {
			_ = tmp.Close()
			_ = os.Remove(name)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(name, target); err != nil {
		_ = os.Remove(name)
		done = true
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	done = true
	return nil
}
