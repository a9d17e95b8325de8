//go:build windows

package cache

import (
	"os"
	"path/filepath"
)

// atomicWriteFile writes data to path without exposing partial content.
// renameio has no Windows support, so stage a sibling temp file and
// rename it over the target; rename is atomic within a volume.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	staged := path + ".staging"
	if err := os.WriteFile(staged, data, perm); err != nil {
		return err
	}
	if err := os.Rename(staged, path); err != nil {
		os.Remove(staged)
		return err
	}
	return nil
}
