//go:build !windows

package cache

import (
	"os"

	"github.com/google/renameio/v2"
)

// atomicWriteFile writes data to path without exposing partial content.
// renameio stages a temp file and renames it over the target.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
