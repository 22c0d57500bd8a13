package tables

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
)

// BytesToHex renders data as uppercase hex, two characters per byte.
func BytesToHex(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

// DecodeHex decodes a hex string of either case.
func DecodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", terrors.ErrEncoding, len(s))
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", terrors.ErrEncoding, err)
	}
	return data, nil
}

// SwapBytePairs reverses the order of the two-character groups of a hex
// string, turning a big-endian rendering into a little-endian one and back.
func SwapBytePairs(s string) (string, error) {
	if len(s)%2 != 0 {
		return "", fmt.Errorf("%w: cannot swap odd length %q", terrors.ErrEncoding, s)
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := len(s) - 2; i >= 0; i -= 2 {
		b.WriteString(s[i : i+2])
	}
	return b.String(), nil
}

// HexToFile decodes hexContent and writes the bytes to path. The write goes
// through a temporary file in the same directory followed by a rename, so a
// failed write never leaves a partial artifact behind.
func HexToFile(hexContent, path string, perm os.FileMode) error {
	data, err := DecodeHex(hexContent)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, perm)
}

// WriteFileAtomic writes data to path through a temporary file and rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("%w: %v", terrors.ErrIO, err)
	}
	tmpPath := tmp.Name()

	var writeErr error
	defer func() {
		if writeErr != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, writeErr = tmp.Write(data); writeErr != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %v", terrors.ErrIO, path, writeErr)
	}
	if writeErr = tmp.Sync(); writeErr != nil {
		tmp.Close()
		return fmt.Errorf("%w: syncing %s: %v", terrors.ErrIO, path, writeErr)
	}
	if writeErr = tmp.Close(); writeErr != nil {
		return fmt.Errorf("%w: closing %s: %v", terrors.ErrIO, path, writeErr)
	}
	if writeErr = os.Chmod(tmpPath, perm); writeErr != nil {
		return fmt.Errorf("%w: chmod %s: %v", terrors.ErrIO, path, writeErr)
	}
	if writeErr = os.Rename(tmpPath, path); writeErr != nil {
		return fmt.Errorf("%w: renaming into %s: %v", terrors.ErrIO, path, writeErr)
	}
	return nil
}
