// Package backup keeps a pristine copy of a save file next to it and
// identifies save contents by blake2b digest.
package backup

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// ErrMismatch is returned by Verify when the backup no longer matches the
// digest it was created with.
var ErrMismatch = errors.New("backup digest mismatch")

// Digest is a blake2b-256 sum of a save file's contents.
type Digest [blake2b.Size256]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Sum returns the digest of raw.
func Sum(raw []byte) Digest {
	return Digest(blake2b.Sum256(raw))
}

// FileDigest hashes the file at path.
func FileDigest(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return Digest{}, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return Digest{}, fmt.Errorf("hash %s: %w", path, err)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// Path returns where the backup of path lives.
func Path(path, suffix string) string {
	return path + suffix
}

// Exists reports whether a backup of path is present.
func Exists(path, suffix string) bool {
	_, err := os.Stat(Path(path, suffix))
	return err == nil
}

// Create copies path to its backup location and returns the digest of the
// copied bytes. An existing backup is left alone and its digest returned,
// so the backup always holds the oldest known state.
func Create(path, suffix string) (Digest, bool, error) {
	dst := Path(path, suffix)
	if Exists(path, suffix) {
		d, err := FileDigest(dst)
		return d, false, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, false, fmt.Errorf("read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Digest{}, false, err
	}
	if err := writeFile(dst, raw, info.Mode().Perm()); err != nil {
		return Digest{}, false, err
	}
	return Sum(raw), true, nil
}

// Verify checks that the backup still hashes to want.
func Verify(path, suffix string, want Digest) error {
	got, err := FileDigest(Path(path, suffix))
	if err != nil {
		return err
	}
	if !bytes.Equal(got[:], want[:]) {
		return fmt.Errorf("%w: got %s want %s", ErrMismatch, got, want)
	}
	return nil
}

// Restore copies the backup over path.
func Restore(path, suffix string) (Digest, error) {
	raw, err := os.ReadFile(Path(path, suffix))
	if err != nil {
		return Digest{}, fmt.Errorf("read backup: %w", err)
	}
	info, err := os.Stat(path)
	mode := os.FileMode(0o644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	if err := writeFile(path, raw, mode); err != nil {
		return Digest{}, err
	}
	return Sum(raw), nil
}

// writeFile writes through a temp file and rename so a crash never leaves
// a half-written copy.
func writeFile(path string, raw []byte, mode os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, mode); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
