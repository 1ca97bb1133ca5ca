package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// IdentityMatch is the outcome of comparing a file with a recorded identity.
type IdentityMatch int

const (
	IdentityMatches IdentityMatch = iota
	IdentityHashMismatch
	IdentitySizeMismatch
	IdentityNotFound
)

// CaptureIdentity hashes the file at path and records its size and
// modification time. Size and hash come from the same open handle.
func CaptureIdentity(path string) (*FileIdentity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	sum, err := hashReader(f)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return &FileIdentity{ContentHash: sum, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// VerifyIdentity reports whether the file at path still matches expected.
// The cheap size comparison runs before hashing. A missing file is
// IdentityNotFound with a nil error.
func VerifyIdentity(path string, expected FileIdentity) (IdentityMatch, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return IdentityNotFound, nil
	}
	if err != nil {
		return IdentityNotFound, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return IdentityNotFound, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() != expected.Size {
		return IdentitySizeMismatch, nil
	}

	sum, err := hashReader(f)
	if err != nil {
		return IdentityNotFound, fmt.Errorf("hashing %s: %w", path, err)
	}
	if sum != expected.ContentHash {
		return IdentityHashMismatch, nil
	}
	return IdentityMatches, nil
}

func hashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
